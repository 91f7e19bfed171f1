package metrics

import (
	"fmt"

	"github.com/kilianp07/fleetco2/core/factory"
	coremetrics "github.com/kilianp07/fleetco2/core/metrics"
	"github.com/kilianp07/fleetco2/infra/mqtt"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterSink("nop", func(map[string]any) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.Sink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" || c.Bucket == "" {
			return nil, fmt.Errorf("influx sink requires url and bucket")
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterSink("mqtt", func(conf map[string]any) (coremetrics.Sink, error) {
		var c mqtt.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		pub, err := mqtt.NewPublisher(c, nil)
		if err != nil {
			return nil, err
		}
		return NewMQTTSink(pub), nil
	})

	_ = coremetrics.RegisterSink("webhook", func(conf map[string]any) (coremetrics.Sink, error) {
		var c WebhookConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewWebhookSink(c)
	})
}
