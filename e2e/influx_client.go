// Package e2e holds container-backed end-to-end tests of the service and
// its observability sinks.
package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxClient reads back what the service wrote to InfluxDB.
type InfluxClient struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxClient creates a client for a running server.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{org: org, bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// Ready reports whether the server passes its health check.
func (c *InfluxClient) Ready(ctx context.Context) bool {
	h, err := c.client.Health(ctx)
	return err == nil && h != nil && h.Status == "pass"
}

// FieldValues returns every value of field in measurement written during
// the last hour, optionally filtered by one tag.
func (c *InfluxClient) FieldValues(ctx context.Context, measurement, field, tag, tagValue string) ([]any, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start:-1h) |> filter(fn:(r) => r._measurement == %q and r._field == %q)`,
		c.bucket, measurement, field)
	if tag != "" {
		flux += fmt.Sprintf(` |> filter(fn:(r) => r[%q] == %q)`, tag, tagValue)
	}
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	var out []any
	for res.Next() {
		out = append(out, res.Record().Value())
	}
	return out, res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
