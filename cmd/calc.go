package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetco2/core/emissions"
	"github.com/kilianp07/fleetco2/pkg/export"
)

func newCalcCmd() *cobra.Command {
	var (
		reqPath string
		format  string
		byFuel  bool
	)
	c := &cobra.Command{
		Use:   "calc",
		Short: "Calculate emissions for a request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unsupported format %q", format)
			}
			req, err := loadRequest(reqPath)
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return err
			}
			res, err := emissions.NewCalculator(emissions.DefaultFactors()).Calculate(req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case byFuel && format == "csv":
				return export.WriteBreakdownCSV(out, emissions.BreakdownByFuel(res))
			case byFuel:
				return export.WriteJSON(out, emissions.BreakdownByFuel(res))
			case format == "csv":
				return export.WriteCSV(out, res)
			default:
				return export.WriteJSON(out, res)
			}
		},
	}
	c.Flags().StringVarP(&reqPath, "file", "f", "", "request file (json or yaml)")
	c.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	c.Flags().BoolVar(&byFuel, "by-fuel", false, "print totals grouped by fuel type")
	_ = c.MarkFlagRequired("file")
	return c
}

// loadRequest reads a calculation request. JSON input rejects unknown fields.
func loadRequest(path string) (emissions.Request, error) {
	var req emissions.Request
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return req, err
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return req, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return req, fmt.Errorf("read %s: %w", path, err)
		}
		if err := k.UnmarshalWithConf("", &req, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
			return req, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return req, fmt.Errorf("unsupported request format: %s", filepath.Ext(path))
	}
	return req, nil
}
