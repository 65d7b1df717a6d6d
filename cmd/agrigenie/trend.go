package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AgriGenie/internal/model"
	"AgriGenie/internal/trend"
)

func (a *app) trendCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compute a trend from raw records (newest first)",
		Long: `Reads a JSON array of raw market records, or an object with a
"records" array, from --file or stdin and prints the trend result as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open records: %w", err)
				}
				defer f.Close()
				in = f
			}
			return a.runTrend(in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "records file (default stdin)")
	return cmd
}

func (a *app) runTrend(in io.Reader, out io.Writer) error {
	raw, err := decodeRecords(in)
	if err != nil {
		return err
	}
	records := trend.Normalize(raw)
	a.logger.Debug("records normalised", zap.Int("raw", len(raw)), zap.Int("records", len(records)))
	return writeJSON(out, trend.Compute(records))
}

// decodeRecords accepts either a bare array or {"records": [...]}.
func decodeRecords(in io.Reader) ([]model.RawRecord, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var env struct {
			Records json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		data = bytes.TrimSpace(env.Records)
	}
	if len(data) == 0 || data[0] != '[' {
		return nil, errors.New("records must be a JSON array")
	}

	var raw []model.RawRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return raw, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
