package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

// format resolves the output format. Without a flag, terminals get a table
// and pipes get JSON.
func (a *app) format(w io.Writer) (string, error) {
	switch a.output {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return a.output, nil
	case "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return OutputFormatTable, nil
		}
		return OutputFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", a.output)
	}
}

// render writes data in the selected format. table is only called for the
// table format.
func (a *app) render(w io.Writer, data any, table func(t *tablewriter.Table)) error {
	format, err := a.format(w)
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return encoder.Close()
	default:
		t := tablewriter.NewWriter(w)
		table(t)
		return t.Render()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
