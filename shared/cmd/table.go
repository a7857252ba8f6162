package cmd

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"
)

// Table list format.
const (
	TableFormatCSV     = "csv"
	TableFormatTable   = "table"
	TableFormatCompact = "compact"
	TableFormatYAML    = "yaml"
)

// TableFormats lists the supported formats.
var TableFormats = []string{TableFormatTable, TableFormatCompact, TableFormatCSV, TableFormatYAML}

// RenderTable renders tabular data in various formats. The YAML format
// renders raw instead of the rows.
func RenderTable(w io.Writer, format string, header []string, data [][]string, raw any) error {
	switch format {
	case TableFormatTable:
		table := getBaseTable(w, header, data)
		table.SetRowLine(true)
		table.Render()
	case TableFormatCompact:
		table := getBaseTable(w, header, data)
		table.SetColumnSeparator("")
		table.SetHeaderLine(false)
		table.SetBorder(false)
		table.Render()
	case TableFormatCSV:
		out := csv.NewWriter(w)
		err := out.WriteAll(data)
		if err != nil {
			return err
		}

		out.Flush()
		return out.Error()
	case TableFormatYAML:
		out, err := yaml.Marshal(raw)
		if err != nil {
			return err
		}

		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("Invalid format %q", format)
	}

	return nil
}

func getBaseTable(w io.Writer, header []string, data [][]string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(data)
	return table
}
