package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var SupportedOutputFormats = []string{FormatTable, FormatJSON, FormatYAML}

// OutputFormatter renders rows either as table or as list of objects (JSON/YAML).
// Object keys are the lower-case header names.
type OutputFormatter struct {
	header []string
	data   [][]string
	format string
}

func NewOutputFormatter(format string) (*OutputFormatter, error) {
	for _, supportedFormat := range SupportedOutputFormats {
		if supportedFormat == format {
			return &OutputFormatter{
				format: format,
			}, nil
		}
	}
	return nil, fmt.Errorf("Output format '%s' is not supported: please choose between '%s'",
		format, strings.Join(SupportedOutputFormats, "', '"))
}

func (of *OutputFormatter) Header(header ...string) error {
	for _, row := range of.data {
		if err := of.columnCheck(len(row), len(header)); err != nil {
			return err
		}
	}
	of.header = header
	return nil
}

func (of *OutputFormatter) AddRow(data ...string) error {
	if of.header != nil {
		if err := of.columnCheck(len(data), len(of.header)); err != nil {
			return err
		}
	}
	of.data = append(of.data, data)
	return nil
}

func (of *OutputFormatter) columnCheck(columnCnt, headerCnt int) error {
	if columnCnt != headerCnt {
		return fmt.Errorf("Header count differs with column count: %d != %d", headerCnt, columnCnt)
	}
	return nil
}

func (of *OutputFormatter) Output(writer io.Writer) error {
	switch of.format {
	case FormatJSON:
		return of.marshal(writer, func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		})
	case FormatYAML:
		return of.marshal(writer, yaml.Marshal)
	default:
		of.tableOutput(writer)
		return nil
	}
}

func (of *OutputFormatter) marshal(writer io.Writer, marshalFct func(interface{}) ([]byte, error)) error {
	data, err := of.serializeableData()
	if err != nil {
		return err
	}
	result, err := marshalFct(data)
	if err != nil {
		return err
	}
	if _, err := writer.Write(result); err != nil {
		return err
	}
	if of.format == FormatJSON {
		_, err = io.WriteString(writer, "\n")
	}
	return err
}

func (of *OutputFormatter) tableOutput(writer io.Writer) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(of.header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(of.data)
	table.Render()
}

func (of *OutputFormatter) serializeableData() ([]map[string]string, error) {
	if len(of.header) == 0 {
		return nil, fmt.Errorf("No headers defined: cannot convert data to map")
	}
	data := []map[string]string{}
	for _, dataRow := range of.data {
		dataTuple := make(map[string]string, len(of.header))
		for idxCol, hdr := range of.header {
			dataTuple[strings.ToLower(hdr)] = dataRow[idxCol]
		}
		data = append(data, dataTuple)
	}
	return data, nil
}
