package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lucky89144/DataHawk/internal/model"
)

// Format is an output file format.
type Format string

const (
	// FormatTXT writes human readable blocks separated by dashes.
	FormatTXT Format = "txt"
	// FormatCSV writes data,source_url,scraped_at rows without a header.
	FormatCSV Format = "csv"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// ErrInvalidFormat is returned by ParseFormat for unknown formats.
var ErrInvalidFormat = errors.New("invalid output format: must be txt, csv or json")

// separator terminates every txt record.
var separator = strings.Repeat("-", 40)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTXT, FormatCSV, FormatJSON}
}

// ParseFormat parses a format name case-insensitively.
// "jsonl" is accepted as an alias of json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatTXT, nil
	case "csv":
		return FormatCSV, nil
	case "json", "jsonl":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Encode renders one finding as a complete record, including its trailing
// newline.
func (f Format) Encode(finding model.Finding) ([]byte, error) {
	switch f {
	case FormatTXT:
		return encodeTXT(finding), nil
	case FormatCSV:
		return encodeCSV(finding)
	case FormatJSON:
		return encodeJSON(finding)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, string(f))
	}
}

func encodeTXT(f model.Finding) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Data: %s\n", f.Data)
	fmt.Fprintf(&buf, "Source URL: %s\n", f.SourceURL)
	fmt.Fprintf(&buf, "Scraped At: %s\n", f.Timestamp())
	buf.WriteString(separator)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func encodeCSV(f model.Finding) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{f.Data, f.SourceURL, f.Timestamp()}); err != nil {
		return nil, fmt.Errorf("failed to encode csv record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode csv record: %w", err)
	}
	return buf.Bytes(), nil
}

// jsonRecord fixes the field names and order of json-lines output.
type jsonRecord struct {
	Data      string `json:"data"`
	SourceURL string `json:"source_url"`
	ScrapedAt string `json:"scraped_at"`
}

func encodeJSON(f model.Finding) ([]byte, error) {
	line, err := json.Marshal(jsonRecord{
		Data:      f.Data,
		SourceURL: f.SourceURL,
		ScrapedAt: f.Timestamp(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode json record: %w", err)
	}
	return append(line, '\n'), nil
}
