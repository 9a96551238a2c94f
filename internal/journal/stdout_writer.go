package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONStdoutWriter prints journal rows as tagged JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// NewJSONWriter creates a JSONStdoutWriter writing to out.
func NewJSONWriter(out io.Writer) *JSONStdoutWriter {
	return &JSONStdoutWriter{out: out}
}

type taggedRow struct {
	Kind Kind `json:"kind"`
	Row  any  `json:"row"`
}

func (w *JSONStdoutWriter) emit(kind Kind, row any) error {
	data, err := json.Marshal(taggedRow{Kind: kind, Row: row})
	if err != nil {
		return fmt.Errorf("encode %s row: %w", kind, err)
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteEvent outputs a deck row in JSON format.
func (w *JSONStdoutWriter) WriteEvent(row EventRow) error { return w.emit(KindEvent, row) }

// WriteAlert outputs an alert row in JSON format.
func (w *JSONStdoutWriter) WriteAlert(row AlertRow) error { return w.emit(KindAlert, row) }

// WriteResolution outputs a resolution row in JSON format.
func (w *JSONStdoutWriter) WriteResolution(row ResolutionRow) error {
	return w.emit(KindResolution, row)
}
