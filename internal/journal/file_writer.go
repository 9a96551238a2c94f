package journal

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileWriter writes each journal stream to its own JSONL file.
type FileWriter struct {
	files   []*os.File
	events  *json.Encoder
	alerts  *json.Encoder
	results *json.Encoder
}

// NewFileWriter creates a FileWriter. Any path may be empty to skip that stream.
func NewFileWriter(eventsPath, alertsPath, resolutionsPath string) (*FileWriter, error) {
	fw := &FileWriter{}
	open := func(path string) (*json.Encoder, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Create(path)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("create journal file %s: %w", path, err)
		}
		fw.files = append(fw.files, f)
		return json.NewEncoder(f), nil
	}
	var err error
	if fw.events, err = open(eventsPath); err != nil {
		return nil, err
	}
	if fw.alerts, err = open(alertsPath); err != nil {
		return nil, err
	}
	if fw.results, err = open(resolutionsPath); err != nil {
		return nil, err
	}
	return fw, nil
}

// WriteEvent logs a deck row, if enabled.
func (f *FileWriter) WriteEvent(row EventRow) error {
	if f.events == nil {
		return nil
	}
	return f.events.Encode(row)
}

// WriteEvents logs multiple deck rows.
func (f *FileWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		if err := f.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlert logs an alert row, if enabled.
func (f *FileWriter) WriteAlert(row AlertRow) error {
	if f.alerts == nil {
		return nil
	}
	return f.alerts.Encode(row)
}

// WriteResolution logs a resolution row, if enabled.
func (f *FileWriter) WriteResolution(row ResolutionRow) error {
	if f.results == nil {
		return nil
	}
	return f.results.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range f.files {
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	f.files = nil
	return err
}
