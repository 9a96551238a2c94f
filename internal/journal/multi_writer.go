package journal

import "errors"

// MultiWriter fans rows out to several writers. Every writer sees every row
// even when an earlier one fails; the errors are joined.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends a writer.
func (mw *MultiWriter) Add(w Writer) { mw.writers = append(mw.writers, w) }

// Len reports how many writers are attached.
func (mw *MultiWriter) Len() int { return len(mw.writers) }

func (mw *MultiWriter) each(fn func(Writer) error) error {
	var errs []error
	for _, w := range mw.writers {
		if err := fn(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEvent sends a deck row to all writers.
func (mw *MultiWriter) WriteEvent(row EventRow) error {
	return mw.each(func(w Writer) error { return w.WriteEvent(row) })
}

// WriteEvents sends deck rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []EventRow) error {
	return mw.each(func(w Writer) error { return WriteEvents(w, rows) })
}

// WriteAlert sends an alert row to all writers.
func (mw *MultiWriter) WriteAlert(row AlertRow) error {
	return mw.each(func(w Writer) error { return w.WriteAlert(row) })
}

// WriteAlerts sends alert rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteAlerts(rows []AlertRow) error {
	return mw.each(func(w Writer) error { return WriteAlerts(w, rows) })
}

// WriteResolution sends a resolution row to all writers.
func (mw *MultiWriter) WriteResolution(row ResolutionRow) error {
	return mw.each(func(w Writer) error { return w.WriteResolution(row) })
}

// Close closes every writer that implements io.Closer.
func (mw *MultiWriter) Close() error {
	return mw.each(func(w Writer) error {
		if c, ok := w.(interface{ Close() error }); ok {
			return c.Close()
		}
		return nil
	})
}
