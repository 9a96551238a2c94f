package journal

// Writer accepts journal rows of every kind.
type Writer interface {
	WriteEvent(row EventRow) error
	WriteAlert(row AlertRow) error
	WriteResolution(row ResolutionRow) error
}

// eventBatchWriter is implemented by writers that can store many deck rows at once.
type eventBatchWriter interface {
	WriteEvents(rows []EventRow) error
}

// alertBatchWriter is implemented by writers that can store many alerts at once.
type alertBatchWriter interface {
	WriteAlerts(rows []AlertRow) error
}

// WriteEvents sends rows to w, batching when w supports it.
func WriteEvents(w Writer, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(eventBatchWriter); ok {
		return bw.WriteEvents(rows)
	}
	for _, r := range rows {
		if err := w.WriteEvent(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlerts sends rows to w, batching when w supports it.
func WriteAlerts(w Writer, rows []AlertRow) error {
	if len(rows) == 0 {
		return nil
	}
	if bw, ok := w.(alertBatchWriter); ok {
		return bw.WriteAlerts(rows)
	}
	for _, r := range rows {
		if err := w.WriteAlert(r); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops every row.
type Discard struct{}

func (Discard) WriteEvent(EventRow) error           { return nil }
func (Discard) WriteAlert(AlertRow) error           { return nil }
func (Discard) WriteResolution(ResolutionRow) error { return nil }
