package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ReplayLog replays resolution rows from a JSONL log r to writer. A speed >0
// paces playback by the recorded timestamps, divided by speed. If speed <= 0,
// no artificial delay is inserted.
func ReplayLog(r io.Reader, writer Writer, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var row ResolutionRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("decode resolution %d: %w", n+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteResolution(row); err != nil {
			return n, err
		}
		n++
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its resolution rows.
func ReplayLogFile(path string, writer Writer, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open replay log: %w", err)
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
