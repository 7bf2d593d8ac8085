// Package trace writes function call trace logs and aggregates them into
// per-function timing reports.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// TimeLayout is the timestamp format of trace log rows.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Event is one row of a trace log.
type Event struct {
	FunctionID   int64     `json:"functionId"`
	FunctionName string    `json:"functionName"`
	Event        string    `json:"event"`
	Time         time.Time `json:"time"`
}

// Writer appends trace rows to a log. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	csv *csv.Writer
	err error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Record writes one evaluator event. Its signature matches ExecOptions.Trace.
// The first write error is kept and returned by Flush.
func (w *Writer) Record(e evaluator.TraceEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	w.err = w.csv.Write([]string{
		strconv.FormatInt(e.FunctionID, 10),
		e.FunctionName,
		string(e.Event),
		e.Time.Format(TimeLayout),
	})
}

// Flush writes buffered rows and reports the first error seen.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if w.err != nil {
		return w.err
	}
	return w.csv.Error()
}

// Parse reads a trace log. Blank lines are skipped; fields may be padded
// with spaces.
func Parse(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var events []Event
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		line, _ := cr.FieldPos(0)
		ev, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", line, err)
		}
		events = append(events, ev)
	}
}

func parseRecord(rec []string) (Event, error) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("invalid function id %q", rec[0])
	}
	switch rec[2] {
	case string(evaluator.TraceStart), string(evaluator.TraceStop):
	default:
		return Event{}, fmt.Errorf("invalid event %q, want start or stop", rec[2])
	}
	ts, err := time.ParseInLocation(TimeLayout, rec[3], time.Local)
	if err != nil {
		// Accept other common layouts, e.g. logs written by other tools.
		if ts, err = dateparse.ParseIn(rec[3], time.Local); err != nil {
			return Event{}, fmt.Errorf("invalid timestamp %q: %w", rec[3], err)
		}
	}
	return Event{FunctionID: id, FunctionName: rec[1], Event: rec[2], Time: ts}, nil
}
