package trace

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/mattn/go-runewidth"
	"github.com/oarkflow/json"

	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

const nameHeader = "Function Name"

// Stat aggregates the completed calls of one function name.
type Stat struct {
	Name  string        `json:"name"`
	Calls int           `json:"calls"`
	Total time.Duration `json:"-"`
}

// TotalMs returns the summed call time in milliseconds.
func (s Stat) TotalMs() float64 {
	return float64(s.Total) / float64(time.Millisecond)
}

// AverageMs returns the mean call time in milliseconds, 0 without calls.
func (s Stat) AverageMs() float64 {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalMs() / float64(s.Calls)
}

// Report holds per-function statistics in first-seen order.
type Report struct {
	Stats []Stat
}

type accumulator struct {
	stat   Stat
	starts []time.Time
}

// Aggregate pairs start and stop events per function name. Nested calls of
// the same name (recursion) are matched innermost first; a stop without a
// start is ignored.
func Aggregate(events []Event) *Report {
	byName := linkedhashmap.New()
	for _, ev := range events {
		var acc *accumulator
		if v, ok := byName.Get(ev.FunctionName); ok {
			acc = v.(*accumulator)
		} else {
			acc = &accumulator{stat: Stat{Name: ev.FunctionName}}
			byName.Put(ev.FunctionName, acc)
		}
		switch ev.Event {
		case string(evaluator.TraceStart):
			acc.starts = append(acc.starts, ev.Time)
		case string(evaluator.TraceStop):
			n := len(acc.starts)
			if n == 0 {
				continue
			}
			acc.stat.Total += ev.Time.Sub(acc.starts[n-1])
			acc.stat.Calls++
			acc.starts = acc.starts[:n-1]
		}
	}

	r := &Report{Stats: make([]Stat, 0, byName.Size())}
	for _, v := range byName.Values() {
		r.Stats = append(r.Stats, v.(*accumulator).stat)
	}
	return r
}

// nameWidth is the width of the name column: the widest name, at least as
// wide as the header.
func (r *Report) nameWidth() int {
	w := runewidth.StringWidth(nameHeader)
	for _, s := range r.Stats {
		if n := runewidth.StringWidth(s.Name); n > w {
			w = n
		}
	}
	return w
}

// Render writes the report as a fixed-width table.
func (r *Report) Render(out io.Writer) error {
	w := r.nameWidth()
	left := (w - len(nameHeader)) / 2
	// The header cell has no leading space, so it takes one more on the right.
	right := w - len(nameHeader) - left + 1

	var sb strings.Builder
	fmt.Fprintf(&sb, "|%s%s%s | Num. of calls  |  Total Time (ms) |  Average Time (ms)  |\n",
		strings.Repeat(" ", left), nameHeader, strings.Repeat(" ", right))
	fmt.Fprintf(&sb, "|%s|----------------|------------------|---------------------|\n",
		strings.Repeat("-", w+2))
	for _, s := range r.Stats {
		fmt.Fprintf(&sb, "| %s | %-14d | %-16.3f | %-19.3f |\n",
			runewidth.FillRight(s.Name, w), s.Calls, s.TotalMs(), s.AverageMs())
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

type jsonStat struct {
	Name      string  `json:"name"`
	Calls     int     `json:"calls"`
	TotalMs   float64 `json:"totalMs"`
	AverageMs float64 `json:"averageMs"`
}

// MarshalJSON renders the report as a JSON array of per-function rows.
func (r *Report) MarshalJSON() ([]byte, error) {
	rows := make([]jsonStat, len(r.Stats))
	for i, s := range r.Stats {
		rows[i] = jsonStat{Name: s.Name, Calls: s.Calls, TotalMs: s.TotalMs(), AverageMs: s.AverageMs()}
	}
	return json.Marshal(rows)
}
