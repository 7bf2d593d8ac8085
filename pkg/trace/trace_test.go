package trace_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/trace"
)

const sampleLog = `1, main, start, 2024-01-02 10:00:00.000000
2, helper, start, 2024-01-02 10:00:00.001000
2, helper, stop, 2024-01-02 10:00:00.003500

2, helper, start, 2024-01-02 10:00:00.004000
2, helper, stop, 2024-01-02 10:00:00.005000
1, main, stop, 2024-01-02 10:00:00.010000
`

func TestParse(t *testing.T) {
	events, err := trace.Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 6 {
		t.Fatalf("got %d events, want 6", len(events))
	}
	e := events[1]
	if e.FunctionID != 2 || e.FunctionName != "helper" || e.Event != "start" {
		t.Errorf("event = %+v", e)
	}
	if e.Time.Nanosecond() != int(time.Millisecond) {
		t.Errorf("fractional seconds lost: %v", e.Time)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		log  string
	}{
		{"fields", "1, f, start\n"},
		{"id", "x, f, start, 2024-01-02 10:00:00.000000\n"},
		{"event", "1, f, begin, 2024-01-02 10:00:00.000000\n"},
		{"timestamp", "1, f, start, yesterday\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := trace.Parse(strings.NewReader(tt.log)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	events, err := trace.Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	r := trace.Aggregate(events)
	if len(r.Stats) != 2 || r.Stats[0].Name != "main" || r.Stats[1].Name != "helper" {
		t.Fatalf("stats = %+v, want main then helper", r.Stats)
	}
	helper := r.Stats[1]
	if helper.Calls != 2 {
		t.Errorf("helper calls = %d, want 2", helper.Calls)
	}
	if helper.TotalMs() != 3.5 || helper.AverageMs() != 1.75 {
		t.Errorf("helper total = %v, avg = %v", helper.TotalMs(), helper.AverageMs())
	}
}

func TestAggregateRecursion(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }
	events := []trace.Event{
		{FunctionName: "fact", Event: "start", Time: at(0)},
		{FunctionName: "fact", Event: "start", Time: at(1)},
		{FunctionName: "fact", Event: "stop", Time: at(3)},
		{FunctionName: "fact", Event: "stop", Time: at(10)},
		{FunctionName: "orphan", Event: "stop", Time: at(11)},
	}
	r := trace.Aggregate(events)
	if r.Stats[0].Calls != 2 || r.Stats[0].TotalMs() != 12 {
		t.Errorf("fact = %+v (total %v ms), want 2 calls, 12 ms", r.Stats[0], r.Stats[0].TotalMs())
	}
	if r.Stats[1].Calls != 0 || r.Stats[1].AverageMs() != 0 {
		t.Errorf("orphan = %+v", r.Stats[1])
	}
}

func TestRender(t *testing.T) {
	r := &trace.Report{Stats: []trace.Stat{
		{Name: "a_rather_long_function", Calls: 2, Total: 3500 * time.Microsecond},
		{Name: "f", Calls: 1, Total: time.Millisecond},
	}}
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatal(err)
	}
	want := "" +
		"|    Function Name       | Num. of calls  |  Total Time (ms) |  Average Time (ms)  |\n" +
		"|------------------------|----------------|------------------|---------------------|\n" +
		"| a_rather_long_function | 2              | 3.500            | 1.750               |\n" +
		"| f                      | 1              | 1.000            | 1.000               |\n"
	if buf.String() != want {
		t.Errorf("Render mismatch\n--- got ---\n%s--- want ---\n%s", buf.String(), want)
	}
}

func TestRenderShortNames(t *testing.T) {
	r := &trace.Report{Stats: []trace.Stat{{Name: "f", Calls: 0}}}
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if lines[0] != "|Function Name  | Num. of calls  |  Total Time (ms) |  Average Time (ms)  |" {
		t.Errorf("header = %q", lines[0])
	}
	for _, line := range lines {
		if len(line) != len(lines[0]) {
			t.Errorf("line %q is %d wide, want %d", line, len(line), len(lines[0]))
		}
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.Local)
	w.Record(evaluator.TraceEvent{FunctionID: 3, FunctionName: "name, with comma", Event: evaluator.TraceStart, Time: ts})
	w.Record(evaluator.TraceEvent{FunctionID: 3, FunctionName: "name, with comma", Event: evaluator.TraceStop, Time: ts.Add(time.Millisecond)})
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	events, err := trace.Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].FunctionName != "name, with comma" || !events[0].Time.Equal(ts) {
		t.Fatalf("events = %+v", events)
	}
	r := trace.Aggregate(events)
	if r.Stats[0].Calls != 1 || r.Stats[0].TotalMs() != 1 {
		t.Errorf("stats = %+v", r.Stats)
	}
}

func TestReportJSON(t *testing.T) {
	r := &trace.Report{Stats: []trace.Stat{{Name: "f", Calls: 2, Total: 3 * time.Millisecond}}}
	b, err := r.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name":"f"`, `"calls":2`, `"totalMs":3`, `"averageMs":1.5`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("JSON %s missing %s", b, want)
		}
	}
}
