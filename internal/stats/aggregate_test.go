package stats

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/davidkarnowski/HustleYourCity/internal/export"
)

var aggT0 = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// The canonical three-record example: a fresh closed Graffiti case, an open
// ten-day-old Graffiti case, and an ancient closed Pothole case.
func scenarioRecords() []ServiceRequest {
	raw := []export.Record{
		{CaseID: "A", CaseType: "Graffiti", Status: "Closed", Created: stamp(aggT0.Add(-2 * time.Hour)), Closed: stamp(aggT0.Add(-1 * time.Hour))},
		{CaseID: "B", CaseType: "Graffiti", Status: "New", Created: stamp(aggT0.Add(-10 * 24 * time.Hour))},
		{CaseID: "C", CaseType: "Pothole", Status: "Closed", Created: stamp(aggT0.Add(-200 * 24 * time.Hour)), Closed: stamp(aggT0.Add(-199 * 24 * time.Hour))},
	}
	return NormalizeAll(raw)
}

func TestSummarizeScenario(t *testing.T) {
	run := Summarize(scenarioRecords(), aggT0)

	if run.TotalRecords != 3 {
		t.Fatalf("TotalRecords = %d, want 3", run.TotalRecords)
	}
	if run.MalformedRecords != 0 {
		t.Fatalf("MalformedRecords = %d, want 0", run.MalformedRecords)
	}

	fourHours := run.Windows["4_hours"]
	if fourHours.Total != 1 {
		t.Errorf("4_hours total = %d, want 1", fourHours.Total)
	}
	if len(fourHours.CaseTypes) != 1 {
		t.Fatalf("4_hours case types = %d, want 1", len(fourHours.CaseTypes))
	}
	graffiti4h := fourHours.CaseTypes["Graffiti"]
	if graffiti4h == nil {
		t.Fatal("4_hours missing Graffiti")
	}
	if !graffiti4h.AvgResponseHours.Known || graffiti4h.AvgResponseHours.Hours != 1.0 {
		t.Errorf("4_hours Graffiti avg = %+v, want known 1.0", graffiti4h.AvgResponseHours)
	}

	thirty := run.Windows["30_days"]
	if thirty.Total != 2 {
		t.Errorf("30_days total = %d, want 2", thirty.Total)
	}
	graffiti30 := thirty.CaseTypes["Graffiti"]
	if graffiti30 == nil || graffiti30.Count != 2 {
		t.Fatalf("30_days Graffiti = %+v, want count 2", graffiti30)
	}
	// Only the closed record contributes to the average.
	if !graffiti30.AvgResponseHours.Known || graffiti30.AvgResponseHours.Hours != 1.0 {
		t.Errorf("30_days Graffiti avg = %+v, want known 1.0", graffiti30.AvgResponseHours)
	}
	if graffiti30.StatusBreakdown["Closed"] != 1 || graffiti30.StatusBreakdown["New"] != 1 {
		t.Errorf("30_days Graffiti breakdown = %v, want Closed:1 New:1", graffiti30.StatusBreakdown)
	}
	if _, ok := thirty.CaseTypes["Pothole"]; ok {
		t.Error("30_days unexpectedly contains Pothole")
	}

	allTime := run.Windows["all_time"]
	if allTime.Total != 3 {
		t.Errorf("all_time total = %d, want 3", allTime.Total)
	}
	pothole := allTime.CaseTypes["Pothole"]
	if pothole == nil || pothole.Count != 1 {
		t.Fatalf("all_time Pothole = %+v, want count 1", pothole)
	}
	if !pothole.AvgResponseHours.Known || pothole.AvgResponseHours.Hours != 24.0 {
		t.Errorf("all_time Pothole avg = %+v, want known 24.0", pothole.AvgResponseHours)
	}
	if _, ok := run.Windows["90_days"].CaseTypes["Pothole"]; ok {
		t.Error("90_days unexpectedly contains Pothole")
	}
}

func TestSummarizeDeterministicAcrossInputOrder(t *testing.T) {
	records := scenarioRecords()
	reversed := make([]ServiceRequest, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	a, err := json.MarshalIndent(Summarize(records, aggT0), "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.MarshalIndent(Summarize(reversed, aggT0), "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("summaries differ across input orderings")
	}
}

func TestSummarizeStatusCaseFolding(t *testing.T) {
	raw := []export.Record{
		{CaseID: "A1", CaseType: "Graffiti", Status: "Closed", Created: stamp(aggT0.Add(-time.Hour))},
		{CaseID: "A2", CaseType: "Graffiti", Status: "closed", Created: stamp(aggT0.Add(-time.Hour))},
		{CaseID: "A3", CaseType: "Graffiti", Status: "CLOSED", Created: stamp(aggT0.Add(-time.Hour))},
	}
	run := Summarize(NormalizeAll(raw), aggT0)

	breakdown := run.Windows["all_time"].CaseTypes["Graffiti"].StatusBreakdown
	if len(breakdown) != 1 {
		t.Fatalf("breakdown has %d keys (%v), want 1", len(breakdown), breakdown)
	}
	// First occurrence in caseId order fixes the display casing.
	if breakdown["Closed"] != 3 {
		t.Errorf("breakdown[Closed] = %d, want 3", breakdown["Closed"])
	}
}

func TestSummarizeMalformedAccounting(t *testing.T) {
	raw := []export.Record{
		{CaseID: "A", CaseType: "Graffiti", Status: "New", Created: stamp(aggT0.Add(-time.Hour))},
		// no created: excluded from windows
		{CaseID: "B", CaseType: "Graffiti", Status: "New"},
		// counted, no duration
		{CaseID: "C", CaseType: "Graffiti", Status: "Closed", Created: stamp(aggT0.Add(-time.Hour)), Closed: "garbled"},
		// inverted pair: counted, no duration
		{CaseID: "D", CaseType: "Graffiti", Status: "Closed", Created: stamp(aggT0.Add(-time.Hour)), Closed: stamp(aggT0.Add(-2 * time.Hour))},
	}
	run := Summarize(NormalizeAll(raw), aggT0)

	if run.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", run.TotalRecords)
	}
	if run.MalformedRecords != 3 {
		t.Errorf("MalformedRecords = %d, want 3", run.MalformedRecords)
	}
	if run.MalformedRecords > run.TotalRecords {
		t.Error("malformed exceeds total")
	}
	if got := run.Windows["all_time"].Total; got != 3 {
		t.Errorf("all_time total = %d, want 3 (record without created excluded)", got)
	}
	graffiti := run.Windows["all_time"].CaseTypes["Graffiti"]
	if graffiti.AvgResponseHours.Known {
		t.Errorf("avg = %+v, want no data (no usable durations)", graffiti.AvgResponseHours)
	}
}

func TestAvgHoursMarshalNoData(t *testing.T) {
	raw := []export.Record{
		{CaseID: "A", CaseType: "Tree Maintenance", Status: "In Progress", Created: stamp(aggT0.Add(-time.Hour))},
	}
	run := Summarize(NormalizeAll(raw), aggT0)

	data, err := json.Marshal(run.Windows["all_time"])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"avg_response_hours":"no_data"`) {
		t.Errorf("marshaled window lacks no_data marker: %s", data)
	}
	if strings.Contains(string(data), `"avg_response_hours":0`) {
		t.Errorf("no-data average leaked as zero: %s", data)
	}
}

func TestAvgHoursRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   AvgHours
	}{
		{"Known", AvgHours{Hours: 12.25, Known: true}},
		{"NoData", AvgHours{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			var out AvgHours
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatal(err)
			}
			if out != tt.in {
				t.Errorf("round trip = %+v, want %+v", out, tt.in)
			}
		})
	}
}

func TestCaseTypeMapMarshalOrder(t *testing.T) {
	m := CaseTypeMap{
		"Tree Maintenance": {Count: 5},
		"Graffiti":         {Count: 9},
		"Abandoned Cart":   {Count: 5},
		"Pothole":          {Count: 1},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	// Descending by count; the two fives tie-break alphabetically.
	want := []string{"Graffiti", "Abandoned Cart", "Tree Maintenance", "Pothole"}
	last := -1
	for _, name := range want {
		idx := strings.Index(s, `"`+name+`"`)
		if idx < 0 {
			t.Fatalf("marshaled map missing %q: %s", name, s)
		}
		if idx < last {
			t.Errorf("%q out of order in %s", name, s)
		}
		last = idx
	}
}

// The windows object must serialize widest first, matching the registry and
// the console report, not in alphabetical key order.
func TestWindowMapMarshalRegistryOrder(t *testing.T) {
	run := Summarize(scenarioRecords(), aggT0)

	data, err := json.Marshal(run)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	last := -1
	for _, w := range Windows {
		idx := strings.Index(s, `"`+w.Name+`"`)
		if idx < 0 {
			t.Fatalf("marshaled run missing window %q: %s", w.Name, s)
		}
		if idx < last {
			t.Errorf("window %q out of registry order", w.Name)
		}
		last = idx
	}
}

func TestSummarizeBoundaryInclusive(t *testing.T) {
	raw := []export.Record{
		{CaseID: "E", CaseType: "Graffiti", Status: "New", Created: stamp(aggT0.Add(-90 * 24 * time.Hour))},
	}
	run := Summarize(NormalizeAll(raw), aggT0)
	if run.Windows["90_days"].Total != 1 {
		t.Error("record exactly 90 days old excluded from 90_days window")
	}
	if run.Windows["60_days"].Total != 0 {
		t.Error("record exactly 90 days old leaked into 60_days window")
	}
}
