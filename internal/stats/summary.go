package stats

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// AvgHours is a mean closure duration that distinguishes "no closed records
// yet" from an actual average. It marshals as a float, or as the string
// "no_data" when no record contributed a duration, so downstream consumers
// cannot mistake an empty sample for instant closures.
type AvgHours struct {
	Hours float64
	Known bool
}

func (a AvgHours) MarshalJSON() ([]byte, error) {
	if !a.Known {
		return []byte(`"no_data"`), nil
	}
	return json.Marshal(a.Hours)
}

func (a *AvgHours) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`"no_data"`)) || bytes.Equal(data, []byte("null")) {
		*a = AvgHours{}
		return nil
	}
	var h float64
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("avg_response_hours: %w", err)
	}
	*a = AvgHours{Hours: h, Known: true}
	return nil
}

// CaseTypeSummary aggregates one case type within one window.
type CaseTypeSummary struct {
	Count            int            `json:"count"`
	StatusBreakdown  map[string]int `json:"status_breakdown"`
	AvgResponseHours AvgHours       `json:"avg_response_hours"`
}

// CaseTypeMap maps case-type labels to their summaries. It marshals its keys
// descending by count, ties broken alphabetically, so successive artifacts
// stay diff-friendly.
type CaseTypeMap map[string]*CaseTypeSummary

// OrderedNames returns the case-type labels descending by count, ties broken
// alphabetically. This is the canonical presentation order.
func (m CaseTypeMap) OrderedNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(m[b].Count, m[a].Count); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

func (m CaseTypeMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.OrderedNames(), m)
}

// marshalOrdered emits a JSON object with its keys in the given order.
func marshalOrdered[V any](names []string, m map[string]V) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WindowSummary aggregates all records that fall into one window.
type WindowSummary struct {
	Total     int         `json:"total"`
	CaseTypes CaseTypeMap `json:"case_types"`
}

// WindowMap maps window names to their summaries. It marshals in registry
// order, widest first, so artifacts read the same way the console report
// prints them.
type WindowMap map[string]*WindowSummary

func (m WindowMap) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, w := range Windows {
		if _, ok := m[w.Name]; ok {
			names = append(names, w.Name)
			seen[w.Name] = true
		}
	}
	// Stray keys, if any, trail alphabetically.
	var extra []string
	for name := range m {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return marshalOrdered(append(names, extra...), m)
}

// SummaryRun is the self-contained artifact of one aggregation run. It is
// immutable once written; a new run always produces a new artifact.
type SummaryRun struct {
	DownloadedAt     time.Time `json:"downloaded_at"`
	TotalRecords     int       `json:"total_records"`
	MalformedRecords int       `json:"malformed_records"`
	Windows          WindowMap `json:"windows"`
}
