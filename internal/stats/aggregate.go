package stats

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// caseTypeAccum is the mutable accumulator behind one CaseTypeSummary.
type caseTypeAccum struct {
	count      int
	statuses   map[string]int    // canonical display key -> count
	statusKeys map[string]string // case-folded key -> canonical display key
	hoursSum   float64
	hoursCount int
}

func newCaseTypeAccum() *caseTypeAccum {
	return &caseTypeAccum{
		statuses:   make(map[string]int),
		statusKeys: make(map[string]string),
	}
}

// addStatus counts a status with case-insensitive folding. The casing of the
// first occurrence (in accumulation order) becomes the display key; later
// variants differing only in case merge into it. No fuzzy grouping beyond
// case folding is performed.
func (a *caseTypeAccum) addStatus(status string) {
	folded := strings.ToLower(status)
	key, ok := a.statusKeys[folded]
	if !ok {
		key = status
		a.statusKeys[folded] = key
	}
	a.statuses[key]++
}

func (a *caseTypeAccum) summary() *CaseTypeSummary {
	s := &CaseTypeSummary{
		Count:           a.count,
		StatusBreakdown: a.statuses,
	}
	if a.hoursCount > 0 {
		s.AvgResponseHours = AvgHours{Hours: a.hoursSum / float64(a.hoursCount), Known: true}
	}
	return s
}

// Summarize computes the per-window aggregates for one run. Records are
// visited in caseId order regardless of input order, so floating-point
// duration sums accumulate identically across runs and the output is
// byte-stable for a given input set and reference instant.
func Summarize(records []ServiceRequest, t0 time.Time) *SummaryRun {
	ordered := make([]ServiceRequest, len(records))
	copy(ordered, records)
	slices.SortStableFunc(ordered, func(a, b ServiceRequest) int {
		return cmp.Compare(a.CaseID, b.CaseID)
	})

	totals := make(map[string]int)
	accums := make(map[string]map[string]*caseTypeAccum)
	for _, w := range Windows {
		accums[w.Name] = make(map[string]*caseTypeAccum)
	}

	malformed := 0
	for i := range ordered {
		rec := &ordered[i]
		if rec.Malformed {
			malformed++
		}
		if !rec.InWindows() {
			continue
		}
		for _, w := range Windows {
			if !w.Contains(t0, rec.Created) {
				continue
			}
			totals[w.Name]++
			acc := accums[w.Name][rec.CaseType]
			if acc == nil {
				acc = newCaseTypeAccum()
				accums[w.Name][rec.CaseType] = acc
			}
			acc.count++
			acc.addStatus(rec.Status)
			if rec.Hours != nil {
				acc.hoursSum += *rec.Hours
				acc.hoursCount++
			}
		}
	}

	run := &SummaryRun{
		DownloadedAt:     t0.UTC(),
		TotalRecords:     len(records),
		MalformedRecords: malformed,
		Windows:          make(WindowMap, len(Windows)),
	}
	for _, w := range Windows {
		ws := &WindowSummary{
			Total:     totals[w.Name],
			CaseTypes: make(CaseTypeMap, len(accums[w.Name])),
		}
		for caseType, acc := range accums[w.Name] {
			ws.CaseTypes[caseType] = acc.summary()
		}
		run.Windows[w.Name] = ws
	}
	return run
}
