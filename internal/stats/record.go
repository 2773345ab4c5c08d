package stats

import (
	"strings"
	"time"

	"github.com/davidkarnowski/HustleYourCity/internal/export"
)

// ServiceRequest is one normalized service-request record. All instants are
// UTC; windowing and duration math never touch a local zone.
type ServiceRequest struct {
	CaseID    string
	CaseType  string
	Status    string
	Created   time.Time  // zero when the raw value was absent or unparsable
	Closed    *time.Time // nil for open requests
	Hours     *float64   // closure duration in fractional hours, nil when unknown
	Malformed bool       // counts toward the run's malformed total
}

// InWindows reports whether the record can participate in window membership.
// Only a usable creation timestamp qualifies; a bad or missing closure
// timestamp keeps the record countable.
func (r *ServiceRequest) InWindows() bool {
	return !r.Created.IsZero()
}

// timestampLayouts are tried in order. The export endpoint emits RFC 3339
// with an explicit offset; some historical rows carry a bare local-less
// stamp, which we read as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a raw export timestamp into a UTC instant.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// Normalize converts a raw export row into a ServiceRequest, classifying its
// completeness. Policy:
//   - missing or unparsable createdAt: malformed, excluded from all windows;
//   - closedAt present but unparsable: malformed for timing, still counted;
//   - closedAt earlier than createdAt: malformed for timing, still counted;
//   - valid pair: closure duration in fractional hours, never rounded.
func Normalize(raw export.Record) ServiceRequest {
	rec := ServiceRequest{
		CaseID:   raw.CaseID,
		CaseType: raw.CaseType,
		Status:   raw.Status,
	}
	if rec.CaseType == "" {
		rec.CaseType = "Unknown"
	}
	if rec.Status == "" {
		rec.Status = "Unknown"
	}

	if raw.Created == "" {
		rec.Malformed = true
		return rec
	}
	created, err := ParseTimestamp(raw.Created)
	if err != nil {
		rec.Malformed = true
		return rec
	}
	rec.Created = created

	if raw.Closed == "" {
		return rec
	}
	closed, err := ParseTimestamp(raw.Closed)
	if err != nil {
		rec.Malformed = true
		return rec
	}
	if closed.Before(created) {
		// Internally inconsistent pair: the record still counts, but its
		// duration is unusable.
		rec.Malformed = true
		return rec
	}
	rec.Closed = &closed
	hours := closed.Sub(created).Hours()
	rec.Hours = &hours
	return rec
}

// NormalizeAll normalizes every raw record, preserving input order.
func NormalizeAll(raw []export.Record) []ServiceRequest {
	records := make([]ServiceRequest, 0, len(raw))
	for _, r := range raw {
		records = append(records, Normalize(r))
	}
	return records
}

// CountUntimedClosures returns how many countable records carry a
// closure-implying status (Closed, Closed Referred, Duplicate, ...) without
// a usable closure timestamp. The source dataset leaves this combination
// unspecified; such records stay in the counts but never contribute to
// duration averages, and the caller may want to surface the volume.
func CountUntimedClosures(records []ServiceRequest) int {
	n := 0
	for i := range records {
		r := &records[i]
		if !r.InWindows() || r.Hours != nil {
			continue
		}
		s := strings.ToLower(r.Status)
		if strings.Contains(s, "closed") || strings.Contains(s, "duplicate") {
			n++
		}
	}
	return n
}
