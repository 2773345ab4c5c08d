package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// TimestampLayout is the UTC timestamp format embedded in export and summary
// filenames, e.g. service_requests_full_2025-10-16T1200Z.json.
const TimestampLayout = "2006-01-02T1504Z"

// ExportPrefix is the filename prefix the fetch step uses for full exports.
const ExportPrefix = "service_requests_full_"

// LoadError reports a fatal failure to locate, read or parse an export file.
// It aborts the run; no summary artifact is produced.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load export: %v", e.Err)
	}
	return fmt.Sprintf("load export %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads an export file and returns its records in input order.
// It accepts both a bare JSON array and a {"results": [...]} wrapper.
// Structural problems surface as *LoadError; per-record field validation is
// deliberately not performed here.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("file is empty")}
	}

	var records []Record
	if trimmed[0] == '{' {
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		if env.Results == nil {
			// A wrapper without a results array is a wrong-shape export, not
			// an empty one; writing a zero-record summary would mislead.
			return nil, &LoadError{Path: path, Err: fmt.Errorf("object export has no results array")}
		}
		records = *env.Results
	} else {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	log.Debug().Str("path", path).Int("records", len(records)).Msg("Export loaded")
	return records, nil
}

// TimestampFromFilename extracts the collection timestamp embedded in an
// export or summary filename. Returns a zero time if the stem does not end
// in a recognizable timestamp.
func TimestampFromFilename(name string) time.Time {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return time.Time{}
	}
	t, err := time.Parse(TimestampLayout, stem[idx+1:])
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// CollectionTime returns the instant the export was collected: the filename
// timestamp when present, otherwise the file's modification time. The result
// is always UTC.
func CollectionTime(path string) (time.Time, error) {
	if ts := TimestampFromFilename(path); !ts.IsZero() {
		return ts, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, &LoadError{Path: path, Err: err}
	}
	return info.ModTime().UTC(), nil
}

// FindLatestExport locates the most recent timestamped export file in dir.
// Files without a parseable timestamp in their name are ignored, matching
// the fetch step's naming contract.
func FindLatestExport(dir string) (string, time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ExportPrefix+"*.json"))
	if err != nil {
		return "", time.Time{}, &LoadError{Path: dir, Err: err}
	}

	var latestPath string
	var latestTS time.Time
	for _, m := range matches {
		ts := TimestampFromFilename(m)
		if ts.IsZero() {
			continue
		}
		if ts.After(latestTS) {
			latestTS = ts
			latestPath = m
		}
	}

	if latestPath == "" {
		return "", time.Time{}, &LoadError{Path: dir, Err: fmt.Errorf("no timestamped export files found")}
	}

	log.Debug().Str("path", latestPath).Time("collected", latestTS).Msg("Latest export located")
	return latestPath, latestTS, nil
}
