package stats

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/davidkarnowski/HustleYourCity/internal/export"
)

// SummaryPrefix is the filename prefix of summary artifacts.
const SummaryPrefix = "summary_stats_"

// WriteError reports a fatal failure to persist a summary artifact.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write summary %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// SummaryFileName returns the artifact name for a run collected at t.
func SummaryFileName(t time.Time) string {
	return SummaryPrefix + t.UTC().Format(export.TimestampLayout) + ".json"
}

// WriteSummary serializes the run and writes it to a new timestamped
// artifact in dir. The write is all-or-nothing: the JSON is staged in a temp
// file, fsynced, then renamed into place. A pre-existing artifact for the
// same collection instant is never overwritten; history is append-only.
func WriteSummary(run *SummaryRun, dir string) (string, error) {
	path := filepath.Join(dir, SummaryFileName(run.DownloadedAt))
	if _, err := os.Stat(path); err == nil {
		return "", &WriteError{Path: path, Err: fs.ErrExist}
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, "tmp_summary_*.json")
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}

	log.Info().Str("path", path).Int("total", run.TotalRecords).Int("malformed", run.MalformedRecords).Msg("Summary written")
	return path, nil
}

// ReadSummary loads a previously written artifact.
func ReadSummary(path string) (*SummaryRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	var run SummaryRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse summary %s: %w", path, err)
	}
	return &run, nil
}

// FindLatestSummary locates the most recent timestamped summary artifact in
// dir.
func FindLatestSummary(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, SummaryPrefix+"*.json"))
	if err != nil {
		return "", fmt.Errorf("scan summaries: %w", err)
	}

	var latestPath string
	var latestTS time.Time
	for _, m := range matches {
		ts := export.TimestampFromFilename(m)
		if ts.IsZero() {
			continue
		}
		if ts.After(latestTS) {
			latestTS = ts
			latestPath = m
		}
	}
	if latestPath == "" {
		return "", fmt.Errorf("no summary artifacts found in %s", dir)
	}
	return latestPath, nil
}
