// Package audit writes the operator-facing trail of failed, skipped and raw
// collector records. Files are JSON, one per batch, never rewritten.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"alumni-engine/internal/domain"
	"alumni-engine/internal/logging"
)

const (
	KindFailed  = "failed"
	KindSkipped = "skipped"

	SkippedReason = "Invalid or empty LinkedIn URL"

	stampLayout = "2006-01-02T15-04-05"
	rawSuffix   = "_apify.json"
)

type FailedEntry struct {
	Name       string    `json:"name"`
	CohortHint string    `json:"cohortHint,omitempty"`
	KnownURL   string    `json:"knownUrl,omitempty"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failedAt"`
}

type FailedRecord struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	JobID       string        `json:"jobId,omitempty"`
	TotalFailed int           `json:"totalFailed"`
	Profiles    []FailedEntry `json:"profiles"`
}

// WorkItems turns a failed record back into submittable items.
func (r FailedRecord) WorkItems() []domain.WorkItem {
	out := make([]domain.WorkItem, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		out = append(out, domain.WorkItem{Name: p.Name, CohortHint: p.CohortHint, KnownURL: p.KnownURL})
	}
	return out
}

type SkippedRecord struct {
	GeneratedAt  time.Time         `json:"generatedAt"`
	Batch        *string           `json:"batch"`
	Reason       string            `json:"reason"`
	TotalSkipped int               `json:"totalSkipped"`
	Profiles     []json.RawMessage `json:"profiles"`
}

type Writer struct {
	Dir string
	Now func() time.Time
	Log *slog.Logger
}

func NewWriter(dir string, log *slog.Logger) *Writer {
	return &Writer{Dir: dir, Now: time.Now, Log: logging.OrDefault(log)}
}

// WriteFailed records the failed items of one batch and returns the file path.
func (w *Writer) WriteFailed(jobID string, items []domain.FailedItem) (string, error) {
	if len(items) == 0 {
		return "", errors.New("no failed items")
	}
	rec := FailedRecord{
		GeneratedAt: w.now(),
		JobID:       jobID,
		TotalFailed: len(items),
		Profiles:    make([]FailedEntry, 0, len(items)),
	}
	for _, it := range items {
		rec.Profiles = append(rec.Profiles, FailedEntry{
			Name:       it.Name,
			CohortHint: it.CohortHint,
			KnownURL:   it.KnownURL,
			Error:      it.Error,
			FailedAt:   it.FailedAt.UTC(),
		})
	}
	return w.writeStamped("failed_profiles_", rec)
}

// WriteSkipped records client-filtered inputs exactly as they were reported.
func (w *Writer) WriteSkipped(batch string, items []json.RawMessage) (string, error) {
	if len(items) == 0 {
		return "", errors.New("no skipped items")
	}
	rec := SkippedRecord{
		GeneratedAt:  w.now(),
		Reason:       SkippedReason,
		TotalSkipped: len(items),
		Profiles:     items,
	}
	if b := strings.TrimSpace(batch); b != "" {
		rec.Batch = &b
	}
	return w.writeStamped("skipped_profiles_", rec)
}

// SaveRaw stores a collector payload with _metadata attached. A later save for
// the same name replaces the earlier one.
func (w *Writer) SaveRaw(name string, payload []byte, meta domain.RawMetadata) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return "", fmt.Errorf("raw payload is not a JSON object: %w", err)
	}
	if meta.Source == "" {
		meta.Source = "apify"
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	obj["_metadata"] = mb

	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, "raw", SafeName(name)+rawSuffix)
	err = w.locked(func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, b, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, path)
	})
	if err != nil {
		return "", fmt.Errorf("save raw %s: %w", name, err)
	}
	return path, nil
}

func LoadFailed(path string) (FailedRecord, error) {
	var rec FailedRecord
	b, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// RawFiles lists saved collector payloads, oldest name first.
func (w *Writer) RawFiles() ([]string, error) {
	return filepath.Glob(filepath.Join(w.Dir, "raw", "*"+rawSuffix))
}

// Prune removes audit files older than maxAge. maxAge <= 0 keeps everything.
func (w *Writer) Prune(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := w.now().Add(-maxAge)
	removed := 0
	err := w.locked(func() error {
		for _, pattern := range []string{"failed_profiles_*.json", "skipped_profiles_*.json", filepath.Join("raw", "*"+rawSuffix)} {
			matches, err := filepath.Glob(filepath.Join(w.Dir, pattern))
			if err != nil {
				return err
			}
			for _, m := range matches {
				fi, err := os.Stat(m)
				if err != nil || !fi.ModTime().Before(cutoff) {
					continue
				}
				if err := os.Remove(m); err != nil {
					w.Log.Warn("audit prune failed", "file", m, "error", err)
					continue
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_]`)

// SafeName lowercases, turns spaces into underscores and drops everything else
// outside [a-z0-9_].
func SafeName(name string) string {
	s := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		return "unnamed"
	}
	return s
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now().UTC()
	}
	return w.Now().UTC()
}

// writeStamped creates prefix<timestamp>.json exclusively; same-second
// collisions get a -N suffix.
func (w *Writer) writeStamped(prefix string, v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	stamp := w.now().Format(stampLayout)

	var path string
	err = w.locked(func() error {
		for i := 0; i < 1000; i++ {
			name := prefix + stamp
			if i > 0 {
				name = fmt.Sprintf("%s-%d", name, i)
			}
			path = filepath.Join(w.Dir, name+".json")
			f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
			if errors.Is(err, os.ErrExist) {
				continue
			}
			if err != nil {
				return err
			}
			_, werr := f.Write(b)
			cerr := f.Close()
			if werr != nil {
				return werr
			}
			return cerr
		}
		return fmt.Errorf("too many audit files for %s%s", prefix, stamp)
	})
	if err != nil {
		return "", err
	}
	w.Log.Info("audit record written", "file", filepath.Base(path))
	return path, nil
}

// locked serializes writers across processes sharing the audit dir.
func (w *Writer) locked(fn func() error) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}
	fl := flock.New(filepath.Join(w.Dir, ".audit.lock"))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock audit dir: %w", err)
	}
	defer func() { _ = fl.Unlock() }()
	return fn()
}
