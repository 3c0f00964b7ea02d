package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-engine/internal/domain"
	"alumni-engine/internal/logging"
)

func newTestWriter(t *testing.T, now time.Time) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir(), logging.Discard())
	w.Now = func() time.Time { return now }
	return w
}

func TestWriteFailedRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	w := newTestWriter(t, now)

	items := []domain.FailedItem{
		{WorkItem: domain.WorkItem{Name: "Asha Rao", CohortHint: "2019-2023"}, Error: "no match", FailedAt: now},
		{WorkItem: domain.WorkItem{Name: "Ravi K", KnownURL: "https://www.linkedin.com/in/ravik"}, Error: "fetch failed", FailedAt: now},
	}
	path, err := w.WriteFailed("job-1", items)
	require.NoError(t, err)
	assert.Equal(t, "failed_profiles_2024-03-01T10-30-00.json", filepath.Base(path))

	rec, err := LoadFailed(path)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.TotalFailed)
	assert.Equal(t, "job-1", rec.JobID)
	require.Len(t, rec.Profiles, 2)
	assert.Equal(t, "no match", rec.Profiles[0].Error)

	work := rec.WorkItems()
	require.Len(t, work, 2)
	assert.Equal(t, "2019-2023", work[0].CohortHint)
	assert.Equal(t, "https://www.linkedin.com/in/ravik", work[1].KnownURL)
}

func TestWriteFailedNeverOverwrites(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	w := newTestWriter(t, now)
	items := []domain.FailedItem{{WorkItem: domain.WorkItem{Name: "A"}, Error: "x", FailedAt: now}}

	first, err := w.WriteFailed("", items)
	require.NoError(t, err)
	second, err := w.WriteFailed("", items)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "failed_profiles_2024-03-01T10-30-00-1.json", filepath.Base(second))
}

func TestWriteFailedRejectsEmpty(t *testing.T) {
	w := newTestWriter(t, time.Now())
	_, err := w.WriteFailed("", nil)
	assert.Error(t, err)
}

func TestWriteSkipped(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	w := newTestWriter(t, now)

	path, err := w.WriteSkipped("2019-2023", []json.RawMessage{
		json.RawMessage(`{"name":"No Url","url":""}`),
	})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec SkippedRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	require.NotNil(t, rec.Batch)
	assert.Equal(t, "2019-2023", *rec.Batch)
	assert.Equal(t, SkippedReason, rec.Reason)
	assert.Equal(t, 1, rec.TotalSkipped)
	assert.JSONEq(t, `{"name":"No Url","url":""}`, string(rec.Profiles[0]))
}

func TestWriteSkippedWithoutBatch(t *testing.T) {
	w := newTestWriter(t, time.Now())
	path, err := w.WriteSkipped("  ", []json.RawMessage{json.RawMessage(`{}`)})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"batch": null`)
}

func TestSaveRawInjectsMetadata(t *testing.T) {
	w := newTestWriter(t, time.Now())

	path, err := w.SaveRaw("Asha Rao", []byte(`{"basic_info":{"fullname":"Asha Rao"}}`), domain.RawMetadata{
		Batch:       "2019-2023",
		OriginalURL: "https://www.linkedin.com/in/asha-rao-19",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha_rao_apify.json", filepath.Base(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		BasicInfo map[string]any     `json:"basic_info"`
		Meta      domain.RawMetadata `json:"_metadata"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Asha Rao", got.BasicInfo["fullname"])
	assert.Equal(t, "2019-2023", got.Meta.Batch)
	assert.Equal(t, "apify", got.Meta.Source)

	files, err := w.RawFiles()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSaveRawRejectsNonObject(t *testing.T) {
	w := newTestWriter(t, time.Now())
	_, err := w.SaveRaw("x", []byte(`[1,2]`), domain.RawMetadata{})
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "asha_rao", SafeName("Asha Rao"))
	assert.Equal(t, "jos_p", SafeName("José P."))
	assert.Equal(t, "unnamed", SafeName("!!!"))
}

func TestPrune(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	w := newTestWriter(t, now)
	items := []domain.FailedItem{{WorkItem: domain.WorkItem{Name: "A"}, Error: "x", FailedAt: now}}

	old, err := w.WriteFailed("", items)
	require.NoError(t, err)
	fresh, err := w.WriteFailed("", items)
	require.NoError(t, err)

	past := now.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(fresh, now, now))

	n, err := w.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	n, err = w.Prune(0)
	require.NoError(t, err)
	assert.Zero(t, n)
}
