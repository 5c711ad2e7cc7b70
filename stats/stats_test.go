package stats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	events := []Event{
		{Type: EventTypePlanned, Mailboxes: 5},
		{Type: EventTypeScanned},
		{Type: EventTypeScanned},
		{Type: EventTypeScanned},
		{Type: EventTypeSkipped, Reason: SkipListed},
		{Type: EventTypeSkipped, Reason: SkipListed},
		{Type: EventTypeSkipped, Reason: SkipUnchanged},
		{Type: EventTypeQueued},
		{Type: EventTypeLanguageFallback},
		{Type: EventTypeFlushed, Mailboxes: 1},
		{Type: EventTypeError, Err: errors.New("boom")},
	}
	for _, evt := range events {
		c.Observe(evt)
	}

	s := c.Snapshot()
	assert.Equal(t, 3, s.Scanned)
	assert.Equal(t, 1, s.Queued)
	assert.Equal(t, 3, s.SkippedTotal())
	assert.Equal(t, 2, s.Skipped[SkipListed])
	assert.Equal(t, 1, s.LanguageFallbacks)
	assert.Equal(t, 1, s.Batches)
	assert.Equal(t, 1, s.Errors)
	assert.EqualError(t, s.LastError, "boom")

	s.Skipped[SkipListed] = 100
	assert.Equal(t, 2, c.Snapshot().Skipped[SkipListed], "snapshots must not share the skip map")
}

func TestSummaryLogAttrs(t *testing.T) {
	s := Summary{
		Scanned: 4,
		Skipped: map[SkipReason]int{SkipUnchanged: 2, SkipListed: 1},
	}

	attrs := s.LogAttrs()
	require.Equal(t, 0, len(attrs)%2)
	assert.Equal(t, []any{"skipped.skip_list", 1, "skipped.unchanged", 2}, attrs[len(attrs)-4:])
	assert.NotContains(t, attrs, "lastError")
}

func TestObserverFunc(t *testing.T) {
	var got []EventType
	var o Observer = ObserverFunc(func(evt Event) { got = append(got, evt.Type) })
	o.Observe(Event{Type: EventTypeQueued})
	assert.Equal(t, []EventType{EventTypeQueued}, got)
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mbox_index.prom")
	s := Summary{
		Scanned: 10,
		Queued:  7,
		Skipped: map[SkipReason]int{SkipSection: 3},
		Batches: 2,
	}
	run := RunInfo{Started: time.Unix(1_700_000_000, 0), Duration: 1500 * time.Millisecond, Success: true}

	require.NoError(t, WriteTextfile(path, s, run))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `mbox_index_mailboxes{state="queued"} 7`)
	assert.Contains(t, text, `mbox_index_mailboxes{state="scanned"} 10`)
	assert.Contains(t, text, `mbox_index_skipped_mailboxes{reason="section"} 3`)
	assert.Contains(t, text, "mbox_index_batches 2")
	assert.Contains(t, text, "mbox_index_last_run_duration_seconds 1.5")
	assert.Contains(t, text, "mbox_index_last_run_start_timestamp_seconds 1.7e+09")
	assert.Contains(t, text, "mbox_index_last_run_success 1")
}
