package progress

import (
	"errors"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/mbox-index/stats"
)

func TestBar_Disabled(t *testing.T) {
	b := New(false)
	b.Observe(stats.Event{Type: stats.EventTypePlanned, Mailboxes: 3})
	b.Observe(stats.Event{Type: stats.EventTypeQueued})
	b.Stop()
	assert.Nil(t, b.pb)
}

func TestBar_CountsHandledMailboxes(t *testing.T) {
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)

	b := New(true)
	b.Observe(stats.Event{Type: stats.EventTypeQueued})
	assert.Nil(t, b.pb, "bar starts once the total is known")

	b.Observe(stats.Event{Type: stats.EventTypePlanned, Mailboxes: 4})
	require.NotNil(t, b.pb)
	b.Observe(stats.Event{Type: stats.EventTypeQueued, List: "alpha"})
	b.Observe(stats.Event{Type: stats.EventTypeSkipped, List: "beta", Reason: stats.SkipListed})
	b.Observe(stats.Event{Type: stats.EventTypeFlushed, Mailboxes: 1})
	b.Observe(stats.Event{Type: stats.EventTypeError, Err: errors.New("boom")})
	assert.Equal(t, 2, b.pb.Current)

	b.Stop()
	assert.Equal(t, 4, b.pb.Current)
}

func TestBar_EmptyRun(t *testing.T) {
	b := New(true)
	b.Observe(stats.Event{Type: stats.EventTypePlanned})
	b.Observe(stats.Event{Type: stats.EventTypeFlushed})
	b.Stop()
	assert.Nil(t, b.pb)
}
