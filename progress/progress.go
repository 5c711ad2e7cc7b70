package progress

import (
	"sync"

	"github.com/pterm/pterm"

	"github.com/dhcgn/mbox-index/stats"
)

// Bar shows how many candidate mailboxes have been handled. It starts once
// the driver announces how many candidates it found.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	mu      sync.Mutex
	enabled bool
}

// New returns a bar. A disabled bar ignores every event.
func New(enabled bool) *Bar {
	return &Bar{enabled: enabled}
}

func (b *Bar) start(total int) {
	b.total = total
	if total == 0 {
		return
	}
	pb, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Indexing mailboxes").
		Start()
	if err != nil {
		b.enabled = false
		return
	}
	b.pb = pb
}

// Observe advances the bar for every mailbox that was either queued or skipped.
func (b *Bar) Observe(evt stats.Event) {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if evt.Type == stats.EventTypePlanned {
		b.start(evt.Mailboxes)
		return
	}
	if b.pb == nil {
		return
	}

	switch evt.Type {
	case stats.EventTypeQueued, stats.EventTypeSkipped:
		b.pb.Increment()
		if evt.List != "" {
			b.pb.UpdateTitle("Indexing: " + evt.List)
		}
	case stats.EventTypeFlushed:
		// Printed above the bar so batch boundaries stay visible.
		pterm.Info.Printf("indexer batch done (%d mailboxes)\n", evt.Mailboxes)
	case stats.EventTypeError:
		if evt.Err != nil {
			pterm.Error.Printf("Error: %v\n", evt.Err)
		}
	}
}

// Stop finalizes the bar.
func (b *Bar) Stop() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb == nil {
		return
	}
	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}
	_, _ = b.pb.Stop()
	pterm.Success.Println("Indexing complete!")
}
