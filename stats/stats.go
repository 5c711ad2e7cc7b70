package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventTypePlanned          EventType = "planned"
	EventTypeScanned          EventType = "scanned"
	EventTypeSkipped          EventType = "skipped"
	EventTypeQueued           EventType = "queued"
	EventTypeLanguageFallback EventType = "language_fallback"
	EventTypeFlushed          EventType = "flushed"
	EventTypeError            EventType = "error"
)

// SkipReason says why a mailbox was left out of the run.
type SkipReason string

const (
	SkipNotMailbox    SkipReason = "not_mailbox"
	SkipUnchanged     SkipReason = "unchanged"
	SkipNotConfigured SkipReason = "not_configured"
	SkipListed        SkipReason = "skip_list"
	SkipSection       SkipReason = "section"
)

type Event struct {
	Type      EventType
	List      string
	Mailbox   string
	Reason    SkipReason
	Mailboxes int
	Err       error
}

// Observer receives run events in order. The driver is single threaded, so
// implementations need not be safe for concurrent use unless they share state
// with another goroutine.
type Observer interface {
	Observe(evt Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(evt Event) { f(evt) }

type Summary struct {
	Scanned           int
	Queued            int
	Skipped           map[SkipReason]int
	LanguageFallbacks int
	Batches           int
	Errors            int
	LastError         error
}

func (s Summary) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"scanned", s.Scanned,
		"queued", s.Queued,
		"skipped", s.SkippedTotal(),
		"languageFallbacks", s.LanguageFallbacks,
		"batches", s.Batches,
		"errors", s.Errors,
	}
	reasons := make([]string, 0, len(s.Skipped))
	for reason := range s.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		attrs = append(attrs, "skipped."+reason, s.Skipped[SkipReason(reason)])
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// Collector folds events into a Summary.
type Collector struct {
	mu      sync.Mutex
	summary Summary
}

func NewCollector() *Collector {
	return &Collector{summary: Summary{Skipped: make(map[SkipReason]int)}}
}

func (c *Collector) Observe(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch evt.Type {
	case EventTypeScanned:
		c.summary.Scanned++
	case EventTypeSkipped:
		c.summary.Skipped[evt.Reason]++
	case EventTypeQueued:
		c.summary.Queued++
	case EventTypeLanguageFallback:
		c.summary.LanguageFallbacks++
	case EventTypeFlushed:
		c.summary.Batches++
	case EventTypeError:
		c.summary.Errors++
		if evt.Err != nil {
			c.summary.LastError = evt.Err
		}
	}
}

func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary := c.summary
	summary.Skipped = make(map[SkipReason]int, len(c.summary.Skipped))
	for k, v := range c.summary.Skipped {
		summary.Skipped[k] = v
	}
	return summary
}

// RunInfo describes the run a summary belongs to.
type RunInfo struct {
	Started  time.Time
	Duration time.Duration
	Success  bool
}

// WriteTextfile writes the summary in the Prometheus text format, for the
// node_exporter textfile collector.
func WriteTextfile(path string, s Summary, run RunInfo) error {
	reg := prometheus.NewRegistry()

	mailboxes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mbox_index_mailboxes",
		Help: "Mailboxes seen by the last run, by state.",
	}, []string{"state"})
	skipped := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mbox_index_skipped_mailboxes",
		Help: "Mailboxes skipped by the last run, by reason.",
	}, []string{"reason"})
	batches := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbox_index_batches",
		Help: "Indexer invocations made by the last run.",
	})
	fallbacks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbox_index_language_fallbacks",
		Help: "Mailboxes indexed with the default language because their list language was unknown.",
	})
	errorsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbox_index_errors",
		Help: "Errors seen by the last run.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbox_index_last_run_duration_seconds",
		Help: "Wall time of the last run.",
	})
	started := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbox_index_last_run_start_timestamp_seconds",
		Help: "Unix time the last run started.",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbox_index_last_run_success",
		Help: "1 if the last run completed without error.",
	})

	for _, c := range []prometheus.Collector{mailboxes, skipped, batches, fallbacks, errorsTotal, duration, started, success} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register metric: %w", err)
		}
	}

	mailboxes.WithLabelValues("scanned").Set(float64(s.Scanned))
	mailboxes.WithLabelValues("queued").Set(float64(s.Queued))
	for reason, n := range s.Skipped {
		skipped.WithLabelValues(string(reason)).Set(float64(n))
	}
	batches.Set(float64(s.Batches))
	fallbacks.Set(float64(s.LanguageFallbacks))
	errorsTotal.Set(float64(s.Errors))
	duration.Set(run.Duration.Seconds())
	started.Set(float64(run.Started.Unix()))
	if run.Success {
		success.Set(1)
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
