package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dhcgn/mbox-index/filter"
	"github.com/dhcgn/mbox-index/indexer"
	"github.com/dhcgn/mbox-index/langcode"
	"github.com/dhcgn/mbox-index/listcfg"
	"github.com/dhcgn/mbox-index/mailbox"
	"github.com/dhcgn/mbox-index/state"
	"github.com/dhcgn/mbox-index/stats"
)

// DefaultCeiling bounds the length of one indexer command line.
const DefaultCeiling = 1000

var (
	ErrIndexerFailed = errors.New("indexer failed")
	ErrNoInput       = errors.New("neither mailbox paths nor a full sweep requested")
	ErrCeilingTooLow = errors.New("batch ceiling cannot hold a single mailbox")
)

type Options struct {
	ArchiveRoot      string
	Ceiling          int
	Indexer          indexer.Options
	SkipLists        []string
	ExcludedSections []string

	// ListFilter restricts full sweeps to matching list directories.
	// Explicit paths are never filtered.
	ListFilter *filter.Filter
}

// Request selects the mailboxes of one run.
type Request struct {
	All   bool
	Paths []string

	// Marker, when set, restricts the run to mailboxes modified at or after
	// the stored time.
	Marker state.Marker
	// Commit stores the run's start time in Marker after a successful run.
	Commit bool
}

type Result struct {
	Started   time.Time
	Since     time.Time
	Batches   int
	Mailboxes int
}

// Driver feeds mailboxes to the indexer in bounded batches.
type Driver struct {
	opts      Options
	lists     listcfg.Set
	table     *langcode.Table
	indexer   indexer.Indexer
	logger    *slog.Logger
	observers []stats.Observer
	now       func() time.Time

	skip     map[string]bool
	excluded map[string]bool
}

func New(opts Options, lists listcfg.Set, table *langcode.Table, idx indexer.Indexer, logger *slog.Logger) (*Driver, error) {
	if opts.Ceiling == 0 {
		opts.Ceiling = DefaultCeiling
	}
	if base := 1 + len(opts.Indexer.Flags()); opts.Ceiling < base+3 {
		return nil, fmt.Errorf("%w: %d", ErrCeilingTooLow, opts.Ceiling)
	}
	if table == nil {
		return nil, fmt.Errorf("language table must not be nil")
	}
	if err := table.CheckDefault(); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("indexer must not be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Driver{
		opts:     opts,
		lists:    lists,
		table:    table,
		indexer:  idx,
		logger:   logger,
		now:      time.Now,
		skip:     make(map[string]bool, len(opts.SkipLists)),
		excluded: make(map[string]bool, len(opts.ExcludedSections)),
	}
	for _, name := range opts.SkipLists {
		d.skip[name] = true
	}
	for _, section := range opts.ExcludedSections {
		d.excluded[section] = true
	}
	return d, nil
}

func (d *Driver) AddObserver(o stats.Observer) {
	d.observers = append(d.observers, o)
}

func (d *Driver) emit(evt stats.Event) {
	for _, o := range d.observers {
		o.Observe(evt)
	}
}

// Run indexes the requested mailboxes. The start time is taken before
// anything is read so mailboxes changed while the run is in progress are
// picked up again by the next incremental run.
func (d *Driver) Run(ctx context.Context, req Request) (Result, error) {
	res := Result{Started: d.now()}

	if !req.All && len(req.Paths) == 0 {
		return res, ErrNoInput
	}

	if req.Marker != nil {
		since, err := req.Marker.Since()
		switch {
		case errors.Is(err, os.ErrNotExist):
			d.logger.Warn("no timestamp recorded yet, indexing everything", "err", err)
		case err != nil:
			return res, fmt.Errorf("read timestamp: %w", err)
		default:
			res.Since = since
		}
	}

	paths, err := d.candidates(req)
	if err != nil {
		return res, err
	}
	d.emit(stats.Event{Type: stats.EventTypePlanned, Mailboxes: len(paths)})
	d.logger.Info("starting index run", "candidates", len(paths), "since", res.Since, "ceiling", d.opts.Ceiling)

	b := newBatcher(d.opts.Indexer, d.opts.Ceiling)
	lastList := ""
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		mb, ok, err := d.admit(path, res.Since)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}

		code, err := d.table.ResolveList(d.lists, mb.List)
		if err != nil {
			d.logger.Warn("unknown language, using default", "list", mb.List, "code", code, "err", err)
			d.emit(stats.Event{Type: stats.EventTypeLanguageFallback, List: mb.List, Mailbox: mb.Path})
		}
		if mb.List != lastList {
			d.logger.Info("doing index for list", "list", mb.List, "lang", code)
			lastList = mb.List
		}

		if !b.fits(code) {
			if err := d.flush(ctx, b, &res); err != nil {
				return res, err
			}
		}
		b.add(code, mb.Path)
		res.Mailboxes++
		d.logger.Debug("queued mailbox", "list", mb.List, "period", mb.Period(), "lang", code, "pending", b.argCount())
		d.emit(stats.Event{Type: stats.EventTypeQueued, List: mb.List, Mailbox: mb.Path})
	}

	if err := d.flush(ctx, b, &res); err != nil {
		return res, err
	}

	if req.Marker != nil && req.Commit {
		if err := req.Marker.Commit(res.Started); err != nil {
			return res, fmt.Errorf("store timestamp: %w", err)
		}
		d.logger.Info("timestamp updated", "time", res.Started.Unix())
	}

	d.logger.Info("index run completed", "batches", res.Batches, "mailboxes", res.Mailboxes, "duration", time.Since(res.Started))
	return res, nil
}

func (d *Driver) candidates(req Request) ([]string, error) {
	if !req.All {
		return req.Paths, nil
	}

	lists, err := mailbox.Lists(d.opts.ArchiveRoot)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, list := range lists {
		if !d.opts.ListFilter.Allows(list) {
			d.logger.Debug("list filtered out of sweep", "list", list, "filter", d.opts.ListFilter.String())
			continue
		}
		found, err := mailbox.Discover(d.opts.ArchiveRoot, list)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", list, err)
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

// admit decides whether a single mailbox takes part in the run. Eligibility
// is checked per mailbox, so every mailbox of an excluded list logs its own
// skip line.
func (d *Driver) admit(path string, since time.Time) (mailbox.Mailbox, bool, error) {
	d.emit(stats.Event{Type: stats.EventTypeScanned, Mailbox: path})

	mb, err := mailbox.Inspect(path)
	if errors.Is(err, mailbox.ErrNotMailbox) {
		d.logger.Warn("not a mailbox, skipping", "path", path)
		d.skipped(mb, path, stats.SkipNotMailbox)
		return mb, false, nil
	}
	if err != nil {
		d.emit(stats.Event{Type: stats.EventTypeError, Mailbox: path, Err: err})
		return mb, false, err
	}

	if !mb.ModifiedSince(since) {
		d.logger.Debug("unchanged since last run", "path", path, "mtime", mb.ModTime)
		d.skipped(mb, path, stats.SkipUnchanged)
		return mb, false, nil
	}

	rec, ok := d.lists[mb.List]
	switch {
	case !ok:
		d.logger.Warn("list not found in configuration, skipping", "list", mb.List, "path", path)
		d.skipped(mb, path, stats.SkipNotConfigured)
		return mb, false, nil
	case d.skip[mb.List]:
		d.logger.Info("list skipped by config", "list", mb.List, "path", path)
		d.skipped(mb, path, stats.SkipListed)
		return mb, false, nil
	case d.excluded[rec.Section()]:
		d.logger.Info("list is in an excluded section, skipping", "list", mb.List, "section", rec.Section(), "path", path)
		d.skipped(mb, path, stats.SkipSection)
		return mb, false, nil
	}

	return mb, true, nil
}

func (d *Driver) skipped(mb mailbox.Mailbox, path string, reason stats.SkipReason) {
	d.emit(stats.Event{Type: stats.EventTypeSkipped, List: mb.List, Mailbox: path, Reason: reason})
}

func (d *Driver) flush(ctx context.Context, b *batcher, res *Result) error {
	batch := b.take()
	if err := d.indexer.Index(ctx, batch); err != nil {
		err = fmt.Errorf("%w: %w", ErrIndexerFailed, err)
		d.emit(stats.Event{Type: stats.EventTypeError, Err: err})
		return err
	}
	res.Batches++
	d.emit(stats.Event{Type: stats.EventTypeFlushed, Mailboxes: batch.Mailboxes()})
	return nil
}
