package runner

import "github.com/dhcgn/mbox-index/indexer"

// batcher accumulates indexer arguments. A language flag is only emitted
// when the code differs from the previous mailbox in the same batch.
type batcher struct {
	opts     indexer.Options
	ceiling  int
	base     int
	args     int
	segments []indexer.Segment
}

func newBatcher(opts indexer.Options, ceiling int) *batcher {
	base := 1 + len(opts.Flags())
	return &batcher{opts: opts, ceiling: ceiling, base: base, args: base}
}

func (b *batcher) lastLanguage() (string, bool) {
	if len(b.segments) == 0 {
		return "", false
	}
	return b.segments[len(b.segments)-1].Language, true
}

func (b *batcher) cost(code string) int {
	if last, ok := b.lastLanguage(); ok && last == code {
		return 1
	}
	return 3
}

// fits reports whether a mailbox of the given language can join the batch
// without pushing the command line over the ceiling. An empty batch always
// accepts; the driver refuses ceilings too small for one mailbox.
func (b *batcher) fits(code string) bool {
	if len(b.segments) == 0 {
		return true
	}
	return b.args+b.cost(code) <= b.ceiling
}

func (b *batcher) add(code, path string) {
	b.args += b.cost(code)
	if last, ok := b.lastLanguage(); ok && last == code {
		seg := &b.segments[len(b.segments)-1]
		seg.Paths = append(seg.Paths, path)
		return
	}
	b.segments = append(b.segments, indexer.Segment{Language: code, Paths: []string{path}})
}

// take returns the pending batch and starts a new one.
func (b *batcher) take() indexer.Batch {
	batch := indexer.Batch{Options: b.opts, Segments: b.segments}
	b.segments = nil
	b.args = b.base
	return batch
}

// argCount is the length of the command line the pending batch renders to,
// program name included.
func (b *batcher) argCount() int {
	return b.args
}
