package runner

import (
	"testing"

	"github.com/dhcgn/mbox-index/indexer"
)

// BenchmarkBatcher benchmarks filling and draining batches with alternating languages
func BenchmarkBatcher(b *testing.B) {
	codes := []string{"de", "de", "fr", "en", "en", "en"}
	bt := newBatcher(indexer.Options{Force: true}, DefaultCeiling)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		code := codes[i%len(codes)]
		if !bt.fits(code) {
			bt.take()
		}
		bt.add(code, "/srv/lists/foo/foo-2001")
	}
}
