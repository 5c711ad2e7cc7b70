package listcfg

import (
	"fmt"
	"strings"
	"testing"
)

// BenchmarkParse benchmarks parsing a configuration of a few hundred lists
func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "list: list-%d@lists.example.org\nlanguage: german # main\nsection: general\n\n", i)
	}
	input := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(strings.NewReader(input), "bench"); err != nil {
			b.Fatal(err)
		}
	}
}
