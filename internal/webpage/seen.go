package webpage

import "github.com/bits-and-blooms/bloom/v3"

// SeenFilter remembers URLs with a Bloom filter. False positives are
// possible; false negatives are not.
type SeenFilter struct {
	f *bloom.BloomFilter
}

// NewSeenFilter sizes the filter for n expected URLs at the given false
// positive rate.
func NewSeenFilter(n uint, fpRate float64) *SeenFilter {
	if n == 0 {
		n = 1
	}
	return &SeenFilter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Add records url.
func (s *SeenFilter) Add(url string) {
	s.f.AddString(url)
}

// Test returns true if the URL might have been added.
func (s *SeenFilter) Test(url string) bool {
	return s.f.TestString(url)
}
