package pipeline

// Batch is a contiguous slice of the universe processed concurrently.
type Batch struct {
	Start   int
	Tickers []string
}

// End returns the universe index just past the batch.
func (b Batch) End() int { return b.Start + len(b.Tickers) }

// Batches partitions tickers[start:] into consecutive batches of size,
// the last one possibly shorter. A size below one is treated as one.
func Batches(tickers []string, start, size int) []Batch {
	if size < 1 {
		size = 1
	}
	if start < 0 {
		start = 0
	}
	var out []Batch
	for i := start; i < len(tickers); i += size {
		end := i + size
		if end > len(tickers) {
			end = len(tickers)
		}
		out = append(out, Batch{Start: i, Tickers: tickers[i:end]})
	}
	return out
}
