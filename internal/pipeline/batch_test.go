package pipeline

import (
	"fmt"
	"testing"
)

func tickers(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("T%03d", i)
	}
	return out
}

func TestBatches_ExactPartition(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 7, 500} {
		for _, size := range []int{1, 2, 3, 10} {
			for _, start := range []int{0, 1, n / 2, n} {
				u := tickers(n)
				bs := Batches(u, start, size)

				var got []string
				next := start
				for i, b := range bs {
					if b.Start != next {
						t.Fatalf("n=%d size=%d start=%d: batch %d starts at %d, want %d", n, size, start, i, b.Start, next)
					}
					if i < len(bs)-1 && len(b.Tickers) != size {
						t.Fatalf("n=%d size=%d: non-final batch %d has %d tickers", n, size, i, len(b.Tickers))
					}
					if len(b.Tickers) == 0 || len(b.Tickers) > size {
						t.Fatalf("n=%d size=%d: batch %d has %d tickers", n, size, i, len(b.Tickers))
					}
					got = append(got, b.Tickers...)
					next = b.End()
				}

				want := u[start:]
				if len(got) != len(want) {
					t.Fatalf("n=%d size=%d start=%d: covered %d tickers, want %d", n, size, start, len(got), len(want))
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("n=%d size=%d start=%d: order differs at %d", n, size, start, i)
					}
				}
			}
		}
	}
}

func TestBatches_Clamps(t *testing.T) {
	if bs := Batches(tickers(3), 0, 0); len(bs) != 3 {
		t.Errorf("size 0: got %d batches, want 3", len(bs))
	}
	if bs := Batches(tickers(3), -2, 2); len(bs) != 2 || bs[0].Start != 0 {
		t.Errorf("negative start: got %+v", bs)
	}
	if bs := Batches(tickers(3), 9, 2); len(bs) != 0 {
		t.Errorf("start past end: got %+v", bs)
	}
}
