package comm

import (
	"context"
	"sync"
	"testing"
)

func TestBroadcast(t *testing.T) {
	ctx := context.Background()
	for _, size := range []int{1, 2, 5} {
		for root := 0; root < size; root++ {
			eps := NewLocal(size)
			results := make([][]int, size)
			var wg sync.WaitGroup
			for _, ep := range eps {
				wg.Add(1)
				go func(ep *LocalEndpoint) {
					defer wg.Done()
					var payload []byte
					if ep.Rank() == root {
						payload = EncodeInts(root, size)
					}
					received, err := Broadcast(ctx, ep, root, TagStatus, payload)
					if err != nil {
						t.Error(err)
						return
					}
					results[ep.Rank()], err = DecodeInts(received)
					if err != nil {
						t.Error(err)
					}
				}(ep)
			}
			wg.Wait()
			for rank, values := range results {
				if len(values) != 2 || values[0] != root || values[1] != size {
					t.Errorf("size %d, root %d: rank %d got %v", size, root, rank, values)
				}
			}
		}
	}
}

func TestScatterv(t *testing.T) {
	ctx := context.Background()
	data := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	counts := []int{4, 3, 0, 3}
	displs := []int{0, 4, 7, 7}
	eps := NewLocal(len(counts))
	chunks := make([][]float64, len(eps))
	var wg sync.WaitGroup
	for _, ep := range eps {
		wg.Add(1)
		go func(ep *LocalEndpoint) {
			defer wg.Done()
			var in []float64
			if ep.Rank() == 0 {
				in = data
			}
			chunk, err := Scatterv(ctx, ep, 0, TagScatter, in, counts, displs)
			if err != nil {
				t.Error(err)
				return
			}
			chunks[ep.Rank()] = chunk
		}(ep)
	}
	wg.Wait()
	for rank, chunk := range chunks {
		want := data[displs[rank] : displs[rank]+counts[rank]]
		if len(chunk) != len(want) {
			t.Errorf("rank %d: got %v, want %v", rank, chunk, want)
			continue
		}
		for i := range want {
			if chunk[i] != want[i] {
				t.Errorf("rank %d: got %v, want %v", rank, chunk, want)
				break
			}
		}
	}
	chunks[0][0] = 42
	if data[0] != 0 {
		t.Error("the root's chunk aliases its input")
	}
}

func TestScattervRejectsBadPlan(t *testing.T) {
	ctx := context.Background()
	eps := NewLocal(2)
	if _, err := Scatterv(ctx, eps[0], 0, TagScatter, []float64{1, 2}, []int{1, 2}, []int{0, 1}); err == nil {
		t.Error("chunk beyond the input was accepted")
	}
	if _, err := Scatterv(ctx, eps[0], 0, TagScatter, []float64{1, 2}, []int{2}, []int{0}); err == nil {
		t.Error("plan with too few counts was accepted")
	}
}
