// Package partition splits a sequence of n values into contiguous chunks,
// one per worker.
package partition

import (
	"github.com/pkg/errors"
)

// A Plan assigns the contiguous range [Displs[i], Displs[i]+Counts[i]) of
// the global sequence to worker i.
//
// Every chunk holds either n/w or n/w+1 values, and the first n%w chunks
// are the larger ones.
type Plan struct {
	Counts []int
	Displs []int
}

// New computes the plan for n values and the given number of workers.
func New(n, workers int) (Plan, error) {
	if n < 0 {
		return Plan{}, errors.Errorf("partition: negative size %d", n)
	}
	if workers < 1 {
		return Plan{}, errors.Errorf("partition: invalid number of workers %d", workers)
	}
	base, remainder := n/workers, n%workers
	plan := Plan{
		Counts: make([]int, workers),
		Displs: make([]int, workers),
	}
	for i := range plan.Counts {
		plan.Counts[i] = base
		if i < remainder {
			plan.Counts[i]++
		}
		if i > 0 {
			plan.Displs[i] = plan.Displs[i-1] + plan.Counts[i-1]
		}
	}
	return plan, nil
}

// Workers returns the number of chunks in the plan.
func (p Plan) Workers() int {
	return len(p.Counts)
}

// Chunk returns the half-open range of the global sequence that belongs
// to rank.
func (p Plan) Chunk(rank int) (low, high int) {
	return p.Displs[rank], p.Displs[rank] + p.Counts[rank]
}

// Validate checks that p is a well-formed plan for n values: counts and
// displacements have the same length, counts are non-negative and add up
// to n, and displacements are the exclusive prefix sums of the counts.
//
// Validate does not insist on the balanced chunk sizes that New produces,
// only on complete and non-overlapping coverage.
func (p Plan) Validate(n int) error {
	if len(p.Counts) == 0 {
		return errors.New("partition: empty plan")
	}
	if len(p.Counts) != len(p.Displs) {
		return errors.Errorf("partition: %d counts but %d displacements", len(p.Counts), len(p.Displs))
	}
	offset := 0
	for i, count := range p.Counts {
		if count < 0 {
			return errors.Errorf("partition: negative count %d for chunk %d", count, i)
		}
		if p.Displs[i] != offset {
			return errors.Errorf("partition: chunk %d starts at %d, want %d", i, p.Displs[i], offset)
		}
		offset += count
	}
	if offset != n {
		return errors.Errorf("partition: counts add up to %d, want %d", offset, n)
	}
	return nil
}
