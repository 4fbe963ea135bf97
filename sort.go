package dsort

import (
	"context"
	"time"

	"github.com/exascience/dsort/comm"
	"github.com/exascience/dsort/metrics"
	"github.com/exascience/dsort/partition"
	"github.com/exascience/dsort/radix"
	"github.com/exascience/dsort/sort"
	"github.com/exascience/dsort/tree"
	"github.com/pkg/errors"
)

// Coordinator is the rank that holds the input and receives the output.
const Coordinator = 0

// ErrInvalidInput is returned by Sort on every worker when the coordinator
// rejects its arguments.
var ErrInvalidInput = errors.New("dsort: invalid input")

// timed runs one phase of a sort and records its outcome.
func timed(phase string, f func() error) error {
	start := time.Now()
	err := f()
	metrics.RecordPhase(phase, err, time.Since(start))
	return err
}

/*
Sort sorts the n values of in into out, in ascending order of their radix
keys, using all workers of ep.

Every worker must call Sort with its own endpoint. Only the arguments of
the coordinator are used: it requires n >= 0 and len(in) == len(out) == n.
Other workers pass 0 and nil buffers. The coordinator's in is not modified.

If the coordinator rejects its arguments, Sort returns ErrInvalidInput on
every worker before any value is sent. Any other failure, such as a
communication error or an inconsistent message, is returned as is; no
operation is retried.
*/
func Sort(ctx context.Context, ep comm.Endpoint, n int, in, out []float64) error {
	rank, size := ep.Rank(), ep.Size()

	err := timed("validate", func() error {
		var status []byte
		if rank == Coordinator {
			ok := 0
			if n >= 0 && len(in) == n && len(out) == n {
				ok = 1
			}
			status = comm.EncodeInts(ok, n)
		}
		status, err := comm.Broadcast(ctx, ep, Coordinator, comm.TagStatus, status)
		if err != nil {
			return err
		}
		values, err := comm.DecodeInts(status)
		if err != nil {
			return err
		}
		if len(values) != 2 {
			return errors.Wrapf(comm.ErrPayload, "status of %d integers", len(values))
		}
		if values[0] != 1 {
			if rank == Coordinator {
				return errors.Wrapf(ErrInvalidInput, "n = %d with %d input and %d output values", n, len(in), len(out))
			}
			return errors.Wrap(ErrInvalidInput, "rejected by the coordinator")
		}
		n = values[1]
		return nil
	})
	if err != nil {
		return err
	}

	var plan partition.Plan
	err = timed("partition", func() error {
		var payload []byte
		if rank == Coordinator {
			p, err := partition.New(n, size)
			if err != nil {
				return err
			}
			payload = comm.EncodeInts(append(append([]int(nil), p.Counts...), p.Displs...)...)
		}
		payload, err := comm.Broadcast(ctx, ep, Coordinator, comm.TagPlan, payload)
		if err != nil {
			return err
		}
		values, err := comm.DecodeInts(payload)
		if err != nil {
			return err
		}
		if len(values) != 2*size {
			return errors.Wrapf(comm.ErrPayload, "plan of %d integers for %d workers", len(values), size)
		}
		plan = partition.Plan{Counts: values[:size], Displs: values[size:]}
		return plan.Validate(n)
	})
	if err != nil {
		return err
	}

	var chunk []float64
	err = timed("scatter", func() (err error) {
		chunk, err = comm.Scatterv(ctx, ep, Coordinator, comm.TagScatter, in, plan.Counts, plan.Displs)
		return err
	})
	if err != nil {
		return err
	}

	timed("local_sort", func() error {
		radix.SortFloat64s(chunk)
		return nil
	})

	var merged []float64
	err = timed("merge", func() (err error) {
		merged, err = tree.Reduce(ctx, ep, chunk, sort.Merge)
		return err
	})
	if err != nil {
		return err
	}

	if rank == Coordinator {
		if len(merged) != n {
			return errors.Wrapf(tree.ErrProtocol, "merged %d values, want %d", len(merged), n)
		}
		copy(out, merged)
	}
	return nil
}
