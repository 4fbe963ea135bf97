package tree

import (
	"context"

	"github.com/exascience/dsort/comm"
	"github.com/exascience/dsort/metrics"
	"github.com/pkg/errors"
)

// ErrProtocol is returned when the messages or roles of a reduction are
// inconsistent.
var ErrProtocol = errors.New("tree: protocol violation")

// Reduce merges the sorted sequences of all ranks of ep. Every rank must
// call Reduce with its own sorted sequence and the same merge function,
// which must return the sorted combination of its two sorted arguments.
//
// On rank 0 Reduce returns the merged sequence of all ranks. On every other
// rank it returns nil once its sequence has been handed to its partner.
func Reduce(ctx context.Context, ep comm.Endpoint, local []float64, merge func(a, b []float64) []float64) ([]float64, error) {
	rank, size := ep.Rank(), ep.Size()
	absorbed := false
	for step, groupSize := 0, 1; step < Steps(size); step, groupSize = step+1, 2*groupSize {
		a := RoleOf(rank, groupSize, size)
		if absorbed {
			if a.Role != Idle {
				return nil, errors.Wrapf(ErrProtocol, "rank %d is %v at group size %d after it was absorbed", rank, a.Role, groupSize)
			}
			continue
		}
		switch a.Role {
		case Merger:
			if !a.HasPartner {
				continue
			}
			received, err := receive(ctx, ep, a.Partner)
			if err != nil {
				return nil, err
			}
			local = merge(local, received)
		case Sender:
			if err := send(ctx, ep, a.Partner, local); err != nil {
				return nil, err
			}
			local = nil
			absorbed = true
		}
	}
	if rank == 0 {
		return local, nil
	}
	if !absorbed {
		return nil, errors.Wrapf(ErrProtocol, "rank %d was never absorbed", rank)
	}
	return nil, nil
}

func send(ctx context.Context, ep comm.Endpoint, dest int, values []float64) error {
	if err := ep.Send(ctx, dest, comm.TagSize, comm.EncodeInts(len(values))); err != nil {
		return errors.Wrapf(err, "tree: send size to rank %d", dest)
	}
	if err := ep.Send(ctx, dest, comm.TagData, comm.EncodeFloat64s(values)); err != nil {
		return errors.Wrapf(err, "tree: send data to rank %d", dest)
	}
	metrics.RecordValues("sent", len(values))
	return nil
}

func receive(ctx context.Context, ep comm.Endpoint, source int) ([]float64, error) {
	sizes, err := comm.RecvInts(ctx, ep, source, comm.TagSize)
	if err != nil {
		return nil, errors.Wrapf(err, "tree: receive size from rank %d", source)
	}
	if len(sizes) != 1 || sizes[0] < 0 {
		return nil, errors.Wrapf(ErrProtocol, "invalid size message %v from rank %d", sizes, source)
	}
	values, err := comm.RecvFloat64s(ctx, ep, source, comm.TagData)
	if err != nil {
		return nil, errors.Wrapf(err, "tree: receive data from rank %d", source)
	}
	if len(values) != sizes[0] {
		return nil, errors.Wrapf(ErrProtocol, "rank %d announced %d values but sent %d", source, sizes[0], len(values))
	}
	metrics.RecordValues("received", len(values))
	return values, nil
}
