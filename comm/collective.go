package comm

import (
	"context"

	"github.com/pkg/errors"
)

// Broadcast sends payload from root to every other rank. Every rank must
// call Broadcast with the same root and tag; all of them return the
// payload of the root.
func Broadcast(ctx context.Context, ep Endpoint, root int, tag Tag, payload []byte) ([]byte, error) {
	if err := checkRank(root, ep.Size()); err != nil {
		return nil, errors.Wrap(err, "broadcast")
	}
	if ep.Rank() != root {
		payload, err := ep.Recv(ctx, root, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "broadcast from rank %d", root)
		}
		return payload, nil
	}
	for dest := 0; dest < ep.Size(); dest++ {
		if dest == root {
			continue
		}
		if err := ep.Send(ctx, dest, tag, payload); err != nil {
			return nil, errors.Wrapf(err, "broadcast to rank %d", dest)
		}
	}
	return payload, nil
}

// Scatterv hands every rank i its chunk data[displs[i]:displs[i]+counts[i]]
// of the root's data. Every rank must call Scatterv with the same root,
// tag, counts, and displs; only the root's data is read. Each rank
// receives its own copy of its chunk.
func Scatterv(ctx context.Context, ep Endpoint, root int, tag Tag, data []float64, counts, displs []int) ([]float64, error) {
	size, rank := ep.Size(), ep.Rank()
	if err := checkRank(root, size); err != nil {
		return nil, errors.Wrap(err, "scatter")
	}
	if len(counts) != size || len(displs) != size {
		return nil, errors.Errorf("scatter: %d counts and %d displacements for %d ranks", len(counts), len(displs), size)
	}
	if rank != root {
		chunk, err := RecvFloat64s(ctx, ep, root, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "scatter from rank %d", root)
		}
		if len(chunk) != counts[rank] {
			return nil, errors.Wrapf(ErrPayload, "scatter: received %d values, want %d", len(chunk), counts[rank])
		}
		return chunk, nil
	}
	for i := 0; i < size; i++ {
		if counts[i] < 0 || displs[i] < 0 || displs[i]+counts[i] > len(data) {
			return nil, errors.Errorf("scatter: chunk %d [%d:+%d] outside of %d values", i, displs[i], counts[i], len(data))
		}
	}
	for dest := 0; dest < size; dest++ {
		if dest == root {
			continue
		}
		chunk := data[displs[dest] : displs[dest]+counts[dest]]
		if err := ep.Send(ctx, dest, tag, EncodeFloat64s(chunk)); err != nil {
			return nil, errors.Wrapf(err, "scatter to rank %d", dest)
		}
	}
	return append([]float64(nil), data[displs[root]:displs[root]+counts[root]]...), nil
}
