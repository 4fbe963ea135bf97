/*
Package comm provides point-to-point message passing between a fixed set
of workers that share no memory.

Each worker owns an Endpoint. A worker is identified by its rank in
[0, Size()), and messages are matched on the receiving side by the rank
of the sender and a Tag. Messages between a fixed pair of ranks with the
same tag are received in the order in which they were sent; no ordering
is guaranteed across different senders.

Two transports are provided: NewLocal connects endpoints within one
process, and Listen connects endpoints in different processes over TCP.
*/
package comm

import (
	"context"

	"github.com/pkg/errors"
)

// A Tag distinguishes messages between the same pair of ranks.
type Tag uint32

// Tags used by the distributed sort.
const (
	// TagSize carries the element count that precedes a merge payload.
	TagSize Tag = iota
	// TagData carries the sorted values of a merge step.
	TagData
	// TagStatus carries the validation flag and the global element count.
	TagStatus
	// TagPlan carries the partition plan.
	TagPlan
	// TagScatter carries a worker's chunk of the input.
	TagScatter

	// tagHello opens a TCP connection and carries the sender rank.
	tagHello Tag = 1<<32 - 1
)

var (
	// ErrClosed is returned by operations on a closed endpoint.
	ErrClosed = errors.New("comm: endpoint closed")

	// ErrChecksum is returned when a received frame is corrupt.
	ErrChecksum = errors.New("comm: checksum mismatch")

	// ErrPayload is returned when a payload cannot be decoded.
	ErrPayload = errors.New("comm: malformed payload")
)

// An Endpoint is one worker's connection to all other workers.
//
// Send and Recv may be called from different goroutines, but Recv must
// only be called by one goroutine at a time for a given source and tag.
type Endpoint interface {
	// Rank returns the rank of this worker.
	Rank() int

	// Size returns the number of workers.
	Size() int

	// Send delivers payload to the worker dest under tag. It does not wait
	// for the receiver. The caller may reuse payload once Send returns.
	Send(ctx context.Context, dest int, tag Tag, payload []byte) error

	// Recv blocks until a message with tag from source is available, and
	// returns its payload, which is owned by the caller.
	Recv(ctx context.Context, source int, tag Tag) ([]byte, error)

	// Close releases the resources of the endpoint. Once its queued
	// messages are consumed, Recv on a closed endpoint fails with ErrClosed.
	Close() error
}

func checkRank(rank, size int) error {
	if rank < 0 || rank >= size {
		return errors.Errorf("comm: rank %d out of range [0, %d)", rank, size)
	}
	return nil
}
