package comm

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

// A LocalEndpoint is an Endpoint whose peers live in the same process.
// Payloads are copied on Send, so sender and receiver never share memory.
type LocalEndpoint struct {
	rank   int
	peers  []*postOffice
	closed atomic.Bool
}

// NewLocal returns size endpoints that are connected to each other, where
// the endpoint at index i has rank i.
func NewLocal(size int) []*LocalEndpoint {
	if size < 1 {
		panic("comm: invalid number of local endpoints")
	}
	offices := make([]*postOffice, size)
	for i := range offices {
		offices[i] = newPostOffice()
	}
	endpoints := make([]*LocalEndpoint, size)
	for i := range endpoints {
		endpoints[i] = &LocalEndpoint{rank: i, peers: offices}
	}
	return endpoints
}

// Rank implements the method of the Endpoint interface.
func (ep *LocalEndpoint) Rank() int { return ep.rank }

// Size implements the method of the Endpoint interface.
func (ep *LocalEndpoint) Size() int { return len(ep.peers) }

// Send implements the method of the Endpoint interface.
func (ep *LocalEndpoint) Send(ctx context.Context, dest int, tag Tag, payload []byte) error {
	if ep.closed.Load() {
		return ErrClosed
	}
	if err := checkRank(dest, len(ep.peers)); err != nil {
		return errors.Wrap(err, "send")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ep.peers[dest].deliver(ep.rank, tag, append([]byte(nil), payload...))
	return nil
}

// Recv implements the method of the Endpoint interface.
func (ep *LocalEndpoint) Recv(ctx context.Context, source int, tag Tag) ([]byte, error) {
	if err := checkRank(source, len(ep.peers)); err != nil {
		return nil, errors.Wrap(err, "recv")
	}
	return ep.peers[ep.rank].take(ctx, source, tag)
}

// Close implements the method of the Endpoint interface.
func (ep *LocalEndpoint) Close() error {
	if ep.closed.Swap(true) {
		return nil
	}
	ep.peers[ep.rank].failAll(ErrClosed)
	return nil
}
