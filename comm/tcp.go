package comm

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// TCPOptions configures a TCP endpoint.
type TCPOptions struct {
	// DialTimeout bounds how long a peer is redialed before Send gives up.
	// Peers may start in any order, so refused connections are retried.
	// Zero means retry until the context of the Send ends.
	DialTimeout time.Duration

	// RetryInterval is the pause between dial attempts. Zero means 50ms.
	RetryInterval time.Duration
}

func (opts TCPOptions) retryInterval() time.Duration {
	if opts.RetryInterval <= 0 {
		return 50 * time.Millisecond
	}
	return opts.RetryInterval
}

// A TCPEndpoint is an Endpoint whose peers are reached over TCP.
//
// Every ordered pair of ranks uses its own connection, which is dialed on
// the first Send and opened with a hello frame carrying the sender rank.
// Frames carry an xxh3 checksum; a corrupt frame or a broken connection
// fails all receives from the affected rank.
type TCPEndpoint struct {
	rank  int
	addrs []string
	opts  TCPOptions
	ln    net.Listener
	po    *postOffice

	mu       sync.Mutex
	closed   bool
	outgoing map[int]*peerConn
	incoming map[net.Conn]struct{}

	wg sync.WaitGroup
}

type peerConn struct {
	mu   sync.Mutex
	conn net.Conn
	w    *bufio.Writer
}

// Listen starts the endpoint of rank, listening on addrs[rank]. The
// address of rank i is addrs[i], and len(addrs) is the number of workers.
func Listen(ctx context.Context, rank int, addrs []string, opts TCPOptions) (*TCPEndpoint, error) {
	if err := checkRank(rank, len(addrs)); err != nil {
		return nil, err
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addrs[rank])
	if err != nil {
		return nil, errors.Wrapf(err, "comm: listen on %s", addrs[rank])
	}
	ep := &TCPEndpoint{
		rank:     rank,
		addrs:    append([]string(nil), addrs...),
		opts:     opts,
		ln:       ln,
		po:       newPostOffice(),
		outgoing: make(map[int]*peerConn),
		incoming: make(map[net.Conn]struct{}),
	}
	ep.wg.Add(1)
	go ep.accept()
	return ep, nil
}

// Addr returns the address the endpoint listens on.
func (ep *TCPEndpoint) Addr() net.Addr { return ep.ln.Addr() }

// Rank implements the method of the Endpoint interface.
func (ep *TCPEndpoint) Rank() int { return ep.rank }

// Size implements the method of the Endpoint interface.
func (ep *TCPEndpoint) Size() int { return len(ep.addrs) }

func (ep *TCPEndpoint) isClosed() bool {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.closed
}

func (ep *TCPEndpoint) accept() {
	defer ep.wg.Done()
	for {
		conn, err := ep.ln.Accept()
		if err != nil {
			return
		}
		ep.mu.Lock()
		if ep.closed {
			ep.mu.Unlock()
			conn.Close()
			return
		}
		ep.incoming[conn] = struct{}{}
		ep.wg.Add(1)
		ep.mu.Unlock()
		go ep.serve(conn)
	}
}

func (ep *TCPEndpoint) serve(conn net.Conn) {
	defer ep.wg.Done()
	defer func() {
		ep.mu.Lock()
		delete(ep.incoming, conn)
		ep.mu.Unlock()
		conn.Close()
	}()

	r := bufio.NewReader(conn)
	tag, payload, err := readFrame(r)
	if err != nil || tag != tagHello {
		return
	}
	ids, err := DecodeInts(payload)
	if err != nil || len(ids) != 1 || checkRank(ids[0], len(ep.addrs)) != nil {
		return
	}
	source := ids[0]
	for {
		tag, payload, err := readFrame(r)
		if err != nil {
			if err != io.EOF && !ep.isClosed() {
				ep.po.failSource(source, errors.Wrapf(err, "connection from rank %d", source))
			}
			return
		}
		ep.po.deliver(source, tag, payload)
	}
}

func (ep *TCPEndpoint) dial(ctx context.Context, dest int) (net.Conn, error) {
	if ep.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ep.opts.DialTimeout)
		defer cancel()
	}
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", ep.addrs[dest])
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(err, "comm: dial rank %d at %s", dest, ep.addrs[dest])
		case <-time.After(ep.opts.retryInterval()):
		}
	}
}

// peer returns the connection to dest with its lock held, dialing it first
// if necessary.
func (ep *TCPEndpoint) peer(ctx context.Context, dest int) (*peerConn, error) {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return nil, ErrClosed
	}
	pc, ok := ep.outgoing[dest]
	if !ok {
		pc = &peerConn{}
		ep.outgoing[dest] = pc
	}
	ep.mu.Unlock()

	pc.mu.Lock()
	if pc.conn != nil {
		return pc, nil
	}
	conn, err := ep.dial(ctx, dest)
	if err != nil {
		pc.mu.Unlock()
		return nil, err
	}
	w := bufio.NewWriter(conn)
	if err := writeFrame(w, tagHello, EncodeInts(ep.rank)); err != nil {
		pc.mu.Unlock()
		conn.Close()
		return nil, err
	}
	pc.conn, pc.w = conn, w
	return pc, nil
}

// Send implements the method of the Endpoint interface.
func (ep *TCPEndpoint) Send(ctx context.Context, dest int, tag Tag, payload []byte) error {
	if err := checkRank(dest, len(ep.addrs)); err != nil {
		return errors.Wrap(err, "send")
	}
	if dest == ep.rank {
		if ep.isClosed() {
			return ErrClosed
		}
		ep.po.deliver(ep.rank, tag, append([]byte(nil), payload...))
		return nil
	}
	pc, err := ep.peer(ctx, dest)
	if err != nil {
		return err
	}
	defer pc.mu.Unlock()
	if err := writeFrame(pc.w, tag, payload); err != nil {
		return errors.Wrapf(err, "send to rank %d", dest)
	}
	if err := pc.w.Flush(); err != nil {
		return errors.Wrapf(err, "send to rank %d", dest)
	}
	return nil
}

// Recv implements the method of the Endpoint interface.
func (ep *TCPEndpoint) Recv(ctx context.Context, source int, tag Tag) ([]byte, error) {
	if err := checkRank(source, len(ep.addrs)); err != nil {
		return nil, errors.Wrap(err, "recv")
	}
	return ep.po.take(ctx, source, tag)
}

// Close implements the method of the Endpoint interface. It flushes and
// closes outgoing connections, stops listening, and waits for the
// connection handlers to finish.
func (ep *TCPEndpoint) Close() error {
	ep.mu.Lock()
	if ep.closed {
		ep.mu.Unlock()
		return nil
	}
	ep.closed = true
	outgoing := make([]*peerConn, 0, len(ep.outgoing))
	for _, pc := range ep.outgoing {
		outgoing = append(outgoing, pc)
	}
	incoming := make([]net.Conn, 0, len(ep.incoming))
	for conn := range ep.incoming {
		incoming = append(incoming, conn)
	}
	ep.mu.Unlock()

	err := ep.ln.Close()
	for _, pc := range outgoing {
		pc.mu.Lock()
		if pc.conn != nil {
			pc.w.Flush()
			pc.conn.Close()
		}
		pc.mu.Unlock()
	}
	for _, conn := range incoming {
		conn.Close()
	}
	ep.po.failAll(ErrClosed)
	ep.wg.Wait()
	return err
}
