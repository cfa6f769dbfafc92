package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// SharedUDPTransport multiplexes many concurrent requests, potentially to
// many different peers, over a single UDP socket: one background goroutine
// reads every inbound datagram and routes it to the pending request whose
// request-id it matches. This is the shape a long-lived poller or an agent
// acting as a proxy client needs - dozens of outstanding GETs without a
// socket each.
//
// Grounded on original_source's transport/shared.rs (summarized in
// DESIGN.md's survey: mutex-protected pending map keyed by request id,
// background receive loop, oneshot-per-request completion). Go has no
// oneshot channel, so each pending request gets a dedicated buffered
// channel of capacity 1 instead.
type SharedUDPTransport struct {
	conn *net.UDPConn

	nextID int32

	mu      sync.Mutex
	pending map[int32]*pendingRequest
	closed  bool

	// WarnOnSourceMismatch, when set, is called (in addition to the logged
	// warning) whenever a response arrives from an address other than the
	// one the matching request was sent to - a spoofing or misconfigured-NAT
	// signal worth surfacing. The datagram is delivered to the matching
	// request either way.
	WarnOnSourceMismatch func(requestID int32, want, got net.Addr)

	logger  *Logger
	metrics *Metrics
}

type pendingRequest struct {
	peer net.Addr
	done chan pendingResult
}

type pendingResult struct {
	data []byte
	from net.Addr
	err  error
}

// NewSharedUDPTransport binds a UDP socket on localAddr (use ":0" for an
// ephemeral port) and starts its background receive loop. Call Close to
// stop the loop and release the socket.
func NewSharedUDPTransport(localAddr string, logger *Logger, metrics *Metrics) (*SharedUDPTransport, error) {
	addr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, &Error{Kind: KindIO, Cause: err}
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, &Error{Kind: KindIO, Cause: err}
	}
	t := &SharedUDPTransport{
		conn:    conn,
		nextID:  int32(time.Now().UnixNano() & 0x3fffffff),
		pending: make(map[int32]*pendingRequest),
		logger:  logger,
		metrics: metrics,
	}
	go t.receiveLoop()
	return t, nil
}

// AllocRequestID hands out the next request id from a shared, atomically
// incremented counter, so every Client sharing this transport draws from
// one non-colliding sequence. The counter starts at a non-negative value
// taken from the current time.
func (t *SharedUDPTransport) AllocRequestID() int32 {
	return atomic.AddInt32(&t.nextID, 1)
}

// SendRequest sends msg to peer and registers requestID as awaiting a
// response, returning a Transport-shaped view scoped to this one exchange.
func (t *SharedUDPTransport) SendRequest(ctx context.Context, peer net.Addr, requestID int32, msg []byte) (*correlatedExchange, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, &Error{Kind: KindIO, Target: peer, Cause: net.ErrClosed}
	}
	pr := &pendingRequest{peer: peer, done: make(chan pendingResult, 1)}
	t.pending[requestID] = pr
	t.mu.Unlock()

	udpPeer, ok := peer.(*net.UDPAddr)
	if !ok {
		t.removePending(requestID)
		return nil, &Error{Kind: KindIO, Target: peer, Cause: net.InvalidAddrError("not a UDP address")}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	if _, err := t.conn.WriteToUDP(msg, udpPeer); err != nil {
		t.removePending(requestID)
		return nil, &Error{Kind: KindIO, Target: peer, Cause: err}
	}
	if t.metrics != nil {
		t.metrics.PendingRequests.Inc()
	}
	return &correlatedExchange{transport: t, requestID: requestID, pending: pr}, nil
}

func (t *SharedUDPTransport) removePending(requestID int32) {
	t.mu.Lock()
	delete(t.pending, requestID)
	t.mu.Unlock()
}

// receiveLoop reads every inbound datagram and, if it decodes far enough to
// extract a request id matching a pending request, delivers it there.
// Datagrams that don't match anything pending (late retransmits, unsolicited
// traps, garbage) are dropped with a debug log line.
func (t *SharedUDPTransport) receiveLoop() {
	buf := make([]byte, maxUDPDatagram)
	for {
		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			t.logger.Errorf("receiveLoop", t.conn.LocalAddr().String(), err, "read failed, stopping")
			t.drainAll(err)
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		requestID, ok := peekRequestID(data)
		if !ok {
			t.logger.Debugf("receiveLoop", from.String(), "dropping undecodable datagram")
			continue
		}
		t.mu.Lock()
		pr, found := t.pending[requestID]
		if found {
			delete(t.pending, requestID)
		}
		t.mu.Unlock()
		if !found {
			t.logger.Debugf("receiveLoop", from.String(), "dropping datagram for unknown request id %d", requestID)
			continue
		}
		if !sameHost(pr.peer, from) {
			t.logger.Warnf("receiveLoop", from.String(), nil, "response to request %d came from %v, not %v", requestID, from, pr.peer)
			if t.WarnOnSourceMismatch != nil {
				t.WarnOnSourceMismatch(requestID, pr.peer, from)
			}
		}
		if t.metrics != nil {
			t.metrics.PendingRequests.Dec()
		}
		pr.done <- pendingResult{data: data, from: from}
	}
}

func (t *SharedUDPTransport) drainAll(err error) {
	t.mu.Lock()
	t.closed = true
	pending := t.pending
	t.pending = make(map[int32]*pendingRequest)
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.PendingRequests.Sub(float64(len(pending)))
	}
	for _, pr := range pending {
		pr.done <- pendingResult{err: &Error{Kind: KindIO, Target: pr.peer, Cause: err}}
	}
}

// Close stops the receive loop (by closing the socket, which unblocks
// ReadFromUDP with an error) and fails every still-pending request.
func (t *SharedUDPTransport) Close() error {
	return t.conn.Close()
}

func (t *SharedUDPTransport) LocalAddr() net.Addr { return t.conn.LocalAddr() }

// correlatedExchange is the single-use Transport view SendRequest hands
// back: Recv waits on this request's dedicated completion channel, or
// reaps it from the pending map on context cancellation/timeout.
type correlatedExchange struct {
	transport *SharedUDPTransport
	requestID int32
	pending   *pendingRequest
}

func (c *correlatedExchange) Recv(ctx context.Context) ([]byte, error) {
	select {
	case res := <-c.pending.done:
		if res.err != nil {
			return nil, res.err
		}
		return res.data, nil
	case <-ctx.Done():
		t := c.transport
		t.mu.Lock()
		_, stillPending := t.pending[c.requestID]
		delete(t.pending, c.requestID)
		t.mu.Unlock()
		if stillPending && t.metrics != nil {
			t.metrics.PendingRequests.Dec()
		}
		return nil, &Error{Kind: KindTimeout, RequestID: c.requestID, Cause: ctx.Err()}
	}
}

// reapExpired removes requestID from the pending map without waiting for a
// response.
func (t *SharedUDPTransport) reapExpired(requestID int32) {
	t.removePending(requestID)
}

// peekRequestID extracts the request id from a raw SNMP message without
// fully decoding the PDU: it sniffs the version, then (for v1/v2c) the
// PDU's first INTEGER field, or (for v3) the header's MsgID, which stays
// readable when the scoped PDU is encrypted.
func peekRequestID(data []byte) (int32, bool) {
	version, err := PeekVersion(data)
	if err != nil {
		return 0, false
	}
	if version == Version3 {
		hdr, _, err := DecodeV3Envelope(data)
		if err != nil {
			return 0, false
		}
		// v3 correlates on MsgID, which is visible even when the scoped
		// PDU travels encrypted; a Client using v3 over this transport
		// must allocate MsgID and RequestID from the same counter so both
		// namespaces agree.
		return hdr.MsgID, true
	}
	msg, err := DecodeMessage(NewDecoder(data))
	if err != nil {
		return 0, false
	}
	return msg.PDU.RequestID, true
}

// SharedUDPClientTransport adapts a SharedUDPTransport into the fixed-peer
// Transport shape a Client expects, so many Clients - even addressing
// different peers - can multiplex their requests over one socket instead of
// each dialing its own. Construct one per Client via NewClientTransport.
type SharedUDPClientTransport struct {
	shared *SharedUDPTransport
	peer   net.Addr

	mu       sync.Mutex
	exchange *correlatedExchange
}

// NewClientTransport returns a Transport view of t scoped to peer.
func (t *SharedUDPTransport) NewClientTransport(peer net.Addr) *SharedUDPClientTransport {
	return &SharedUDPClientTransport{shared: t, peer: peer}
}

// AllocRequestID delegates to the shared transport's counter, so every
// Client built on the same SharedUDPTransport draws request ids from one
// non-colliding sequence (see Client.nextRequestID's RequestIDAllocator
// check).
func (c *SharedUDPClientTransport) AllocRequestID() int32 {
	return c.shared.AllocRequestID()
}

// Send registers msg's request id as pending and writes it to peer. The
// request id is recovered from msg itself via peekRequestID, since Transport
// gives Send no separate parameter for it.
func (c *SharedUDPClientTransport) Send(ctx context.Context, msg []byte) error {
	requestID, ok := peekRequestID(msg)
	if !ok {
		return &Error{Kind: KindIO, Target: c.peer, Cause: errors.New("shared transport: request is not a decodable SNMP message")}
	}
	exchange, err := c.shared.SendRequest(ctx, c.peer, requestID, msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.exchange = exchange
	c.mu.Unlock()
	return nil
}

// Recv waits on the exchange registered by the most recent Send.
func (c *SharedUDPClientTransport) Recv(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	exchange := c.exchange
	c.mu.Unlock()
	if exchange == nil {
		return nil, &Error{Kind: KindIO, Target: c.peer, Cause: errors.New("shared transport: Recv called before Send")}
	}
	return exchange.Recv(ctx)
}

func (c *SharedUDPClientTransport) PeerAddr() net.Addr  { return c.peer }
func (c *SharedUDPClientTransport) LocalAddr() net.Addr { return c.shared.LocalAddr() }
func (c *SharedUDPClientTransport) IsStream() bool      { return false }

// Close is a no-op: the underlying socket is shared and outlives any one
// Client's view of it. Close the SharedUDPTransport itself to release it.
func (c *SharedUDPClientTransport) Close() error { return nil }

func sameHost(a, b net.Addr) bool {
	au, aok := a.(*net.UDPAddr)
	bu, bok := b.(*net.UDPAddr)
	if !aok || !bok {
		return a.String() == b.String()
	}
	return au.IP.Equal(bu.IP)
}
