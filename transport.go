package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"context"
	"net"
)

// Transport is how a Client sends a request and receives its matching
// response. UDPTransport implements it directly; SharedUDPTransport's
// NewClientTransport returns a per-peer view that does too; TCP framing is
// layered on top of the same interface.
//
// Grounded on original_source/src/transport/mod.rs's Transport trait.
type Transport interface {
	// Send writes a single already-encoded message to the peer.
	Send(ctx context.Context, msg []byte) error

	// Recv blocks for the next message addressed to this transport's
	// correlation slot, or until ctx is done.
	Recv(ctx context.Context) ([]byte, error)

	// PeerAddr is the transport's configured remote address.
	PeerAddr() net.Addr

	// LocalAddr is the transport's bound local address.
	LocalAddr() net.Addr

	// IsStream reports whether the transport is stream-oriented (TCP). Recv
	// on a stream transport returns one BER-length-framed message; Client
	// does not retry requests over a stream transport.
	IsStream() bool

	// Close releases any resources the transport holds.
	Close() error
}

// RequestIDAllocator is implemented by transports that hand out their own
// request ids (e.g. a shared UDP transport handing out ids from one
// counter across every client built on top of it). A transport that
// doesn't implement this lets the Client allocate ids itself.
type RequestIDAllocator interface {
	AllocRequestID() int32
}

// AgentTransport is how a dispatching Agent receives datagrams from
// arbitrary clients and replies to each by its source address, rather than
// to one fixed peer.
//
// Grounded on original_source/src/transport/mod.rs's AgentTransport trait.
type AgentTransport interface {
	// RecvFrom blocks for the next inbound datagram and its source.
	RecvFrom(ctx context.Context) (data []byte, from net.Addr, err error)

	// SendTo writes data back to the given source address.
	SendTo(ctx context.Context, data []byte, to net.Addr) error

	// LocalAddr is the transport's bound local address.
	LocalAddr() net.Addr

	Close() error
}
