package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import (
	"context"
	"net"
	"time"
)

// maxUDPDatagram is the largest possible UDP payload (65535 minus the
// 8-byte UDP header), used to size the single-read receive buffer.
const maxUDPDatagram = 65527

// UDPTransport owns a single UDP socket connected to one peer. It is the
// simplest Transport: one Client, one socket, one outstanding request at a
// time (the Client above it serializes Send/Recv pairs).
//
// Grounded on the teacher's net.Dial-based connection setup (gosnmp dials
// a UDP socket per *GoSNMP instance) generalized to the Transport
// interface.
type UDPTransport struct {
	conn *net.UDPConn
	peer *net.UDPAddr
}

// DialUDP opens a UDP socket connected to addr.
func DialUDP(addr string) (*UDPTransport, error) {
	peer, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, &Error{Kind: KindIO, Cause: err}
	}
	conn, err := net.DialUDP("udp", nil, peer)
	if err != nil {
		return nil, &Error{Kind: KindIO, Target: peer, Cause: err}
	}
	return &UDPTransport{conn: conn, peer: peer}, nil
}

func (t *UDPTransport) Send(ctx context.Context, msg []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	_, err := t.conn.Write(msg)
	if err != nil {
		return &Error{Kind: KindIO, Target: t.peer, Cause: err}
	}
	return nil
}

func (t *UDPTransport) Recv(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(deadline)
	} else {
		_ = t.conn.SetReadDeadline(time.Time{})
	}
	buf := make([]byte, maxUDPDatagram)
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, &Error{Kind: KindTimeout, Target: t.peer, Cause: err}
		}
		return nil, &Error{Kind: KindIO, Target: t.peer, Cause: err}
	}
	return buf[:n], nil
}

func (t *UDPTransport) PeerAddr() net.Addr  { return t.peer }
func (t *UDPTransport) LocalAddr() net.Addr { return t.conn.LocalAddr() }
func (t *UDPTransport) IsStream() bool      { return false }
func (t *UDPTransport) Close() error        { return t.conn.Close() }
