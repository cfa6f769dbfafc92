package asyncsnmp

import (
	"context"
	"net"
	"testing"
	"time"
)

// fakeTransport answers each Send with whatever its responder computes from
// the decoded request PDU, letting walk/client tests script a response
// sequence without a real socket.
type fakeTransport struct {
	sent      [][]byte
	responder func(reqPDU PDU) PDU
}

func (f *fakeTransport) Send(ctx context.Context, msg []byte) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Recv(ctx context.Context) ([]byte, error) {
	last := f.sent[len(f.sent)-1]
	m, err := DecodeMessage(NewDecoder(last))
	if err != nil {
		return nil, err
	}
	respPDU := f.responder(m.PDU)
	buf := NewEncodeBuf()
	Message{Version: m.Version, Community: m.Community, PDU: respPDU}.Encode(buf)
	return buf.Finish(), nil
}

func (f *fakeTransport) PeerAddr() net.Addr  { return &net.UDPAddr{} }
func (f *fakeTransport) LocalAddr() net.Addr { return &net.UDPAddr{} }
func (f *fakeTransport) IsStream() bool      { return false }
func (f *fakeTransport) Close() error        { return nil }

func newTestClient(responder func(PDU) PDU) *Client {
	ft := &fakeTransport{responder: responder}
	return &Client{
		base: baseConfig{
			target:           "127.0.0.1:161",
			timeout:          time.Second,
			retries:          0,
			maxOIDsPerGetReq: 10,
			transport:        ft,
		},
		version:   Version2c,
		community: []byte("public"),
	}
}

func TestWalkYieldsUntilEndOfMibView(t *testing.T) {
	root := NewOID(1, 3, 6, 1, 2, 1, 1)
	steps := []VarBind{
		NewVarBind(NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0), NewOctetString([]byte("descr"))),
		NewVarBind(NewOID(1, 3, 6, 1, 2, 1, 1, 2, 0), NewObjectIdentifier(NewOID(1, 3, 6, 1, 4, 1, 1))),
	}
	idx := 0
	c := newTestClient(func(req PDU) PDU {
		if idx >= len(steps) {
			return PDU{Type: PduResponse, RequestID: req.RequestID, VarBinds: []VarBind{{OID: req.VarBinds[0].OID, Value: NewEndOfMibView()}}}
		}
		vb := steps[idx]
		idx++
		return PDU{Type: PduResponse, RequestID: req.RequestID, VarBinds: []VarBind{vb}}
	})

	var got []VarBind
	err := c.Walk(context.Background(), root, func(vb VarBind) error {
		got = append(got, vb)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(steps) {
		t.Fatalf("expected %d varbinds, got %d", len(steps), len(got))
	}
	for i, vb := range got {
		if !vb.OID.Equal(steps[i].OID) {
			t.Fatalf("varbind %d: expected OID %v, got %v", i, steps[i].OID, vb.OID)
		}
	}
}

func TestWalkStopsWhenSubtreeExited(t *testing.T) {
	root := NewOID(1, 3, 6, 1, 2, 1, 1)
	outside := NewOID(1, 3, 6, 1, 2, 1, 2, 1, 0)
	c := newTestClient(func(req PDU) PDU {
		return PDU{Type: PduResponse, RequestID: req.RequestID, VarBinds: []VarBind{NewVarBind(outside, NewInteger(1))}}
	})

	called := false
	err := c.Walk(context.Background(), root, func(vb VarBind) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("expected the walk to stop before yielding a varbind outside the subtree")
	}
}

func TestWalkRejectsNonIncreasingOID(t *testing.T) {
	root := NewOID(1, 3, 6, 1, 2, 1, 1)
	stuck := NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0)
	c := newTestClient(func(req PDU) PDU {
		return PDU{Type: PduResponse, RequestID: req.RequestID, VarBinds: []VarBind{NewVarBind(stuck, NewInteger(1))}}
	})

	err := c.Walk(context.Background(), root, func(vb VarBind) error { return nil })
	snmpErr, ok := err.(*Error)
	if !ok || snmpErr.Kind != KindNonIncreasingOID {
		t.Fatalf("expected a KindNonIncreasingOID error, got %v", err)
	}
}

func TestBulkWalkCollectsMultipleVarBindsPerRoundTrip(t *testing.T) {
	root := NewOID(1, 3, 6, 1, 2, 1, 1)
	responses := [][]VarBind{
		{
			NewVarBind(NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0), NewInteger(1)),
			NewVarBind(NewOID(1, 3, 6, 1, 2, 1, 1, 2, 0), NewInteger(2)),
		},
		{
			{OID: NewOID(1, 3, 6, 1, 2, 1, 1, 2, 0), Value: NewEndOfMibView()},
		},
	}
	call := 0
	c := newTestClient(func(req PDU) PDU {
		resp := responses[call]
		call++
		return PDU{Type: PduResponse, RequestID: req.RequestID, VarBinds: resp}
	})

	var got []VarBind
	err := c.BulkWalk(context.Background(), root, 2, func(vb VarBind) error {
		got = append(got, vb)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 varbinds, got %d", len(got))
	}
}
