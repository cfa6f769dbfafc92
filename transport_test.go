package asyncsnmp

import (
	"context"
	"net"
	"testing"
	"time"
)

// udpEcho binds an ephemeral UDP socket and echoes every datagram it
// receives back to its sender, standing in for a remote SNMP peer.
func udpEcho(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("failed to bind echo socket: %v", err)
	}
	go func() {
		buf := make([]byte, maxUDPDatagram)
		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			_, _ = conn.WriteToUDP(buf[:n], from)
		}
	}()
	return conn
}

func TestUDPTransportSendRecvRoundTrip(t *testing.T) {
	echo := udpEcho(t)
	defer echo.Close()

	transport, err := DialUDP(echo.LocalAddr().String())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	want := []byte("a small ber-encoded message")
	if err := transport.Send(ctx, want); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	got, err := transport.Recv(ctx)
	if err != nil {
		t.Fatalf("recv failed: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("expected echoed bytes %q, got %q", want, got)
	}
}

func TestUDPTransportRecvTimesOutWithoutAResponse(t *testing.T) {
	silent, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("failed to bind silent socket: %v", err)
	}
	defer silent.Close()

	transport, err := DialUDP(silent.LocalAddr().String())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := transport.Send(ctx, []byte("nobody answers")); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	_, err = transport.Recv(ctx)
	snmpErr, ok := err.(*Error)
	if !ok || snmpErr.Kind != KindTimeout {
		t.Fatalf("expected a KindTimeout error, got %v", err)
	}
}

func TestSharedUDPTransportCorrelatesConcurrentRequestsByID(t *testing.T) {
	echo := udpEcho(t)
	defer echo.Close()

	shared, err := NewSharedUDPTransport(":0", nil, nil)
	if err != nil {
		t.Fatalf("failed to start shared transport: %v", err)
	}
	defer shared.Close()

	peer, err := net.ResolveUDPAddr("udp", echo.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	const n = 5
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		id := shared.AllocRequestID()
		go func(id int32) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			buf := NewEncodeBuf()
			Message{Version: Version2c, Community: []byte("public"), PDU: PDU{Type: PduGet, RequestID: id, VarBinds: []VarBind{NullVarBind(NewOID(1, 1))}}}.Encode(buf)
			msg := buf.Finish()
			exchange, err := shared.SendRequest(ctx, peer, id, msg)
			if err != nil {
				results <- err
				return
			}
			got, err := exchange.Recv(ctx)
			if err != nil {
				results <- err
				return
			}
			m, err := DecodeMessage(NewDecoder(got))
			if err != nil || m.PDU.RequestID != id {
				results <- &Error{Kind: KindIO, SubKind: "mismatched echo"}
				return
			}
			results <- nil
		}(id)
	}
	for i := 0; i < n; i++ {
		if err := <-results; err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}
}

func TestSharedUDPTransportReapsOnContextCancellation(t *testing.T) {
	silent, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("failed to bind silent socket: %v", err)
	}
	defer silent.Close()

	shared, err := NewSharedUDPTransport(":0", nil, nil)
	if err != nil {
		t.Fatalf("failed to start shared transport: %v", err)
	}
	defer shared.Close()

	peer, err := net.ResolveUDPAddr("udp", silent.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	id := shared.AllocRequestID()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	exchange, err := shared.SendRequest(ctx, peer, id, []byte("hello"))
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	_, err = exchange.Recv(ctx)
	snmpErr, ok := err.(*Error)
	if !ok || snmpErr.Kind != KindTimeout {
		t.Fatalf("expected a KindTimeout error, got %v", err)
	}
	shared.mu.Lock()
	_, stillPending := shared.pending[id]
	shared.mu.Unlock()
	if stillPending {
		t.Fatal("expected the reaped request to be removed from the pending map")
	}
}

// TestSharedUDPClientTransportRoundTripsThroughAClient exercises
// SharedUDPTransport's NewClientTransport adapter via a real Client,
// rather than calling SendRequest/Recv directly, so the Send/Recv contract
// Transport promises (request id recovered from the encoded message, not
// passed alongside it) is verified end to end.
func TestSharedUDPClientTransportRoundTripsThroughAClient(t *testing.T) {
	oid := NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0)
	agentConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("failed to bind fake agent socket: %v", err)
	}
	defer agentConn.Close()
	go func() {
		buf := make([]byte, maxUDPDatagram)
		for {
			n, from, err := agentConn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			m, err := DecodeMessage(NewDecoder(buf[:n]))
			if err != nil {
				return
			}
			respPDU := PDU{Type: PduResponse, RequestID: m.PDU.RequestID, VarBinds: []VarBind{NewVarBind(oid, NewOctetString([]byte("a router")))}}
			out := NewEncodeBuf()
			Message{Version: m.Version, Community: m.Community, PDU: respPDU}.Encode(out)
			_, _ = agentConn.WriteToUDP(out.Finish(), from)
		}
	}()

	shared, err := NewSharedUDPTransport(":0", nil, nil)
	if err != nil {
		t.Fatalf("failed to start shared transport: %v", err)
	}
	defer shared.Close()

	peer, err := net.ResolveUDPAddr("udp", agentConn.LocalAddr().String())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	c := &Client{
		base: baseConfig{
			target:           peer.String(),
			timeout:          time.Second,
			retries:          1,
			maxOIDsPerGetReq: 10,
			transport:        shared.NewClientTransport(peer),
		},
		version:   Version2c,
		community: []byte("public"),
	}
	got, err := c.Get(context.Background(), []OID{oid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].OID.Equal(oid) {
		t.Fatalf("unexpected result: %+v", got)
	}
}
