package socket

import (
	"context"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	corelog "github.com/nextdhcp/dhcpester/core/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRaw is an in-memory packetConn
type fakeRaw struct {
	frames chan []byte
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once

	l       sync.Mutex
	written [][]byte
	promisc bool
}

func newFakeRaw() *fakeRaw {
	return &fakeRaw{
		frames: make(chan []byte, 16),
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (f *fakeRaw) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case frame := <-f.frames:
		return copy(b, frame), nil, nil
	case <-f.wake:
		return 0, nil, os.ErrDeadlineExceeded
	case <-f.closed:
		return 0, nil, net.ErrClosed
	}
}

func (f *fakeRaw) WriteTo(b []byte, _ net.Addr) (int, error) {
	f.l.Lock()
	defer f.l.Unlock()
	f.written = append(f.written, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeRaw) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeRaw) LocalAddr() net.Addr               { return nil }
func (f *fakeRaw) SetDeadline(t time.Time) error      { return f.SetReadDeadline(t) }
func (f *fakeRaw) SetWriteDeadline(_ time.Time) error { return nil }
func (f *fakeRaw) SetPromiscuous(b bool) error        { f.promisc = b; return nil }

func (f *fakeRaw) SetReadDeadline(t time.Time) error {
	if !t.IsZero() && !t.After(time.Now()) {
		select {
		case f.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

func testConn(raw *fakeRaw) *Conn {
	return newConn(raw, &net.Interface{Name: "test0", HardwareAddr: serverMAC}, corelog.Discard())
}

func TestListen(t *testing.T) {
	raw := newFakeRaw()
	defer func(orig func(*net.Interface) (packetConn, error)) { rawListenPacket = orig }(rawListenPacket)
	rawListenPacket = func(_ *net.Interface) (packetConn, error) { return raw, nil }

	c, err := Listen(corelog.Discard(), &net.Interface{Name: "test0", HardwareAddr: serverMAC})
	require.NoError(t, err)
	assert.True(t, raw.promisc)
	assert.Equal(t, "test0", c.Interface().Name)
	assert.Equal(t, "test0<02:00:00:00:00:01>", c.LocalAddr().String())
	assert.NoError(t, c.Close())

	_, err = Listen(corelog.Discard(), nil)
	assert.Error(t, err)
}

func TestConn_Send(t *testing.T) {
	raw := newFakeRaw()
	c := testConn(raw)

	frame, err := BroadcastFrame(clientMAC, []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, c.Send(frame))

	require.Len(t, raw.written, 1)
	assert.Equal(t, frame, raw.written[0])
}

func TestConn_Stream(t *testing.T) {
	raw := newFakeRaw()
	c := testConn(raw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	discover, err := dhcpv4.NewDiscovery(clientMAC)
	require.NoError(t, err)
	offer, err := dhcpv4.NewReplyFromRequest(discover, dhcpv4.WithMessageType(dhcpv4.MessageTypeOffer))
	require.NoError(t, err)

	ownFrame, err := BroadcastFrame(clientMAC, discover.ToBytes())
	require.NoError(t, err)

	msgs := c.Stream(ctx, ClientPortFilter)

	// our own DISCOVER is seen on the wire as well and must be filtered
	raw.frames <- ownFrame
	raw.frames <- []byte{0x00, 0x01}
	raw.frames <- replyFrame(t, offer)

	select {
	case msg := <-msgs:
		assert.Equal(t, dhcpv4.MessageTypeOffer, msg.MessageType())
		assert.Equal(t, discover.TransactionID, msg.TransactionID)
	case <-time.After(time.Second):
		t.Fatal("expected an offer")
	}

	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok, "stream should be closed")
	case <-time.After(time.Second):
		t.Fatal("stream not closed after cancellation")
	}
}

func TestConn_Stream_closed(t *testing.T) {
	raw := newFakeRaw()
	c := testConn(raw)

	msgs := c.Stream(context.Background(), ClientPortFilter)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("stream not closed after Close")
	}
}

func TestConn_ReadFrom(t *testing.T) {
	raw := newFakeRaw()
	c := testConn(raw)

	discover, err := dhcpv4.NewDiscovery(clientMAC)
	require.NoError(t, err)
	ack, err := dhcpv4.NewReplyFromRequest(discover, dhcpv4.WithMessageType(dhcpv4.MessageTypeAck))
	require.NoError(t, err)

	raw.frames <- replyFrame(t, ack)

	buf := make([]byte, 1500)
	n, addr, err := c.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, serverMAC.String(), addr.(*Addr).MAC.String())

	msg, err := dhcpv4.FromBytes(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, dhcpv4.MessageTypeAck, msg.MessageType())

	raw.frames <- replyFrame(t, ack)
	_, _, err = c.ReadFrom(make([]byte, 10))
	assert.Error(t, err)
}
