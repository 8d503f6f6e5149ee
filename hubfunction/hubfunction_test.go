package hubfunction

import (
	"testing"
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/bvlc"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// noopDriver never completes a Connect (hub-function never dials out) and
// records Send/Close calls so tests can assert on relay behavior.
type noopDriver struct {
	sent []struct {
		slot int
		pdu  []byte
	}
	closed bool
}

func (d *noopDriver) Connect(*socketctx.Context, int, bacsc.URL) error { return nil }
func (d *noopDriver) Send(_ *socketctx.Context, slot int, pdu []byte) error {
	d.sent = append(d.sent, struct {
		slot int
		pdu  []byte
	}{slot, pdu})
	return nil
}
func (d *noopDriver) Close(c *socketctx.Context) {
	d.closed = true
	c.NotifyDeinitialized()
}

func newTestConfig(t *testing.T, driver *noopDriver, onEvent func(Event)) Config {
	t.Helper()
	vmac, err := bacsc.NewRandomVMAC()
	require.NoError(t, err)
	uuid, err := bacsc.NewRandomUUID()
	require.NoError(t, err)
	return Config{
		CACertChain:       []byte("ca"),
		DeviceCertChain:   []byte("cert"),
		DeviceKey:         []byte("key"),
		LocalUUID:         uuid,
		LocalVMAC:         vmac,
		MaxBVLCLen:        1500,
		MaxNPDULen:        1400,
		ConnectTimeout:    5 * time.Second,
		HeartbeatTimeout:  5 * time.Second,
		DisconnectTimeout: 5 * time.Second,
		MaxPeers:          4,
		OnEvent:           onEvent,
		NewDriver:         func(socketctx.Config) socketctx.Driver { return driver },
	}
}

func TestStartEmitsStartedAndAcceptsPeers(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	var events []Event
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(e Event) { events = append(events, e) })

	require.NoError(t, hf.Start(cfg))
	require.Equal(t, StateStarted, hf.state)
	require.Len(t, events, 1)
	require.Equal(t, EventStarted, events[0].Kind)
	require.Len(t, hf.ctx.Slots, 4)
}

func TestStartTwiceIsInvalidOperation(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(Event) {})
	require.NoError(t, hf.Start(cfg))

	err := hf.Start(cfg)
	require.Error(t, err)
	var berr *bacsc.Error
	require.ErrorAs(t, err, &berr)
	require.Equal(t, bacsc.KindInvalidOperation, berr.Kind)
}

func TestRelayForwardsToMatchingPeer(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	var events []Event
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(e Event) { events = append(events, e) })
	require.NoError(t, hf.Start(cfg))

	peerA, err := bacsc.NewRandomVMAC()
	require.NoError(t, err)
	peerB, err := bacsc.NewRandomVMAC()
	require.NoError(t, err)

	hf.ctx.Slots[0].State = socketctx.SlotConnected
	hf.ctx.Slots[0].RemoteVMAC = peerA
	hf.ctx.Slots[1].State = socketctx.SlotConnected
	hf.ctx.Slots[1].RemoteVMAC = peerB

	pdu := []byte{0x05, 0x00, 0x00, 0x01}
	dest := [6]byte(peerB)
	decoded := &bvlc.Message{Header: bvlc.Header{Function: bvlc.FunctionEncapsulatedNPDU, Dest: &dest}}

	hf.onSocketEvent(hf.ctx.Slots[0], socketctx.SocketEventReceived, socketctx.CauseUnspecified, pdu, decoded)

	require.Empty(t, events)
	require.Len(t, driver.sent, 1)
	require.Equal(t, 1, driver.sent[0].slot)
	require.Equal(t, pdu, driver.sent[0].pdu)
}

func TestUnresolvedDestinationBubblesUpAsReceived(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	var events []Event
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(e Event) { events = append(events, e) })
	require.NoError(t, hf.Start(cfg))

	unknown, err := bacsc.NewRandomVMAC()
	require.NoError(t, err)
	pdu := []byte{0x05}
	dest := [6]byte(unknown)
	decoded := &bvlc.Message{Header: bvlc.Header{Function: bvlc.FunctionEncapsulatedNPDU, Dest: &dest}}

	hf.ctx.Slots[0].State = socketctx.SlotConnected
	hf.onSocketEvent(hf.ctx.Slots[0], socketctx.SocketEventReceived, socketctx.CauseUnspecified, pdu, decoded)

	require.Len(t, events, 2) // EventStarted + EventReceived
	require.Equal(t, EventReceived, events[1].Kind)
	require.Equal(t, pdu, events[1].PDU)
}

func TestDuplicatedVMACEmitted(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	var events []Event
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(e Event) { events = append(events, e) })
	require.NoError(t, hf.Start(cfg))

	peer, err := bacsc.NewRandomVMAC()
	require.NoError(t, err)
	hf.ctx.Slots[2].RemoteVMAC = peer

	hf.onSocketEvent(hf.ctx.Slots[2], socketctx.SocketEventDisconnected, socketctx.CauseDuplicatedVMAC, nil, nil)

	require.Len(t, events, 2)
	require.Equal(t, EventDuplicatedVMAC, events[1].Kind)
	require.Equal(t, peer, events[1].VMAC)
}

func TestStopTearsDownAndEmitsStopped(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	var events []Event
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(e Event) { events = append(events, e) })
	require.NoError(t, hf.Start(cfg))

	hf.ctx.Slots[0].State = socketctx.SlotConnected
	hf.Stop()

	require.True(t, driver.closed)
	require.Equal(t, StateIdle, hf.state)
	require.Len(t, events, 2)
	require.Equal(t, EventStopped, events[1].Kind)
}

func TestSendWithNoMatchingPeerIsInvalidOperation(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	driver := &noopDriver{}
	hf := New(rt, zerolog.Nop())
	cfg := newTestConfig(t, driver, func(Event) {})
	require.NoError(t, hf.Start(cfg))

	unknown, err := bacsc.NewRandomVMAC()
	require.NoError(t, err)
	err = hf.Send(unknown, []byte{0x01})
	require.Error(t, err)
	var berr *bacsc.Error
	require.ErrorAs(t, err, &berr)
	require.Equal(t, bacsc.KindInvalidOperation, berr.Kind)
}
