// Package socketctx implements the socket-context glue: a collection of
// socket slots sharing one TLS configuration and one server/initiator
// role, delivering lifecycle events (connected, disconnected, received,
// context-deinitialized) to an owner (hubconnector, hubfunction or
// nodeswitch) under the core's single recursive lock.
//
// The actual TLS/WebSocket transport is an external collaborator; Context
// only defines the Driver interface a transport implements and the
// event-delivery discipline a transport must honor. Package transport in
// this module provides one concrete Driver.
package socketctx

import (
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/bvlc"
)

// Role is whether a Context dials out (Initiator, used by hubconnector and
// the direct-connect side of nodeswitch) or accepts inbound connections
// (Acceptor, used by hubfunction and the listening side of nodeswitch).
type Role int

const (
	RoleInitiator Role = iota
	RoleAcceptor
)

// DisconnectCause classifies why a socket disconnected. CauseDuplicatedVMAC
// is the one cause the core's state machines treat specially (it drives the
// duplicate-VMAC restart protocol).
type DisconnectCause int

const (
	CauseUnspecified DisconnectCause = iota
	CauseLocal                       // local side initiated the close
	CauseRemote                      // remote side closed
	CauseTimeout                     // connect/heartbeat/disconnect timeout elapsed
	CauseDuplicatedVMAC              // remote asserted our VMAC is already in use
)

// SlotState is the lifecycle state of one socket slot.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotConnecting
	SlotConnected
	SlotDisconnecting
)

// Socket is one slot in a Context: at most one live connection.
type Socket struct {
	Index      int
	State      SlotState
	RemoteVMAC bacsc.VMAC
	RemoteUUID bacsc.UUID
	URL        bacsc.URL
}

// Config configures a Context, shared across the hub-connector,
// hub-function and node-switch configuration surfaces.
type Config struct {
	Role Role

	CACertChain      []byte
	DeviceCertChain  []byte
	DeviceKey        []byte
	LocalUUID        bacsc.UUID
	LocalVMAC        bacsc.VMAC
	MaxBVLCLen       uint16
	MaxNPDULen       uint16
	ConnectTimeout   time.Duration
	HeartbeatTimeout time.Duration
	DisconnectTimeout time.Duration
}

// Funcs are the callbacks a Context owner supplies, mirroring
// BSC_SOCKET_CTX_FUNCS in the original implementation: two address-lookup
// hooks used by an acceptor to correlate an inbound connection with
// already-known state, and the two event-delivery callbacks.
type Funcs struct {
	FindConnectionForVMAC func(vmac bacsc.VMAC) *Socket
	FindConnectionForUUID func(uuid bacsc.UUID) *Socket

	// OnSocketEvent delivers CONNECTED/DISCONNECTED/RECEIVED for a given
	// slot. Invoked under the owning Runtime's lock.
	OnSocketEvent func(s *Socket, ev SocketEvent, cause DisconnectCause, pdu []byte, decoded *bvlc.Message)

	// OnContextEvent delivers CTX_DEINITIALIZED once Deinit has fully
	// torn down every slot. Invoked under the owning Runtime's lock.
	OnContextEvent func(ev CtxEvent)
}

// SocketEvent is the tag of a per-slot lifecycle event.
type SocketEvent int

const (
	SocketEventConnected SocketEvent = iota
	SocketEventDisconnected
	SocketEventReceived
)

// CtxEvent is the tag of a context-wide lifecycle event.
type CtxEvent int

const (
	CtxEventDeinitialized CtxEvent = iota
)

// Driver is the interface a transport implements to actually dial,
// accept, send on and tear down sockets. The core never blocks on it:
// Connect/Send/Close are expected to do their work asynchronously and
// report completion by calling back into the owning Context's Notify*
// methods: no blocking I/O runs in the core.
type Driver interface {
	// Connect begins an outbound connection attempt for slot to url. Slot
	// transitions to SlotConnecting immediately; completion (success or
	// failure) is reported via Context.NotifyConnected /
	// Context.NotifyDisconnected.
	Connect(c *Context, slot int, url bacsc.URL) error
	// Send writes pdu on slot's live connection.
	Send(c *Context, slot int, pdu []byte) error
	// Close tears down every slot and, once complete, calls
	// Context.NotifyDeinitialized.
	Close(c *Context)
}

// Context owns a fixed set of socket slots plus the Runtime lock
// discipline for delivering their events. Construct via Init.
type Context struct {
	rt     *bacsc.Runtime
	Cfg    Config
	Funcs  Funcs
	Driver Driver
	Slots  []*Socket
}

// Listener is implemented by a Driver that accepts inbound connections
// (cfg.Role == RoleAcceptor). It has no fixed slot or URL to act on, so it
// isn't part of Driver itself; Init type-asserts for it and, when present,
// calls it once construction completes. A Driver that only ever dials out
// (RoleInitiator) need not implement it.
type Listener interface {
	Listen(c *Context) error
}

// Init constructs a Context with n slots. rt is the Runtime whose lock
// guards every event delivered through this Context. For an acceptor role,
// if driver also implements Listener, its Listen method is invoked once
// the Context is ready to receive NotifyConnected/NotifyReceived calls for
// inbound sockets.
func Init(rt *bacsc.Runtime, cfg Config, funcs Funcs, driver Driver, n int) *Context {
	slots := make([]*Socket, n)
	for i := range slots {
		slots[i] = &Socket{Index: i, State: SlotIdle}
	}
	c := &Context{rt: rt, Cfg: cfg, Funcs: funcs, Driver: driver, Slots: slots}
	if cfg.Role == RoleAcceptor {
		if l, ok := driver.(Listener); ok {
			_ = l.Listen(c)
		}
	}
	return c
}

// Connect starts an outbound connection on slot.
func (c *Context) Connect(slot int, url bacsc.URL) error {
	c.Slots[slot].State = SlotConnecting
	c.Slots[slot].URL = url
	return c.Driver.Connect(c, slot, url)
}

// Send writes pdu on slot.
func (c *Context) Send(slot int, pdu []byte) error {
	return c.Driver.Send(c, slot, pdu)
}

// Deinit requests teardown of every slot; CtxEventDeinitialized is
// delivered asynchronously once complete.
func (c *Context) Deinit() {
	c.Driver.Close(c)
}

// NotifyConnected is called by the Driver when slot completes connecting.
func (c *Context) NotifyConnected(slot int) {
	c.rt.Lock()
	defer c.rt.Unlock()
	s := c.Slots[slot]
	s.State = SlotConnected
	if c.Funcs.OnSocketEvent != nil {
		c.Funcs.OnSocketEvent(s, SocketEventConnected, CauseUnspecified, nil, nil)
	}
}

// NotifyDisconnected is called by the Driver when slot's connection ends
// (attempt failed, or a live connection dropped), with the cause.
func (c *Context) NotifyDisconnected(slot int, cause DisconnectCause) {
	c.rt.Lock()
	defer c.rt.Unlock()
	s := c.Slots[slot]
	s.State = SlotIdle
	if c.Funcs.OnSocketEvent != nil {
		c.Funcs.OnSocketEvent(s, SocketEventDisconnected, cause, nil, nil)
	}
}

// NotifyReceived is called by the Driver when a PDU arrives on slot. decoded
// may be nil if the Driver doesn't decode inline; the node package decodes
// lazily via bvlc.Decode in that case.
func (c *Context) NotifyReceived(slot int, pdu []byte, decoded *bvlc.Message) {
	c.rt.Lock()
	defer c.rt.Unlock()
	s := c.Slots[slot]
	if c.Funcs.OnSocketEvent != nil {
		c.Funcs.OnSocketEvent(s, SocketEventReceived, CauseUnspecified, pdu, decoded)
	}
}

// NotifyDeinitialized is called by the Driver once every slot has finished
// tearing down.
func (c *Context) NotifyDeinitialized() {
	c.rt.Lock()
	defer c.rt.Unlock()
	if c.Funcs.OnContextEvent != nil {
		c.Funcs.OnContextEvent(CtxEventDeinitialized)
	}
}
