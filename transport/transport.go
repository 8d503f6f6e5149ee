// Package transport provides the one concrete socketctx.Driver this module
// ships: TLS-secured WebSocket sockets, dialed or accepted with
// gorilla/websocket. The core never depends on this package directly (it
// only knows socketctx.Driver); wiring it in is left to the caller that
// constructs a hubconnector/hubfunction/nodeswitch/node, via the
// NewDriver config field.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/rs/zerolog"
)

// Options configures the driver a single socketctx.Context gets. ListenAddr
// only matters for an acceptor-role context; it's ignored for an initiator.
type Options struct {
	// ListenAddr is the address an acceptor-role driver binds to (e.g.
	// ":9999"). Required when the owning Context has Role == RoleAcceptor.
	ListenAddr string
	// Subprotocol, if set, is offered/required as the WebSocket
	// subprotocol on both the dial and the accept side.
	Subprotocol string
	Log         zerolog.Logger
}

// New returns a socketctx.Config-to-Driver factory suitable for a
// Config.NewDriver field (hubconnector.Config, hubfunction.Config,
// nodeswitch.Config, node.Config all share this shape).
func New(opts Options) func(socketctx.Config) socketctx.Driver {
	return func(cfg socketctx.Config) socketctx.Driver {
		return newDriver(opts, cfg)
	}
}

// Driver is one socketctx.Driver instance, bound to the Config it was
// constructed for (one per Context, matching socketctx's one-driver-per-
// owner wiring). It implements socketctx.Driver and, when the owning
// Context is an acceptor, socketctx.Listener.
type Driver struct {
	opts Options
	cfg  socketctx.Config
	tls  *tls.Config
	log  zerolog.Logger

	dialer   websocket.Dialer
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[int]*websocket.Conn
	cancel map[int]context.CancelFunc
	wg     sync.WaitGroup

	server    *http.Server
	ln        net.Listener
	closeOnce sync.Once
}

// Addr returns the actual address Listen bound to, once it has run
// (useful for tests that bind ListenAddr ":0" to get an ephemeral port).
// Returns "" before Listen completes.
func (d *Driver) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ln == nil {
		return ""
	}
	return d.ln.Addr().String()
}

func newDriver(opts Options, cfg socketctx.Config) *Driver {
	tlsCfg := buildTLSConfig(cfg)
	d := &Driver{
		opts:   opts,
		cfg:    cfg,
		tls:    tlsCfg,
		log:    opts.Log,
		conns:  map[int]*websocket.Conn{},
		cancel: map[int]context.CancelFunc{},
	}
	d.dialer = websocket.Dialer{
		TLSClientConfig:  tlsCfg,
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	if opts.Subprotocol != "" {
		d.dialer.Subprotocols = []string{opts.Subprotocol}
	}
	d.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	if opts.Subprotocol != "" {
		d.upgrader.Subprotocols = []string{opts.Subprotocol}
	}
	return d
}

// buildTLSConfig turns the PEM-encoded chains in cfg into a *tls.Config:
// cfg.CACertChain is trusted as the peer root, cfg.DeviceCertChain +
// cfg.DeviceKey present this node's own identity (mutual TLS, as BACnet/SC
// requires on both the hub and node sides).
func buildTLSConfig(cfg socketctx.Config) *tls.Config {
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(cfg.CACertChain)
	cert, err := tls.X509KeyPair(cfg.DeviceCertChain, cfg.DeviceKey)
	if err != nil {
		// Config validation at the hubconnector/hubfunction/nodeswitch layer
		// already requires non-empty buffers; a parse failure here means the
		// PEM content itself is malformed, which surfaces as every dial and
		// every accepted handshake failing the same way, not a panic.
		return &tls.Config{RootCAs: pool, ClientCAs: pool}
	}
	return &tls.Config{
		RootCAs:      pool,
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		Certificates: []tls.Certificate{cert},
	}
}

// Connect dials url and reports completion via c.NotifyConnected /
// c.NotifyDisconnected, per socketctx.Driver's contract that Connect
// never blocks the caller on the handshake itself.
func (d *Driver) Connect(c *socketctx.Context, slot int, url bacsc.URL) error {
	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancel[slot] = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		conn, _, err := d.dialer.DialContext(ctx, string(url), nil)
		if err != nil {
			d.log.Warn().Err(err).Str("url", string(url)).Int("slot", slot).Msg("transport dial failed")
			c.NotifyDisconnected(slot, causeFromDialErr(ctx, err))
			return
		}
		d.mu.Lock()
		d.conns[slot] = conn
		d.mu.Unlock()
		c.NotifyConnected(slot)
		d.pump(c, slot, conn)
	}()
	return nil
}

func causeFromDialErr(ctx context.Context, err error) socketctx.DisconnectCause {
	if ctx.Err() != nil {
		return socketctx.CauseLocal
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return socketctx.CauseTimeout
	}
	return socketctx.CauseRemote
}

// Listen implements socketctx.Listener for an acceptor-role Context:
// it starts an HTTP server upgrading every request to a WebSocket, assigns
// each accepted connection the first idle slot it finds, and runs a read
// pump for it exactly like a dialed connection.
func (d *Driver) Listen(c *socketctx.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := d.upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.log.Warn().Err(err).Msg("transport upgrade failed")
			return
		}
		d.acceptConn(c, conn)
	})
	d.server = &http.Server{
		Addr:      d.opts.ListenAddr,
		Handler:   mux,
		TLSConfig: d.tls,
	}
	ln, err := net.Listen("tcp", d.opts.ListenAddr)
	if err != nil {
		d.log.Error().Err(err).Str("addr", d.opts.ListenAddr).Msg("transport listen failed")
		return err
	}
	tlsLn := tls.NewListener(ln, d.tls)
	d.mu.Lock()
	d.ln = tlsLn
	d.mu.Unlock()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.server.Serve(tlsLn); err != nil && err != http.ErrServerClosed {
			d.log.Warn().Err(err).Msg("transport accept loop exited")
		}
	}()
	return nil
}

// acceptConn claims the first idle slot for an inbound connection. A
// connection that arrives with no free slot is closed immediately: the
// core has no slot to attribute it to (node-switch/hub-function both size
// their socket contexts to their configured peer/connection
// bound up front).
func (d *Driver) acceptConn(c *socketctx.Context, conn *websocket.Conn) {
	slot := -1
	for _, s := range c.Slots {
		if s.State == socketctx.SlotIdle {
			slot = s.Index
			break
		}
	}
	if slot < 0 {
		d.log.Warn().Msg("transport dropping inbound connection: no free slot")
		_ = conn.Close()
		return
	}
	_, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.conns[slot] = conn
	d.cancel[slot] = cancel
	d.mu.Unlock()
	c.NotifyConnected(slot)
	d.pump(c, slot, conn)
}

// pump runs the blocking read loop for slot's connection in a dedicated
// goroutine, delivering each frame via c.NotifyReceived and the eventual
// close via c.NotifyDisconnected — the same shape as the reference
// adapter's pumpTCPToDataChannel/cleanup pairing, adapted from TCP framing
// to whole-message WebSocket frames.
func (d *Driver) pump(c *socketctx.Context, slot int, conn *websocket.Conn) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.disconnect(c, slot, socketctx.CauseRemote)
		for {
			_, pdu, err := conn.ReadMessage()
			if err != nil {
				return
			}
			c.NotifyReceived(slot, pdu, nil)
		}
	}()
}

// disconnect tears down slot's connection exactly once and reports cause,
// unless the slot was already reclaimed by Close.
func (d *Driver) disconnect(c *socketctx.Context, slot int, cause socketctx.DisconnectCause) {
	d.mu.Lock()
	conn, ok := d.conns[slot]
	if ok {
		delete(d.conns, slot)
		delete(d.cancel, slot)
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	_ = conn.Close()
	c.NotifyDisconnected(slot, cause)
}

// Send writes pdu as a single binary WebSocket frame on slot's connection.
func (d *Driver) Send(_ *socketctx.Context, slot int, pdu []byte) error {
	d.mu.Lock()
	conn := d.conns[slot]
	d.mu.Unlock()
	if conn == nil {
		return bacsc.NewError(bacsc.KindInvalidOperation, "send on unconnected slot", nil)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, pdu); err != nil {
		return bacsc.NewError(bacsc.KindTransport, "websocket write failed", err)
	}
	return nil
}

// Close cancels every in-flight dial, closes every live connection and the
// listener (if any), waits for every pump/dial goroutine to exit, then
// reports completion via c.NotifyDeinitialized. Idempotent, mirroring the
// reference adapter's sync.Once-guarded cleanup.
func (d *Driver) Close(c *socketctx.Context) {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		for _, cancel := range d.cancel {
			cancel()
		}
		conns := make([]*websocket.Conn, 0, len(d.conns))
		for _, conn := range d.conns {
			conns = append(conns, conn)
		}
		d.conns = map[int]*websocket.Conn{}
		d.cancel = map[int]context.CancelFunc{}
		d.mu.Unlock()

		for _, conn := range conns {
			_ = conn.Close()
		}
		if d.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = d.server.Shutdown(shutdownCtx)
			cancel()
		}
		d.wg.Wait()
	})
	c.NotifyDeinitialized()
}
