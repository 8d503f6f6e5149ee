// Package metrics exposes Prometheus collectors for the observable state
// of a running node: hub-connector connectivity, reconnect counts, node
// lifecycle state, and node-pool/address-resolution-cache occupancy. It is
// an external collaborator, not part of the core: nothing under
// hubconnector/hubfunction/nodeswitch/node imports it. A caller wires a
// Collector in by polling its State()/Status()/Stats() accessors on its own
// schedule and by forwarding OnEvent callbacks, the same way cmd/scnode
// does.
package metrics

import (
	"net/http"

	"github.com/joeycumines/bacsc/hubconnector"
	"github.com/joeycumines/bacsc/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// hubConnectorStates lists every hubconnector.State so Collector can hold a
// zeroed gauge series for each one and flip exactly one to 1 per node,
// rather than only ever emitting the currently-observed state (which would
// leave stale series behind in whatever a previous poll last reported).
var hubConnectorStates = []hubconnector.State{
	hubconnector.StateIdle,
	hubconnector.StateConnectingPrimary,
	hubconnector.StateConnectingFailover,
	hubconnector.StateConnectedPrimary,
	hubconnector.StateConnectedFailover,
	hubconnector.StateWaitForReconnect,
	hubconnector.StateWaitForCtxDeinit,
	hubconnector.StateError,
}

var nodeStates = []node.State{
	node.StateIdle,
	node.StateStarting,
	node.StateStarted,
	node.StateRestarting,
	node.StateStopping,
}

// Collector holds one private Prometheus registry plus every collector
// this package defines. Construct with NewCollector; use Handler to serve
// /metrics.
type Collector struct {
	registry *prometheus.Registry

	hubConnectorState      *prometheus.GaugeVec
	hubConnectorReconnects *prometheus.CounterVec
	hubConnectorEvents     *prometheus.CounterVec

	nodeState               *prometheus.GaugeVec
	nodeResolutionCacheSize *prometheus.GaugeVec

	nodePoolUsed        prometheus.Gauge
	nodePoolSize        prometheus.Gauge
	nodePoolUtilization prometheus.Gauge

	// reconnectTracker remembers the last state observed per node label, so
	// SetHubConnectorState can count an edge into WAIT_FOR_RECONNECT exactly
	// once per transition rather than once per poll.
	reconnectTracker map[string]hubconnector.State
}

// NewCollector builds a Collector with a fresh registry, pre-registered
// with the standard Go/process collectors (matching the reference
// InitPrometheus, which always registers both alongside its own metrics).
// namespace prefixes every metric name (e.g. "bacsc").
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	c := &Collector{
		registry: registry,

		hubConnectorState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hub_connector_state",
				Help:      "1 for the hub-connector's current state, 0 for every other known state",
			},
			[]string{"node", "state"},
		),
		hubConnectorReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hub_connector_reconnects_total",
				Help:      "Times a hub-connector entered WAIT_FOR_RECONNECT after both hub URLs failed",
			},
			[]string{"node"},
		),
		hubConnectorEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hub_connector_events_total",
				Help:      "Hub-connector events delivered to its owner, by kind",
			},
			[]string{"node", "kind"},
		),

		nodeState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "node_state",
				Help:      "1 for a node's current lifecycle state, 0 for every other known state",
			},
			[]string{"node", "state"},
		),
		nodeResolutionCacheSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "node_address_resolution_cache_size",
				Help:      "Number of VMAC entries currently held in a node's address-resolution cache",
			},
			[]string{"node"},
		),

		nodePoolUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_pool_used",
			Help:      "Number of node-pool slots currently allocated",
		}),
		nodePoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_pool_size",
			Help:      "Total fixed size of the node pool",
		}),
		nodePoolUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_pool_utilization_ratio",
			Help:      "node_pool_used / node_pool_size",
		}),

		reconnectTracker: map[string]hubconnector.State{},
	}

	registry.MustRegister(
		c.hubConnectorState,
		c.hubConnectorReconnects,
		c.hubConnectorEvents,
		c.nodeState,
		c.nodeResolutionCacheSize,
		c.nodePoolUsed,
		c.nodePoolSize,
		c.nodePoolUtilization,
	)
	return c
}

// Handler returns the HTTP handler scraping this Collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, for a caller that wants to
// register additional collectors of its own alongside this package's.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// SetHubConnectorState records h's current state for the given node label
// and counts a reconnect each time state newly becomes
// StateWaitForReconnect (an edge, not a level: polling while already in
// that state doesn't double-count).
func (c *Collector) SetHubConnectorState(nodeLabel string, state hubconnector.State) {
	for _, s := range hubConnectorStates {
		v := 0.0
		if s == state {
			v = 1
		}
		c.hubConnectorState.WithLabelValues(nodeLabel, s.String()).Set(v)
	}
	if state == hubconnector.StateWaitForReconnect && c.reconnectTracker[nodeLabel] != hubconnector.StateWaitForReconnect {
		c.hubConnectorReconnects.WithLabelValues(nodeLabel).Inc()
	}
	c.reconnectTracker[nodeLabel] = state
}

// ObserveHubConnectorEvent counts one hubconnector.Event, forwarded from a
// hubconnector.Config.OnEvent (or node.Config.OnHubConnectorEvent) callback.
func (c *Collector) ObserveHubConnectorEvent(nodeLabel string, ev hubconnector.Event) {
	c.hubConnectorEvents.WithLabelValues(nodeLabel, hubConnectorEventKindLabel(ev.Kind)).Inc()
}

func hubConnectorEventKindLabel(kind hubconnector.EventKind) string {
	switch kind {
	case hubconnector.EventConnectedPrimary:
		return "connected_primary"
	case hubconnector.EventConnectedFailover:
		return "connected_failover"
	case hubconnector.EventDisconnected:
		return "disconnected"
	case hubconnector.EventReceived:
		return "received"
	case hubconnector.EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SetNodeState records n's current lifecycle state for the given label.
func (c *Collector) SetNodeState(nodeLabel string, state node.State) {
	for _, s := range nodeStates {
		v := 0.0
		if s == state {
			v = 1
		}
		c.nodeState.WithLabelValues(nodeLabel, s.String()).Set(v)
	}
}

// SetResolutionCacheSize records the current size of a node's
// address-resolution cache.
func (c *Collector) SetResolutionCacheSize(nodeLabel string, size int) {
	c.nodeResolutionCacheSize.WithLabelValues(nodeLabel).Set(float64(size))
}

// SetPoolStats records a node.Pool's current occupancy.
func (c *Collector) SetPoolStats(used, size int) {
	c.nodePoolUsed.Set(float64(used))
	c.nodePoolSize.Set(float64(size))
	if size > 0 {
		c.nodePoolUtilization.Set(float64(used) / float64(size))
	}
}

// PollNode is a convenience that reads n's current observable state in one
// call and updates every corresponding gauge, for a caller that polls on a
// timer (e.g. alongside the Runtime's runloop tick) rather than wiring
// every individual event callback.
func (c *Collector) PollNode(nodeLabel string, n *node.Node) {
	c.SetNodeState(nodeLabel, n.State())
	c.SetResolutionCacheSize(nodeLabel, n.ResolutionCacheSize())
	if state, ok := n.HubConnectorState(); ok {
		c.SetHubConnectorState(nodeLabel, state)
	}
}
