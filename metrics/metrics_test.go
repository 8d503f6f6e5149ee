package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/hubconnector"
	"github.com/joeycumines/bacsc/node"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestSetHubConnectorStateExposesExactlyOneActiveSeries(t *testing.T) {
	c := NewCollector("bacsc_test")
	c.SetHubConnectorState("node-1", hubconnector.StateConnectedPrimary)

	body := scrape(t, c)
	require.Contains(t, body, `bacsc_test_hub_connector_state{node="node-1",state="CONNECTED_PRIMARY"} 1`)
	require.Contains(t, body, `bacsc_test_hub_connector_state{node="node-1",state="IDLE"} 0`)
	require.Contains(t, body, `bacsc_test_hub_connector_state{node="node-1",state="WAIT_FOR_RECONNECT"} 0`)
}

func TestSetHubConnectorStateCountsReconnectEdgesNotLevels(t *testing.T) {
	c := NewCollector("bacsc_test")

	c.SetHubConnectorState("node-1", hubconnector.StateConnectingFailover)
	c.SetHubConnectorState("node-1", hubconnector.StateWaitForReconnect)
	c.SetHubConnectorState("node-1", hubconnector.StateWaitForReconnect)
	c.SetHubConnectorState("node-1", hubconnector.StateWaitForReconnect)

	body := scrape(t, c)
	require.Contains(t, body, `bacsc_test_hub_connector_reconnects_total{node="node-1"} 1`)

	c.SetHubConnectorState("node-1", hubconnector.StateConnectingPrimary)
	c.SetHubConnectorState("node-1", hubconnector.StateWaitForReconnect)

	body = scrape(t, c)
	require.Contains(t, body, `bacsc_test_hub_connector_reconnects_total{node="node-1"} 2`)
}

func TestObserveHubConnectorEventCountsByKind(t *testing.T) {
	c := NewCollector("bacsc_test")
	c.ObserveHubConnectorEvent("node-1", hubconnector.Event{Kind: hubconnector.EventConnectedPrimary})
	c.ObserveHubConnectorEvent("node-1", hubconnector.Event{Kind: hubconnector.EventDisconnected})
	c.ObserveHubConnectorEvent("node-1", hubconnector.Event{Kind: hubconnector.EventDisconnected})

	body := scrape(t, c)
	require.Contains(t, body, `bacsc_test_hub_connector_events_total{kind="connected_primary",node="node-1"} 1`)
	require.Contains(t, body, `bacsc_test_hub_connector_events_total{kind="disconnected",node="node-1"} 2`)
}

func TestSetResolutionCacheSize(t *testing.T) {
	c := NewCollector("bacsc_test")
	c.SetResolutionCacheSize("node-1", 7)
	body := scrape(t, c)
	require.Contains(t, body, `bacsc_test_node_address_resolution_cache_size{node="node-1"} 7`)
}

func TestSetPoolStatsComputesUtilization(t *testing.T) {
	c := NewCollector("bacsc_test")
	c.SetPoolStats(3, 4)
	body := scrape(t, c)
	require.Contains(t, body, "bacsc_test_node_pool_used 3")
	require.Contains(t, body, "bacsc_test_node_pool_size 4")
	require.Contains(t, body, "bacsc_test_node_pool_utilization_ratio 0.75")
}

func TestSetPoolStatsZeroSizeDoesNotDivideByZero(t *testing.T) {
	c := NewCollector("bacsc_test")
	require.NotPanics(t, func() {
		c.SetPoolStats(0, 0)
	})
	body := scrape(t, c)
	require.Contains(t, body, "bacsc_test_node_pool_used 0")
}

func TestPollNodeOnUnstartedNodeSkipsHubConnectorState(t *testing.T) {
	rt := bacsc.NewRuntime(zerolog.Nop())
	n := node.New(rt, zerolog.Nop())
	c := NewCollector("bacsc_test")

	require.NotPanics(t, func() {
		c.PollNode("node-1", n)
	})

	body := scrape(t, c)
	require.Contains(t, body, `bacsc_test_node_state{node="node-1",state="IDLE"} 1`)
	require.Contains(t, body, `bacsc_test_node_address_resolution_cache_size{node="node-1"} 0`)
	require.NotContains(t, body, `bacsc_test_hub_connector_state{node="node-1"`)
}

func TestHandlerServesGoAndProcessCollectors(t *testing.T) {
	c := NewCollector("bacsc_test")
	body := scrape(t, c)
	require.True(t, strings.Contains(body, "go_goroutines"))
}
