package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joeycumines/bacsc"
	"github.com/joeycumines/bacsc/metrics"
	"github.com/joeycumines/bacsc/node"
	"github.com/joeycumines/bacsc/socketctx"
	"github.com/joeycumines/bacsc/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func daemonCmd() *cobra.Command {
	var (
		logLevel             string
		metricsAddr          string
		uuidStr              string
		vmacStr              string
		primaryURL           string
		failoverURL          string
		hubFunctionEnabled   bool
		hubFunctionListen    string
		hubFunctionMaxPeers  int
		nodeSwitchEnabled    bool
		nodeSwitchListen     string
		maxDirectConnections int
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run a BACnet/SC node until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
				Level(parseLevel(logLevel)).
				With().Timestamp().Logger()

			caCert, err := os.ReadFile(caCertPath)
			if err != nil {
				return fmt.Errorf("read ca-cert: %w", err)
			}
			deviceCert, err := os.ReadFile(deviceCertPath)
			if err != nil {
				return fmt.Errorf("read device-cert: %w", err)
			}
			deviceKey, err := os.ReadFile(deviceKeyPath)
			if err != nil {
				return fmt.Errorf("read device-key: %w", err)
			}

			localUUID, err := resolveUUID(uuidStr)
			if err != nil {
				return err
			}
			localVMAC, err := resolveVMAC(vmacStr)
			if err != nil {
				return err
			}

			primary, err := bacsc.ParseURL(primaryURL, 256)
			if err != nil {
				return fmt.Errorf("primary-url: %w", err)
			}
			failover, err := bacsc.ParseURL(failoverURL, 256)
			if err != nil {
				return fmt.Errorf("failover-url: %w", err)
			}

			rt := bacsc.NewRuntime(log)
			pool := node.NewPool(rt, log, 1)
			collector := metrics.NewCollector("bacsc")

			drivers := &driverFactory{
				log:               log,
				hubFunctionListen: hubFunctionListen,
				nodeSwitchListen:  nodeSwitchListen,
			}

			var wg sync.WaitGroup
			wg.Add(1)
			var stopOnce sync.Once

			cfg := node.Config{
				CACertChain:       caCert,
				DeviceCertChain:   deviceCert,
				DeviceKey:         deviceKey,
				LocalUUID:         localUUID,
				LocalVMAC:         localVMAC,
				MaxBVLCLen:        1500,
				MaxNPDULen:        1400,
				ConnectTimeout:    10 * time.Second,
				HeartbeatTimeout:  15 * time.Second,
				DisconnectTimeout: 10 * time.Second,
				ReconnectTimeout:  5 * time.Second,
				PrimaryURL:        primary,
				FailoverURL:       failover,
				MaxURLLen:         256,

				HubFunctionEnabled:   hubFunctionEnabled,
				HubFunctionMaxPeers:  hubFunctionMaxPeers,
				NodeSwitchEnabled:    nodeSwitchEnabled,
				MaxDirectConnections: maxDirectConnections,

				MaxResolutionEntries:       64,
				AddressResolutionFreshness: time.Minute,
				MaxURLsPerResolution:       4,
				MaxURLLenPerResolution:     256,

				OnEvent: func(ev node.Event) {
					log.Info().Str("kind", nodeEventKindLabel(ev.Kind)).Msg("node event")
					if ev.Kind == node.EventStopped {
						stopOnce.Do(wg.Done)
					}
				},
				NewDriver: drivers.newDriver,
			}

			n, err := pool.Init(cfg)
			if err != nil {
				return fmt.Errorf("init node: %w", err)
			}
			if err := n.Start(cfg); err != nil {
				return fmt.Errorf("start node: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			go rt.Run(ctx)

			var metricsServer *http.Server
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", collector.Handler())
				metricsServer = &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					log.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
					if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error().Err(err).Msg("metrics server error")
					}
				}()
			}

			pollCtx, pollCancel := context.WithCancel(context.Background())
			go pollMetrics(pollCtx, collector, pool, n)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info().Msg("shutdown signal received")

			n.Stop()
			waitWithTimeout(&wg, 10*time.Second)

			pollCancel()
			cancel()
			if metricsServer != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = metricsServer.Shutdown(shutdownCtx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-listen", ":9090", "HTTP listen address for /metrics (empty disables it)")
	cmd.Flags().StringVar(&uuidStr, "uuid", "", "This node's stable UUID (random if empty)")
	cmd.Flags().StringVar(&vmacStr, "vmac", "", "This node's VMAC, colon-separated hex (random if empty)")
	cmd.Flags().StringVar(&primaryURL, "primary-url", "", "Primary hub wss:// URL")
	cmd.Flags().StringVar(&failoverURL, "failover-url", "", "Failover hub wss:// URL")
	cmd.Flags().BoolVar(&hubFunctionEnabled, "hub-function", false, "Enable the inbound hub-function mini-broker")
	cmd.Flags().StringVar(&hubFunctionListen, "hub-function-listen", ":9443", "Hub-function accept address")
	cmd.Flags().IntVar(&hubFunctionMaxPeers, "hub-function-max-peers", 8, "Hub-function peer socket slots")
	cmd.Flags().BoolVar(&nodeSwitchEnabled, "node-switch", false, "Enable direct node-switch peer connections")
	cmd.Flags().StringVar(&nodeSwitchListen, "node-switch-listen", ":9444", "Node-switch accept address")
	cmd.Flags().IntVar(&maxDirectConnections, "max-direct-connections", 8, "Node-switch direct connection slots")

	return cmd
}

func resolveUUID(s string) (bacsc.UUID, error) {
	if s == "" {
		return bacsc.NewRandomUUID()
	}
	return bacsc.ParseUUID(s)
}

func resolveVMAC(s string) (bacsc.VMAC, error) {
	if s == "" {
		return bacsc.NewRandomVMAC()
	}
	return bacsc.ParseVMAC(s)
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func nodeEventKindLabel(kind node.EventKind) string {
	switch kind {
	case node.EventStarted:
		return "started"
	case node.EventRestarted:
		return "restarted"
	case node.EventStopped:
		return "stopped"
	case node.EventReceived:
		return "received"
	default:
		return "unknown"
	}
}

func waitWithTimeout(wg *sync.WaitGroup, d time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
	}
}

func pollMetrics(ctx context.Context, collector *metrics.Collector, pool *node.Pool, n *node.Node) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collector.PollNode("node-1", n)
			used, size := pool.Stats()
			collector.SetPoolStats(used, size)
		}
	}
}

// driverFactory is the node.Config.NewDriver hook: a hub-connector's
// socket context always dials out (RoleInitiator, no listen address
// needed), while hub-function's and node-switch's contexts both accept
// inbound connections and so each needs its own bind address. Config
// only exposes one NewDriver hook shared across all three sub-component
// Start calls (node.go passes it through verbatim), so acceptor-role
// requests are handed out addresses in the fixed order node.startState
// constructs them: hub-function before node-switch.
type driverFactory struct {
	log               zerolog.Logger
	hubFunctionListen string
	nodeSwitchListen  string

	mu           sync.Mutex
	acceptorSeen int
}

func (f *driverFactory) newDriver(cfg socketctx.Config) socketctx.Driver {
	if cfg.Role == socketctx.RoleInitiator {
		return transport.New(transport.Options{Log: f.log})(cfg)
	}

	f.mu.Lock()
	seen := f.acceptorSeen
	f.acceptorSeen++
	f.mu.Unlock()

	addr := f.hubFunctionListen
	if seen > 0 {
		addr = f.nodeSwitchListen
	}
	return transport.New(transport.Options{ListenAddr: addr, Log: f.log})(cfg)
}
