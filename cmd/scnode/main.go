// Command scnode runs a single BACnet/SC node as a standalone daemon: a
// hub-connector, and optionally a hub-function and/or node-switch, wired
// to the real TLS+WebSocket transport and scraped over Prometheus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	caCertPath     string
	deviceCertPath string
	deviceKeyPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scnode",
		Short: "BACnet Secure Connect node",
		Long:  "Run a BACnet/SC node's connection-management core: hub-connector, hub-function and node-switch",
	}

	rootCmd.PersistentFlags().StringVar(&caCertPath, "ca-cert", "", "Path to the trusted peer CA certificate chain (PEM)")
	rootCmd.PersistentFlags().StringVar(&deviceCertPath, "device-cert", "", "Path to this node's own certificate chain (PEM)")
	rootCmd.PersistentFlags().StringVar(&deviceKeyPath, "device-key", "", "Path to this node's own private key (PEM)")
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
