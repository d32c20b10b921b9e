package cmd

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DoniLite/morsewire/config"
	"github.com/DoniLite/morsewire/relay"
)

var relayListen string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the wire relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		listen := cfg.Relay.Listen
		if relayListen != "" {
			listen = relayListen
		}
		if listen == "" {
			listen = ":7007"
		}

		srv := relay.NewServer(cfg.RelayConfig())
		defer srv.Close()
		handler := srv.Handler()

		if cfg.Relay.TLS.Enabled {
			cm := relay.NewCertManager(cfg.Relay.TLS.CertDir, cfg.Relay.TLS.Email, cfg.Relay.TLS.Env)
			addr := cfg.Relay.TLS.Addr
			if addr == "" {
				addr = ":7443"
			}
			relay.ListenHTTPS(addr, handler, cm)
		}
		hs := relay.ListenHTTP(listen, handler)
		defer hs.Close()

		if cfg.Relay.Discovery.Enabled {
			port := cfg.Relay.Discovery.Port
			if port == 0 {
				if _, p, err := net.SplitHostPort(listen); err == nil {
					port, _ = strconv.Atoi(p)
				}
			}
			mdns, err := relay.RegisterDiscovery(cfg.Relay.Discovery.Instance, port)
			if err != nil {
				log.Printf("mDNS registration failed: %v", err)
			} else {
				defer mdns.Shutdown()
				log.Printf("mDNS service registered on port %d", port)
			}
		}

		if configPath != "" {
			if err := config.WatchConfig(configPath, func(c *config.Config) {
				srv.SetConfig(c.RelayConfig())
			}); err != nil {
				log.Printf("config watch failed: %v", err)
			}
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		fmt.Println("shutting down")
		return nil
	},
}

func init() {
	relayCmd.Flags().StringVarP(&relayListen, "listen", "l", "", "address to listen on (overrides config)")
}
