package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DoniLite/morsewire/kob"
	"github.com/DoniLite/morsewire/morse"
	"github.com/DoniLite/morsewire/relay"
	"github.com/DoniLite/morsewire/station"
	"github.com/DoniLite/morsewire/wire"
)

var (
	stationURL  string
	stationWire int
	stationName string
)

var stationCmd = &cobra.Command{
	Use:   "station",
	Short: "Join a wire as an operator station",
	Long: `Connects to a relay, prints what the other stations send as decoded
text, and keys anything typed on stdin onto the wire.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if stationURL != "" {
			cfg.Station.URL = stationURL
		}
		if stationWire != 0 {
			cfg.Station.Wire = stationWire
		}
		if stationName != "" {
			cfg.Station.Station = stationName
		}
		if cfg.Station.Station == "" {
			host, _ := os.Hostname()
			cfg.Station.Station = fmt.Sprintf("op@%s", host)
		}

		if cfg.Station.URL == "" && cfg.Station.Discover {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			url, err := station.DiscoverRelay(ctx, relay.ServiceName)
			cancel()
			if err != nil {
				return fmt.Errorf("relay discovery: %w", err)
			}
			cfg.Station.URL = url
			log.Printf("discovered relay at %s", url)
		}
		if cfg.Station.URL == "" {
			return fmt.Errorf("no relay url configured (set station.url, --url, or station.discover)")
		}

		var rec *kob.Recorder
		if cfg.Station.RecordTo != "" {
			rec = kob.NewRecorder(cfg.Station.RecordTo, "", cfg.Station.Station, cfg.Station.Wire)
		}

		c := station.NewClient(cfg.StationConfig())
		c.MonitorStations(func(roster []wire.StationInfo) {
			names := make([]string, 0, len(roster))
			for _, s := range roster {
				names = append(names, s.Station)
			}
			fmt.Printf("\n<on wire: %s>\n", strings.Join(names, ", "))
		})
		c.MonitorSender(func(s string) {
			if s == "" {
				fmt.Println("\n<wire idle>")
			} else {
				fmt.Printf("\n<%s sending>\n", s)
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = c.Connect(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer c.Disconnect()
		fmt.Printf("connected to wire %d as %q\n", cfg.Station.Wire, cfg.Station.Station)

		go readWire(c, cfg.DecoderConfig(), rec)
		go readKeyboard(c, cfg.Morse.WPM, rec)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		fmt.Println("\nleaving wire")
		return nil
	},
}

// readWire decodes incoming timing into text, one decoder per sender so a
// slow fist does not skew a fast one's speed estimate.
func readWire(c *station.Client, dc morse.DecoderConfig, rec *kob.Recorder) {
	decoders := make(map[string]*morse.Decoder)
	for in := range c.Receive() {
		d, ok := decoders[in.Station]
		if !ok {
			d = morse.NewDecoder(dc)
			decoders[in.Station] = d
		}
		for _, out := range d.Feed(in.Edge) {
			fmt.Printf("%c", out.Char)
		}
		if rec != nil {
			if err := rec.Record([]kob.Edge{in.Edge}, kob.SourceWire); err != nil {
				log.Printf("recorder: %v", err)
			}
		}
	}
	for _, d := range decoders {
		for _, out := range d.Flush() {
			fmt.Printf("%c", out.Char)
		}
	}
}

// readKeyboard keys each typed line onto the wire through a virtual key:
// the encoder presses it, and the key is polled like any other edge source.
// Edge timestamps from the encoder restart at zero per call, so they are
// shifted onto one monotonic stream clock before pressing.
func readKeyboard(c *station.Client, wpm float64, rec *kob.Recorder) {
	enc := morse.NewEncoder(wpm)
	key := kob.NewVirtualKey()
	sc := bufio.NewScanner(os.Stdin)
	var origin int64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		edges, err := enc.Encode(line)
		if err != nil {
			log.Printf("encode: %v", err)
		}
		for i := range edges {
			edges[i].T += origin
		}
		if len(edges) > 0 {
			origin = edges[len(edges)-1].T + kob.Micros(7*enc.Unit())
		}
		key.Press(edges...)

		var sent []kob.Edge
		for {
			e, ok := key.PollEdge()
			if !ok {
				break
			}
			if err := c.Send(e); err != nil {
				log.Printf("send: %v", err)
				break
			}
			sent = append(sent, e)
		}
		if rec != nil && len(sent) > 0 {
			if err := rec.Record(sent, kob.SourceLocal); err != nil {
				log.Printf("recorder: %v", err)
			}
		}
	}
}

func init() {
	stationCmd.Flags().StringVarP(&stationURL, "url", "u", "", "relay websocket url (overrides config)")
	stationCmd.Flags().IntVarP(&stationWire, "wire", "w", 0, "wire number to join (overrides config)")
	stationCmd.Flags().StringVarP(&stationName, "station", "s", "", "station identity (overrides config)")
}
