package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DoniLite/morsewire/kob"
	"github.com/DoniLite/morsewire/morse"
)

var (
	playMaxSilence  time.Duration
	playSpeedFactor int
)

// decodeSounder turns driven edges back into printed text.
type decodeSounder struct {
	dec *morse.Decoder
}

func (ds *decodeSounder) DriveEdge(e kob.Edge) error {
	for _, out := range ds.dec.Feed(e) {
		fmt.Printf("%c", out.Char)
	}
	return nil
}

var playCmd = &cobra.Command{
	Use:   "play <recording>",
	Short: "Replay a wire recording as decoded text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rec := kob.NewRecorder("", args[0], "", 0)
		ds := &decodeSounder{dec: morse.NewDecoder(cfg.DecoderConfig())}
		err = rec.Playback(ds, kob.PlaybackOptions{
			MaxSilence:  playMaxSilence,
			SpeedFactor: playSpeedFactor,
			StationCallback: func(s string) {
				ds.dec.Reset()
				fmt.Printf("\n<%s>\n", s)
			},
			WireCallback: func(w int) {
				fmt.Printf("\n<wire %d>\n", w)
			},
		})
		if err != nil {
			return err
		}
		for _, out := range ds.dec.Flush() {
			fmt.Printf("%c", out.Char)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	playCmd.Flags().DurationVar(&playMaxSilence, "max-silence", 5*time.Second, "clamp pauses between records")
	playCmd.Flags().IntVar(&playSpeedFactor, "speed", 100, "playback speed in percent")
}
