package morse

import "time"

func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.WPM <= 0 {
		cfg.WPM = DefaultWPM
	}
	if cfg.MinWPM <= 0 {
		cfg.MinWPM = DefaultMinWPM
	}
	if cfg.MaxWPM <= 0 {
		cfg.MaxWPM = DefaultMaxWPM
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	d := &Decoder{
		cfg: cfg,
		est: estimate{
			// A faster speed means a shorter unit, so the bounds swap.
			min:     UnitForWPM(cfg.MaxWPM),
			max:     UnitForWPM(cfg.MinWPM),
			samples: make([]time.Duration, cfg.Window),
		},
	}
	d.est.unit = UnitForWPM(cfg.WPM)
	return d
}

func NewEncoder(wpm float64) *Encoder {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	return &Encoder{unit: UnitForWPM(wpm)}
}
