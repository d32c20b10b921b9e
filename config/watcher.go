package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 300 * time.Millisecond

// Load reads and parses the settings file in one step.
func Load(path string) (*Config, error) {
	content, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	format, err := DiscoverConfigFormat(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(content, format)
}

// WatchConfig reloads the settings file on change and hands the parsed
// result to onReload. The parent directory is watched rather than the file
// itself, so editors that replace the file by rename keep working. Parse
// failures keep the previous configuration.
func WatchConfig(path string, onReload func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		debounce := time.NewTimer(reloadDebounce)
		debounce.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != filepath.Base(abs) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// Editors fire several events per save; settle first.
				debounce.Stop()
				debounce.Reset(reloadDebounce)

			case <-debounce.C:
				cfg, err := Load(abs)
				if err != nil {
					log.Printf("config reload error: %v", err)
					continue
				}
				onReload(cfg)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()
	return nil
}
