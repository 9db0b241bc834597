package assets

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zyjarge/podcast-studio/app/sequencer"
)

// Cache holds the asset library in memory. Reload swaps the whole catalog
// atomically, so lookups during a reload keep seeing a consistent view.
type Cache struct {
	assetsFile string
	mu         sync.RWMutex
	library    Library
	durations  map[string]int
}

func NewCache(assetsFile string) *Cache {
	return &Cache{
		assetsFile: assetsFile,
		durations:  make(map[string]int),
	}
}

// Run loads the asset library from disk. A missing file leaves the catalog
// empty; the studio still works, just without intro/outro/music selections.
func (c *Cache) Run() error {
	if _, err := os.Stat(c.assetsFile); os.IsNotExist(err) {
		slog.Warn("Assets file not found, starting with an empty library", "file", c.assetsFile)
		return nil
	}
	return c.Reload()
}

func (c *Cache) Reload() error {
	data, err := os.ReadFile(c.assetsFile)
	if err != nil {
		return fmt.Errorf("failed to read assets file: %w", err)
	}

	var library Library
	if err := yaml.Unmarshal(data, &library); err != nil {
		return fmt.Errorf("failed to parse assets YAML: %w", err)
	}

	durations := make(map[string]int)
	for _, group := range [][]Asset{library.Intros, library.Outros, library.Music} {
		for _, asset := range group {
			if asset.ID == "" || asset.File == "" {
				return fmt.Errorf("asset %q must have id and file", asset.Name)
			}
			seconds, err := sequencer.ParseClock(asset.Duration)
			if err != nil {
				return fmt.Errorf("asset %q: %w", asset.ID, err)
			}
			if _, ok := durations[asset.ID]; ok {
				return fmt.Errorf("duplicate asset id %q", asset.ID)
			}
			durations[asset.ID] = seconds
		}
	}

	for _, voice := range library.Voices {
		if voice.ID == "" {
			return fmt.Errorf("voice %q must have an id", voice.Name)
		}
	}

	c.mu.Lock()
	c.library = library
	c.durations = durations
	c.mu.Unlock()

	slog.Debug("Asset library loaded",
		"intros", len(library.Intros),
		"outros", len(library.Outros),
		"music", len(library.Music),
		"voices", len(library.Voices))

	return nil
}

// GetLibrary returns a copy of the current catalog.
func (c *Cache) GetLibrary() Library {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.library
}

// GetVoice looks up a voice by id.
func (c *Cache) GetVoice(id string) (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, voice := range c.library.Voices {
		if voice.ID == id {
			return voice, true
		}
	}
	return Voice{}, false
}

// ResolveAsset implements sequencer.AssetResolver.
func (c *Cache) ResolveAsset(id string) (sequencer.AssetInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seconds, ok := c.durations[id]
	if !ok {
		return sequencer.AssetInfo{}, false
	}

	for _, group := range [][]Asset{c.library.Intros, c.library.Outros, c.library.Music} {
		for _, asset := range group {
			if asset.ID == id {
				return sequencer.AssetInfo{
					ID:              asset.ID,
					Title:           asset.Name,
					File:            asset.File,
					DurationSeconds: seconds,
				}, true
			}
		}
	}

	return sequencer.AssetInfo{}, false
}

// HasAsset reports whether an asset id exists in the catalog.
func (c *Cache) HasAsset(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.durations[id]
	return ok
}
