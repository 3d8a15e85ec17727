package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// ResourceSettings is the event resource name for settings updates.
const ResourceSettings = "settings"

// SettingsService holds the global settings. Values saved through Update
// win over the configured seed.
type SettingsService struct {
	dataDir  string
	settings Settings
	mu       sync.RWMutex
	bus      *EventBus
	log      zerolog.Logger
}

// NewSettingsService starts from seed and overlays settings.json when present.
func NewSettingsService(dataDir string, seed Settings, bus *EventBus, log zerolog.Logger) *SettingsService {
	if seed.FallbackCenter == "" {
		seed.FallbackCenter = DefaultFallbackCenter
	}
	s := &SettingsService{
		dataDir:  dataDir,
		settings: seed,
		bus:      bus,
		log:      log,
	}
	s.loadFromDisk()
	return s
}

// Get returns the current settings.
func (s *SettingsService) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings and persists them.
func (s *SettingsService) Update(settings Settings) (Settings, error) {
	if settings.FallbackCenter == "" {
		settings.FallbackCenter = DefaultFallbackCenter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeJSON(s.dataDir, s.configFile(), settings); err != nil {
		return Settings{}, err
	}
	s.settings = settings

	if s.bus != nil {
		s.bus.Publish(Event{Resource: ResourceSettings, Action: "updated"})
	}
	return settings, nil
}

func (s *SettingsService) configFile() string {
	return filepath.Join(s.dataDir, "settings.json")
}

func (s *SettingsService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return
	}

	var saved Settings
	if err := json.Unmarshal(data, &saved); err != nil {
		s.log.Warn().Err(err).Str("file", s.configFile()).Msg("Invalid settings file, using configured values")
		return
	}
	if saved.FallbackCenter == "" {
		saved.FallbackCenter = s.settings.FallbackCenter
	}
	s.settings = saved
}
