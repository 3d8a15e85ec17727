package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned for unknown map IDs.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a map ID is already taken.
	ErrExists = errors.New("already exists")
)

// ResourceMaps is the event resource name for map mutations.
const ResourceMaps = "maps"

// MapService manages map widget configurations.
type MapService struct {
	dataDir string
	maps    map[string]MapConfig
	mu      sync.RWMutex
	bus     *EventBus
	log     zerolog.Logger
}

// NewMapService loads maps from dataDir. Mutations are published on bus
// when it is non-nil.
func NewMapService(dataDir string, bus *EventBus, log zerolog.Logger) *MapService {
	s := &MapService{
		dataDir: dataDir,
		maps:    make(map[string]MapConfig),
		bus:     bus,
		log:     log,
	}
	s.loadFromDisk()
	return s
}

// List returns all maps ordered by ID.
func (s *MapService) List() []MapConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]MapConfig, 0, len(s.maps))
	for _, m := range s.maps {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Page returns a window of List and the total count.
func (s *MapService) Page(offset, limit int) ([]MapConfig, int) {
	all := s.List()
	total := len(all)

	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total
}

// Get returns a map by ID.
func (s *MapService) Get(id string) (MapConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[id]
	return m, ok
}

// Create adds a map. The ID is derived from the name when empty.
func (s *MapService) Create(m MapConfig) (MapConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = generateID(m.Name)
	}
	if m.ID == "" {
		m.ID = shortID()
	}

	if _, exists := s.maps[m.ID]; exists {
		return MapConfig{}, fmt.Errorf("map %q: %w", m.ID, ErrExists)
	}

	m = prepare(m)
	s.maps[m.ID] = m
	if err := s.saveToDisk(); err != nil {
		delete(s.maps, m.ID)
		return MapConfig{}, err
	}

	s.publish("created", m.ID)
	return m, nil
}

// Update replaces a map by ID.
func (s *MapService) Update(id string, m MapConfig) (MapConfig, error) {
	return s.Modify(id, func(cur *MapConfig) error {
		*cur = m
		return nil
	})
}

// Modify applies fn to a copy of the stored map and saves the result, all
// under the write lock, so concurrent edits of one map never overwrite
// each other. An error from fn leaves the map unchanged.
func (s *MapService) Modify(id string, fn func(m *MapConfig) error) (MapConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.maps[id]
	if !exists {
		return MapConfig{}, fmt.Errorf("map %q: %w", id, ErrNotFound)
	}

	m := prev
	m.Markers = slices.Clone(prev.Markers)
	if err := fn(&m); err != nil {
		return MapConfig{}, err
	}

	m.ID = id
	m = prepare(m)
	s.maps[id] = m
	if err := s.saveToDisk(); err != nil {
		s.maps[id] = prev
		return MapConfig{}, err
	}

	s.publish("updated", id)
	return m, nil
}

// Delete removes a map by ID.
func (s *MapService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.maps[id]
	if !exists {
		return fmt.Errorf("map %q: %w", id, ErrNotFound)
	}

	delete(s.maps, id)
	if err := s.saveToDisk(); err != nil {
		s.maps[id] = prev
		return err
	}

	s.publish("deleted", id)
	return nil
}

func (s *MapService) publish(action, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{Resource: ResourceMaps, Action: action, ID: id})
}

// configFile returns the path to the maps file.
func (s *MapService) configFile() string {
	return filepath.Join(s.dataDir, "maps.json")
}

// loadFromDisk loads maps from disk. A missing file starts empty.
func (s *MapService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("file", s.configFile()).Msg("Cannot read maps, starting empty")
		}
		return
	}

	var maps map[string]MapConfig
	if err := json.Unmarshal(data, &maps); err != nil {
		s.log.Warn().Err(err).Str("file", s.configFile()).Msg("Invalid maps file, starting empty")
		return
	}
	if maps == nil {
		// a file holding null
		maps = make(map[string]MapConfig)
	}

	s.maps = maps
	s.log.Debug().Int("count", len(maps)).Msg("Loaded maps")
}

// saveToDisk persists maps to disk.
func (s *MapService) saveToDisk() error {
	return writeJSON(s.dataDir, s.configFile(), s.maps)
}

// prepare normalizes a config and assigns missing marker IDs.
func prepare(m MapConfig) MapConfig {
	m = m.Normalize()
	for i := range m.Markers {
		if m.Markers[i].ID == "" {
			m.Markers[i].ID = uuid.NewString()
		}
	}
	return m
}

func writeJSON(dir, file string, v any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(file), err)
	}
	return os.Rename(tmp, file)
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.Join(strings.Fields(id), "-")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// shortID is used when a name has no URL-safe characters.
func shortID() string {
	return "map_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
