package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mars-rovers/game/engine"
	"github.com/wricardo/mars-rovers/game/service"
)

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrInvalidMission  = errors.New("invalid mission")
)

// missionExtensions are tried in order when a name has no extension.
var missionExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles mission file loading and caching
type Manager struct {
	missionDir     string
	defaultMission *engine.MissionConfig
	missions       map[string]*engine.MissionConfig
	mu             sync.RWMutex
}

// NewManager creates a new mission manager
func NewManager(missionDir string) (*Manager, error) {
	if _, err := os.Stat(missionDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("mission directory does not exist: %s", missionDir)
	}

	m := &Manager{
		missionDir: missionDir,
		missions:   make(map[string]*engine.MissionConfig),
	}

	if err := m.loadDefaultMission(); err != nil {
		return nil, fmt.Errorf("failed to load default mission: %w", err)
	}

	return m, nil
}

// LoadMission loads a mission by name. The extension is optional.
func (m *Manager) LoadMission(name string) (*engine.MissionConfig, error) {
	id, ext := splitName(name)
	if !validID(id) {
		return nil, fmt.Errorf("%w: bad mission name %q", ErrInvalidMission, name)
	}

	m.mu.RLock()
	if mission, exists := m.missions[id]; exists {
		m.mu.RUnlock()
		return mission, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if mission, exists := m.missions[id]; exists {
		return mission, nil
	}

	candidates := missionExtensions
	if ext != "" {
		candidates = []string{ext}
	}

	var data []byte
	var err error
	for _, candidate := range candidates {
		ext = candidate
		data, err = os.ReadFile(filepath.Join(m.missionDir, id+candidate))
		if err == nil || !os.IsNotExist(err) {
			break
		}
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissionNotFound
		}
		return nil, fmt.Errorf("failed to read mission file: %w", err)
	}

	mission, err := engine.DecodeMissionConfig(data, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mission: %w", err)
	}

	if err := engine.ValidateMissionConfig(mission); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMission, err)
	}

	m.missions[id] = mission
	return mission, nil
}

// ListMissions returns information about every valid mission file
func (m *Manager) ListMissions() ([]*service.MissionInfo, error) {
	entries, err := os.ReadDir(m.missionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission directory: %w", err)
	}

	var missions []*service.MissionInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ext := splitName(entry.Name())
		if !isMissionExt(ext) || seen[id] {
			continue
		}
		seen[id] = true

		mission, err := m.LoadMission(entry.Name())
		if err != nil {
			// Skip invalid missions
			continue
		}

		missions = append(missions, &service.MissionInfo{
			Filename:       entry.Name(),
			MissionID:      id,
			Name:           mission.Name,
			Description:    mission.Description,
			Plateau:        mission.Plateau,
			Rovers:         len(mission.Rovers),
			SelfPreserving: mission.SelfPreserving,
			Crossing:       string(mission.CrossingPolicy()),
		})
	}

	sort.Slice(missions, func(i, j int) bool {
		return missions[i].MissionID < missions[j].MissionID
	})
	return missions, nil
}

// GetDefault returns the default mission
func (m *Manager) GetDefault() *engine.MissionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultMission
}

// SetDefault sets the default mission by name
func (m *Manager) SetDefault(name string) error {
	mission, err := m.LoadMission(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultMission = mission
	return nil
}

// RefreshCache drops every cached mission and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.missions = make(map[string]*engine.MissionConfig)
	m.mu.Unlock()

	return m.loadDefaultMission()
}

// SaveMission validates a mission and writes it to disk as JSON, or as YAML
// when name ends in .yaml or .yml.
func (m *Manager) SaveMission(name string, mission *engine.MissionConfig) error {
	if err := engine.ValidateMissionConfig(mission); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMission, err)
	}

	id, ext := splitName(name)
	if !validID(id) {
		return fmt.Errorf("%w: bad mission name %q", ErrInvalidMission, name)
	}
	if ext == "" {
		ext = ".json"
	}
	if !isMissionExt(ext) {
		return fmt.Errorf("%w: unsupported extension %q", ErrInvalidMission, ext)
	}

	data, err := engine.EncodeMissionConfig(mission, ext)
	if err != nil {
		return fmt.Errorf("failed to marshal mission: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.missionDir, id+ext), data, 0644); err != nil {
		return fmt.Errorf("failed to write mission file: %w", err)
	}

	m.mu.Lock()
	m.missions[id] = mission
	m.mu.Unlock()

	return nil
}

// loadDefaultMission prefers classic, then the first mission on disk, then
// the built-in two-rover mission.
func (m *Manager) loadDefaultMission() error {
	mission, err := m.LoadMission("classic")
	if err != nil {
		missions, listErr := m.ListMissions()
		if listErr != nil || len(missions) == 0 {
			m.setDefault(engine.DefaultMission())
			return nil
		}

		mission, err = m.LoadMission(missions[0].Filename)
		if err != nil {
			m.setDefault(engine.DefaultMission())
			return nil
		}
	}

	m.setDefault(mission)
	return nil
}

func (m *Manager) setDefault(mission *engine.MissionConfig) {
	m.mu.Lock()
	m.defaultMission = mission
	m.mu.Unlock()
}

func splitName(name string) (id, ext string) {
	ext = strings.ToLower(filepath.Ext(name))
	if !isMissionExt(ext) {
		return name, ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name)), ext
}

func isMissionExt(ext string) bool {
	for _, e := range missionExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && filepath.Base(id) == id
}
