package levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultPackID is preferred as the default pack when present
const DefaultPackID = "classic"

// Manager handles level pack loading and caching
type Manager struct {
	dir         string
	defaultPack *Pack
	packs       map[string]*Pack
	mu          sync.RWMutex
}

// NewManager creates a new level pack manager
func NewManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", dir)
	}

	m := &Manager{
		dir:   dir,
		packs: make(map[string]*Pack),
	}

	if err := m.loadDefaultPack(); err != nil {
		return nil, fmt.Errorf("failed to load default pack: %w", err)
	}

	return m, nil
}

// Dir returns the directory the manager reads packs from
func (m *Manager) Dir() string {
	return m.dir
}

// LoadPack loads a pack by ID
func (m *Manager) LoadPack(id string) (*Pack, error) {
	id = PackID(id)

	m.mu.RLock()
	if pack, exists := m.packs[id]; exists {
		m.mu.RUnlock()
		return pack, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if pack, exists := m.packs[id]; exists {
		return pack, nil
	}

	filename, err := m.findPackFile(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(m.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read pack file: %w", err)
	}

	pack, err := DecodePack(filename, data)
	if err != nil {
		return nil, err
	}

	m.packs[id] = pack
	return pack, nil
}

// findPackFile returns the first file in the directory whose pack ID matches id
func (m *Manager) findPackFile(id string) (string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read level directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsPackFile(entry.Name()) {
			continue
		}
		if PackID(entry.Name()) == id {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrPackNotFound, id)
}

// ListPacks returns information about all valid packs in the directory, sorted by ID
func (m *Manager) ListPacks() ([]*PackInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var packs []*PackInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !IsPackFile(entry.Name()) {
			continue
		}
		id := PackID(entry.Name())
		if seen[id] {
			continue
		}

		pack, err := m.LoadPack(id)
		if err != nil {
			// Skip invalid packs
			continue
		}
		seen[id] = true
		packs = append(packs, pack.Info(entry.Name()))
	}

	sort.Slice(packs, func(i, j int) bool {
		return packs[i].PackID < packs[j].PackID
	})
	return packs, nil
}

// GetDefault returns the default pack
func (m *Manager) GetDefault() *Pack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPack
}

// SetDefault sets the default pack by ID
func (m *Manager) SetDefault(id string) error {
	pack, err := m.LoadPack(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPack = pack
	return nil
}

// RefreshCache drops every cached pack and reselects the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.packs = make(map[string]*Pack)
	m.mu.Unlock()

	return m.loadDefaultPack()
}

// loadDefaultPack picks classic, else the first valid pack, else the built-in pack
func (m *Manager) loadDefaultPack() error {
	pack, err := m.LoadPack(DefaultPackID)
	if err != nil {
		infos, listErr := m.ListPacks()
		if listErr != nil || len(infos) == 0 {
			pack = MinimalPack()
		} else if pack, err = m.LoadPack(infos[0].PackID); err != nil {
			pack = MinimalPack()
		}
	}

	m.mu.Lock()
	m.defaultPack = pack
	m.mu.Unlock()
	return nil
}

// SavePack validates a pack and writes it to disk as JSON
func (m *Manager) SavePack(id string, pack *Pack) error {
	id = PackID(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: invalid pack id %q", ErrInvalidPack, id)
	}
	if pack == nil {
		return fmt.Errorf("%w: pack is nil", ErrInvalidPack)
	}
	saved := pack.Clone()
	saved.ID = id
	if err := ValidatePack(saved); err != nil {
		return err
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pack: %w", err)
	}

	path := filepath.Join(m.dir, id+extJSON)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pack file: %w", err)
	}

	m.mu.Lock()
	m.packs[id] = saved
	m.mu.Unlock()

	return nil
}

// IsNotFound reports whether err means a pack does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPackNotFound)
}

// MinimalPack returns a built-in single-level pack used when no pack files are available
func MinimalPack() *Pack {
	return &Pack{
		ID:          "default",
		Name:        "default",
		Description: "Built-in minimal pack",
		Levels: []LevelSpec{
			{
				Name: "First push",
				Layout: []string{
					"#####",
					"# @ #",
					"# $ #",
					"# . #",
					"#####",
				},
			},
		},
	}
}
