// Package history persists per-region KPI time series at the end of a run.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/evfleet/chargesim/core/model"
)

// Config defines where run outputs are written.
type Config struct {
	Dir string `json:"dir"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "output"
	}
}

// Manifest describes one persisted run.
type Manifest struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Steps      int       `json:"steps"`
	Regions    []string  `json:"regions"`
}

// Store writes and reads region histories as one JSON file per region.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes one region's history.
func (s *Store) Save(regionID string, h model.RegionHistory) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal history for %s: %w", regionID, err)
	}
	path := filepath.Join(s.dir, regionID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write history for %s: %w", regionID, err)
	}
	return nil
}

// SaveAll writes every region's history plus a run manifest.
func (s *Store) SaveAll(histories map[string]model.RegionHistory, m Manifest) error {
	for id, h := range histories {
		if err := s.Save(id, h); err != nil {
			return err
		}
		m.Regions = append(m.Regions, id)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads one region's history back.
func (s *Store) Load(regionID string) (model.RegionHistory, error) {
	var h model.RegionHistory
	data, err := os.ReadFile(filepath.Join(s.dir, regionID+".json"))
	if err != nil {
		return h, fmt.Errorf("read history for %s: %w", regionID, err)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("decode history for %s: %w", regionID, err)
	}
	return h, nil
}

// LoadManifest reads the run manifest.
func (s *Store) LoadManifest() (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(s.dir, "manifest.json"))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
