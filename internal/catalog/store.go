package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Store owns the catalog document: it loads it from disk at startup, hands out
// consistent snapshots to readers, and persists admin replacements atomically.
type Store struct {
	path   string
	logger *zap.Logger

	mu  sync.RWMutex
	cat *Catalog
}

// NewStore loads the catalog from path. A missing file seeds the compiled-in
// defaults and persists them; an unreadable or unparseable file falls back to
// the defaults without overwriting the file on disk.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.cat = Defaults()
		if err := s.persist(s.cat); err != nil {
			return nil, fmt.Errorf("failed to seed catalog file: %w", err)
		}
		logger.Info("seeded default catalog", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		logger.Warn("catalog file is not valid JSON, using defaults",
			zap.String("path", path), zap.Error(err))
		s.cat = Defaults()
		return s, nil
	}
	if err := cat.Validate(); err != nil {
		logger.Warn("catalog file failed validation, using defaults",
			zap.String("path", path), zap.Error(err))
		s.cat = Defaults()
		return s, nil
	}

	s.cat = &cat
	return s, nil
}

// Snapshot returns a deep copy of the current catalog.
func (s *Store) Snapshot() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat.Clone()
}

// Replace parses and validates raw as a full catalog document, persists it, and
// swaps it in. On any error the previous catalog, in memory and on disk, is
// left untouched.
func (s *Store) Replace(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(&cat); err != nil {
		return nil, err
	}
	s.cat = &cat
	return cat.Clone(), nil
}

// persist writes through a temp file and renames it over the target, so a
// failed write never leaves a truncated catalog behind.
func (s *Store) persist(cat *Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close catalog file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}

// Validate enforces the structural invariants: at least one material, unique
// non-empty ids, unique color ids per material, sane global settings.
func (c *Catalog) Validate() error {
	if len(c.Materials) == 0 {
		return fmt.Errorf("catalog must contain at least one material")
	}

	seen := make(map[string]bool, len(c.Materials))
	for _, m := range c.Materials {
		if m.ID == "" {
			return fmt.Errorf("material id is required")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate material id: %s", m.ID)
		}
		seen[m.ID] = true

		if m.BaseCostPerGram < 0 {
			return fmt.Errorf("material %s: base cost per gram must be non-negative", m.ID)
		}
		if m.HourlyRate < 0 {
			return fmt.Errorf("material %s: hourly rate must be non-negative", m.ID)
		}

		colors := make(map[string]bool, len(m.Colors))
		for _, col := range m.Colors {
			if col.ID == "" {
				return fmt.Errorf("material %s: color id is required", m.ID)
			}
			if colors[col.ID] {
				return fmt.Errorf("material %s: duplicate color id: %s", m.ID, col.ID)
			}
			colors[col.ID] = true
			if col.AddonPrice < 0 {
				return fmt.Errorf("material %s: color %s: addon price must be non-negative", m.ID, col.ID)
			}
		}
	}

	g := c.GlobalSettings
	if g.SupportMaterialMultiplier <= 1.0 {
		return fmt.Errorf("support material multiplier must be greater than 1.0")
	}
	if g.MinimumPrice < 0 {
		return fmt.Errorf("minimum price must be non-negative")
	}
	if g.DefaultFillDensity < 0 || g.DefaultFillDensity > 1 {
		return fmt.Errorf("default fill density must be between 0 and 1")
	}
	if g.MarkupPercentage != nil && *g.MarkupPercentage < 0 {
		return fmt.Errorf("markup percentage must be non-negative")
	}

	qids := make(map[string]bool, len(g.QualityLevels))
	for _, q := range g.QualityLevels {
		if q.ID == "" {
			return fmt.Errorf("quality level id is required")
		}
		if qids[q.ID] {
			return fmt.Errorf("duplicate quality level id: %s", q.ID)
		}
		qids[q.ID] = true
	}

	return nil
}
