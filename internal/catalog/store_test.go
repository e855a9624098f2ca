package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "materials.json")
	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	return s, path
}

func TestStoreSeedsDefaultsOnFirstRun(t *testing.T) {
	s, path := newTestStore(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "catalog file should have been seeded")

	var cat Catalog
	require.NoError(t, json.Unmarshal(data, &cat))
	assert.NotEmpty(t, cat.Materials)
	assert.Equal(t, s.Snapshot().Materials[0].ID, cat.Materials[0].ID)
}

func TestStoreLoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materials.json")
	cat := Defaults()
	cat.Materials = cat.Materials[:1]
	cat.Materials[0].ID = "custom"
	data, err := json.Marshal(cat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	snap := s.Snapshot()
	require.Len(t, snap.Materials, 1)
	assert.Equal(t, "custom", snap.Materials[0].ID)
}

func TestStoreCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "materials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	assert.NotEmpty(t, s.Snapshot().Materials)

	// The broken file must be left in place for inspection.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestSnapshotIsIsolated(t *testing.T) {
	s, _ := newTestStore(t)

	snap := s.Snapshot()
	snap.Materials[0].BaseCostPerGram = 999
	snap.Materials[0].Colors[0].AddonPrice = 999
	snap.GlobalSettings.MinimumPrice = 999

	fresh := s.Snapshot()
	assert.NotEqual(t, 999.0, fresh.Materials[0].BaseCostPerGram)
	assert.NotEqual(t, 999.0, fresh.Materials[0].Colors[0].AddonPrice)
	assert.NotEqual(t, 999.0, fresh.GlobalSettings.MinimumPrice)
}

func TestReplacePersistsNewCatalog(t *testing.T) {
	s, path := newTestStore(t)

	next := Defaults()
	next.Materials = next.Materials[:1]
	next.Materials[0].ID = "nylon"
	raw, err := json.Marshal(next)
	require.NoError(t, err)

	got, err := s.Replace(raw)
	require.NoError(t, err)
	assert.Equal(t, "nylon", got.Materials[0].ID)
	assert.Equal(t, "nylon", s.Snapshot().Materials[0].ID)

	// Survives a reload from disk.
	reloaded, err := NewStore(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "nylon", reloaded.Snapshot().Materials[0].ID)
}

func TestReplaceMalformedLeavesFileUntouched(t *testing.T) {
	s, path := newTestStore(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Replace([]byte("{definitely not json"))
	require.Error(t, err)

	_, err = s.Replace([]byte(`{"materials": [], "global_settings": {}}`))
	require.Error(t, err, "empty material list must fail validation")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NotEmpty(t, s.Snapshot().Materials)
}

func TestValidate(t *testing.T) {
	base := func() *Catalog { return Defaults() }

	tests := []struct {
		name    string
		mutate  func(*Catalog)
		wantErr bool
	}{
		{"defaults are valid", func(c *Catalog) {}, false},
		{"no materials", func(c *Catalog) { c.Materials = nil }, true},
		{"empty material id", func(c *Catalog) { c.Materials[0].ID = "" }, true},
		{"duplicate material id", func(c *Catalog) { c.Materials[1].ID = c.Materials[0].ID }, true},
		{"negative base cost", func(c *Catalog) { c.Materials[0].BaseCostPerGram = -1 }, true},
		{"duplicate color id", func(c *Catalog) {
			c.Materials[0].Colors[1].ID = c.Materials[0].Colors[0].ID
		}, true},
		{"negative addon price", func(c *Catalog) { c.Materials[0].Colors[0].AddonPrice = -1 }, true},
		{"support multiplier at 1.0", func(c *Catalog) { c.GlobalSettings.SupportMaterialMultiplier = 1.0 }, true},
		{"fill density above 1", func(c *Catalog) { c.GlobalSettings.DefaultFillDensity = 1.5 }, true},
		{"negative markup", func(c *Catalog) { v := -5.0; c.GlobalSettings.MarkupPercentage = &v }, true},
		{"duplicate quality id", func(c *Catalog) {
			c.GlobalSettings.QualityLevels[1].ID = c.GlobalSettings.QualityLevels[0].ID
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := base()
			tt.mutate(cat)
			err := cat.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQualityModifier(t *testing.T) {
	g := Defaults().GlobalSettings
	assert.Equal(t, 0.0, g.QualityModifier(""))
	assert.Equal(t, 0.0, g.QualityModifier("nope"))
	assert.Equal(t, -2.0, g.QualityModifier("draft"))

	g.QualityLevels = nil
	assert.Equal(t, 0.0, g.QualityModifier("draft"))
}
