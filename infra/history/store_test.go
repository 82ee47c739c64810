package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evfleet/chargesim/core/model"
)

func sampleHistory() model.RegionHistory {
	return model.RegionHistory{
		CarsPresent:         []int{10, 9, 11},
		CarsHomeCharging:    []int{1, 2, 2},
		AvailableChargers:   []int{4, 3, 4},
		QueuedCars:          []int{0, 1, 0},
		CarsCharged:         []int{0, 1, 2},
		AverageAutonomy:     []float64{71.5, 70.2, 69.8},
		AverageHomeTime:     []float64{0, 5, 5},
		ChargerUtilization:  []float64{20, 40, 20},
		AverageQueueSize:    []float64{0, 0.2, 0.2},
		StressMetric:        []float64{0.2, 0.6, 0.2},
		AverageWaitTime:     []float64{0, 1, 1},
		AverageChargingTime: []float64{0, 0, 12},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	want := sampleHistory()
	require.NoError(t, store.Save("porto", want))

	got, err := store.Load("porto")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveAllWritesManifest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	histories := map[string]model.RegionHistory{
		"porto": sampleHistory(),
		"gaia":  sampleHistory(),
	}
	m := Manifest{
		RunID:      uuid.New(),
		StartedAt:  time.Now().Add(-time.Minute).UTC(),
		FinishedAt: time.Now().UTC(),
		Steps:      1440,
	}
	require.NoError(t, store.SaveAll(histories, m))

	for id := range histories {
		_, err := os.Stat(filepath.Join(dir, id+".json"))
		assert.NoError(t, err, "history file for %s", id)
	}

	got, err := store.LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, 1440, got.Steps)
	assert.ElementsMatch(t, []string{"porto", "gaia"}, got.Regions)
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	_, err := NewStore(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadMissingRegion(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Load("nowhere")
	assert.Error(t, err)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "porto.json"), []byte("{broken"), 0o644))
	_, err = store.Load("porto")
	assert.Error(t, err)
}

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "output", cfg.Dir)
}
