package mqtt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evfleet/chargesim/core/model"
)

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.Equal(t, "chargesim/snapshot", cfg.SnapshotTopic)
	assert.Equal(t, "chargesim/end", cfg.EndTopic)
	assert.True(t, strings.HasPrefix(cfg.ClientID, "chargesim-"))
	assert.Len(t, cfg.ClientID, len("chargesim-")+8)
}

func TestConfigSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Broker: "tcp://broker:1883", ClientID: "fixed"}
	cfg.SetDefaults()
	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
	assert.Equal(t, "fixed", cfg.ClientID)
}

func TestClientIDsAreUnique(t *testing.T) {
	var a, b Config
	a.SetDefaults()
	b.SetDefaults()
	assert.NotEqual(t, a.ClientID, b.ClientID)
}

// The front end consumes the snapshot payload by field name, so the wire
// format is part of the contract.
func TestSnapshotWireFormat(t *testing.T) {
	snap := model.Snapshot{
		Step:      7,
		Clock:     "Day 1    -    00 : 07 h",
		TimeOfDay: "dawn_time",
		Regions: []model.RegionStatus{
			{ID: "porto", Lat: 41.15, Lon: -8.61, CarsPresent: 3, AvailableChargers: 2},
		},
		Vehicles: []model.VehiclePosition{
			{ID: "porto_zoe_0", Lat: 41.151, Lon: -8.612},
		},
	}
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "step")
	assert.Contains(t, decoded, "time")
	assert.Contains(t, decoded, "time_of_day")
	assert.Contains(t, decoded, "region_data")
	assert.Contains(t, decoded, "car_data")

	regions := decoded["region_data"].([]any)
	require.Len(t, regions, 1)
	region := regions[0].(map[string]any)
	assert.Equal(t, "porto", region["name"])
	assert.Contains(t, region, "lat")
	assert.Contains(t, region, "lng")
	assert.Contains(t, region, "available_chargers")

	cars := decoded["car_data"].([]any)
	require.Len(t, cars, 1)
	assert.Equal(t, "porto_zoe_0", cars[0].(map[string]any)["name"])
}
