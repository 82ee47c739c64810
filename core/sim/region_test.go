package sim

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evfleet/chargesim/core/geo"
	"github.com/evfleet/chargesim/core/model"
	"github.com/evfleet/chargesim/core/simtime"
	"github.com/evfleet/chargesim/infra/logger"
)

func testConfig() *Config {
	cfg := &Config{
		StepsPerDay:                 24,
		NumberOfDays:                1,
		CarVelocityKmh:              5,
		AutonomyTolerancePct:        25,
		ProbabilityOfCharging:       1,
		ProbabilityOfChargingAtHome: 1,
		IdleProbabilities: IdleProbabilities{
			RushHour: 0.5, LunchTime: 0.5, NightTime: 0.5, DawnTime: 0.5, Default: 0.5,
		},
		ChargePerStep:      10,
		HomeChargePerStep:  4,
		DistanceWeight:     1,
		AvailabilityWeight: 1,
		QueueWeight:        1,
		DisplayedPerRegion: 1,
	}
	return cfg
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// testWorld builds regions at the given coordinates plus a shared distance
// matrix.
func testWorld(t *testing.T, specs ...model.RegionSpec) ([]*Region, geo.DistanceMatrix) {
	t.Helper()
	points := make(map[string]geo.Point, len(specs))
	for _, s := range specs {
		points[s.ID] = geo.Point{Lat: s.Latitude, Lon: s.Longitude}
	}
	distances := geo.NewDistanceMatrix(points)
	regions := make([]*Region, 0, len(specs))
	for _, s := range specs {
		regions = append(regions, NewRegion(s, logger.NopLogger{}))
	}
	return regions, distances
}

func spec(id string, lat, lon float64, chargers, traffic int) model.RegionSpec {
	return model.RegionSpec{ID: id, Latitude: lat, Longitude: lon, Chargers: chargers, Traffic: traffic}
}

func newTestVehicle(id string, autonomy float64, home *Region, regions []*Region, distances geo.DistanceMatrix, cfg *Config) *Vehicle {
	v := NewVehicle(id, model.CarModel{ID: "m", Autonomy: autonomy}, home, regions, distances, cfg, testRNG())
	v.autonomy = autonomy
	return v
}

func TestStartChargingAdmitsUntilCapacity(t *testing.T) {
	regions, distances := testWorld(t, spec("a", 41.15, -8.61, 2, 10))
	r := regions[0]
	cfg := testConfig()
	v1 := newTestVehicle("v1", 100, r, regions, distances, cfg)
	v2 := newTestVehicle("v2", 100, r, regions, distances, cfg)
	v3 := newTestVehicle("v3", 100, r, regions, distances, cfg)

	assert.True(t, r.StartCharging(v1))
	assert.True(t, r.StartCharging(v2))
	assert.False(t, r.StartCharging(v3))

	avail, queued := r.Status()
	assert.Equal(t, 0, avail)
	assert.Equal(t, 1, queued)
}

func TestStatusIsIdempotent(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 3, 10))
	r := regions[0]
	a1, q1 := r.Status()
	a2, q2 := r.Status()
	assert.Equal(t, a1, a2)
	assert.Equal(t, q1, q2)
}

func TestFIFOPromotionSameTick(t *testing.T) {
	regions, distances := testWorld(t, spec("a", 41.15, -8.61, 1, 10))
	r := regions[0]
	cfg := testConfig()
	v1 := newTestVehicle("v1", 100, r, regions, distances, cfg)
	v2 := newTestVehicle("v2", 100, r, regions, distances, cfg)
	v3 := newTestVehicle("v3", 100, r, regions, distances, cfg)

	v1.state = StateBeforeCharging
	v1.beforeCharging()
	require.Equal(t, StateCharging, v1.state)

	v2.state = StateBeforeCharging
	v2.beforeCharging()
	require.Equal(t, StateInQueue, v2.state)
	v3.state = StateBeforeCharging
	v3.beforeCharging()
	require.Equal(t, StateInQueue, v3.state)

	// v2 waits two ticks in the queue.
	v2.Run(1, simtime.Default)
	v2.Run(2, simtime.Default)
	assert.Equal(t, 2, v2.waitTime)

	// Releasing v1's charger promotes v2, not v3, within the same call.
	v1.chargingTime = 7
	v1.stopCharging(false)
	assert.Equal(t, StateCharging, v2.state)
	assert.Equal(t, StateInQueue, v3.state)
	assert.Equal(t, 0, v2.waitTime, "wait accounting resets on promotion")

	avail, queued := r.Status()
	assert.Equal(t, 0, avail, "promoted vehicle re-occupies the freed slot")
	assert.Equal(t, 1, queued)

	// Second release drains the queue completely.
	v2.chargingTime = 3
	v2.stopCharging(false)
	assert.Equal(t, StateCharging, v3.state)
	_, queued = r.Status()
	assert.Equal(t, 0, queued)
}

func TestIncrementalWaitTimeAverage(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 1, 10))
	r := regions[0]
	r.recordWaitTime(2)
	r.recordWaitTime(4)
	r.recordWaitTime(6)
	assert.InDelta(t, 4.0, r.averageWaitTime, 1e-9)
}

func TestIncrementalChargingTimeAverage(t *testing.T) {
	regions, distances := testWorld(t, spec("a", 41.15, -8.61, 3, 10))
	r := regions[0]
	cfg := testConfig()
	for _, ct := range []int{10, 20} {
		v := newTestVehicle("v", 100, r, regions, distances, cfg)
		require.True(t, r.StartCharging(v))
		v.chargingTime = ct
		v.stopCharging(false)
	}
	assert.InDelta(t, 15.0, r.averageChargingTime, 1e-9)
	assert.Equal(t, 2, r.carsCharged)
}

func TestStopChargingAtFullCapacityPanics(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 2, 10))
	r := regions[0]
	require.Panics(t, func() { r.StopCharging(5, false) })
}

func TestStopHomeChargingWithoutSessionPanics(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 2, 10))
	r := regions[0]
	require.Panics(t, func() { r.StopCharging(5, true) })
}

func TestHomeChargingAccounting(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 2, 10))
	r := regions[0]
	r.startHomeCharging()
	r.startHomeCharging()
	assert.Equal(t, 2, r.carsHomeCharging)

	r.StopCharging(6, true)
	r.StopCharging(10, true)
	assert.Equal(t, 0, r.carsHomeCharging)
	assert.Equal(t, 2, r.homeCharged)
	assert.InDelta(t, 8.0, r.averageHomeTime, 1e-9)
	// Home charging never touches the shared pool.
	avail, _ := r.Status()
	assert.Equal(t, 2, avail)
}

func TestRunDerivedKPIsAndHistory(t *testing.T) {
	regions, distances := testWorld(t, spec("a", 41.15, -8.61, 4, 10))
	r := regions[0]
	r.Seed(10)
	cfg := testConfig()

	// Occupy every charger and queue two more vehicles behind them.
	for i := 0; i < 4; i++ {
		v := newTestVehicle("occ", 100, r, regions, distances, cfg)
		require.True(t, r.StartCharging(v))
	}
	q1 := newTestVehicle("q1", 100, r, regions, distances, cfg)
	q2 := newTestVehicle("q2", 100, r, regions, distances, cfg)
	require.False(t, r.StartCharging(q1))
	require.False(t, r.StartCharging(q2))

	r.Run()
	assert.InDelta(t, 100.0, r.chargerUtilization, 1e-9)
	assert.InDelta(t, 0.5, r.averageQueueSize, 1e-9)
	assert.InDelta(t, 1.5, r.stressMetric, 1e-9)

	r.Run()
	h := r.History()
	assert.Len(t, h.AvailableChargers, 2)
	assert.Len(t, h.StressMetric, 2)
	assert.Equal(t, []int{0, 0}, h.AvailableChargers)
	assert.Equal(t, []int{2, 2}, h.QueuedCars)
	assert.Equal(t, []int{10, 10}, h.CarsPresent)
}

func TestRunPanicsOnPoolViolation(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 2, 10))
	r := regions[0]
	r.availableChargers = 3
	require.Panics(t, func() { r.Run() })
}

func TestAutonomySampling(t *testing.T) {
	regions, _ := testWorld(t, spec("a", 41.15, -8.61, 2, 10))
	r := regions[0]
	r.Seed(2)
	r.recordAutonomy(80)
	r.recordAutonomy(40)
	r.Run()
	assert.InDelta(t, 60.0, r.averageAutonomy, 1e-9)
	// Samples are consumed by Run.
	assert.Zero(t, r.totalAutonomy)
}
