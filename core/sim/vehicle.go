package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/evfleet/chargesim/core/geo"
	"github.com/evfleet/chargesim/core/model"
	"github.com/evfleet/chargesim/core/simtime"
)

// State enumerates the vehicle behaviour machine.
type State int

const (
	StateIdle State = iota
	StateTraveling
	StateDecideCharging
	StateBeforeCharging
	StateInQueue
	StateCharging
	StateChargingAtHome
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTraveling:
		return "traveling"
	case StateDecideCharging:
		return "decide_charging"
	case StateBeforeCharging:
		return "before_charging"
	case StateInQueue:
		return "in_queue"
	case StateCharging:
		return "charging"
	case StateChargingAtHome:
		return "charging_at_home"
	}
	panic(fmt.Sprintf("sim: unknown vehicle state %d", int(s)))
}

// The home region always carries this weight in the destination draw,
// regardless of its configured traffic.
const homeRegionWeight = 30

// Battery samples are folded into the home region's autonomy KPI once every
// this many ticks.
const autonomySampleInterval = 5

// scoreEpsilon keeps the distance term finite when scoring the current
// region (distance zero).
const scoreEpsilon = 0.1

// Vehicle is a single simulated car. All mutation happens through Run, once
// per tick, on the simulator goroutine.
type Vehicle struct {
	ID string

	// Displayed selects fine-grained movement so the live map gets per-tick
	// coordinates. Non-displayed vehicles fast-forward their trips.
	Displayed bool

	fullAutonomy float64
	autonomy     float64
	velocity     float64 // km per tick

	currentRegion *Region
	homeRegion    *Region
	nextRegion    *Region

	latitude  float64
	longitude float64

	state               State
	chargeAtDestination bool
	stuckAtRegion       bool
	homeStopArmed       bool

	distanceTravelled float64
	waitTime          int
	chargingTime      int

	// Fast-forward trip bookkeeping.
	stepsToTravel    int
	currentTripSteps int
	distanceToTravel float64

	regions   []*Region
	distances geo.DistanceMatrix
	cfg       *Config
	rng       *rand.Rand
}

// NewVehicle creates a vehicle of the given model homed at region. The
// starting charge is a random fraction (50-100%) of the full range.
func NewVehicle(id string, carModel model.CarModel, region *Region, regions []*Region, distances geo.DistanceMatrix, cfg *Config, rng *rand.Rand) *Vehicle {
	return &Vehicle{
		ID:            id,
		fullAutonomy:  carModel.Autonomy,
		autonomy:      carModel.Autonomy * (0.5 + 0.5*rng.Float64()),
		velocity:      cfg.VelocityPerStep(),
		currentRegion: region,
		homeRegion:    region,
		latitude:      region.Latitude,
		longitude:     region.Longitude,
		state:         StateIdle,
		regions:       regions,
		distances:     distances,
		cfg:           cfg,
		rng:           rng,
	}
}

// State returns the current behaviour state.
func (v *Vehicle) State() State { return v.state }

// Position returns the current coordinates.
func (v *Vehicle) Position() (lat, lon float64) { return v.latitude, v.longitude }

// Autonomy returns the remaining range in km.
func (v *Vehicle) Autonomy() float64 { return v.autonomy }

// FullAutonomy returns the vehicle's range at full charge.
func (v *Vehicle) FullAutonomy() float64 { return v.fullAutonomy }

// CurrentRegion returns the region the vehicle is currently booked in.
func (v *Vehicle) CurrentRegion() *Region { return v.currentRegion }

// HomeRegion returns the vehicle's immutable home region.
func (v *Vehicle) HomeRegion() *Region { return v.homeRegion }

// DistanceTravelled returns the cumulative distance driven, in km.
func (v *Vehicle) DistanceTravelled() float64 { return v.distanceTravelled }

// BatteryPercentage expresses the remaining range as a percentage of the
// full range.
func (v *Vehicle) BatteryPercentage() float64 {
	return v.autonomy / v.fullAutonomy * 100
}

// Run advances the vehicle by one tick.
func (v *Vehicle) Run(step int, tod simtime.TimeOfDay) {
	if step%autonomySampleInterval == 0 {
		v.homeRegion.recordAutonomy(v.BatteryPercentage())
	}
	switch v.state {
	case StateIdle:
		v.idle(tod)
	case StateTraveling:
		v.traveling()
	case StateDecideCharging:
		v.decideCharging()
	case StateBeforeCharging:
		v.beforeCharging()
	case StateInQueue:
		v.waitTime++
	case StateCharging:
		v.charging(tod, false)
	case StateChargingAtHome:
		v.charging(tod, true)
	default:
		panic(fmt.Sprintf("sim: vehicle %s in unknown state %d", v.ID, int(v.state)))
	}
}

func (v *Vehicle) idle(tod simtime.TimeOfDay) {
	if v.BatteryPercentage() < v.cfg.AutonomyTolerancePct {
		v.considerCharging()
		return
	}
	if v.rng.Float64() >= v.cfg.IdleProbabilities.For(tod) {
		v.considerTraveling()
	}
}

func (v *Vehicle) considerCharging() {
	if v.rng.Float64() >= v.cfg.ProbabilityOfCharging {
		return
	}
	if v.currentRegion == v.homeRegion && v.rng.Float64() < v.cfg.ProbabilityOfChargingAtHome {
		v.homeStopArmed = false
		v.currentRegion.startHomeCharging()
		v.state = StateChargingAtHome
	} else {
		v.state = StateDecideCharging
	}
}

func (v *Vehicle) considerTraveling() {
	next := v.pickNextRegion()
	if next == nil {
		// Nowhere reachable: force the vehicle into the local queue.
		v.stuckAtRegion = true
		v.state = StateBeforeCharging
		return
	}
	v.nextRegion = next
	v.state = StateTraveling
}

// reachableRegions returns the regions whose road distance from the current
// region is strictly below the remaining range.
func (v *Vehicle) reachableRegions() []*Region {
	var out []*Region
	for _, r := range v.regions {
		if v.distances.Between(v.currentRegion.ID, r.ID) < v.autonomy {
			out = append(out, r)
		}
	}
	return out
}

// pickNextRegion draws a destination among the reachable regions, weighted by
// traffic. The home region always competes with a fixed high weight.
func (v *Vehicle) pickNextRegion() *Region {
	var candidates []*Region
	var weights []float64
	for _, r := range v.reachableRegions() {
		if r == v.currentRegion {
			continue
		}
		candidates = append(candidates, r)
		if r == v.homeRegion {
			weights = append(weights, homeRegionWeight)
		} else {
			weights = append(weights, float64(r.Traffic))
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	w := sampleuv.NewWeighted(weights, v.rng)
	idx, ok := w.Take()
	if !ok {
		// All weights zero: fall back to a uniform draw.
		idx = v.rng.IntN(len(candidates))
	}
	return candidates[idx]
}

func (v *Vehicle) traveling() {
	if v.Displayed {
		v.travelFine()
		return
	}
	v.travelFastForward()
}

// travelFine moves the vehicle one tick's worth of distance along the
// constant bearing toward the destination.
func (v *Vehicle) travelFine() {
	bearing := geo.Bearing(v.latitude, v.longitude, v.nextRegion.Latitude, v.nextRegion.Longitude)
	nextLat, nextLon := geo.Advance(v.latitude, v.longitude, bearing, v.velocity)
	movement := geo.Haversine(v.latitude, v.longitude, nextLat, nextLon)
	remaining := geo.Haversine(v.latitude, v.longitude, v.nextRegion.Latitude, v.nextRegion.Longitude)
	if movement >= remaining {
		v.latitude = v.nextRegion.Latitude
		v.longitude = v.nextRegion.Longitude
		v.autonomy -= remaining
		v.distanceTravelled += remaining
		v.arrive()
		return
	}
	v.latitude = nextLat
	v.longitude = nextLon
	v.autonomy -= movement
	v.distanceTravelled += movement
}

// travelFastForward precomputes the trip length in ticks on the first tick
// and only tracks arrival timing afterwards. Position stays at the origin
// until arrival; only aggregate distance and autonomy accounting matter for
// non-displayed vehicles.
func (v *Vehicle) travelFastForward() {
	if v.stepsToTravel == 0 {
		bearing := geo.Bearing(v.latitude, v.longitude, v.nextRegion.Latitude, v.nextRegion.Longitude)
		nextLat, nextLon := geo.Advance(v.latitude, v.longitude, bearing, v.velocity)
		movement := geo.Haversine(v.latitude, v.longitude, nextLat, nextLon)
		v.distanceToTravel = geo.Haversine(v.latitude, v.longitude, v.nextRegion.Latitude, v.nextRegion.Longitude)
		v.stepsToTravel = int(math.Ceil(v.distanceToTravel / movement))
		if v.stepsToTravel < 1 {
			v.stepsToTravel = 1
		}
		return
	}
	v.currentTripSteps++
	if v.currentTripSteps < v.stepsToTravel {
		return
	}
	v.latitude = v.nextRegion.Latitude
	v.longitude = v.nextRegion.Longitude
	v.autonomy -= v.distanceToTravel
	v.distanceTravelled += v.distanceToTravel
	v.stepsToTravel = 0
	v.currentTripSteps = 0
	v.distanceToTravel = 0
	v.arrive()
}

// arrive hands the vehicle from its origin region to the destination and
// picks the follow-up state.
func (v *Vehicle) arrive() {
	v.currentRegion.vehicleDeparted()
	v.nextRegion.vehicleArrived()
	v.currentRegion = v.nextRegion
	v.nextRegion = nil
	if v.chargeAtDestination {
		v.chargeAtDestination = false
		v.state = StateBeforeCharging
	} else {
		v.state = StateIdle
	}
}

// decideCharging scores every reachable region by proximity, free chargers
// and queue backlog, then heads for the best one.
func (v *Vehicle) decideCharging() {
	reachable := v.reachableRegions()
	if len(reachable) == 0 {
		v.stuckAtRegion = true
		v.state = StateBeforeCharging
		return
	}
	best := reachable[0]
	bestScore := v.chargingScore(reachable[0])
	for _, r := range reachable[1:] {
		if s := v.chargingScore(r); s > bestScore {
			best = r
			bestScore = s
		}
	}
	if best == v.currentRegion {
		v.state = StateBeforeCharging
		return
	}
	v.chargeAtDestination = true
	v.nextRegion = best
	v.state = StateTraveling
}

func (v *Vehicle) chargingScore(r *Region) float64 {
	chargers, queueSize := r.Status()
	distance := v.distances.Between(v.currentRegion.ID, r.ID) + scoreEpsilon
	return v.cfg.DistanceWeight/distance +
		v.cfg.AvailabilityWeight*float64(chargers) -
		v.cfg.QueueWeight*float64(queueSize)
}

func (v *Vehicle) beforeCharging() {
	if v.currentRegion.StartCharging(v) {
		v.stuckAtRegion = false
		// Admitted without queueing, so no wait is accounted.
		v.waitTime = 0
		v.state = StateCharging
	} else {
		v.state = StateInQueue
	}
}

// exitQueue is invoked by the region when this vehicle is promoted from the
// head of the wait queue.
func (v *Vehicle) exitQueue() {
	v.currentRegion.recordWaitTime(v.waitTime)
	v.waitTime = 0
	v.state = StateCharging
}

func (v *Vehicle) charging(tod simtime.TimeOfDay, atHome bool) {
	if atHome {
		v.autonomy += v.cfg.HomeChargePerStep
	} else {
		v.autonomy += v.cfg.ChargePerStep
	}
	v.chargingTime++
	// Overshoot never escapes the tick: clamp and release within the same call.
	if v.autonomy >= v.fullAutonomy {
		v.autonomy = v.fullAutonomy
		v.stopCharging(atHome)
		v.state = StateIdle
		return
	}

	if !atHome {
		if v.rng.Float64() < v.stationStopProbability() {
			v.stopCharging(false)
			v.state = StateIdle
		}
		return
	}
	// Home charging exits in two stages: arm an early stop once the battery
	// is comfortable, then wait for a tick where the vehicle would not have
	// stayed idle anyway.
	if !v.homeStopArmed {
		if v.rng.Float64() < v.homeStopArmProbability() {
			v.homeStopArmed = true
		}
		return
	}
	if v.rng.Float64() >= v.cfg.IdleProbabilities.For(tod) {
		v.stopCharging(true)
		v.considerTraveling()
	}
}

func (v *Vehicle) stopCharging(atHome bool) {
	v.currentRegion.StopCharging(v.chargingTime, atHome)
	v.chargingTime = 0
	v.homeStopArmed = false
}

// stationStopProbability rises linearly from 0 at 50% battery to 5% at full.
func (v *Vehicle) stationStopProbability() float64 {
	pct := v.BatteryPercentage()
	if pct < 50 {
		return 0
	}
	return (pct - 50) / 1000
}

// homeStopArmProbability rises linearly from 0 at 30% battery to 70% at full.
func (v *Vehicle) homeStopArmProbability() float64 {
	pct := v.BatteryPercentage()
	if pct < 30 {
		return 0
	}
	return (pct - 30) / 100
}
