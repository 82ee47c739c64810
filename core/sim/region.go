package sim

import (
	"fmt"
	"math"

	"github.com/evfleet/chargesim/core/logger"
	"github.com/evfleet/chargesim/core/model"
)

// stressAlpha weighs the queue backlog in the stress metric.
const stressAlpha = 1.0

// Region is a geographic cell owning a capacity-bounded charger pool with a
// FIFO wait queue, plus the running KPI aggregates of the cell.
//
// The pool invariant is availableChargers + vehicles charging here ==
// Capacity at all times. Violations are admission-control bugs and panic.
type Region struct {
	ID        string
	Latitude  float64
	Longitude float64
	Capacity  int
	Traffic   int

	// TotalCars is the number of vehicles seeded with this region as home.
	TotalCars int

	availableChargers int
	queue             []*Vehicle

	carsPresent      int
	carsHomeCharging int
	homeCharged      int
	queuedCars       int
	carsCharged      int
	totalAutonomy    float64

	averageAutonomy     float64
	averageHomeTime     float64
	chargerUtilization  float64
	averageQueueSize    float64
	stressMetric        float64
	averageWaitTime     float64
	averageChargingTime float64

	history model.RegionHistory
	log     logger.Logger
}

// NewRegion builds a Region from its static definition.
func NewRegion(spec model.RegionSpec, log logger.Logger) *Region {
	return &Region{
		ID:                spec.ID,
		Latitude:          spec.Latitude,
		Longitude:         spec.Longitude,
		Capacity:          spec.Chargers,
		Traffic:           spec.Traffic,
		availableChargers: spec.Chargers,
		log:               log,
	}
}

// StartCharging admits the vehicle to a charger if one is free, otherwise
// appends it to the tail of the wait queue. It reports whether the vehicle
// was admitted.
func (r *Region) StartCharging(v *Vehicle) bool {
	if r.availableChargers > 0 {
		r.availableChargers--
		r.log.Debugw("vehicle started charging", map[string]any{
			"region": r.ID, "vehicle": v.ID, "available": r.availableChargers,
		})
		return true
	}
	r.queue = append(r.queue, v)
	r.log.Debugw("vehicle queued for charging", map[string]any{
		"region": r.ID, "vehicle": v.ID, "queue_size": len(r.queue),
	})
	return false
}

// StopCharging releases a charging slot and folds the session length into the
// running averages. For station charging it also promotes the head of the
// wait queue, if any, within the same tick so the promoted vehicle does not
// lose a turn.
func (r *Region) StopCharging(chargingTime int, atHome bool) {
	if atHome {
		if r.carsHomeCharging <= 0 {
			panic(fmt.Sprintf("region %s: StopCharging(atHome) without an active home session", r.ID))
		}
		r.carsHomeCharging--
		r.homeCharged++
		r.averageHomeTime = incrementalAverage(r.averageHomeTime, r.homeCharged, float64(chargingTime))
		return
	}
	if r.availableChargers >= r.Capacity {
		panic(fmt.Sprintf("region %s: StopCharging with all %d chargers already free", r.ID, r.Capacity))
	}
	r.availableChargers++
	r.carsCharged++
	r.averageChargingTime = incrementalAverage(r.averageChargingTime, r.carsCharged, float64(chargingTime))
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		next.exitQueue()
		// Re-admission always succeeds: the slot was freed above.
		r.StartCharging(next)
	}
}

// Status reports the number of free chargers and the queue length. It is a
// read-only snapshot used by the charging-decision scoring.
func (r *Region) Status() (availableChargers, queueLength int) {
	return r.availableChargers, len(r.queue)
}

// Seed records the number of vehicles starting in this region. All seeded
// vehicles begin present at home.
func (r *Region) Seed(totalCars int) {
	r.TotalCars = totalCars
	r.carsPresent = totalCars
}

// startHomeCharging records a vehicle beginning a home-charging session.
// Home charging never occupies the shared pool.
func (r *Region) startHomeCharging() {
	r.carsHomeCharging++
}

// recordWaitTime folds a completed queueing episode into the running average.
func (r *Region) recordWaitTime(waitTime int) {
	r.queuedCars++
	r.averageWaitTime = incrementalAverage(r.averageWaitTime, r.queuedCars, float64(waitTime))
}

// recordAutonomy accumulates a battery-percentage sample from a vehicle that
// calls this region home.
func (r *Region) recordAutonomy(batteryPct float64) {
	r.totalAutonomy += batteryPct
}

// vehicleDeparted and vehicleArrived keep the presence counter in step with
// cross-region travel.
func (r *Region) vehicleDeparted() { r.carsPresent-- }
func (r *Region) vehicleArrived()  { r.carsPresent++ }

// Run recomputes the derived KPIs and appends every aggregate to the history
// time series. Called once per tick by the simulator.
func (r *Region) Run() {
	if r.availableChargers < 0 || r.availableChargers > r.Capacity {
		panic(fmt.Sprintf("region %s: charger pool out of bounds: %d of %d", r.ID, r.availableChargers, r.Capacity))
	}
	if r.TotalCars > 0 {
		r.averageAutonomy = r.totalAutonomy / float64(r.TotalCars)
	}
	r.totalAutonomy = 0
	occupancy := 1 - float64(r.availableChargers)/float64(r.Capacity)
	backlog := float64(len(r.queue)) / float64(r.Capacity)
	r.chargerUtilization = round2(occupancy * 100)
	r.averageQueueSize = round2(backlog)
	r.stressMetric = round2(occupancy + stressAlpha*backlog)

	r.history.CarsPresent = append(r.history.CarsPresent, r.carsPresent)
	r.history.CarsHomeCharging = append(r.history.CarsHomeCharging, r.carsHomeCharging)
	r.history.AvailableChargers = append(r.history.AvailableChargers, r.availableChargers)
	r.history.QueuedCars = append(r.history.QueuedCars, len(r.queue))
	r.history.CarsCharged = append(r.history.CarsCharged, r.carsCharged)
	r.history.AverageAutonomy = append(r.history.AverageAutonomy, round2(r.averageAutonomy))
	r.history.AverageHomeTime = append(r.history.AverageHomeTime, round2(r.averageHomeTime))
	r.history.ChargerUtilization = append(r.history.ChargerUtilization, r.chargerUtilization)
	r.history.AverageQueueSize = append(r.history.AverageQueueSize, r.averageQueueSize)
	r.history.StressMetric = append(r.history.StressMetric, r.stressMetric)
	r.history.AverageWaitTime = append(r.history.AverageWaitTime, round2(r.averageWaitTime))
	r.history.AverageChargingTime = append(r.history.AverageChargingTime, round2(r.averageChargingTime))
}

// History returns the accumulated KPI time series.
func (r *Region) History() model.RegionHistory {
	return r.history
}

// Snapshot returns the current KPI values for outward reporting.
func (r *Region) Snapshot() model.RegionStatus {
	return model.RegionStatus{
		ID:                  r.ID,
		Lat:                 r.Latitude,
		Lon:                 r.Longitude,
		CarsPresent:         r.carsPresent,
		HomeCharging:        r.carsHomeCharging,
		AvailableChargers:   r.availableChargers,
		QueuedCars:          len(r.queue),
		CarsCharged:         r.carsCharged,
		AverageAutonomy:     round2(r.averageAutonomy),
		AverageHomeTime:     round2(r.averageHomeTime),
		ChargerUtilization:  r.chargerUtilization,
		AverageQueueSize:    r.averageQueueSize,
		StressMetric:        r.stressMetric,
		AverageWaitTime:     round2(r.averageWaitTime),
		AverageChargingTime: round2(r.averageChargingTime),
	}
}

// incrementalAverage updates a running mean after its counter was bumped to n.
// With n == 1 it degenerates to the new sample.
func incrementalAverage(avg float64, n int, sample float64) float64 {
	return (avg*float64(n-1) + sample) / float64(n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
