package model

import "fmt"

// CarModel is an immutable vehicle model record loaded from reference data.
type CarModel struct {
	ID       string
	Autonomy float64 // full range in km
	Price    int
}

// Validate checks that the model record is usable.
func (m CarModel) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("car model id is required")
	}
	if m.Autonomy <= 0 {
		return fmt.Errorf("car model %s: autonomy must be positive", m.ID)
	}
	if m.Price < 0 {
		return fmt.Errorf("car model %s: price must not be negative", m.ID)
	}
	return nil
}

// RegionSpec is the static definition of a geographic region as loaded from
// the region input file.
type RegionSpec struct {
	ID            string
	Latitude      float64
	Longitude     float64
	AvgPopulation int
	DrivingPct    float64
	AvgIncome     float64
	Chargers      int
	Traffic       int
}

// AvgDrivers derives the expected driver count from population and driving
// percentage.
func (r RegionSpec) AvgDrivers() int {
	return int(float64(r.AvgPopulation) * r.DrivingPct)
}

// Validate checks that the region record is usable.
func (r RegionSpec) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("region id is required")
	}
	if r.Chargers <= 0 {
		return fmt.Errorf("region %s: charger capacity must be positive", r.ID)
	}
	if r.Traffic < 0 {
		return fmt.Errorf("region %s: traffic weight must not be negative", r.ID)
	}
	if r.DrivingPct < 0 || r.DrivingPct > 1 {
		return fmt.Errorf("region %s: driving percentage must be in [0,1]", r.ID)
	}
	return nil
}

// RegionStatus is the per-tick KPI snapshot of one region pushed to the
// visualization and metric sinks.
type RegionStatus struct {
	ID                  string  `json:"name"`
	Lat                 float64 `json:"lat"`
	Lon                 float64 `json:"lng"`
	CarsPresent         int     `json:"cars_present"`
	HomeCharging        int     `json:"home_charging"`
	AvailableChargers   int     `json:"available_chargers"`
	QueuedCars          int     `json:"queued_cars"`
	CarsCharged         int     `json:"cars_charged"`
	AverageAutonomy     float64 `json:"autonomy"`
	AverageHomeTime     float64 `json:"home_time"`
	ChargerUtilization  float64 `json:"charger_utilization"`
	AverageQueueSize    float64 `json:"queue_size"`
	StressMetric        float64 `json:"stress_metric"`
	AverageWaitTime     float64 `json:"wait_time"`
	AverageChargingTime float64 `json:"charging_time"`
}

// VehiclePosition is the live position of a displayed vehicle.
type VehiclePosition struct {
	ID  string  `json:"name"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Snapshot is the outward state emitted once per tick.
type Snapshot struct {
	Step      int               `json:"step"`
	Clock     string            `json:"time"`
	TimeOfDay string            `json:"time_of_day"`
	Regions   []RegionStatus    `json:"region_data"`
	Vehicles  []VehiclePosition `json:"car_data"`
}

// RegionHistory is the sampled KPI time series of one region, persisted at
// the end of a run. One entry per tick.
type RegionHistory struct {
	CarsPresent         []int     `json:"cars_present"`
	CarsHomeCharging    []int     `json:"cars_home_charging"`
	AvailableChargers   []int     `json:"available_chargers"`
	QueuedCars          []int     `json:"queued_cars"`
	CarsCharged         []int     `json:"cars_charged"`
	AverageAutonomy     []float64 `json:"average_autonomy"`
	AverageHomeTime     []float64 `json:"average_home_time"`
	ChargerUtilization  []float64 `json:"charger_utilization"`
	AverageQueueSize    []float64 `json:"average_queue_size"`
	StressMetric        []float64 `json:"stress_metric"`
	AverageWaitTime     []float64 `json:"average_wait_time"`
	AverageChargingTime []float64 `json:"average_charging_time"`
}
