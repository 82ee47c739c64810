package sim

import (
	"fmt"

	"github.com/evfleet/chargesim/core/simtime"
)

// IdleProbabilities holds the chance of a vehicle staying idle on a given
// tick, per time of day.
type IdleProbabilities struct {
	RushHour  float64 `json:"rush_hour"`
	LunchTime float64 `json:"lunch_time"`
	NightTime float64 `json:"night_time"`
	DawnTime  float64 `json:"dawn_time"`
	Default   float64 `json:"default"`
}

// For returns the probability for the given time of day.
func (p IdleProbabilities) For(t simtime.TimeOfDay) float64 {
	switch t {
	case simtime.RushHour:
		return p.RushHour
	case simtime.LunchTime:
		return p.LunchTime
	case simtime.NightTime:
		return p.NightTime
	case simtime.DawnTime:
		return p.DawnTime
	default:
		return p.Default
	}
}

// Config defines the behaviour parameters of the simulation engine. It is
// built once at startup and passed by reference into the constructors; the
// engine never reads ambient global state.
type Config struct {
	StepsPerDay  int `json:"steps_per_day"`
	NumberOfDays int `json:"number_of_days"`

	// CarVelocityKmh is the cruising speed of every vehicle in km/h.
	CarVelocityKmh float64 `json:"car_velocity_kmh"`

	// AutonomyTolerancePct is the battery percentage below which a vehicle
	// starts considering a charge.
	AutonomyTolerancePct        float64 `json:"autonomy_tolerance_pct"`
	ProbabilityOfCharging       float64 `json:"probability_of_charging"`
	ProbabilityOfChargingAtHome float64 `json:"probability_of_charging_at_home"`

	IdleProbabilities IdleProbabilities `json:"idle_probabilities"`

	// ChargePerStep and HomeChargePerStep are km of range gained per tick at
	// a station charger and at a home plug respectively.
	ChargePerStep     float64 `json:"charge_per_step"`
	HomeChargePerStep float64 `json:"home_charge_per_step"`

	// Scoring weights for the charging-region decision.
	DistanceWeight     float64 `json:"distance_weight"`
	AvailabilityWeight float64 `json:"availability_weight"`
	QueueWeight        float64 `json:"queue_weight"`

	// DisplayedPerRegion is how many vehicles per home region are sampled for
	// fine-grained movement and live display.
	DisplayedPerRegion int `json:"displayed_per_region"`

	// TickIntervalMS is the wall-clock pause between ticks. Zero runs the
	// simulation as fast as possible.
	TickIntervalMS int `json:"tick_interval_ms"`

	// Seed feeds the injected random source so runs are reproducible.
	Seed uint64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.StepsPerDay == 0 {
		c.StepsPerDay = 1440
	}
	if c.NumberOfDays == 0 {
		c.NumberOfDays = 1
	}
	if c.DisplayedPerRegion == 0 {
		c.DisplayedPerRegion = 2
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.StepsPerDay < 24 {
		return fmt.Errorf("steps_per_day must be at least 24, got %d", c.StepsPerDay)
	}
	if c.NumberOfDays <= 0 {
		return fmt.Errorf("number_of_days must be positive")
	}
	if c.CarVelocityKmh <= 0 {
		return fmt.Errorf("car_velocity_kmh must be positive")
	}
	if c.AutonomyTolerancePct < 0 || c.AutonomyTolerancePct > 100 {
		return fmt.Errorf("autonomy_tolerance_pct must be in [0,100]")
	}
	for name, p := range map[string]float64{
		"probability_of_charging":         c.ProbabilityOfCharging,
		"probability_of_charging_at_home": c.ProbabilityOfChargingAtHome,
		"idle rush_hour":                  c.IdleProbabilities.RushHour,
		"idle lunch_time":                 c.IdleProbabilities.LunchTime,
		"idle night_time":                 c.IdleProbabilities.NightTime,
		"idle dawn_time":                  c.IdleProbabilities.DawnTime,
		"idle default":                    c.IdleProbabilities.Default,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be a probability in [0,1]", name)
		}
	}
	if c.ChargePerStep <= 0 || c.HomeChargePerStep <= 0 {
		return fmt.Errorf("charge rates must be positive")
	}
	return nil
}

// VelocityPerStep converts the cruising speed into km per tick.
func (c Config) VelocityPerStep() float64 {
	return c.CarVelocityKmh / (float64(c.StepsPerDay) / 24)
}

// TotalSteps is the configured length of the run in ticks.
func (c Config) TotalSteps() int {
	return c.StepsPerDay * c.NumberOfDays
}
