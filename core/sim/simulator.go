package sim

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/evfleet/chargesim/core/logger"
	"github.com/evfleet/chargesim/core/metrics"
	"github.com/evfleet/chargesim/core/model"
	"github.com/evfleet/chargesim/core/simtime"
)

// Simulator owns the vehicle and region collections and drives them tick by
// tick. One tick runs every vehicle, then every region, then reports a
// snapshot outward; ticks are atomic with respect to cancellation.
type Simulator struct {
	cfg      *Config
	vehicles []*Vehicle
	regions  []*Region

	displayed []*Vehicle
	rng       *rand.Rand
	sink      metrics.SnapshotSink
	log       logger.Logger

	step int
}

// New assembles a simulator. A nil sink disables outward reporting.
func New(cfg *Config, regions []*Region, vehicles []*Vehicle, rng *rand.Rand, sink metrics.SnapshotSink, log logger.Logger) *Simulator {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	s := &Simulator{
		cfg:      cfg,
		vehicles: vehicles,
		regions:  regions,
		rng:      rng,
		sink:     sink,
		log:      log,
	}
	s.selectDisplayed()
	return s
}

// selectDisplayed samples a handful of vehicles per home region for
// fine-grained movement and live display.
func (s *Simulator) selectDisplayed() {
	perRegion := make(map[string][]*Vehicle, len(s.regions))
	for _, v := range s.vehicles {
		id := v.HomeRegion().ID
		perRegion[id] = append(perRegion[id], v)
	}
	for _, r := range s.regions {
		pool := perRegion[r.ID]
		count := s.cfg.DisplayedPerRegion
		if count > len(pool) {
			count = len(pool)
		}
		for _, idx := range s.rng.Perm(len(pool))[:count] {
			pool[idx].Displayed = true
			s.displayed = append(s.displayed, pool[idx])
		}
	}
}

// Displayed returns the vehicles sampled for live display.
func (s *Simulator) Displayed() []*Vehicle { return s.displayed }

// Step returns the number of completed ticks.
func (s *Simulator) Step() int { return s.step }

// Run drives the simulation for the configured number of ticks, or until the
// context is cancelled. Cancellation is only observed between ticks, so no
// partial-tick state ever escapes.
func (s *Simulator) Run(ctx context.Context) error {
	total := s.cfg.TotalSteps()
	interval := time.Duration(s.cfg.TickIntervalMS) * time.Millisecond
	s.log.Infof("starting simulation: %d regions, %d vehicles, %d ticks", len(s.regions), len(s.vehicles), total)
	for step := 0; step < total; step++ {
		select {
		case <-ctx.Done():
			s.log.Warnf("simulation interrupted at tick %d", step)
			return ctx.Err()
		default:
		}
		s.RunStep()
		if interval > 0 {
			select {
			case <-ctx.Done():
				s.log.Warnf("simulation interrupted at tick %d", step+1)
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	s.log.Infof("simulation completed after %d ticks", s.step)
	return nil
}

// RunStep advances the whole world by exactly one tick.
func (s *Simulator) RunStep() {
	tod := simtime.Classify(s.step, s.cfg.StepsPerDay)
	for _, v := range s.vehicles {
		v.Run(s.step, tod)
	}
	for _, r := range s.regions {
		r.Run()
	}
	snap := s.Snapshot(tod)
	if err := s.sink.RecordSnapshot(snap); err != nil {
		s.log.Errorf("record snapshot: %v", err)
	}
	s.step++
}

// Snapshot assembles the outward view of the current tick: every region's
// KPI set plus the positions of the displayed vehicles.
func (s *Simulator) Snapshot(tod simtime.TimeOfDay) model.Snapshot {
	regions := make([]model.RegionStatus, 0, len(s.regions))
	for _, r := range s.regions {
		regions = append(regions, r.Snapshot())
	}
	vehicles := make([]model.VehiclePosition, 0, len(s.displayed))
	for _, v := range s.displayed {
		lat, lon := v.Position()
		vehicles = append(vehicles, model.VehiclePosition{ID: v.ID, Lat: lat, Lon: lon})
	}
	return model.Snapshot{
		Step:      s.step,
		Clock:     simtime.Clock(s.step, s.cfg.StepsPerDay),
		TimeOfDay: tod.String(),
		Regions:   regions,
		Vehicles:  vehicles,
	}
}

// Histories returns every region's accumulated KPI time series, keyed by
// region ID.
func (s *Simulator) Histories() map[string]model.RegionHistory {
	out := make(map[string]model.RegionHistory, len(s.regions))
	for _, r := range s.regions {
		out[r.ID] = r.History()
	}
	return out
}
