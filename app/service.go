package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/evfleet/chargesim/config"
	"github.com/evfleet/chargesim/core/geo"
	coremetrics "github.com/evfleet/chargesim/core/metrics"
	"github.com/evfleet/chargesim/core/model"
	"github.com/evfleet/chargesim/core/seeder"
	"github.com/evfleet/chargesim/core/sim"
	"github.com/evfleet/chargesim/infra/history"
	"github.com/evfleet/chargesim/infra/input"
	"github.com/evfleet/chargesim/infra/logger"
	"github.com/evfleet/chargesim/infra/metrics"
	"github.com/evfleet/chargesim/infra/mqtt"
)

// Service wires the reference data, the seeded fleet, the simulator and the
// outward sinks together.
type Service struct {
	cfg   *config.Config
	sim   *sim.Simulator
	store *history.Store
	sink  coremetrics.SnapshotSink
	pub   *mqtt.Publisher
	log   logger.Logger

	runID     uuid.UUID
	startedAt time.Time
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.Configure(cfg.Logging)
	logg := logger.New("service")

	regionSpecs, err := input.ReadRegions(cfg.Input.RegionsFile)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	carModels, err := input.ReadCarModels(cfg.Input.CarsFile)
	if err != nil {
		return nil, fmt.Errorf("load car models: %w", err)
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	counts := seeder.New(carModels, cfg.Seeder, rng).Run(regionSpecs)
	regions, vehicles := BuildWorld(regionSpecs, carModels, counts, &cfg.Simulation, rng, logg)

	var sinks []coremetrics.SnapshotSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var pub *mqtt.Publisher
	if cfg.MQTT.Enabled {
		pub, err = mqtt.NewPublisher(cfg.MQTT, logger.New("viz"))
		if err != nil {
			return nil, fmt.Errorf("visualization publisher: %w", err)
		}
		sinks = append(sinks, pub)
	}
	var sink coremetrics.SnapshotSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	store, err := history.NewStore(cfg.History.Dir)
	if err != nil {
		return nil, err
	}

	simulator := sim.New(&cfg.Simulation, regions, vehicles, rng, sink, logger.New("simulator"))
	return &Service{
		cfg:       cfg,
		sim:       simulator,
		store:     store,
		sink:      sink,
		pub:       pub,
		log:       logg,
		runID:     uuid.New(),
		startedAt: time.Now(),
	}, nil
}

// BuildWorld instantiates the regions and the seeded vehicle fleet in a
// deterministic order: regions in file order, models in file order.
func BuildWorld(specs []model.RegionSpec, carModels []model.CarModel, counts map[string]map[string]int, cfg *sim.Config, rng *rand.Rand, log logger.Logger) ([]*sim.Region, []*sim.Vehicle) {
	points := make(map[string]geo.Point, len(specs))
	for _, spec := range specs {
		points[spec.ID] = geo.Point{Lat: spec.Latitude, Lon: spec.Longitude}
	}
	distances := geo.NewDistanceMatrix(points)

	regions := make([]*sim.Region, 0, len(specs))
	byID := make(map[string]*sim.Region, len(specs))
	for _, spec := range specs {
		r := sim.NewRegion(spec, log)
		regions = append(regions, r)
		byID[spec.ID] = r
	}

	var vehicles []*sim.Vehicle
	for _, spec := range specs {
		region := byID[spec.ID]
		total := 0
		for _, cm := range carModels {
			n := counts[spec.ID][cm.ID]
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("%s_%s_%d", spec.ID, cm.ID, i)
				vehicles = append(vehicles, sim.NewVehicle(id, cm, region, regions, distances, cfg, rng))
			}
			total += n
		}
		region.Seed(total)
	}
	return regions, vehicles
}

// Run starts the simulation and blocks until it completes or the context is
// cancelled. Region histories are flushed even when the run is interrupted.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	defer s.flush()

	err := s.sim.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Service) flush() {
	manifest := history.Manifest{
		RunID:      s.runID,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
		Steps:      s.sim.Step(),
	}
	if err := s.store.SaveAll(s.sim.Histories(), manifest); err != nil {
		s.log.Errorf("persist histories: %v", err)
	}
	if es, ok := s.sink.(coremetrics.EndSignaler); ok {
		if err := es.SignalEnd(); err != nil {
			s.log.Errorf("signal end of run: %v", err)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.pub != nil {
		s.pub.Close()
	}
	return nil
}
