package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/evfleet/chargesim/core/metrics"
	"github.com/evfleet/chargesim/core/model"
)

// PromSink exposes the per-region KPI set as Prometheus gauges.
type PromSink struct {
	step     prometheus.Gauge
	regional *prometheus.GaugeVec
}

// Regional KPI gauge names, one label value per region and metric.
const (
	metricCarsPresent         = "cars_present"
	metricHomeCharging        = "home_charging"
	metricAvailableChargers   = "available_chargers"
	metricQueuedCars          = "queued_cars"
	metricCarsCharged         = "cars_charged"
	metricAverageAutonomy     = "average_autonomy_pct"
	metricAverageHomeTime     = "average_home_time"
	metricChargerUtilization  = "charger_utilization_pct"
	metricAverageQueueSize    = "average_queue_size"
	metricStressMetric        = "stress_metric"
	metricAverageWaitTime     = "average_wait_time"
	metricAverageChargingTime = "average_charging_time"
)

// NewPromSink registers the simulation metrics on the default Prometheus
// registerer. The Prometheus server should be started separately.
func NewPromSink(cfg Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	step := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargesim_step",
		Help: "Current simulation tick",
	})
	regional := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargesim_region_kpi",
		Help: "Per-region charging KPI values",
	}, []string{"region", "kpi"})

	if err := reg.Register(step); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			step = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(regional); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			regional = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{step: step, regional: regional}, nil
}

// RecordSnapshot publishes every region's KPI values for the tick.
func (s *PromSink) RecordSnapshot(snap model.Snapshot) error {
	s.step.Set(float64(snap.Step))
	for _, r := range snap.Regions {
		s.regional.WithLabelValues(r.ID, metricCarsPresent).Set(float64(r.CarsPresent))
		s.regional.WithLabelValues(r.ID, metricHomeCharging).Set(float64(r.HomeCharging))
		s.regional.WithLabelValues(r.ID, metricAvailableChargers).Set(float64(r.AvailableChargers))
		s.regional.WithLabelValues(r.ID, metricQueuedCars).Set(float64(r.QueuedCars))
		s.regional.WithLabelValues(r.ID, metricCarsCharged).Set(float64(r.CarsCharged))
		s.regional.WithLabelValues(r.ID, metricAverageAutonomy).Set(r.AverageAutonomy)
		s.regional.WithLabelValues(r.ID, metricAverageHomeTime).Set(r.AverageHomeTime)
		s.regional.WithLabelValues(r.ID, metricChargerUtilization).Set(r.ChargerUtilization)
		s.regional.WithLabelValues(r.ID, metricAverageQueueSize).Set(r.AverageQueueSize)
		s.regional.WithLabelValues(r.ID, metricStressMetric).Set(r.StressMetric)
		s.regional.WithLabelValues(r.ID, metricAverageWaitTime).Set(r.AverageWaitTime)
		s.regional.WithLabelValues(r.ID, metricAverageChargingTime).Set(r.AverageChargingTime)
	}
	return nil
}

var _ coremetrics.SnapshotSink = (*PromSink)(nil)
