package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/evfleet/chargesim/core/logger"
	coremetrics "github.com/evfleet/chargesim/core/metrics"
	"github.com/evfleet/chargesim/core/model"
	infralogger "github.com/evfleet/chargesim/infra/logger"
)

// InfluxSink writes per-region KPI points to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg Config) coremetrics.SnapshotSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSnapshot writes one point per region for the tick.
func (s *InfluxSink) RecordSnapshot(snap model.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for _, r := range snap.Regions {
		p := write.NewPointWithMeasurement("region_kpis").
			AddTag("region", r.ID).
			AddTag("time_of_day", snap.TimeOfDay).
			AddField("step", snap.Step).
			AddField("cars_present", r.CarsPresent).
			AddField("home_charging", r.HomeCharging).
			AddField("available_chargers", r.AvailableChargers).
			AddField("queued_cars", r.QueuedCars).
			AddField("cars_charged", r.CarsCharged).
			AddField("average_autonomy", r.AverageAutonomy).
			AddField("average_home_time", r.AverageHomeTime).
			AddField("charger_utilization", r.ChargerUtilization).
			AddField("average_queue_size", r.AverageQueueSize).
			AddField("stress_metric", r.StressMetric).
			AddField("average_wait_time", r.AverageWaitTime).
			AddField("average_charging_time", r.AverageChargingTime).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
