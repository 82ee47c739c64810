// Package mqtt pushes live simulation snapshots to the external visualization
// front end over an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/evfleet/chargesim/core/logger"
	coremetrics "github.com/evfleet/chargesim/core/metrics"
	"github.com/evfleet/chargesim/core/model"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled       bool   `json:"enabled"`
	Broker        string `json:"broker"`
	ClientID      string `json:"client_id"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	SnapshotTopic string `json:"snapshot_topic"`
	EndTopic      string `json:"end_topic"`
	QoS           byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://localhost:1883"
	}
	if c.ClientID == "" {
		c.ClientID = fmt.Sprintf("chargesim-%s", uuid.NewString()[:8])
	}
	if c.SnapshotTopic == "" {
		c.SnapshotTopic = "chargesim/snapshot"
	}
	if c.EndTopic == "" {
		c.EndTopic = "chargesim/end"
	}
}

// Publisher implements the snapshot sink over MQTT. Each tick the full
// snapshot is published as JSON; at the end of the run an end-of-run marker
// is published on a separate topic.
type Publisher struct {
	cli      paho.Client
	cfg      Config
	log      logger.Logger
	pubCount uint64
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(cfg Config, log logger.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	cli := paho.NewClient(opts)
	token := cli.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	log.Infof("visualization publisher connected to %s", cfg.Broker)
	return &Publisher{cli: cli, cfg: cfg, log: log}, nil
}

// RecordSnapshot publishes the tick snapshot.
func (p *Publisher) RecordSnapshot(s model.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	token := p.cli.Publish(p.cfg.SnapshotTopic, p.cfg.QoS, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	p.pubCount++
	return nil
}

// SignalEnd publishes the end-of-run marker.
func (p *Publisher) SignalEnd() error {
	token := p.cli.Publish(p.cfg.EndTopic, p.cfg.QoS, false, []byte(`{"event":"simulation_end"}`))
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish end signal: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.log.Debugf("closing visualization publisher after %d snapshots", p.pubCount)
	p.cli.Disconnect(250)
}

var _ coremetrics.SnapshotSink = (*Publisher)(nil)
var _ coremetrics.EndSignaler = (*Publisher)(nil)
