package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/nurapulse/pulse/core/metrics"
	"github.com/nurapulse/pulse/core/model"
	coremon "github.com/nurapulse/pulse/core/monitoring"
	"github.com/nurapulse/pulse/core/telemetry"
	"github.com/nurapulse/pulse/infra/logger"
)

// ErrRejected is returned by HandleMessage when no sample of a payload was usable.
var ErrRejected = errors.New("telemetry payload rejected")

// Subscriber appends telemetry published on pulse/telemetry/<vehicle_id> to a store.
type Subscriber struct {
	cli     pahoClient
	topic   string
	qos     byte
	store   telemetry.Store
	sink    coremetrics.Sink
	log     logger.Logger
	timeout time.Duration
}

// NewSubscriber connects to the broker and subscribes to the telemetry topic.
// The subscription is renewed on every reconnect.
func NewSubscriber(cfg Config, st telemetry.Store, sink coremetrics.Sink) (*Subscriber, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	s := &Subscriber{
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		store:   st,
		sink:    sink,
		log:     logger.New("mqtt_ingest"),
		timeout: cfg.writeTimeout(),
	}
	opts.OnConnect = func(c paho.Client) {
		s.log.Infof("MQTT connected, subscribing to %s", s.topic)
		if token := c.Subscribe(s.topic, s.qos, s.onMessage); token.Wait() && token.Error() != nil {
			s.log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		s.log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		s.log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	s.cli = c
	return s, nil
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("telemetry handler panic: %v", coremon.CapturePanic(r, map[string]string{"module": "mqtt", "topic": msg.Topic()}))
		}
	}()
	if err := s.HandleMessage(context.Background(), msg.Topic(), msg.Payload()); err != nil {
		s.log.Warnf("telemetry on %s: %v", msg.Topic(), err)
	}
}

// payloadSample is the wire shape of one reading. vehicle_id is optional and
// must match the topic when present.
type payloadSample struct {
	VehicleID      string    `json:"vehicle_id"`
	Timestamp      time.Time `json:"timestamp"`
	BatteryPercent int       `json:"battery_percent"`
	OdometerKM     float64   `json:"odometer_km"`
}

// HandleMessage decodes a single reading or a JSON array of readings,
// validates each one and appends the valid ones to the store.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	vehicleID, err := VehicleFromTopic(topic)
	if err != nil {
		s.record(0, 1)
		return err
	}
	var raw []payloadSample
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &raw)
	} else {
		var one payloadSample
		err = json.Unmarshal(trimmed, &one)
		raw = []payloadSample{one}
	}
	if err != nil {
		s.record(0, 1)
		return fmt.Errorf("%w: decode: %v", ErrRejected, err)
	}

	accepted := make([]model.TelemetrySample, 0, len(raw))
	rejected := 0
	for _, r := range raw {
		if r.VehicleID != "" && r.VehicleID != vehicleID {
			s.log.Warnf("sample for %s published on %s", r.VehicleID, topic)
			rejected++
			continue
		}
		smp := model.TelemetrySample{
			VehicleID:      vehicleID,
			Timestamp:      r.Timestamp,
			BatteryPercent: r.BatteryPercent,
			OdometerKM:     r.OdometerKM,
		}
		if err := smp.Validate(); err != nil {
			s.log.Warnf("invalid sample for %s: %v", vehicleID, err)
			rejected++
			continue
		}
		accepted = append(accepted, smp)
	}
	if len(accepted) == 0 {
		s.record(0, rejected)
		return ErrRejected
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Append(ctx, accepted...); err != nil {
		s.record(0, len(raw))
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "vehicle_id": vehicleID})
		return fmt.Errorf("append: %w", err)
	}
	s.record(len(accepted), rejected)
	s.log.Debugf("stored %d samples for %s", len(accepted), vehicleID)
	return nil
}

func (s *Subscriber) record(accepted, rejected int) {
	if err := coremetrics.RecordIngest(s.sink, coremetrics.IngestEvent{
		Source:   "mqtt",
		Accepted: accepted,
		Rejected: rejected,
		Time:     time.Now(),
	}); err != nil {
		s.log.Errorf("record ingest metrics: %v", err)
	}
}

// VehicleFromTopic extracts the last topic level as the vehicle id.
func VehicleFromTopic(topic string) (string, error) {
	i := strings.LastIndex(topic, "/")
	id := topic[i+1:]
	if i < 0 || id == "" || id == "+" || id == "#" {
		return "", fmt.Errorf("%w: no vehicle id in topic %q", ErrRejected, topic)
	}
	return id, nil
}

// Close gracefully disconnects from the broker.
func (s *Subscriber) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
