package events

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MaintenanceEvent is the machine-facing message emitted after a lifecycle
// transition commits.
type MaintenanceEvent struct {
	RecordID    string    `json:"record_id"`
	AssetItemID string    `json:"asset_item_id"`
	Transition  string    `json:"transition"`
	Status      string    `json:"status"`
	PerformedBy string    `json:"performed_by,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits maintenance lifecycle events.
type Publisher interface {
	Publish(event MaintenanceEvent) error
}

// NoopPublisher discards events. Used when no broker is configured and in
// tests.
type NoopPublisher struct{}

// Publish discards the event.
func (NoopPublisher) Publish(MaintenanceEvent) error { return nil }

// MQTTPublisher emits events to an MQTT broker, one topic per asset.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

// ConnectMQTT connects to the broker named by MQTT_BROKER. When the variable
// is unset the returned publisher is a no-op, so the engine runs fine
// without a broker.
func ConnectMQTT() (Publisher, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		return NoopPublisher{}, nil
	}
	topicPrefix := os.Getenv("MQTT_TOPIC_PREFIX")
	if topicPrefix == "" {
		topicPrefix = "maintenance/events"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("asset-maintenance-" + uuid.NewString()[:8]).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", token.Error())
	}
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}, nil
}

// Publish sends the event to <prefix>/<asset_item_id> at QoS 0.
func (p *MQTTPublisher) Publish(event MaintenanceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	topic := p.topicPrefix + "/" + event.AssetItemID
	if token := p.client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish error: %w", token.Error())
	}
	return nil
}
