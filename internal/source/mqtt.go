package source

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fleetsense-data/behavior.report/internal/monitoring"
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// DefaultSampleTopic is where driver devices publish their sensor stream.
const DefaultSampleTopic = "fleet/driver/samples"

// MQTTSource subscribes to a broker topic carrying JSON-encoded samples
// (the motion.Sample wire shape). Used when the driver app relays sensor
// data through the fleet broker instead of a direct attachment.
type MQTTSource struct {
	BrokerURL string
	ClientID  string
	Topic     string
}

// NewMQTTSource builds a source for the given broker. An empty topic means
// DefaultSampleTopic.
func NewMQTTSource(brokerURL, clientID, topic string) *MQTTSource {
	if topic == "" {
		topic = DefaultSampleTopic
	}
	return &MQTTSource{BrokerURL: brokerURL, ClientID: clientID, Topic: topic}
}

// Run connects, subscribes, and delivers samples until ctx is cancelled.
// Undecodable payloads are skipped with a log line.
func (m *MQTTSource) Run(ctx context.Context, h Handler) error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.BrokerURL).
		SetClientID(m.ClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to broker %s: %w", m.BrokerURL, token.Error())
	}
	defer client.Disconnect(250)
	monitoring.Logf("source: connected to MQTT broker at %s", m.BrokerURL)

	token := client.Subscribe(m.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s motion.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			monitoring.Logf("source: sample unmarshal error: %v", err)
			return
		}
		h(s)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", m.Topic, token.Error())
	}
	monitoring.Logf("source: subscribed to %s", m.Topic)

	<-ctx.Done()
	return ctx.Err()
}
