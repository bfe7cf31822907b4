package plc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aquamind/aquamind/pkg/fault"
)

const (
	// connectTimeout bounds the initial broker handshake.
	connectTimeout = 10 * time.Second

	// publishTimeout bounds a single publish token wait.
	publishTimeout = 5 * time.Second
)

// MQTTDispatcher publishes command documents to the PLC write topic over MQTT.
type MQTTDispatcher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTT connects to the broker and returns a dispatcher bound to topic.
// The paho client reconnects automatically; publishes during a disconnect
// fail and surface as collaborator errors.
func NewMQTT(broker, clientID, topic string, qos byte) (*MQTTDispatcher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("plc: broker connection lost", "err", err)
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			slog.Info("plc: connected to broker", "broker", broker)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fault.Collaborator("plc", "connect",
			fmt.Errorf("broker %s: connect timed out after %s", broker, connectTimeout))
	}
	if err := token.Error(); err != nil {
		return nil, fault.Collaborator("plc", "connect", err)
	}

	return &MQTTDispatcher{client: client, topic: topic, qos: qos}, nil
}

// Dispatch publishes cmd as JSON to the write topic. It blocks until the
// broker acknowledges the publish, the timeout elapses, or ctx is cancelled.
func (d *MQTTDispatcher) Dispatch(ctx context.Context, cmd map[string]interface{}) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fault.Collaborator("plc", "dispatch", err)
	}

	token := d.client.Publish(d.topic, d.qos, false, payload)

	acked := make(chan bool, 1)
	go func() { acked <- token.WaitTimeout(publishTimeout) }()

	select {
	case <-ctx.Done():
		return fault.Collaborator("plc", "dispatch", ctx.Err())
	case ok := <-acked:
		if !ok {
			return fault.Collaborator("plc", "dispatch",
				fmt.Errorf("publish to %s not acknowledged within %s", d.topic, publishTimeout))
		}
	}
	if err := token.Error(); err != nil {
		return fault.Collaborator("plc", "dispatch", err)
	}

	slog.Debug("plc: command published", "topic", d.topic, "cmd_type", cmd["CMD_TYPE"])
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (d *MQTTDispatcher) Close() {
	d.client.Disconnect(250)
}

// LogDispatcher records commands instead of sending them. Used when no
// broker is configured.
type LogDispatcher struct{}

// Dispatch logs the command and succeeds.
func (LogDispatcher) Dispatch(_ context.Context, cmd map[string]interface{}) error {
	slog.Info("plc: dispatch disabled — command not sent",
		"cmd_type", cmd["CMD_TYPE"], "alarm_level", cmd["ALARM_LEVEL"])
	return nil
}
