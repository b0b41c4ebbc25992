package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"solarcleaner/internal/logger"
	"solarcleaner/internal/models"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker       string `json:"broker"`
	ClientID     string `json:"client_id"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	CommandTopic string `json:"command_topic"`
	StatusTopic  string `json:"status_topic"`
	QoS          byte   `json:"qos"`
}

// StatusHandler receives parsed device status messages.
type StatusHandler interface {
	HandleDeviceStatus(st models.DeviceStatus)
}

// pahoClient narrows the paho client surface so tests can inject a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Bridge holds the long-lived broker connection. It subscribes to the
// device status topic and forwards parsed messages to the handler; the
// orchestrator publishes commands through it. Delivery is best-effort:
// device status is self-correcting, so no ack or replay is needed.
type Bridge struct {
	cli    pahoClient
	cfg    Config
	log    *logger.Logger
	mu     sync.RWMutex
	target StatusHandler
}

// NewBridge connects to the broker and subscribes to the status topic.
// A connect failure is returned to the caller; startup should abort on it
// rather than run without a command path. After a successful connect the
// paho client reconnects and resubscribes on its own.
func NewBridge(cfg Config, log *logger.Logger) (*Bridge, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "solarcleaner-" + uuid.NewString()[:8]
	}

	b := &Bridge{cfg: cfg, log: log}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infow("mqtt connected", "broker", cfg.Broker)
		if token := c.Subscribe(cfg.StatusTopic, cfg.QoS, b.onMessage); token.Wait() && token.Error() != nil {
			log.Errorw("status topic subscribe failed", "topic", cfg.StatusTopic, "err", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorw("mqtt connection lost", "err", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnw("reconnecting to mqtt broker", "broker", cfg.Broker)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.cli = c
	return b, nil
}

// Route sets the handler for inbound device status. Messages arriving
// before a handler is routed are dropped.
func (b *Bridge) Route(h StatusHandler) {
	b.mu.Lock()
	b.target = h
	b.mu.Unlock()
}

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	st, err := models.ParseDeviceStatus(string(msg.Payload()))
	if err != nil {
		b.log.Warnw("dropping device message", "topic", msg.Topic(), "err", err)
		return
	}

	b.mu.RLock()
	h := b.target
	b.mu.RUnlock()
	if h == nil {
		b.log.Debugw("device status before handler routed", "topic", msg.Topic())
		return
	}
	h.HandleDeviceStatus(st)
}

// PublishCommand sends a device command on the command topic.
func (b *Bridge) PublishCommand(cmd models.DeviceCommand) error {
	token := b.cli.Publish(b.cfg.CommandTopic, b.cfg.QoS, false, string(cmd))
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker, letting in-flight work quiesce.
func (b *Bridge) Close() {
	b.cli.Disconnect(250)
}
