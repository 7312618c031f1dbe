package push

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for the initial
	// connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultSubscribeTimeout is the maximum time to wait for a
	// subscribe acknowledgment.
	defaultSubscribeTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending
	// operations on disconnect, in milliseconds.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Sink consumes decoded push messages and availability transitions.
// Implemented by the bot.
type Sink interface {
	Handle(name string, payload map[string]any) error
	SetAvailable(available bool)
}

// Identity carries the portal session and device identity the broker
// authenticates against.
type Identity struct {
	// UserID and Token come from the portal login.
	UserID string
	Token  string

	// Target device.
	DeviceID string
	Class    string
	Resource string

	// Continent selects the regional broker when no host override is
	// configured.
	Continent string
}

// Client wraps paho.mqtt.golang for the vendor push channel.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The attribute-report subscription is restored on reconnection.
type Client struct {
	client pahomqtt.Client
	cfg    config.PushConfig
	id     Identity
	sink   Sink
	logger Logger

	topic string

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex
}

// Connect establishes the push channel and subscribes to the device's
// attribute-report topic.
//
// It configures auto-reconnect with exponential backoff; on every
// reconnect the subscription is restored and the sink is marked
// available again.
func Connect(cfg config.PushConfig, id Identity, sink Sink, logger Logger) (*Client, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: sink is required", ErrConnectionFailed)
	}
	if logger == nil {
		logger = noop{}
	}

	c := &Client{
		cfg:    cfg,
		id:     id,
		sink:   sink,
		logger: logger,
		topic:  fmt.Sprintf("iot/atr/+/%s/%s/%s/j", id.DeviceID, id.Class, id.Resource),
	}

	opts := c.buildClientOptions()
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously; set the state here so
	// IsConnected() is true as soon as Connect returns.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	if err := c.subscribe(); err != nil {
		c.client.Disconnect(defaultDisconnectQuiesce)
		return nil, err
	}

	return c, nil
}

// buildClientOptions creates paho options for the vendor broker. The
// broker authenticates with the portal session: the user id as username,
// the portal token as password.
func (c *Client) buildClientOptions() *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	host := c.cfg.Broker.Host
	if host == "" {
		host = fmt.Sprintf("mq-%s.ecouser.net", c.id.Continent)
	}
	scheme := "tcp"
	if c.cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, host, c.cfg.Broker.Port))

	// The vendor broker routes by this client id shape.
	resource := c.id.Resource
	if len(resource) > 8 {
		resource = resource[:8]
	}
	opts.SetClientID(fmt.Sprintf("%s@%s/%s", c.id.UserID, c.id.Class, resource))
	opts.SetUsername(fmt.Sprintf("%s@ecouser.net", c.id.UserID))
	opts.SetPassword(c.id.Token)

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(c.cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(c.cfg.Reconnect.MaxDelay) * time.Second)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if c.cfg.Broker.TLS {
		// The vendor broker presents a certificate that fails hostname
		// validation on some regional endpoints.
		opts.SetTLSConfig(&tls.Config{
			MinVersion:         tlsMinVersion,
			InsecureSkipVerify: true,
		})
	}

	return opts
}

// handleConnect runs on initial connect and every reconnect.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	// Restore the subscription; on the initial connect this races the
	// explicit subscribe in Connect, which is harmless.
	c.client.Subscribe(c.topic, byte(c.cfg.QoS), c.messageHandler())

	c.logger.Info("push channel connected", "device", c.id.DeviceID)
	c.sink.SetAvailable(true)
}

// handleDisconnect runs when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.logger.Warn("push channel lost", "device", c.id.DeviceID, "error", err)
	c.sink.SetAvailable(false)
}

func (c *Client) subscribe() error {
	token := c.client.Subscribe(c.topic, byte(c.cfg.QoS), c.messageHandler())
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// messageHandler decodes attribute reports and feeds them to the sink,
// with panic recovery so one bad payload cannot kill the channel.
func (c *Client) messageHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("push handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		name, ok := commandName(msg.Topic())
		if !ok {
			c.logger.Warn("push message on unexpected topic", "topic", msg.Topic())
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			c.logger.Warn("push payload is not JSON", "topic", msg.Topic(), "error", err)
			return
		}

		if err := c.sink.Handle(name, payload); err != nil {
			c.logger.Error("push dispatch failed", "name", name, "error", err)
		}
	}
}

// commandName extracts the command name segment from an attribute-report
// topic (iot/atr/<name>/<did>/<class>/<resource>/j).
func commandName(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != "iot" || parts[1] != "atr" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// HealthCheck verifies the push channel is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("push health check: %w", ctx.Err())
	default:
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Close disconnects from the broker and marks the sink unavailable.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.sink.SetAvailable(false)
	return nil
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
