// Package mqttsink republishes aggregated network state to an MQTT broker.
package mqttsink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"nmwatch/config"
	"nmwatch/netstate"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	keepAlive         = 60 * time.Second
)

var (
	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a state could not be delivered.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)

// client is the part of pahomqtt.Client the sink uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Sink publishes every state it receives to one topic. Availability is
// published retained on <topic>/availability, with a broker-side will
// reporting "offline" if the process dies.
type Sink struct {
	client client
	cfg    config.MQTTConfig
	log    *logrus.Entry
}

// Connect dials the broker described by cfg.
func Connect(cfg config.MQTTConfig, log *logrus.Entry) (*Sink, error) {
	opts := buildClientOptions(cfg)

	s := &Sink{cfg: cfg, log: log}
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		log.Info("connected to broker")
		// Not waited on: the handler runs on paho's connection goroutine.
		c.Publish(availabilityTopic(cfg.Topic), byte(cfg.QoS), true, "online")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.WithError(err).Warn("broker connection lost")
	})

	c := pahomqtt.NewClient(opts)
	s.client = c
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return s, nil
}

func newSink(c client, cfg config.MQTTConfig, log *logrus.Entry) *Sink {
	return &Sink{client: c, cfg: cfg, log: log}
}

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	opts.SetWill(availabilityTopic(cfg.Topic), "offline", byte(cfg.QoS), true)
	return opts
}

func availabilityTopic(topic string) string {
	return topic + "/availability"
}

// Run publishes each state from sub until ctx is done or sub is closed.
// The all-unknown state replayed before the first aggregation is skipped so
// it never replaces a retained state. Failed publishes are logged; the next
// state is still attempted.
func (s *Sink) Run(ctx context.Context, sub *netstate.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-sub.C():
			if !ok {
				return
			}
			if st.IsZero() {
				continue
			}
			if err := s.Publish(st); err != nil {
				s.log.WithError(err).Warn("state not published")
			}
		}
	}
}

// Publish sends one state to the configured topic.
func (s *Sink) Publish(st netstate.State) error {
	payload, err := encodeState(st, time.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return s.send(s.cfg.Topic, payload)
}

func (s *Sink) send(topic string, payload []byte) error {
	token := s.client.Publish(topic, byte(s.cfg.QoS), s.cfg.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close reports a graceful offline and disconnects.
func (s *Sink) Close() {
	if s.client == nil {
		return
	}
	if s.client.IsConnected() {
		token := s.client.Publish(availabilityTopic(s.cfg.Topic), byte(s.cfg.QoS), true, "offline")
		if !token.WaitTimeout(publishTimeout) {
			s.log.Warn("offline status not acknowledged")
		}
	}
	s.client.Disconnect(disconnectQuiesce)
}

type statePayload struct {
	State     netstate.State `json:"state"`
	Timestamp string         `json:"timestamp"`
}

func encodeState(st netstate.State, at time.Time) ([]byte, error) {
	return json.Marshal(statePayload{
		State:     st,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}
