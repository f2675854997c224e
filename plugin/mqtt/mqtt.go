package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nextdhcp/dhcpester/core/events"
	"github.com/nextdhcp/dhcpester/core/matcher"
	"github.com/nextdhcp/dhcpester/plugin"
)

type (
	// msgFactory creates the MQTT topic or payload
	// from the given handshake event
	msgFactory func(ctx context.Context, ev *events.Event) (string, error)

	mqttConnConfig struct {
		broker       []string
		user         string
		password     string
		clientID     string
		cleanSession bool
		qos          int

		l sync.Mutex
		c mqtt.Client
	}

	mqttConfig struct {
		*matcher.Matcher

		conn    *mqttConnConfig
		name    string // optional name for the mqtt config
		topic   msgFactory
		payload msgFactory
	}

	mqttPlugin struct {
		configs []*mqttConfig
		next    plugin.Handler
		l       log.Interface
		wg      sync.WaitGroup
	}
)

// newClient is replaced during tests
var newClient = mqtt.NewClient

// Name returns "mqtt" and implements plugin.Handler
func (m *mqttPlugin) Name() string {
	return "mqtt"
}

// HandleEvent forwards the event and publishes any MQTT messages configured.
// It implements plugin.Handler
func (m *mqttPlugin) HandleEvent(ctx context.Context, ev *events.Event) error {
	if err := plugin.Next(ctx, m.next, ev); err != nil {
		return err
	}

	for _, cfg := range m.configs {
		m.wg.Add(1)
		go func(cfg *mqttConfig) {
			defer m.wg.Done()
			m.publish(ctx, cfg, ev)
		}(cfg)
	}

	return nil
}

func (m *mqttPlugin) publish(ctx context.Context, cfg *mqttConfig, ev *events.Event) {
	match, err := cfg.Match(ctx, ev)
	if err != nil {
		m.l.Errorf("matching failed for MQTT plugin with name %q: %s", cfg.name, err.Error())
		return
	}

	if !match {
		return
	}

	cli, qos, err := m.getClient(cfg)
	if err != nil {
		m.l.Errorf("failed to get MQTT connection for %q: %s", cfg.name, err.Error())
		return
	}

	topic, err := cfg.topic(ctx, ev)
	if err != nil {
		m.l.Errorf("failed to get MQTT topic for %q: %s", cfg.name, err.Error())
		return
	}

	payload, err := cfg.payload(ctx, ev)
	if err != nil {
		m.l.Errorf("failed to get MQTT payload for %q: %s", cfg.name, err.Error())
		return
	}

	if token := cli.Publish(topic, byte(qos), false, payload); token.Wait() && token.Error() != nil {
		m.l.Errorf("failed to publish MQTT message for %q: %s", cfg.name, token.Error())
		return
	}

	m.l.Debugf("published MQTT message to topic %s", topic)
}

func (m *mqttPlugin) getClient(cfg *mqttConfig) (mqtt.Client, int, error) {
	// check if we should use a different configuration
	if cfg.name != "" && cfg.conn == nil {
		for _, c := range m.configs {
			if c.name == cfg.name && c.conn != nil {
				return m.getClient(c)
			}
		}
		return nil, 0, fmt.Errorf("MQTT configuration with name %q not found", cfg.name)
	}

	cfg.conn.l.Lock()
	defer cfg.conn.l.Unlock()

	if cfg.conn.c == nil {
		if err := cfg.conn.open(m.l); err != nil {
			return nil, 0, err
		}
	}

	return cfg.conn.c, cfg.conn.qos, nil
}

// close waits for pending messages and disconnects from all brokers
func (m *mqttPlugin) close() error {
	m.wg.Wait()

	for _, cfg := range m.configs {
		if cfg.conn == nil {
			continue
		}

		cfg.conn.l.Lock()
		if cfg.conn.c != nil {
			cfg.conn.c.Disconnect(250)
			cfg.conn.c = nil
		}
		cfg.conn.l.Unlock()
	}

	return nil
}

func (conn *mqttConnConfig) open(l log.Interface) error {
	opts := mqtt.NewClientOptions()

	for _, b := range conn.broker {
		opts.AddBroker(b)
	}

	if conn.user != "" {
		opts.SetUsername(conn.user)
	}

	if conn.password != "" {
		opts.SetPassword(conn.password)
	}

	if conn.cleanSession {
		opts.SetCleanSession(true)
	}

	if conn.clientID != "" {
		opts.SetClientID(conn.clientID)
	}

	opts.SetAutoReconnect(true)

	cli := newClient(opts)

	var servers []string
	for _, s := range opts.Servers {
		servers = append(servers, s.String())
	}

	l.Debugf("connecting to MQTT brokers at %s", strings.Join(servers, ", "))
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	l.Infof("connected to MQTT brokers at %s", strings.Join(servers, ", "))

	conn.c = cli

	return nil
}
