package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/gridtariff/internal/config"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// Publisher publishes opportunity summaries to an MQTT broker
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// New connects to the broker described by cfg
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("gridtariff")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: client, topicPrefix: cfg.GetTopicPrefix()}, nil
}

// Topic returns the topic a summary is published on
func Topic(prefix, opportunityID string) string {
	return fmt.Sprintf("%s/%s/summary", prefix, opportunityID)
}

// PublishSummary publishes s as retained JSON with QoS 1
func (p *Publisher) PublishSummary(s models.OpportunitySummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	token := p.client.Publish(Topic(p.topicPrefix, s.OpportunityID), 1, true, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publishing %s: timed out", s.OpportunityID)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", s.OpportunityID, err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
