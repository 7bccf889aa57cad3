// Package beacon publishes one byte device state to MQTT broker.
// Subscribers (dashboard, alerting) see retained last state, broker sets
// Disconnected via will message when device vanishes.
package beacon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/openhrv/helpers"
	"github.com/temoto/openhrv/internal/sensor"
	"github.com/temoto/openhrv/log2"
)

const DefaultKeepalive = 60 * time.Second

type Config struct {
	Enabled      bool   `hcl:"enable"`
	MqttBroker   string `hcl:"mqtt_broker"`
	ClientID     string `hcl:"client_id"`
	Password     string `hcl:"password"` // secret
	KeepaliveSec int    `hcl:"keepalive_sec"`
	LogDebug     bool   `hcl:"log_debug"`
}

func (c *Config) Keepalive() time.Duration {
	return helpers.IntSecondDefault(c.KeepaliveSec, DefaultKeepalive)
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	errs := make([]error, 0, 2)
	if c.MqttBroker == "" {
		errs = append(errs, errors.NotValidf("beacon.mqtt_broker empty"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.NotValidf("beacon.client_id empty"))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) Topic() string { return c.ClientID + "/state" }

type State byte

const (
	StateDisconnected State = iota
	StateBoot
	StateSensorConnected
	StateSensorLost
	StateUplinkOk
	StateUplinkProblem
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateBoot:
		return "Boot"
	case StateSensorConnected:
		return "SensorConnected"
	case StateSensorLost:
		return "SensorLost"
	case StateUplinkOk:
		return "UplinkOk"
	case StateUplinkProblem:
		return "UplinkProblem"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// Publisher is MQTT transport. onConnect is called after every (re)connect.
type Publisher interface {
	Init(ctx context.Context, log *log2.Log, config Config, onConnect func()) error
	Publish(topic string, payload []byte) error
	Close()
}

type Beacon struct {
	config  Config
	log     *log2.Log
	pub     Publisher
	topic   string
	enabled bool

	mu      sync.Mutex
	current State
}

var _ sensor.Observer = &Beacon{} // compile-time interface test

func New() *Beacon { return &Beacon{} }

// NewWithPublisher is for tests.
func NewWithPublisher(p Publisher) *Beacon { return &Beacon{pub: p} }

func (self *Beacon) Init(ctx context.Context, log *log2.Log, config Config) error {
	self.config = config
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.config.Enabled {
		return nil
	}
	if err := self.config.Validate(); err != nil {
		return errors.Annotate(err, "beacon config")
	}
	self.topic = self.config.Topic()
	if self.pub == nil { // production path
		self.pub = &mqttPublisher{}
	}
	if err := self.pub.Init(ctx, log, self.config, self.republish); err != nil {
		return errors.Annotate(err, "beacon transport")
	}
	self.enabled = true
	self.State(StateBoot)
	return nil
}

func (self *Beacon) Close() {
	if !self.enabled {
		return
	}
	self.State(StateDisconnected)
	self.pub.Close()
}

func (self *Beacon) Current() State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.current
}

// State publishes s if it differs from last published state.
func (self *Beacon) State(s State) {
	if !self.enabled {
		return
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if s == self.current {
		return
	}
	self.log.Debugf("beacon state %s -> %s", self.current, s)
	self.current = s
	if err := self.pub.Publish(self.topic, []byte{byte(s)}); err != nil {
		self.log.Errorf("beacon publish state=%s err=%v", s, err)
	}
}

func (self *Beacon) SensorConnected(connected bool) {
	if connected {
		self.State(StateSensorConnected)
	} else {
		self.State(StateSensorLost)
	}
}

func (self *Beacon) UplinkResult(err error) {
	if err == nil {
		self.State(StateUplinkOk)
	} else {
		self.State(StateUplinkProblem)
	}
}

// republish restores retained state after reconnect, will message could overwrite it.
func (self *Beacon) republish() {
	self.mu.Lock()
	defer self.mu.Unlock()
	if err := self.pub.Publish(self.topic, []byte{byte(self.current)}); err != nil {
		self.log.Errorf("beacon republish state=%s err=%v", self.current, err)
	}
}
