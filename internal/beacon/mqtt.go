package beacon

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/temoto/openhrv/log2"
)

type mqttPublisher struct {
	log *log2.Log
	m   mqtt.Client
}

func (self *mqttPublisher) Init(ctx context.Context, log *log2.Log, config Config, onConnect func()) error {
	self.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if config.LogDebug {
		mqtt.DEBUG = log
	}

	keepAlive := config.Keepalive()
	mopt := mqtt.NewClientOptions().
		AddBroker(config.MqttBroker).
		SetBinaryWill(config.Topic(), []byte{byte(StateDisconnected)}, 1, true).
		SetCleanSession(true).
		SetClientID(config.ClientID).
		SetUsername(config.ClientID).
		SetPassword(config.Password).
		SetKeepAlive(keepAlive).
		SetPingTimeout(keepAlive / 2).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(keepAlive / 2).
		SetOnConnectHandler(func(mqtt.Client) {
			self.log.Infof("beacon mqtt connected")
			onConnect()
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			self.log.Infof("beacon mqtt connection lost err=%v", err)
		})
	self.m = mqtt.NewClient(mopt)
	// with connect retry, token completes only after first successful connect
	if token := self.m.Connect(); token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (self *mqttPublisher) Publish(topic string, payload []byte) error {
	token := self.m.Publish(topic, 1, true, payload)
	return token.Error()
}

func (self *mqttPublisher) Close() {
	self.m.Disconnect(250)
}
