package uplink

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/helpers"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
	uplink_config "github.com/temoto/openhrv/uplink/config"
)

const (
	PathHeartRate = "/health/heartrate"

	maxBodyLog     = 4 << 10
	logMsgDisabled = "uplink disabled"
)

// Uplink contract:
// - Init() fails only with invalid config, network issues ignored
// - Send() is one attempt per reading: acquire token if absent, POST once
// - 401 clears token it was sent with, next reading acquires again; no queue, failed readings are dropped
// - SendAsync() never blocks caller; Close() waits for pending sends
type Uplink struct { //nolint:maligned
	config  uplink_config.Config
	log     *log2.Log
	client  *http.Client
	auth    *AuthClient
	tokens  *TokenStore
	backoff helpers.Backoff
	alive   *alive.Alive
	baseURL string

	statMu sync.Mutex
	stat   uplink_api.Stat
}

var _ uplink_api.Uplinker = &Uplink{} // compile-time interface test

func New() *Uplink { return &Uplink{} }

// NewWithClient is for tests and custom transports. Nil arguments get defaults in Init.
func NewWithClient(client *http.Client, tokens *TokenStore) *Uplink {
	return &Uplink{client: client, tokens: tokens}
}

func (self *Uplink) Init(ctx context.Context, log *log2.Log, config uplink_config.Config) error {
	self.config = config
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	self.alive = alive.NewAlive()
	if err := self.config.Validate(); err != nil {
		return errors.Annotate(err, "uplink config")
	}

	self.baseURL = strings.TrimRight(self.config.BaseURL, "/")
	if self.client == nil { // production path
		self.client = &http.Client{Timeout: self.config.RequestTimeout()}
	}
	if self.tokens == nil {
		self.tokens = new(TokenStore)
	}
	self.backoff.Min, self.backoff.Max = self.config.AuthBackoff()
	self.backoff.K = 2
	self.auth = NewAuthClient(self.baseURL, self.config.ClientID, self.config.ClientSecret, self.client, self.log)
	if self.config.Enabled {
		self.log.Infof("uplink collector=%s client_id=%s timeout=%s", self.baseURL, self.config.ClientID, self.config.RequestTimeout())
	}
	return nil
}

func (self *Uplink) Close() {
	self.alive.Stop()
	self.alive.Wait()
	if self.client != nil {
		self.client.CloseIdleConnections()
	}
}

func (self *Uplink) Tokens() *TokenStore { return self.tokens }

func (self *Uplink) Stat() uplink_api.Stat {
	self.statMu.Lock()
	defer self.statMu.Unlock()
	return self.stat
}

func (self *Uplink) SendAsync(ctx context.Context, m hrm.Measurement, at time.Time) *helpers.Future {
	f := helpers.NewFuture()
	if !self.alive.Add(1) {
		f.Cancel(uplink_api.ErrClosed)
		return f
	}
	go func() {
		defer self.alive.Done()
		f.Complete(self.Send(ctx, m, at))
	}()
	return f
}

func (self *Uplink) Send(ctx context.Context, m hrm.Measurement, at time.Time) error {
	if !self.config.Enabled {
		self.log.Debugf(logMsgDisabled)
		return nil
	}
	payload, err := NewPayload(m, at).Marshal()
	if err != nil {
		return errors.Annotate(err, "uplink payload")
	}

	err = self.attempt(ctx, payload)
	if _, ok := uplink_api.IsAuthFailure(err); ok && self.config.RetryUnauthorized {
		self.log.Infof("uplink retry same reading after err=%v", err)
		err = self.attempt(ctx, payload)
	}
	self.count(err)
	return err
}

func (self *Uplink) attempt(ctx context.Context, payload []byte) error {
	token, err := self.token(ctx)
	if err != nil {
		return err
	}
	return self.deliver(ctx, token, payload)
}

func (self *Uplink) token(ctx context.Context) (string, error) {
	if token, ok := self.tokens.Current(); ok {
		return token, nil
	}
	if d := self.backoff.DelayBefore(); d > 0 {
		return "", &uplink_api.TransportFailure{Op: "acquire", Err: errors.Annotatef(uplink_api.ErrBackoff, "retry in %s", d)}
	}
	return self.tokens.Ensure(ctx, self.acquire)
}

func (self *Uplink) acquire(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, self.config.RequestTimeout())
	defer cancel()

	token, err := self.auth.AcquireToken(ctx)
	self.backoff.Update(err == nil)
	if err != nil {
		self.log.Errorf("uplink acquire token err=%v", err)
		return "", err
	}
	self.statMu.Lock()
	self.stat.Acquired++
	self.statMu.Unlock()
	self.log.Debugf("uplink token acquired")
	return token, nil
}

func (self *Uplink) deliver(ctx context.Context, token string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, self.config.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, self.baseURL+PathHeartRate, bytes.NewReader(payload))
	if err != nil {
		return errors.Annotate(err, "uplink request")
	}
	req.Header.Set("Authorization", "SecurityToken token='"+token+"'")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	self.log.Debugf("uplink posting %s", payload)

	resp, err := self.client.Do(req)
	if err != nil {
		return &uplink_api.TransportFailure{Op: "deliver", Err: err}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		self.log.Debugf("uplink delivered response=%q", body)
		return nil
	case http.StatusUnauthorized:
		if !self.tokens.InvalidateIf(token) {
			self.log.Debugf("uplink 401 for replaced token, current kept")
		}
		return &uplink_api.AuthFailure{Status: resp.StatusCode, Reason: "token rejected"}
	default:
		self.log.Debugf("uplink status=%d response=%q", resp.StatusCode, body)
		return &uplink_api.DeliveryFailure{Status: resp.StatusCode}
	}
}

// count classifies one Send outcome.
func (self *Uplink) count(err error) {
	self.statMu.Lock()
	defer self.statMu.Unlock()
	if err == nil {
		self.stat.Delivered++
		return
	}
	if _, ok := uplink_api.IsAuthFailure(err); ok {
		self.stat.AuthFailures++
	} else if _, ok := uplink_api.IsDeliveryFailure(err); ok {
		self.stat.DeliveryFailures++
	} else {
		self.stat.TransportFailures++
	}
}
