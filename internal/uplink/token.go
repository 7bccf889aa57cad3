package uplink

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/openhrv/helpers"
)

type AcquireFunc func(context.Context) (string, error)

// TokenStore holds zero or one security token.
// No expiry timer, token becomes invalid only by InvalidateIf() after collector said 401.
// Concurrent Ensure calls that find no token share single acquisition.
type TokenStore struct {
	mu      sync.Mutex
	token   string
	valid   bool
	pending *helpers.Future // tokenResult
}

type tokenResult struct {
	token string
	err   error
}

func (self *TokenStore) Current() (string, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.token, self.valid
}

func (self *TokenStore) Set(token string) {
	self.mu.Lock()
	self.token, self.valid = token, true
	self.mu.Unlock()
}

func (self *TokenStore) Invalidate() {
	self.mu.Lock()
	self.token, self.valid = "", false
	self.mu.Unlock()
}

// InvalidateIf clears store only if it still holds `token`.
// Late 401 for old token must not drop newer one. Returns true if cleared.
func (self *TokenStore) InvalidateIf(token string) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	if !self.valid || self.token != token {
		return false
	}
	self.token, self.valid = "", false
	return true
}

// Ensure returns current token or runs acquire and stores its result.
// While acquire runs, other callers wait for its outcome or their ctx.
func (self *TokenStore) Ensure(ctx context.Context, acquire AcquireFunc) (string, error) {
	self.mu.Lock()
	if self.valid {
		token := self.token
		self.mu.Unlock()
		return token, nil
	}
	if f := self.pending; f != nil {
		self.mu.Unlock()
		r, err := f.Wait(ctx)
		if err != nil {
			return "", errors.Annotate(err, "token wait")
		}
		tr := r.(tokenResult)
		return tr.token, tr.err
	}
	f := helpers.NewFuture()
	self.pending = f
	self.mu.Unlock()

	token, err := acquire(ctx)

	self.mu.Lock()
	if err == nil {
		self.token, self.valid = token, true
	}
	self.pending = nil
	self.mu.Unlock()
	f.Complete(tokenResult{token: token, err: err})
	return token, err
}
