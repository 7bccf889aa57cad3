package uplink

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
)

const (
	PathSecurityContext = "/security/context"
	HeaderSecurityToken = "Security-Token"
)

// AuthClient exchanges configured client credentials for security token.
type AuthClient struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
	log      *log2.Log
}

func NewAuthClient(baseURL, clientID, secret string, client *http.Client, log *log2.Log) *AuthClient {
	return &AuthClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		client:   client,
		log:      log,
	}
}

// AcquireToken returns token ready for Authorization header, see EncodeToken.
// Errors: *AuthFailure on non-200 or missing token, *TransportFailure without response.
func (self *AuthClient) AcquireToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, self.baseURL+PathSecurityContext, nil)
	if err != nil {
		return "", errors.Annotate(err, "acquire token request")
	}
	req.SetBasicAuth(self.clientID, self.secret)

	resp, err := self.client.Do(req)
	if err != nil {
		return "", &uplink_api.TransportFailure{Op: "acquire", Err: err}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		self.log.Debugf("uplink acquire status=%d body=%q", resp.StatusCode, body)
		return "", &uplink_api.AuthFailure{Status: resp.StatusCode}
	}
	raw := resp.Header.Get(HeaderSecurityToken)
	if raw == "" {
		return "", &uplink_api.AuthFailure{Status: resp.StatusCode, Reason: "missing " + HeaderSecurityToken}
	}
	token := EncodeToken(raw)
	self.log.Debugf("uplink received security token len=%d", len(raw))
	return token, nil
}

// EncodeToken percent-encodes every byte outside [A-Za-z0-9] as upper case %XX.
// Result is safe inside quoted Authorization header value.
func EncodeToken(s string) string {
	const hexUpper = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexUpper[c>>4])
		b.WriteByte(hexUpper[c&0x0f])
	}
	return b.String()
}
