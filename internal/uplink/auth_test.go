package uplink_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/openhrv/helpers"
	"github.com/temoto/openhrv/internal/uplink"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
)

func TestEncodeToken(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input  string
		expect string
	}{
		{"", ""},
		{"abcXYZ019", "abcXYZ019"},
		{"abc+/=", "abc%2B%2F%3D"},
		{"a b'c", "a%20b%27c"},
		{"-._~", "%2D%2E%5F%7E"},
		{"\x00\xff", "%00%FF"},
		{"ё", "%D1%91"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.input, func(t *testing.T) {
			assert.Equal(t, c.expect, uplink.EncodeToken(c.input))
		})
	}
}

func TestAcquireToken(t *testing.T) {
	t.Parallel()
	mock := &helpers.MockHTTP{Header: []byte("HTTP/1.1 200 OK\r\nSecurity-Token: a+b\r\nContent-Length: 0\r\n\r\n")}
	ac := uplink.NewAuthClient("http://collector.invalid/api/", "default.client", "password1234", &http.Client{Transport: mock}, log2.NewTest(t, log2.LDebug))
	token, err := ac.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a%2Bb", token)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "http://collector.invalid/api/security/context", reqs[0].URL.String())
	user, pass, ok := reqs[0].BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "default.client", user)
	assert.Equal(t, "password1234", pass)
}

func TestAcquireTokenNotLogged(t *testing.T) {
	t.Parallel()
	mock := &helpers.MockHTTP{Header: []byte("HTTP/1.1 200 OK\r\nSecurity-Token: Sup3rS3cret\r\nContent-Length: 0\r\n\r\n")}
	var buf bytes.Buffer
	ac := uplink.NewAuthClient("http://collector.invalid/api", "id", "secret", &http.Client{Transport: mock}, log2.NewWriter(&buf, log2.LDebug))
	token, err := ac.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sup3rS3cret", token)
	assert.Contains(t, buf.String(), "token len=11")
	assert.NotContains(t, buf.String(), "Sup3r")
}

func TestAcquireTokenMissingHeader(t *testing.T) {
	t.Parallel()
	mock := &helpers.MockHTTP{Header: []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")}
	ac := uplink.NewAuthClient("http://collector.invalid/api", "id", "secret", &http.Client{Transport: mock}, log2.NewTest(t, log2.LDebug))
	_, err := ac.AcquireToken(context.Background())
	af, ok := uplink_api.IsAuthFailure(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, http.StatusOK, af.Status)
	assert.Contains(t, af.Error(), "missing Security-Token")
}

func TestAcquireTokenStatus(t *testing.T) {
	t.Parallel()
	mock := &helpers.MockHTTP{
		Header: []byte("HTTP/1.1 401 Unauthorized\r\nContent-Length: 6\r\n\r\n"),
		Body:   []byte("denied"),
	}
	ac := uplink.NewAuthClient("http://collector.invalid/api", "id", "wrong", &http.Client{Transport: mock}, log2.NewTest(t, log2.LDebug))
	_, err := ac.AcquireToken(context.Background())
	af, ok := uplink_api.IsAuthFailure(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, http.StatusUnauthorized, af.Status)
}
