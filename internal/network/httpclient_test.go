// internal/network/httpclient_test.go
package network

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultClientConfig(t *testing.T) {
	config := NewDefaultClientConfig()

	assert.Equal(t, DefaultRequestTimeout, config.RequestTimeout)
	assert.Equal(t, DefaultResponseHeaderTimeout, config.ResponseHeaderTimeout)
	assert.Equal(t, DefaultMaxIdleConns, config.MaxIdleConns)
	assert.Equal(t, DefaultMaxRedirects, config.MaxRedirects)
	assert.True(t, config.ForceHTTP2, "HTTP/2 should be preferred by default")
	assert.NotNil(t, config.Logger)
}

func TestConfigureTLS(t *testing.T) {
	t.Run("secure defaults", func(t *testing.T) {
		tlsConfig := configureTLS(NewDefaultClientConfig())
		require.NotNil(t, tlsConfig)
		assert.Equal(t, uint16(requiredMinTLSVersion), tlsConfig.MinVersion)
		assert.False(t, tlsConfig.InsecureSkipVerify)
		assert.NotNil(t, tlsConfig.ClientSessionCache)
	})

	t.Run("custom config is cloned and overridden", func(t *testing.T) {
		custom := &tls.Config{ServerName: "custom.sni"}
		config := NewDefaultClientConfig()
		config.TLSConfig = custom
		config.IgnoreTLSErrors = true

		tlsConfig := configureTLS(config)
		assert.Equal(t, "custom.sni", tlsConfig.ServerName)
		assert.Equal(t, uint16(requiredMinTLSVersion), tlsConfig.MinVersion)
		assert.True(t, tlsConfig.InsecureSkipVerify)
		assert.False(t, custom.InsecureSkipVerify, "the caller's config must not be modified")
		assert.NotSame(t, custom, tlsConfig)
	})
}

func TestNewHTTPTransport(t *testing.T) {
	transport := NewHTTPTransport(nil)
	require.NotNil(t, transport)
	assert.True(t, transport.DisableCompression, "decoding is handled by the middleware")
	assert.True(t, transport.ForceAttemptHTTP2)
	assert.NotNil(t, transport.DialContext)
}

func TestNewClient_Redirects(t *testing.T) {
	var hops int
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "arrived")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	config := NewDefaultClientConfig()
	config.MaxRedirects = 3
	client := NewClient(config)

	resp, err := client.Get(server.URL + "/start")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "arrived", string(body), "redirects are followed")

	resp, err = client.Get(server.URL + "/loop")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode, "the last redirect is returned once the limit is hit")
	assert.Equal(t, 3, hops)
}
