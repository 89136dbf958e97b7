package network

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = "<html><body>Tour Eiffel, Paris</body></html>"

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zlibBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func rawDeflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func brotliBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func responseWith(encoding string, body []byte) *http.Response {
	h := http.Header{}
	if encoding != "" {
		h.Set("Content-Encoding", encoding)
	}
	h.Set("Content-Length", "123")
	return &http.Response{Header: h, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body))}
}

func TestDecompressResponse(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		body     func(t *testing.T) []byte
	}{
		{"gzip", "gzip", func(t *testing.T) []byte { return gzipBytes(t, []byte(payload)) }},
		{"zlib deflate", "deflate", func(t *testing.T) []byte { return zlibBytes(t, []byte(payload)) }},
		{"raw deflate", "deflate", func(t *testing.T) []byte { return rawDeflateBytes(t, []byte(payload)) }},
		{"brotli", "br", func(t *testing.T) []byte { return brotliBytes(t, []byte(payload)) }},
		{"upper case", "GZIP", func(t *testing.T) []byte { return gzipBytes(t, []byte(payload)) }},
		{"layered br then gzip", "br, gzip", func(t *testing.T) []byte { return gzipBytes(t, brotliBytes(t, []byte(payload))) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := responseWith(tt.encoding, tt.body(t))
			require.NoError(t, DecompressResponse(resp))

			got, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.NoError(t, resp.Body.Close())
			assert.Equal(t, payload, string(got))
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
			assert.Empty(t, resp.Header.Get("Content-Length"))
			assert.Equal(t, int64(-1), resp.ContentLength)
			assert.True(t, resp.Uncompressed)
		})
	}

	t.Run("identity and absent encodings are untouched", func(t *testing.T) {
		for _, enc := range []string{"", "identity"} {
			resp := responseWith(enc, []byte(payload))
			require.NoError(t, DecompressResponse(resp))
			assert.False(t, resp.Uncompressed)
		}
		assert.NoError(t, DecompressResponse(nil))
	})

	t.Run("unsupported encoding", func(t *testing.T) {
		err := DecompressResponse(responseWith("zstd", []byte(payload)))
		assert.ErrorContains(t, err, "unsupported Content-Encoding layer: zstd")
	})

	t.Run("corrupt gzip header", func(t *testing.T) {
		err := DecompressResponse(responseWith("gzip", []byte("not gzip")))
		assert.ErrorContains(t, err, "gzip initialization error")
	})
}

func TestCompressionMiddleware(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, acceptEncoding, r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "br")
		w.Write(brotliBytes(t, []byte(payload)))
	}))
	defer server.Close()

	client := &http.Client{Transport: NewCompressionMiddleware(&http.Transport{DisableCompression: true})}
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, payload, string(body))
	assert.Empty(t, req.Header.Get("Accept-Encoding"), "the caller's request is not modified")
}

func TestCompressionMiddleware_DecodeFailureClosesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "compress")
		w.Write([]byte(strings.Repeat("x", 10)))
	}))
	defer server.Close()

	client := &http.Client{Transport: NewCompressionMiddleware(nil)}
	_, err := client.Get(server.URL)
	assert.ErrorContains(t, err, "failed to initialize response decompression")
}
