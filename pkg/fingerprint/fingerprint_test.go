package fingerprint_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaddesk/authkit/pkg/fingerprint"
)

func newRequest(ua, lang string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if ua != "" {
		r.Header.Set("User-Agent", ua)
	}
	if lang != "" {
		r.Header.Set("Accept-Language", lang)
	}
	return r
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for identical requests", func(t *testing.T) {
		t.Parallel()
		r1 := newRequest("Mozilla/5.0", "en-US")
		r2 := newRequest("Mozilla/5.0", "en-US")

		assert.Equal(t, fingerprint.Generate(r1), fingerprint.Generate(r2))
	})

	t.Run("differs across clients", func(t *testing.T) {
		t.Parallel()
		chrome := newRequest("Mozilla/5.0 Chrome/120", "en-US")
		curl := newRequest("curl/8.4.0", "")

		assert.NotEqual(t, fingerprint.Generate(chrome), fingerprint.Generate(curl))
	})

	t.Run("differs across client addresses", func(t *testing.T) {
		t.Parallel()
		r1 := newRequest("Mozilla/5.0", "en-US")
		r2 := newRequest("Mozilla/5.0", "en-US")
		r1.Header.Set("X-Forwarded-For", "203.0.113.5")
		r2.Header.Set("X-Forwarded-For", "203.0.113.6")

		assert.NotEqual(t, fingerprint.Generate(r1), fingerprint.Generate(r2))
	})

	t.Run("nonempty for a bare request", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.NotEmpty(t, fingerprint.Generate(r))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	r := newRequest("Mozilla/5.0", "en-US")
	fp := fingerprint.Generate(r)

	assert.True(t, fingerprint.Validate(r, fp))
	assert.False(t, fingerprint.Validate(newRequest("curl/8.4.0", ""), fp))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	handler := fingerprint.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = fingerprint.FromContext(r.Context())
	}))

	r := newRequest("Mozilla/5.0", "en-US")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	require.NotEmpty(t, seen)
	assert.Equal(t, fingerprint.Generate(r), seen)
}
