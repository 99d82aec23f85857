package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaddesk/authkit/pkg/requestid"
)

func serve(t *testing.T, incoming string) (ctxID string, headerID string) {
	t.Helper()

	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(requestid.Header, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("honors well-formed incoming id", func(t *testing.T) {
		t.Parallel()
		ctxID, headerID := serve(t, "req-abc_123")

		assert.Equal(t, "req-abc_123", ctxID)
		assert.Equal(t, "req-abc_123", headerID)
	})

	t.Run("generates a uuid when absent", func(t *testing.T) {
		t.Parallel()
		ctxID, headerID := serve(t, "")

		require.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, headerID)
		_, err := uuid.Parse(ctxID)
		assert.NoError(t, err)
	})

	t.Run("replaces malformed incoming id", func(t *testing.T) {
		t.Parallel()
		ctxID, _ := serve(t, "bad id with spaces")

		assert.NotEqual(t, "bad id with spaces", ctxID)
		_, err := uuid.Parse(ctxID)
		assert.NoError(t, err)
	})

	t.Run("replaces oversized incoming id", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 129)
		ctxID, _ := serve(t, long)

		assert.NotEqual(t, long, ctxID)
	})
}

func TestFromContext_Empty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, requestid.FromContext(req.Context()))
}
