package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServerExposesCounters(t *testing.T) {
	srv, err := New("installer_test", "127.0.0.1:0")
	require.NoError(t, err)

	IncTokensIssued()
	IncRequestError("download", "404")

	w := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "installer_tokens_issued_total")
	assert.Contains(t, string(body), `service="installer_test"`)
	assert.Contains(t, string(body), `operation="download"`)
}

func TestMultipleServersDoNotConflict(t *testing.T) {
	_, err := New("a", "127.0.0.1:0")
	require.NoError(t, err)
	_, err = New("b", "127.0.0.1:0")
	require.NoError(t, err)
}
