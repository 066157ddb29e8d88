package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battleship/internal/testutil"
)

func TestLoggingCapturesStatusAndSize(t *testing.T) {
	var captured *ResponseWriter
	h := Logging(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*ResponseWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, captured)
	assert.Equal(t, http.StatusTeapot, captured.Status())
	assert.Equal(t, 5, captured.Size())
}

func TestHijackWithoutSupportFails(t *testing.T) {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	assert.Error(t, err)
}

func TestRecoveryUsesPanicHandler(t *testing.T) {
	h := Recovery(testutil.NopLogger(), DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRecoverySkipsHijackedConnection(t *testing.T) {
	called := false
	handler := func(http.ResponseWriter, *http.Request, any) { called = true }

	h := Recovery(testutil.NopLogger(), handler)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.(*ResponseWriter).status = http.StatusSwitchingProtocols
		panic("after upgrade")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.False(t, called)
}

func TestGuard(t *testing.T) {
	err := Guard(testutil.NopLogger(), func() {})
	assert.NoError(t, err)

	err = Guard(testutil.NopLogger(), func() { panic("bad frame") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad frame")
}
