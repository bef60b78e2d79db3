package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func hit(h http.Handler) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	return rec.Code
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	h := RateLimit(3)(ok)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h))
}

func TestRateLimit_Disabled(t *testing.T) {
	for _, h := range []http.Handler{RateLimit(0)(ok), Wrap(ok, false, 1)} {
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, hit(h))
		}
	}
}

func TestWrap_Enabled(t *testing.T) {
	h := Wrap(ok, true, 1)
	assert.Equal(t, http.StatusOK, hit(h))
	assert.Equal(t, http.StatusTooManyRequests, hit(h))
}
