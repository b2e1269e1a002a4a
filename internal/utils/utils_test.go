package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBookingID(t *testing.T) {
	cases := map[string]bool{
		"123e4567-e89b-12d3-a456-426614174000":      true,
		"123E4567-E89B-12D3-A456-426614174000":      true,
		"550e8400-e29b-41d4-a716-446655440000":      true,
		"123e4567-e89b-62d3-a456-426614174000":      false, // version 6
		"123e4567-e89b-02d3-a456-426614174000":      false, // version 0
		"123e4567-e89b-12d3-c456-426614174000":      false, // microsoft variant
		"123e4567e89b12d3a456426614174000":          false,
		"{123e4567-e89b-12d3-a456-426614174000}":    false,
		"urn:uuid:123e4567-e89b-12d3-a456-42661417": false,
		"not-a-uuid":                                false,
		"":                                          false,
	}
	for id, want := range cases {
		assert.Equal(t, want, IsBookingID(id), id)
	}
}

func TestNewBookingIDIsValid(t *testing.T) {
	assert.True(t, IsBookingID(NewBookingID()))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, http.StatusBadRequest, "Booking ID is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Booking ID is required", body["error"])
}

func TestSkipPrefix(t *testing.T) {
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Wrapped", "yes")
			next.ServeHTTP(w, r)
		})
	}
	h := SkipPrefix("/api/payment/", tag)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := map[string]string{
		"/api/payment/webhook":        "",
		"/api/payment/stripe/webhook": "",
		"/api/payments":               "yes",
		"/api/categories":             "yes",
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, want, rec.Header().Get("X-Wrapped"), path)
	}
}
