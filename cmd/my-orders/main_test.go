package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"ms-booking/internal/logger"
	"ms-booking/internal/orderids"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"validIds":["b-1"],"invalidIds":["b-2"],"allBookings":[]}`))
	}))
	defer srv.Close()

	store := orderids.NewStore(filepath.Join(t.TempDir(), "orders.json"))
	client := orderids.NewClient(srv.URL, logger.NewTestLogger())

	require.NoError(t, run(store, client, []string{"add", "b-1"}))
	require.NoError(t, run(store, client, []string{"add", "b-2"}))
	require.NoError(t, run(store, client, []string{"list"}))
	require.NoError(t, run(store, client, []string{"sync"}))
	assert.Equal(t, []string{"b-1"}, store.List())

	require.NoError(t, run(store, client, []string{"remove", "b-1"}))
	assert.Empty(t, store.List())
	require.NoError(t, run(store, client, []string{"sync"}))

	assert.Error(t, run(store, client, nil))
	assert.Error(t, run(store, client, []string{"add"}))
	assert.Error(t, run(store, client, []string{"purge"}))
}
