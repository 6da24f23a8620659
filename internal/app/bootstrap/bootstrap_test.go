package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tribunal/contexts/governance/consensus-engine/ports"
	"tribunal/internal/platform/config"
	"tribunal/internal/platform/httpserver"
	"tribunal/internal/platform/messaging"

	"github.com/stretchr/testify/require"
)

func TestBuildAPIRelaysOutboxToBus(t *testing.T) {
	cfg := config.Defaults()
	cfg.TrustCallerHeader = true
	cfg.LogLevel = "error"

	app, err := BuildAPI(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NotNil(t, app.workers)

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan ports.EventEnvelope, 4)
	done := app.bus.Subscribe(ctx, messaging.AllTopics, "bootstrap-test", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	})
	t.Cleanup(func() {
		cancel()
		<-done
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/initialize", strings.NewReader(""))
	req.Header.Set(httpserver.HeaderCallerAddress, "0x00000000000000000000000000000000000000a1")
	rr := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	app.workers.tick(context.Background())

	select {
	case event := <-received:
		require.Equal(t, "role.changed", event.EventType)
	case <-time.After(time.Second):
		t.Fatal("expected role.changed event on the bus")
	}
}

func TestBuildAPIWithSQLiteLedger(t *testing.T) {
	cfg := config.Defaults()
	cfg.Ledger = config.LedgerSQLite
	cfg.SQLitePath = ":memory:"
	cfg.EmbeddedWorkers = false
	cfg.LogLevel = "error"

	app, err := BuildAPI(cfg)
	require.NoError(t, err)
	require.Nil(t, app.workers)
	require.NoError(t, app.Close())
}

func TestNormalizeAddr(t *testing.T) {
	require.Equal(t, ":8080", normalizeAddr(""))
	require.Equal(t, ":9000", normalizeAddr("9000"))
	require.Equal(t, ":9000", normalizeAddr(":9000"))
}
