package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/multas/internal/auth"
	"github.com/mmynk/multas/internal/groups"
	"github.com/mmynk/multas/internal/metrics"
	"github.com/mmynk/multas/internal/service"
	"github.com/mmynk/multas/internal/settlement"
	"github.com/mmynk/multas/internal/storage/sqlite"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	return NewRouter(Deps{
		Store:         store,
		Engine:        settlement.New(store, settlement.WithMetrics(recorder)),
		Groups:        groups.NewManager(store),
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		JWT:           jwtManager,
		Metrics:       recorder,
		Gatherer:      reg,
		Logger:        slog.Default(),
	})
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, service.GroupServiceListGroupsProcedure, nil)
	newTestRouter(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Allow-Headers should include Authorization: %q", got)
	}
}

func TestRPCThroughRouter(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()

	register := connect.NewClient[service.RegisterRequest, service.RegisterResponse](
		http.DefaultClient, srv.URL+service.AuthServiceRegisterProcedure, connect.WithCodec(service.JSONCodec{}),
	)
	resp, err := register.CallUnary(context.Background(), connect.NewRequest(&service.RegisterRequest{
		Username: "ana", Email: "ana@example.com", Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Msg.Token == "" {
		t.Fatal("expected token")
	}

	listGroups := connect.NewClient[service.ListGroupsRequest, service.ListGroupsResponse](
		http.DefaultClient, srv.URL+service.GroupServiceListGroupsProcedure, connect.WithCodec(service.JSONCodec{}),
	)
	_, err = listGroups.CallUnary(context.Background(), connect.NewRequest(&service.ListGroupsRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	// The calls above are visible on /metrics.
	metricsResp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer metricsResp.Body.Close()
	body, _ := io.ReadAll(metricsResp.Body)
	for _, want := range []string{
		`multas_rpc_requests_total{code="ok",procedure="` + service.AuthServiceRegisterProcedure + `"} 1`,
		`multas_rpc_requests_total{code="unauthenticated",procedure="` + service.GroupServiceListGroupsProcedure + `"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, newTestRouter(t)) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
