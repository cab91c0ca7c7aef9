package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finovel/loanledger/internal/config"
	testhelpers "github.com/finovel/loanledger/internal/test"
	"github.com/finovel/loanledger/internal/usecase"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewOrchestratorUsesConfig(t *testing.T) {
	users := testhelpers.NewUserRepositoryStub()
	loans := testhelpers.NewLoanRepositoryStub()
	events := &testhelpers.EventRepositoryStub{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	orchestrator := newOrchestrator(orchestratorParams{
		Loans:        loans,
		Users:        users,
		Events:       events,
		Lifecycle:    usecase.NewLoanUseCase(loans, users, &testhelpers.TreasuryRepositoryStub{}, events),
		Underwriting: usecase.NewUnderwritingEngine(usecase.DefaultTierConfig(testMaxLoan), users, loans),
		Ledger:       &ledgerClientStub{},
		Config:       &config.Config{EngineAddress: testEngineAddress},
		Logger:       logger,
	})
	if orchestrator == nil {
		t.Fatal("expected orchestrator instance")
	}
	if orchestrator.engineAddress != testEngineAddress {
		t.Fatalf("engine address = %q, want %q", orchestrator.engineAddress, testEngineAddress)
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Config:     cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	hook := recorder.Hooks[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hook.OnStart(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hook.OnStop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := &http.Server{Addr: "bad addr"}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = hook.OnStop(context.Background())
}
