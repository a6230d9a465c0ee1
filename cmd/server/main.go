package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet.
		logging.Setup("")
		return err
	}
	logging.Setup(cfg.Server.LogLevel)
	logger := slog.Default()

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	m := metrics.New()
	l := ledger.New(store, ledger.WithRecorder(m))

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	cookie := service.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.SecureCookie}

	// The first interceptor is the outermost: metrics count auth rejections
	// too, and logging runs after auth has put the user in the context.
	interceptors := func(authn connect.Interceptor) connect.HandlerOption {
		return connect.WithInterceptors(
			middleware.MetricsInterceptor(m),
			authn,
			middleware.LoggingInterceptor(),
		)
	}
	publicOpts := interceptors(middleware.OptionalAuth(jwtManager, cfg.Auth.CookieName))
	protectedOpts := interceptors(middleware.RequireAuth(jwtManager, cfg.Auth.CookieName))

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigin))

	mount := func(path string, h http.Handler) {
		r.Handle(path+"*", h)
	}
	mount(service.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, store, l, cookie, logger), publicOpts))
	mount(service.NewGroupServiceHandler(service.NewGroupService(l, logger), protectedOpts))
	mount(service.NewExpenseServiceHandler(service.NewExpenseService(l, logger), protectedOpts))
	mount(service.NewBalanceServiceHandler(service.NewBalanceService(l, logger), protectedOpts))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())

	if cfg.Server.StaticPath != "" {
		static, err := staticHandler(cfg.Server.StaticPath)
		if err != nil {
			return err
		}
		r.NotFound(static)
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: h2c.NewHandler(r, &http2.Server{}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// staticHandler serves frontend files from dir. Unknown paths fall back to
// index.html so client-side routes work on reload.
func staticHandler(dir string) (http.HandlerFunc, error) {
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	return func(w http.ResponseWriter, r *http.Request) {
		// Unknown RPCs must not get the index page.
		if strings.HasPrefix(r.URL.Path, "/splitledger.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}, nil
}
