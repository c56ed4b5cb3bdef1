package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jinwoo-notes/jinwoo/internal/api"
	"github.com/jinwoo-notes/jinwoo/internal/auth"
	"github.com/jinwoo-notes/jinwoo/internal/config"
	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/email"
	"github.com/jinwoo-notes/jinwoo/internal/export"
	"github.com/jinwoo-notes/jinwoo/internal/mcp"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
	"github.com/jinwoo-notes/jinwoo/internal/ratelimit"
	"github.com/jinwoo-notes/jinwoo/internal/s3client"
)

// mockBucketName is the bucket created on the in-memory S3 server when
// BUCKET_NAME is unset.
const mockBucketName = "jinwoo-exports"

// app is the fully wired HTTP surface.
type app struct {
	handler  http.Handler
	sessions *auth.SessionService
	limiter  *ratelimit.RateLimiter
	closers  []func()
}

// Close stops background work owned by the app.
func (a *app) Close() {
	a.limiter.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, store *db.Store, hasher auth.PasswordHasher) (*app, error) {
	sinks, closeSinks, err := newSinks(ctx, cfg, afero.NewOsFs())
	if err != nil {
		return nil, err
	}

	sessions := auth.NewSessionService(store, cfg.SessionDuration, cfg.RequireSecureCookies())
	users := auth.NewUserService(store, hasher, newEmailService(cfg), cfg.BaseURL)
	mw := auth.NewMiddleware(sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth(store))
	auth.NewHandler(users, sessions).RegisterRoutes(mux)

	apiHandler := api.NewHandler(store, mw)
	apiHandler.EnableExport(export.New(store), sinks)
	apiHandler.RegisterRoutes(mux)

	mountMCPRoute(mux, "/mcp", mw.RequireAuth(mcp.NewServer(store)))

	limiter := ratelimit.NewRateLimiter(cfg.RateLimit())
	var h http.Handler = mux
	h = ratelimit.RateLimitMiddleware(limiter, ratelimit.UserOrIPKey(func(r *http.Request) string {
		return auth.GetUserID(r.Context())
	}))(h)
	// OptionalAuth runs first so the limiter can key signed-in callers by user.
	h = mw.OptionalAuth(h)
	h = obs.AccessLogMiddleware("http", h)
	h = obs.RequestContextMiddleware(h)

	return &app{
		handler:  h,
		sessions: sessions,
		limiter:  limiter,
		closers:  []func(){closeSinks},
	}, nil
}

// mountMCPRoute registers every Streamable HTTP method on path.
func mountMCPRoute(mux *http.ServeMux, path string, handler http.Handler) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions} {
		mux.Handle(method+" "+path, handler)
	}
}

func handleHealth(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version, err := db.SchemaVersion(r.Context(), store.DB())
		if err != nil {
			obs.From(r.Context()).Error("health_check_failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "ok schema=%d\n", version)
	}
}

func newEmailService(cfg *config.Config) email.EmailService {
	if cfg.NoEmail {
		return email.NewMockEmailServiceWithOutbox(afero.NewOsFs(), filepath.Join(cfg.DataDir, "outbox"))
	}
	return email.NewResendEmailService(cfg.ResendAPIKey, cfg.ResendFromEmail)
}

// newSinks builds the export destinations. local and s3 always exist; s3 is
// an in-memory server under --no-s3. webdav exists only when configured.
func newSinks(ctx context.Context, cfg *config.Config, fs afero.Fs) (map[string]export.Sink, func(), error) {
	sinks := map[string]export.Sink{
		"local": export.NewLocalSink(fs, cfg.ExportDir),
	}

	closeFn := func() {}
	var client *s3client.Client
	if cfg.NoS3 {
		bucket := cfg.BucketName
		if bucket == "" {
			bucket = mockBucketName
		}
		c, shutdown, err := s3client.NewInMemory(ctx, bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start in-memory S3: %w", err)
		}
		client, closeFn = c, shutdown
	} else {
		c, err := s3client.New(ctx, s3client.Config{
			Endpoint:        cfg.AWSEndpointS3,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			BucketName:      cfg.BucketName,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		client = c
	}
	sinks["s3"] = export.NewS3Sink(client, export.DefaultS3Prefix)

	if cfg.WebDAVURL != "" {
		sinks["webdav"] = export.NewWebDAVSink(cfg.WebDAVURL, cfg.WebDAVUser, cfg.WebDAVPassword)
	}
	return sinks, closeFn, nil
}
