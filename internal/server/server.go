// Package server owns the process lifecycle: it opens every long-lived
// resource, serves HTTP and tears everything down in order on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/souq/app/jobs"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/internal/kernel"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/cache"
	"github.com/shashiranjanraj/souq/pkg/database"
	souqhttp "github.com/shashiranjanraj/souq/pkg/http"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/mail"
	"github.com/shashiranjanraj/souq/pkg/schedule"
	"github.com/shashiranjanraj/souq/pkg/storage"
	"github.com/shashiranjanraj/souq/pkg/workerpool"
	"github.com/shashiranjanraj/souq/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

// Server is a booted application ready to serve.
type Server struct {
	deps     kernel.Deps
	kernel   *kernel.HTTPKernel
	schedule *schedule.Scheduler
	http     *http.Server
}

// Boot loads config and opens the database, cache, storage, mail driver,
// worker pool, feed hub and maintenance scheduler.
func Boot(ctx context.Context) (*Server, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Configure(config.AppEnv(), os.Stdout)

	d := kernel.DepsFromConfig()

	db, err := database.Connect()
	if err != nil {
		return nil, err
	}
	d.DB = db

	d.Cache, err = cache.Connect(ctx)
	if err != nil {
		logger.Warn("cache disabled", "error", err)
		d.Cache = nil
	}

	store, err := storage.New(ctx, storage.OptionsFromConfig())
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Info("file uploads disabled: S3_BUCKET not set")
	case err != nil:
		_ = database.Close(db)
		return nil, err
	default:
		d.Store = store
	}

	d.Mail, err = mail.FromConfig(souqhttp.New(nil))
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	d.Tokens = auth.NewIssuer(config.JWTSecret(), config.JWTTTL())
	d.Pool = workerpool.New(config.WorkerCount(), config.WorkerQueue())
	d.Hub = ws.NewHub()
	d.Hub.SetCheckOrigin(originAllowed(config.CORSOrigins()))

	k := kernel.NewHTTPKernel(d)

	sched := schedule.New()
	jobs.Register(sched, db)

	return &Server{
		deps:     d,
		kernel:   k,
		schedule: sched,
		http: &http.Server{
			Addr:              ":" + config.AppPort(),
			Handler:           k.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests,
// scheduled tasks, queued emails and the database pool.
func (s *Server) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go s.deps.Hub.Run(bgCtx)

	scheduleDone := make(chan struct{})
	go func() {
		s.schedule.Run(bgCtx)
		close(scheduleDone)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("souq listening", "addr", s.http.Addr, "env", config.AppEnv())
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stopBackground()
			<-scheduleDone
			s.close(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	stopBackground()
	<-scheduleDone
	s.close(shutdownCtx)
	return err
}

func (s *Server) close(ctx context.Context) {
	if err := s.deps.Pool.Shutdown(ctx); err != nil {
		logger.Warn("worker pool did not drain", "error", err)
	}
	if err := s.deps.Cache.Close(); err != nil {
		logger.Warn("cache close", "error", err)
	}
	if err := database.Close(s.deps.DB); err != nil {
		logger.Warn("database close", "error", err)
	}
}

// Start boots and serves until SIGINT or SIGTERM.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := Boot(ctx)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

func originAllowed(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
