package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classhub/internal/api"
	"classhub/internal/authz"
	"classhub/internal/authz/adapter/inmem"
	"classhub/internal/authz/adapter/jwks"
	"classhub/internal/authz/adapter/memory"
	"classhub/internal/authz/adapter/postgres"
	"classhub/internal/authz/adapter/redisrl"
	"classhub/internal/authz/adapter/sessions"
	"classhub/internal/authz/audit"
	"classhub/internal/authz/middleware"
	"classhub/internal/domain"
	"classhub/internal/platform/config"
	"classhub/internal/platform/server"
	"classhub/internal/platform/telemetry"
)

func main() {
	cfg := config.Load()

	// Logging
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	shutdown, err := telemetry.Setup(context.Background(), "classhub")
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}

	// Identity resolver: JWKS-backed session verification
	jwksClient := jwks.NewClient(cfg.JWKSEndpoint, 5*time.Minute, metrics.RecordJWKSRefresh)
	verifier := sessions.NewVerifier(jwksClient, cfg.SessionIssuer)

	// Store
	var (
		directory authz.Directory
		catalog   authz.Catalog
		auditor   authz.AuditWriter
	)
	switch cfg.Store {
	case "memory":
		store := memory.NewStore()
		seedDevData(store)
		directory, catalog, auditor = store, store, store
		slog.Warn("using in-memory store, data will not survive restarts")
	default:
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			slog.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		if err := store.Migrate(); err != nil {
			slog.Error("migrating schema", "error", err)
			os.Exit(1)
		}
		directory, catalog, auditor = store, store, store
	}

	// Rate limiter
	var limiter authz.RateLimiter
	switch cfg.Limiter {
	case "redis":
		rl, err := redisrl.NewRateLimiter(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.WindowLimit,
			time.Duration(cfg.Redis.WindowSeconds)*time.Second,
		)
		if err != nil {
			slog.Error("redis rate limiter initialization failed", "error", err)
			os.Exit(1)
		}
		defer rl.Close()
		limiter = rl
	default:
		rl := inmem.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, time.Now)
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					rl.Cleanup()
				}
			}
		}()
		limiter = rl
	}

	// Audit sink
	sink := audit.NewSink(auditor, cfg.Audit.QueueSize, cfg.Audit.Workers, metrics)

	// Authorization core
	loader := authz.NewPrincipalLoader(directory)
	narrower := authz.NewNarrower(directory)
	guard := middleware.NewGuard(verifier, loader, metrics)
	handlers := api.NewHandlers(catalog, narrower, sink)

	// Assemble middleware chain
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	const maxBodyBytes = 1 << 20 // 1MB
	mux.Handle("/", middleware.Chain(
		api.NewRouter(guard, handlers),
		middleware.Metrics(metrics),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.MaxBodySize(maxBodyBytes),
		middleware.RateLimit(limiter, metrics),
	))

	srv := server.New(cfg.Addr, mux)

	slog.Info("classhub starting",
		"addr", cfg.Addr,
		"jwks_endpoint", cfg.JWKSEndpoint,
		"store", cfg.Store,
		"limiter", cfg.Limiter,
	)

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := sink.Close(10 * time.Second); err != nil {
		slog.Error("audit sink close error", "error", err)
	}
	if err := shutdown(context.Background()); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}

// seedDevData loads a small dataset whose subjects line up with the
// credentials cmd/mockidentity issues tokens for.
func seedDevData(store *memory.Store) {
	const tenant = "dev-tenant"
	users := []struct {
		id   string
		role domain.Role
	}{
		{"admin-1", domain.RoleAdmin},
		{"teacher-1", domain.RoleTeacher},
		{"student-1", domain.RoleStudent},
		{"parent-1", domain.RoleParent},
	}
	for _, u := range users {
		store.SeedUser(authz.UserRecord{
			ID:                u.id,
			TenantID:          tenant,
			ExternalSubjectID: "sub-" + u.id,
			Roles:             []domain.Role{u.role},
		})
	}

	store.SeedClass(domain.Class{ID: "class-1", TenantID: tenant, Name: "5A"})
	store.SeedEnrollment(domain.Enrollment{StudentUserID: "student-1", ClassID: "class-1", TenantID: tenant})
	store.SeedStudent(domain.Student{ID: "student-1", TenantID: tenant, ClassID: "class-1", Name: "Sam Student"})
	store.SeedParentLink(domain.ParentLink{ParentUserID: "parent-1", StudentUserID: "student-1", TenantID: tenant})
	store.SeedCourse(domain.Course{ID: "course-1", TenantID: tenant, ClassID: "class-1", OwnerTeacherID: "teacher-1", Title: "Algebra"})
	store.SeedLesson(domain.Lesson{ID: "lesson-1", TenantID: tenant, CourseID: "course-1", Title: "Linear equations", Body: "ax + b = 0"})
	store.SeedScheduleEntry(domain.ScheduleEntry{
		ID: "entry-1", TenantID: tenant, ClassID: "class-1", CourseID: "course-1",
		StartsAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
}
