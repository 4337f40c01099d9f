package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"org-access-api/backend/internal/audit"
	auditrepo "org-access-api/backend/internal/audit/repository"
	"org-access-api/backend/internal/cache"
	"org-access-api/backend/internal/config"
	"org-access-api/backend/internal/db"
	healthhandler "org-access-api/backend/internal/health/handler"
	identityhandler "org-access-api/backend/internal/identity/handler"
	identityrepo "org-access-api/backend/internal/identity/repository"
	identityservice "org-access-api/backend/internal/identity/service"
	organizationhandler "org-access-api/backend/internal/organization/handler"
	organizationrepo "org-access-api/backend/internal/organization/repository"
	organizationservice "org-access-api/backend/internal/organization/service"
	"org-access-api/backend/internal/platform/logging"
	"org-access-api/backend/internal/platform/rbac"
	policyengine "org-access-api/backend/internal/policy/engine"
	"org-access-api/backend/internal/security"
	"org-access-api/backend/internal/server"
	"org-access-api/backend/internal/telemetry"
	oteltelemetry "org-access-api/backend/internal/telemetry/otel"
	"org-access-api/backend/internal/telemetry/producer"
	userhandler "org-access-api/backend/internal/user/handler"
	userrepo "org-access-api/backend/internal/user/repository"
	userservice "org-access-api/backend/internal/user/service"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 10 * time.Second
	healthServiceName   = "orgapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.RequireServing(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.IsProduction(), cfg.Level())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	undo := zap.ReplaceGlobals(log)
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	providers, err := oteltelemetry.NewProviders(ctx, oteltelemetry.Config{
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(sctx); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	tokens, err := security.NewTokenProviderFromPEM(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	if err != nil {
		return fmt.Errorf("jwt keys: %w", err)
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(database)
	orgs := organizationrepo.NewPostgresRepository(database)
	registrations := identityrepo.NewPostgresRepository(database)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(database), log.Named("audit"), nil)

	var decider rbac.Decider
	var policyChecker healthhandler.PolicyChecker
	if cfg.PolicyEngine == config.PolicyEngineOPA {
		var opa *policyengine.OPADecider
		if cfg.PolicyFile != "" {
			opa, err = policyengine.NewOPADeciderFromFile(ctx, cfg.PolicyFile)
		} else {
			opa, err = policyengine.NewOPADecider(ctx, "")
		}
		if err != nil {
			return fmt.Errorf("policy: %w", err)
		}
		decider, policyChecker = opa, opa
	}
	evaluator := rbac.NewEvaluator(orgs, decider)
	log.Info("access control ready", zap.String("policy_engine", cfg.PolicyEngine))

	events := telemetry.Fanout{oteltelemetry.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	if kafkaProducer != nil {
		events = append(events, kafkaProducer)
		log.Info("domain events enabled", zap.String("topic", cfg.EventsKafkaTopic))
		defer func() {
			time.Sleep(telemetry.ShutdownDrainDuration)
			if err := kafkaProducer.Close(); err != nil {
				log.Warn("kafka close", zap.Error(err))
			}
		}()
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	var loginCounter cache.Counter
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		loginCounter = rc
		log.Info("login rate limit enabled", zap.Int("per_minute", cfg.LoginRateLimit))
	}

	authSvc := identityservice.NewAuthService(users, registrations, hasher, tokens, events)
	userSvc := userservice.NewUserService(users, evaluator)
	orgSvc := organizationservice.NewOrganizationService(orgs, evaluator, events)
	checker := healthhandler.NewChecker(database, policyChecker)

	router := server.NewRouter(server.Deps{
		Auth:           identityhandler.NewHandler(authSvc, log.Named("auth")),
		Users:          userhandler.NewHandler(userSvc, log.Named("users")),
		Orgs:           organizationhandler.NewHandler(orgSvc, log.Named("organisations")),
		Health:         healthhandler.NewHandler(checker, log.Named("health")),
		Tokens:         authSvc,
		Audit:          auditLogger,
		LoginCounter:   loginCounter,
		LoginRateLimit: cfg.LoginRateLimit,
		TrustedProxies: trustedProxies,
		CORSOrigins:    cfg.CORSOrigins(),
		Log:            log.Named("http"),
		TracerProvider: providers.TracerProvider,
		MeterProvider:  providers.MeterProvider,
		Propagator:     otel.GetTextMapPropagator(),
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	hs := healthhandler.NewGRPCServer()
	grpcSrv := server.NewGRPCServer(hs)
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go healthhandler.Watch(watchCtx, hs, checker, healthServiceName, healthCheckInterval, log.Named("health"))
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			log.Info("gRPC health server listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server failed", zap.Error(runErr))
	}

	stopWatch()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	grpcSrv.GracefulStop()
	log.Info("servers stopped")
	return runErr
}
