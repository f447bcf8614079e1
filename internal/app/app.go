package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shiftwise/shiftwise/internal/capacity"
	"github.com/shiftwise/shiftwise/internal/config"
	"github.com/shiftwise/shiftwise/internal/db"
	adminapi "github.com/shiftwise/shiftwise/internal/http/api/admin"
	"github.com/shiftwise/shiftwise/internal/models"
	"github.com/shiftwise/shiftwise/internal/ratelimit"
	"github.com/shiftwise/shiftwise/internal/scheduler"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, errOpen := openDatabase(cfg)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// Reconcile runs a single manual reconciliation pass from the CLI.
func Reconcile(ctx context.Context, cfg config.AppConfig, reason string) error {
	conn, errOpen := openDatabase(cfg)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	reconcileCfg, errCfg := config.LoadReconcileConfig(configPath)
	if errCfg != nil {
		return errCfg
	}

	reconciler := capacity.NewReconciler(conn, reconcileCfg.Workers)
	trigger := capacity.Trigger{Source: models.TriggerManualAPI, Actor: "cli", Reason: reason}
	result, errRun := reconciler.Run(ctx, trigger)
	if errRun != nil {
		return errRun
	}

	for _, change := range result.Changed {
		log.WithField("org_id", change.OrgID).
			WithField("org_name", change.OrgName).
			Infof("corrected managers %d->%d workers %d->%d", change.OldManagers, change.NewManagers, change.OldWorkers, change.NewWorkers)
	}
	if errPartial := result.PartialFailure(); errPartial != nil {
		return errPartial
	}

	remaining, errScan := capacity.NewScanner(conn).Scan(ctx)
	if errScan != nil {
		return errScan
	}
	if len(remaining) > 0 {
		return fmt.Errorf("reconciliation left %d discrepancies", len(remaining))
	}
	log.Infof("reconciled %d organization(s), no discrepancies remain", len(result.Changed))
	return nil
}

// RunServer boots the admin API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	conn, errOpen := openDatabase(cfg)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	reconcileCfg, errReconcile := config.LoadReconcileConfig(configPath)
	if errReconcile != nil {
		return errReconcile
	}
	redisCfg, errRedis := config.LoadRedisConfig(configPath)
	if errRedis != nil {
		return errRedis
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	adminapi.RegisterAdminRoutes(engine, conn, jwtCfg, reconcileCfg, buildLimiter(redisCfg))

	cronScheduler, errScheduler := scheduler.New(capacity.NewReconciler(conn, reconcileCfg.Workers), reconcileCfg.Schedule)
	if errScheduler != nil {
		return errScheduler
	}
	cronScheduler.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// openDatabase resolves the DSN and opens the connection.
func openDatabase(cfg config.AppConfig) (*gorm.DB, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return nil, errDSN
	}
	return db.Open(dsn)
}

// buildLimiter picks the rate limiter backend from config. Redis when an
// address is configured, in-memory otherwise.
func buildLimiter(redisCfg config.RedisConfig) ratelimit.Limiter {
	if redisCfg.Addr == "" {
		return ratelimit.NewMemoryLimiter()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return ratelimit.NewRedisLimiter(client, redisCfg.Prefix)
}
