// Package bootstrap wires the planning service from configuration. It is shared by
// the HTTP server and the one-shot CLI.
package bootstrap

import (
	"context"
	"fmt"

	"erp-planning/internal/app"
	"erp-planning/internal/config"
	"erp-planning/internal/core"
	"erp-planning/internal/db"
	"erp-planning/internal/lock"
	"erp-planning/internal/messaging"
	"erp-planning/internal/planning"
	"erp-planning/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Service is a wired PlanningService plus the resources it holds open.
type Service struct {
	app.PlanningService
	closers []func() error
}

// Close releases every resource opened by New, in reverse order.
func (s *Service) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New connects to Postgres and the optional collaborators named in cfg.
//
//   - Redis set: run locks live in Redis; otherwise Postgres advisory locks.
//   - Production URL set: make orders are submitted there; otherwise make steps fail.
//   - Kafka brokers set: a RunEvent is published after every run.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Service, error) {
	svc := &Service{}

	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	svc.closers = append(svc.closers, func() error { pool.Close(); return nil })

	var locker core.Locker
	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = svc.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		svc.closers = append(svc.closers, client.Close)
		locker = lock.NewRedisLocker(client, cfg.Redis.LockTTL)
		log.Info("run locks in redis", zap.String("addr", cfg.Redis.Address))
	} else {
		locker = store.NewAdvisoryLocker(pool)
		log.Info("run locks in postgres advisory locks")
	}

	var production core.ProductionPlanner
	if cfg.Production.URL != "" {
		production = planning.NewClient(cfg.Production.URL, cfg.Production.Timeout)
	} else {
		log.Warn("PRODUCTION_PLANNING_URL is not set; make orders will fail")
	}

	var events app.EventPublisher
	if len(cfg.Messaging.Brokers) > 0 {
		publisher := messaging.NewPublisher(cfg.Messaging.Brokers, cfg.Messaging.EventsTopic)
		svc.closers = append(svc.closers, publisher.Close)
		events = publisher
		log.Info("publishing run events",
			zap.Strings("brokers", cfg.Messaging.Brokers),
			zap.String("topic", cfg.Messaging.EventsTopic))
	}

	planner := core.NewPlanner(store.NewStore(pool), production, locker)
	svc.PlanningService = app.NewPlanningService(planner, events, log)
	return svc, nil
}
