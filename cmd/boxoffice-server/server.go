// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/codec"
	"github.com/boxoffice-pos/boxoffice/lib/config"
	"github.com/boxoffice-pos/boxoffice/lib/ratelimit"
	"github.com/boxoffice-pos/boxoffice/lib/salefeed"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
	"github.com/boxoffice-pos/boxoffice/lib/service"
	"github.com/boxoffice-pos/boxoffice/lib/showstore"
)

// server owns everything the process opens: the store, the optional
// Redis client and sale feed, and the socket server.
type server struct {
	store  showstore.Store
	redis  *redis.Client
	feed   *salefeed.Feed
	socket *service.SocketServer
	office *BoxOfficeService
	logger *slog.Logger
}

// newServer opens the store, seeds it when configured, and wires the
// socket server. Nothing is listening until Run.
func newServer(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *slog.Logger) (*server, error) {
	format, err := codec.ParseFormat(cfg.Listen.WireFormat)
	if err != nil {
		return nil, err
	}
	messageCodec, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	layout, err := parseMovieLayout(cfg.Listen.MovieLayout)
	if err != nil {
		return nil, err
	}
	deletePolicy, err := showstore.ParseDeletePolicy(cfg.Store.DeletePolicy)
	if err != nil {
		return nil, err
	}

	store, err := showstore.Open(ctx, showstore.Config{
		Backend:      showstore.Backend(cfg.Store.Backend),
		Path:         cfg.Store.Path,
		DSN:          cfg.Store.DSN,
		PoolSize:     cfg.Store.PoolSize,
		DeletePolicy: deletePolicy,
		Clock:        clk,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s := &server{store: store, logger: logger}

	if cfg.Store.Seed {
		seeded, err := store.SeedIfEmpty(ctx, cinema.DefaultCatalog())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("seeding store: %w", err)
		}
		if seeded > 0 {
			logger.Info("seeded empty catalog", "showings", seeded)
		}
	}

	var limiter service.Limiter
	if cfg.RateLimit.Enabled {
		client, err := ratelimit.Connect(ctx, ratelimit.RedisConfig{
			URL:      cfg.RateLimit.Redis.URL,
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = client
		limiter = ratelimit.New(client, ratelimit.Config{
			Enabled:        true,
			Capacity:       cfg.RateLimit.Capacity,
			RefillTokens:   cfg.RateLimit.RefillTokens,
			RefillInterval: cfg.RateLimit.RefillInterval.Std(),
			TTL:            cfg.RateLimit.TTL.Std(),
			Prefix:         cfg.RateLimit.Prefix,
		}, clk, logger)
		logger.Info("rate limiting enabled",
			"capacity", cfg.RateLimit.Capacity,
			"refill_tokens", cfg.RateLimit.RefillTokens,
			"refill_interval", cfg.RateLimit.RefillInterval.Std(),
		)
	}

	s.feed = salefeed.Disabled()
	if cfg.SaleFeed.Enabled {
		sink := salefeed.NewAMQPSink(salefeed.AMQPConfig{
			URL:   cfg.SaleFeed.URL,
			Queue: cfg.SaleFeed.Queue,
		}, clk, logger)
		s.feed = salefeed.New(sink, cfg.SaleFeed.QueueSize, logger)
		logger.Info("sale feed enabled", "queue", cfg.SaleFeed.Queue)
	}

	s.socket = service.NewSocketServer(service.SocketConfig{
		Address:        cfg.Listen.Address,
		Codec:          messageCodec,
		MaxMessageSize: cfg.Listen.MaxMessageSize,
		MaxConnections: cfg.Listen.MaxConnections,
		IdleTimeout:    cfg.Listen.IdleTimeout.Std(),
		WriteTimeout:   cfg.Listen.WriteTimeout.Std(),
		Limiter:        limiter,
		Clock:          clk,
		Logger:         logger,
	})
	s.office = &BoxOfficeService{
		store:       store,
		feed:        s.feed,
		socket:      s.socket,
		movieLayout: layout,
		logger:      logger,
	}
	s.office.registerActions(s.socket)
	return s, nil
}

// Run serves until ctx is cancelled and every session has ended. The
// sale feed keeps publishing until the socket server has drained.
func (s *server) Run(ctx context.Context) error {
	feedContext, stopFeed := context.WithCancel(context.WithoutCancel(ctx))
	var feedDone sync.WaitGroup
	feedDone.Go(func() {
		s.feed.Run(feedContext)
	})

	go func() {
		select {
		case <-s.socket.Ready():
			s.logger.Info("boxoffice server listening", "address", s.socket.Addr().String())
		case <-ctx.Done():
		}
	}()

	err := s.socket.Serve(ctx)
	s.logger.Info("shutting down",
		"requests_served", s.socket.RequestsServed(),
		"sales_completed", s.office.salesCompleted.Load(),
	)

	stopFeed()
	feedDone.Wait()
	if s.feed.Enabled() {
		stats := s.feed.Stats()
		s.logger.Info("sale feed stopped",
			"published", stats.Published,
			"dropped", stats.Dropped,
			"failed", stats.Failed,
		)
	}
	return err
}

// Close releases the store and Redis client.
func (s *server) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}
