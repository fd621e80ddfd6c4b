package main

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/routelens/routelens-backend/config"
	consrepo "github.com/routelens/routelens-backend/internal/api_consistency/repository"
	exrepo "github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	exservice "github.com/routelens/routelens-backend/internal/artifact_exchange/service"
	exstorage "github.com/routelens/routelens-backend/internal/artifact_exchange/storage"
	"github.com/routelens/routelens-backend/internal/bootstrap"
	"github.com/routelens/routelens-backend/internal/storage/postgres"
)

// workerDeps holds the shared stores the exchange commands need.
type workerDeps struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	sqlDB    *sql.DB
	rdb      *redis.Client
	reports  *consrepo.ReportRepository
	exchange *exservice.Exchange
}

func (d *workerDeps) close() {
	if d.rdb != nil {
		d.rdb.Close()
	}
	if d.sqlDB != nil {
		d.sqlDB.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func buildDeps(ctx context.Context) (*workerDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.PgxDSN(&cfg.Database)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		pool.Close()
		return nil, err
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		sqlDB.Close()
		pool.Close()
		return nil, err
	}

	classifyCfg, err := bootstrap.LoadClassify(cfg.Consistency.ClassifyPath)
	if err != nil {
		rdb.Close()
		sqlDB.Close()
		pool.Close()
		return nil, err
	}

	var mirror exservice.Mirror
	if cfg.Mirror.Bucket != "" {
		s3cfg := exstorage.DefaultS3Config()
		s3cfg.Bucket = cfg.Mirror.Bucket
		s3cfg.Region = cfg.Mirror.Region
		s3cfg.Endpoint = cfg.Mirror.Endpoint
		s3cfg.AccessKey = cfg.Mirror.AccessKey
		s3cfg.SecretKey = cfg.Mirror.SecretKey

		s3sync, err := exstorage.NewS3Sync(ctx, s3cfg)
		if err != nil {
			rdb.Close()
			sqlDB.Close()
			pool.Close()
			return nil, err
		}
		mirror = s3sync
	}

	artifacts := exrepo.NewArtifactRepository(rdb)
	durable := exstorage.NewPGStore(pool)

	return &workerDeps{
		cfg:      cfg,
		pool:     pool,
		sqlDB:    sqlDB,
		rdb:      rdb,
		reports:  consrepo.NewReportRepository(sqlDB),
		exchange: exservice.NewExchange(artifacts, durable, mirror, classifyCfg),
	}, nil
}
