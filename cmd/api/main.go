package main

import (
	"context"
	"log"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/routelens/routelens-backend/config"
	consrepo "github.com/routelens/routelens-backend/internal/api_consistency/repository"
	exrepo "github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	exservice "github.com/routelens/routelens-backend/internal/artifact_exchange/service"
	exstorage "github.com/routelens/routelens-backend/internal/artifact_exchange/storage"
	"github.com/routelens/routelens-backend/internal/auth"
	"github.com/routelens/routelens-backend/internal/bootstrap"
	"github.com/routelens/routelens-backend/internal/schedule"
	"github.com/routelens/routelens-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.PgxDSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres (reports): %v", err)
	}
	defer sqlDB.Close()

	if err := postgres.EnsureSchema(sqlDB); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	classifyCfg, err := bootstrap.LoadClassify(cfg.Consistency.ClassifyPath)
	if err != nil {
		log.Fatalf("classify config: %v", err)
	}

	var authClient *fbauth.Client
	if !cfg.Auth.Disabled && cfg.Auth.CredentialsFile != "" {
		authClient, err = auth.InitializeFirebase(&cfg.Auth)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	} else {
		log.Println("Firebase auth disabled, trusting X-User-Id headers")
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
			log.Fatalf("s3 mirror: %v", err)
		}
		mirror = s3sync
		log.Printf("Artifact mirror enabled (bucket %s)", cfg.Mirror.Bucket)
	}

	reports := consrepo.NewReportRepository(sqlDB)
	artifacts := exrepo.NewArtifactRepository(rdb)
	durable := exstorage.NewPGStore(pool)
	exchange := exservice.NewExchange(artifacts, durable, mirror, classifyCfg)

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "routelens-api",
		Version:     cfg.App.Version,
		Env:         cfg.App.Environment,
		DB:          pool,
		Redis:       rdb,
		AuthClient:  authClient,
		Reports:     reports,
		Exchange:    exchange,
		Artifacts:   artifacts,
		Consistency: cfg.Consistency,
		Classify:    classifyCfg,
	})

	if cfg.Consistency.RecheckSpec != "" {
		sched := schedule.NewScheduler(reports, exchange, cfg.Consistency.RecheckSpec, cfg.Consistency.ReportKeep)
		sched.Start()
	}

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
