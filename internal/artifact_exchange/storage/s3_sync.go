package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/time/rate"

	"github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
)

type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string // optional, for minio style deployments
	AccessKey      string
	SecretKey      string
	RateLimit      rate.Limit
	BurstSize      int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	MaxRetries     int
}

func DefaultS3Config() S3Config {
	return S3Config{
		Region:         "us-east-1",
		RateLimit:      8,
		BurstSize:      16,
		BackoffInitial: 1 * time.Second,
		BackoffMax:     30 * time.Second,
		MaxRetries:     3,
	}
}

// S3Sync mirrors artifacts into an object store bucket. Uploads are rate
// limited so a burst of CI scans cannot saturate the bucket API.
type S3Sync struct {
	client  *s3.Client
	bucket  string
	limiter *rate.Limiter
	cfg     S3Config
}

func NewS3Sync(ctx context.Context, cfg S3Config) (*S3Sync, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sync: bucket is required")
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultS3Config().RateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultS3Config().BurstSize
	}
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = DefaultS3Config().BackoffInitial
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = DefaultS3Config().BackoffMax
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 sync: aws config load: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Sync{
		client:  client,
		bucket:  cfg.Bucket,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.BurstSize),
		cfg:     cfg,
	}, nil
}

// Put mirrors one artifact. The object body is the full artifact JSON so a
// restore can rebuild the cache entry including its metadata.
func (s *S3Sync) Put(ctx context.Context, artifact *domain.Artifact) error {
	body, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("s3 sync: marshal artifact: %w", err)
	}

	key := objectKey(artifact.ProjectID, artifact.Source, artifact.ID)

	return s.withRetry(ctx, "put "+key, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		return err
	})
}

// Fetch retrieves one mirrored artifact by key.
func (s *S3Sync) Fetch(ctx context.Context, key string) (*domain.Artifact, error) {
	var data []byte

	err := s.withRetry(ctx, "get "+key, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("s3 sync: unmarshal artifact %s: %w", key, err)
	}
	return &artifact, nil
}

// List returns the object keys mirrored for a project.
func (s *S3Sync) List(ctx context.Context, projectID string) ([]string, error) {
	prefix := fmt.Sprintf("artifacts/%s/", projectID)

	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("s3 sync: rate limiter: %w", err)
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 sync: list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func (s *S3Sync) withRetry(ctx context.Context, op string, fn func() error) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("s3 sync: rate limiter: %w", err)
	}

	backoff := s.cfg.BackoffInitial
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt < s.cfg.MaxRetries {
			log.Printf("[warn] operation=s3_sync op=%q attempt=%d error=%v retrying in %v", op, attempt+1, err, backoff)
			select {
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * 1.5)
				if backoff > s.cfg.BackoffMax {
					backoff = s.cfg.BackoffMax
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("s3 sync: %s failed after %d retries: %w", op, s.cfg.MaxRetries+1, err)
}

func objectKey(projectID, source, artifactID string) string {
	return fmt.Sprintf("artifacts/%s/%s/%s.json", projectID, source, artifactID)
}
