package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	rdsutils "github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"
	_db "database/sql"
)

// ClientConfig describes how to reach the RDS-hosted Postgres instance
// and S3 archive bucket, grounded on the teacher's repository.Config.
type ClientConfig struct {
	Profile      string
	S3BucketName string
	Region       string

	DBInstanceID string // RDS instance identifier, used by the preflight check
	DBEndpoint   string
	DBUser       string
	DBName       string
	DBPort       int
}

// Clients bundles the AWS SDK clients the store and job archiver need.
type Clients struct {
	RDS    *_db.DB
	S3     *s3.Client
	Config *ClientConfig
}

func (c *ClientConfig) loadAWSConfig(ctx context.Context) (*aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return &cfg, nil
}

// NewS3Client builds an S3 client from the AWS config; the archive
// bucket is chosen by the caller on each request.
func NewS3Client(ctx context.Context, cfg *ClientConfig) (*s3.Client, error) {
	awsCfg, err := cfg.loadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for S3 client: %w", err)
	}
	return s3.NewFromConfig(*awsCfg), nil
}

// PreflightRDS confirms the target RDS instance is available before the
// connection pool opens, grounded on the teacher's pattern of validating
// external dependencies at startup rather than surfacing a cryptic dial
// error from the first query.
func PreflightRDS(ctx context.Context, cfg *ClientConfig) error {
	if cfg.DBInstanceID == "" {
		return nil // no instance identifier configured, skip the check
	}

	awsCfg, err := cfg.loadAWSConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config for RDS preflight: %w", err)
	}

	client := rds.NewFromConfig(*awsCfg)
	out, err := client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: &cfg.DBInstanceID,
	})
	if err != nil {
		return fmt.Errorf("failed to describe RDS instance %s: %w", cfg.DBInstanceID, err)
	}
	if len(out.DBInstances) == 0 {
		return fmt.Errorf("RDS instance %s not found", cfg.DBInstanceID)
	}
	if status := aws.ToString(out.DBInstances[0].DBInstanceStatus); status != "available" {
		return fmt.Errorf("RDS instance %s is not available (status=%s)", cfg.DBInstanceID, status)
	}
	return nil
}

// NewRDSConnection opens an IAM-authenticated Postgres connection,
// kept near-verbatim from the teacher's RDSClient.NewRDSClient.
func NewRDSConnection(ctx context.Context, cfg *ClientConfig) (*_db.DB, error) {
	awsCfg, err := cfg.loadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for RDS: %w", err)
	}

	endpointWithPort := fmt.Sprintf("%s:%d", cfg.DBEndpoint, cfg.DBPort)

	authToken, err := rdsutils.BuildAuthToken(ctx, endpointWithPort, cfg.Region, cfg.DBUser, awsCfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to build RDS auth token: %w", err)
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=require",
		url.QueryEscape(cfg.DBUser),
		url.QueryEscape(authToken),
		cfg.DBEndpoint,
		url.QueryEscape(cfg.DBName),
	)

	db, err := _db.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}

	// Bounded pool: the job coordinator runs several worker goroutines
	// against this same handle concurrently.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping RDS Postgres: %w", err)
	}

	return db, nil
}

// NewClients wires the RDS preflight, connection, and S3 client into one
// bundle, mirroring the teacher's NewAWSClients bootstrap.
func NewClients(ctx context.Context, cfg *ClientConfig) (*Clients, error) {
	if err := PreflightRDS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("RDS preflight failed: %w", err)
	}

	db, err := NewRDSConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating RDS connection: %w", err)
	}

	s3Client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating S3 client: %w", err)
	}

	return &Clients{RDS: db, S3: s3Client, Config: cfg}, nil
}
