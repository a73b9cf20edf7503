package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver writes completed job summaries to S3 as a durable audit
// trail. Job state itself stays in-process only, per spec.md §4.7 —
// this only mirrors finished summaries out, it never reloads them back
// into the coordinator.
type Archiver struct {
	client *s3.Client
	bucket string
}

func NewArchiver(client *s3.Client, bucket string) *Archiver {
	return &Archiver{client: client, bucket: bucket}
}

// Archive writes rec as a JSON object keyed by company ID and job ID
// (jobs/<company_id>/<job_id>.json).
func (a *Archiver) Archive(ctx context.Context, rec Record) error {
	if a == nil || a.client == nil || a.bucket == "" {
		return nil // archival is optional; absence of configuration is not an error
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: failed to encode job %s: %w", rec.ID, err)
	}

	key := fmt.Sprintf("jobs/%s/%s.json", rec.CompanyID, rec.ID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("archive: failed to upload job %s: %w", rec.ID, err)
	}
	return nil
}

// ArchiveCompleted is a convenience wrapper for wiring into the
// coordinator's job-completion path: it only archives terminal states.
func (a *Archiver) ArchiveCompleted(ctx context.Context, rec Record) error {
	if rec.Status != StatusCompleted && rec.Status != StatusFailed && rec.Status != StatusCancelled {
		return nil
	}
	if rec.EndedAt == nil {
		now := time.Now().UTC()
		rec.EndedAt = &now
	}
	return a.Archive(ctx, rec)
}
