package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SnapshotArchive keeps the last raw directory payload per search cell in S3.
// It exists for operability: when a sync silently degrades, the payload that
// produced it is still inspectable.
type SnapshotArchive struct {
	client     S3Client
	bucketName string
}

// SnapshotRecord is the stored envelope around a raw payload.
type SnapshotRecord struct {
	FetchKey  string          `json:"fetchKey"`
	FetchedAt int64           `json:"fetchedAt"`
	Payload   json.RawMessage `json:"payload"`
}

func NewSnapshotArchive(client S3Client, bucketName string) *SnapshotArchive {
	return &SnapshotArchive{
		client:     client,
		bucketName: bucketName,
	}
}

// NewS3Client creates an S3 client from the default AWS configuration.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// Save writes the payload for a fetch key, overwriting the previous snapshot
// for the same cell.
func (a *SnapshotArchive) Save(ctx context.Context, fetchKey string, payload []byte) error {
	if a.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	record := SnapshotRecord{
		FetchKey:  fetchKey,
		FetchedAt: time.Now().Unix(),
		Payload:   payload,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encoding snapshot record: %w", err)
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String("fetches/" + fetchKey + ".json"),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().Str("fetch_key", fetchKey).Msg("Archived directory payload to S3")
	return nil
}
