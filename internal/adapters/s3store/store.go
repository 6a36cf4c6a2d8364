// Package s3store delivers artifacts as objects below a key prefix in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/manthysbr/connectorseed/internal/core/domain"
)

const destinationName = "s3"

// Credentials are caller-supplied AWS credentials.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	SessionToken    string `json:"sessionToken,omitempty"`
	Region          string `json:"region,omitempty"`
}

// ObjectPutter is the slice of the S3 client the store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements ports.Destination for one bucket.
type Store struct {
	logger *slog.Logger
	client ObjectPutter
	bucket string
	region string
}

func New(logger *slog.Logger, client ObjectPutter, bucket, region string) *Store {
	return &Store{
		logger: logger,
		client: client,
		bucket: bucket,
		region: region,
	}
}

// NewClient builds an S3 client from caller credentials, falling back to
// defaultRegion when none is given.
func NewClient(ctx context.Context, creds Credentials, defaultRegion string) (*s3.Client, string, error) {
	region := creds.Region
	if region == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), region, nil
}

// EnsureContainer implements ports.Destination. Prefixes need no remote call,
// so this is trivially idempotent.
func (s *Store) EnsureContainer(_ context.Context, name string, parent domain.Container) (domain.Container, error) {
	path := parent.Child(name)
	return domain.Container{ID: path, Path: path}, nil
}

// Deliver implements ports.Destination.
func (s *Store) Deliver(ctx context.Context, container domain.Container, artifact domain.GeneratedArtifact) (domain.DeliveryReceipt, error) {
	key := container.Child(artifact.Name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(artifact.Text)),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return domain.DeliveryReceipt{}, classify(err)
	}

	s.logger.Debug("object stored", "bucket", s.bucket, "key", key)

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
	return domain.DeliveryReceipt{
		Name:     artifact.Name,
		Category: artifact.Category.Name,
		Type:     artifact.Type,
		Locator:  key,
		URL:      url,
		Path:     key,
		Size:     artifact.ByteLength(),
		Details: map[string]any{
			"name":     artifact.Name,
			"team":     artifact.Category.Name,
			"fileType": artifact.Type.Name,
			"size":     artifact.ByteLength(),
			"s3Key":    key,
			"url":      url,
		},
	}, nil
}

var authCodes = map[string]bool{
	"ExpiredToken":          true,
	"ExpiredTokenException": true,
	"InvalidAccessKeyId":    true,
	"InvalidToken":          true,
	"SignatureDoesNotMatch": true,
	"TokenRefreshRequired":  true,
}

func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := domain.DeliveryDestinationSpecific
		switch {
		case authCodes[apiErr.ErrorCode()]:
			kind = domain.DeliveryAuthExpired
		case strings.HasPrefix(apiErr.ErrorCode(), "Invalid") || apiErr.ErrorCode() == "NoSuchBucket":
			kind = domain.DeliveryMalformedRequest
		case apiErr.ErrorFault() == smithy.FaultServer:
			kind = domain.DeliveryTransient
		}
		return &domain.DeliveryError{
			Kind:        kind,
			Destination: destinationName,
			Code:        apiErr.ErrorCode(),
			Message:     apiErr.Error(),
			Err:         err,
		}
	}
	return &domain.DeliveryError{
		Kind:        domain.DeliveryTransient,
		Destination: destinationName,
		Message:     err.Error(),
		Err:         err,
	}
}
