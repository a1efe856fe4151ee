package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Naimehossein77/gym-nfc/internal/netx"
	"github.com/Naimehossein77/gym-nfc/internal/passkit"
	sc "github.com/Naimehossein77/gym-nfc/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	uploadToPresignedURL = netx.UploadToPresignedURL
)

// IssuedPass is the outcome of signing a pass bundle. StorageKey and
// DownloadURL are empty when no archive store is configured.
type IssuedPass struct {
	Archive     []byte
	StorageKey  string
	DownloadURL string
}

// PassService wraps the pass builder and, when an S3-compatible endpoint is
// configured, archives every signed bundle and hands back a time-limited
// download link.
type PassService struct {
	builder *passkit.Builder
	config  *sc.Config
}

func NewPassService(builder *passkit.Builder, config *sc.Config) *PassService {
	return &PassService{
		builder: builder,
		config:  config,
	}
}

// GetRandomStorageKey returns a date-partitioned object key for an archived
// pass bundle.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("passes/%d/%d/%d/%v.pkpass", d.Year(), d.Month(), d.Day(), uuid.New())
}

// CertificateStatus reports presence and metadata of the signing material
// files without touching the signer.
func (s *PassService) CertificateStatus() map[string]passkit.FileStatus {
	return s.builder.Material().Check()
}

// Issue builds and signs the pass bundle for d. With an archive store
// configured the bundle is also uploaded and a presigned download URL is
// returned; upload failures fail the whole operation so a returned URL
// always resolves.
func (s *PassService) Issue(ctx context.Context, d *passkit.Declaration) (*IssuedPass, error) {
	archive, err := s.builder.Build(ctx, d)
	if err != nil {
		return nil, err
	}

	issued := &IssuedPass{Archive: archive}
	if s.config.S3BaseEndpoint == "" {
		return issued, nil
	}

	key, putURL, err := s.getPresignedPutURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}
	if err := uploadToPresignedURL(putURL, "application/vnd.apple.pkpass", archive); err != nil {
		return nil, fmt.Errorf("error archiving pass: %w", err)
	}
	downloadURL, err := s.getPresignedGetURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error presigning download: %w", err)
	}

	issued.StorageKey = key
	issued.DownloadURL = downloadURL
	return issued, nil
}

func (s *PassService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *PassService) getPresignedPutURL(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *PassService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
