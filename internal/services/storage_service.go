// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

// Media kinds a product can carry.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// StorageService stores product media in S3, or under a local directory
// when no AWS credentials are configured.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
	log      logrus.FieldLogger
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	log := logrus.WithField("component", "storage")
	if cfg.AWS.AccessKeyID == "" {
		return &StorageService{config: cfg, log: log}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{s3Client: s3.New(sess), config: cfg, log: log}, nil
}

// NewStorageServiceWithClient uses an existing S3 client.
func NewStorageServiceWithClient(cfg *config.Config, client s3iface.S3API) *StorageService {
	return &StorageService{s3Client: client, config: cfg, log: logrus.WithField("component", "storage")}
}

// UploadProductMedia stores one image or video for a product. Keys are
// derived from the content hash so re-uploading a file yields the same URL.
func (s *StorageService) UploadProductMedia(ctx context.Context, productID, kind string, file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	options, err := s.GetUploadOptions(kind)
	if err != nil {
		return nil, err
	}
	options.Folder = path.Join(options.Folder, productID)
	return s.UploadFile(ctx, file, header, options)
}

func (s *StorageService) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, fmt.Errorf("%w: file size %d bytes exceeds maximum allowed size %d bytes", ErrInvalidInput, header.Size, options.MaxSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if len(options.AllowedTypes) > 0 && !contains(options.AllowedTypes, ext) {
		return nil, fmt.Errorf("%w: file type %s is not allowed", ErrInvalidInput, ext)
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if options.MaxSize > 0 && int64(len(fileBytes)) > options.MaxSize {
		return nil, fmt.Errorf("%w: file exceeds maximum allowed size %d bytes", ErrInvalidInput, options.MaxSize)
	}

	contentType := mimetype.Detect(fileBytes).String()
	if declared := header.Header.Get("Content-Type"); declared != "" && contentType == "application/octet-stream" {
		contentType = declared
	}

	key := s.generateKey(fileBytes, ext, options.Folder)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, fileBytes, key, contentType, options.IsPublic)
	}
	return s.uploadToLocal(fileBytes, key, contentType)
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string, isPublic bool) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}
	if isPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	target := filepath.Join(s.config.AWS.LocalUploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	return &UploadResult{
		URL:      "/uploads/" + key,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		target := filepath.Join(s.config.AWS.LocalUploadDir, filepath.FromSlash(key))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *StorageService) GetUploadOptions(kind string) (UploadOptions, error) {
	switch kind {
	case MediaImage:
		return UploadOptions{
			Folder:       "products/images",
			MaxSize:      10 * 1024 * 1024, // 10MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
			IsPublic:     true,
		}, nil
	case MediaVideo:
		return UploadOptions{
			Folder:       "products/videos",
			MaxSize:      200 * 1024 * 1024, // 200MB
			AllowedTypes: []string{".mp4", ".webm", ".mov"},
			IsPublic:     true,
		}, nil
	}
	return UploadOptions{}, fmt.Errorf("%w: unknown media kind %q", ErrInvalidInput, kind)
}

func (s *StorageService) generateKey(content []byte, ext, folder string) string {
	filename := utils.HashBytes(content)[:32] + ext
	if folder != "" {
		return path.Join(folder, filename)
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
