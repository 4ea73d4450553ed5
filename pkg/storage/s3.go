package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxLogoSize is the maximum allowed file size for restaurant logos (2MB).
	MaxLogoSize = 2 * 1024 * 1024
	// FolderLogos is the S3 prefix for logo objects.
	FolderLogos = "logos"
)

// Allowed logo MIME types and extensions.
var (
	AllowedLogoTypes = map[string]string{
		"image/jpeg":    ".jpg",
		"image/jpg":     ".jpg",
		"image/png":     ".png",
		"image/webp":    ".webp",
		"image/gif":     ".gif",
		"image/svg+xml": ".svg",
	}
	AllowedLogoExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
		".svg":  "image/svg+xml",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	LogoBucket      string
	// Endpoint points the client at an S3-compatible server (MinIO, LocalStack).
	Endpoint string
	// PublicBaseURL overrides the virtual-hosted URL used for stored logo links.
	PublicBaseURL string
}

// S3 stores restaurant logos.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or .env (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LogoBucket == "" {
		return nil, fmt.Errorf("logo bucket not configured")
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("logo_bucket", cfg.LogoBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// LogoExtension returns the object extension for an upload, preferring the declared
// content type and falling back to the filename. ok is false for unsupported files.
func LogoExtension(contentType, filename string) (ext string, ok bool) {
	if ext, ok := AllowedLogoTypes[strings.ToLower(strings.TrimSpace(contentType))]; ok {
		return ext, true
	}
	ext = strings.ToLower(path.Ext(filename))
	if _, ok := AllowedLogoExtensions[ext]; ok {
		return ext, true
	}
	return "", false
}

// ContentTypeForExtension returns the MIME type for a logo extension.
func ContentTypeForExtension(ext string) string {
	if ct, ok := AllowedLogoExtensions[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// LogoKey returns the S3 object key for a logo: logos/{restaurant_id}/{random}{ext}.
func LogoKey(restaurantID uuid.UUID, ext string) string {
	return path.Join(FolderLogos, restaurantID.String(), uuid.NewString()+ext)
}

// PublicObjectURL returns the public URL for an object (no signing; the logo bucket is public).
func (s *S3) PublicObjectURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.LogoBucket, s.cfg.Region, key)
}

// KeyFromURL recovers the object key from a URL produced by PublicObjectURL.
func (s *S3) KeyFromURL(url string) (string, bool) {
	prefix := s.PublicObjectURL("")
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// UploadLogo streams a logo to the logo bucket and returns its public URL.
func (s *S3) UploadLogo(ctx context.Context, restaurantID uuid.UUID, ext string, body io.Reader, size int64) (string, error) {
	key := LogoKey(restaurantID, ext)
	var contentLength *int64
	if size > 0 {
		contentLength = &size
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.LogoBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(ContentTypeForExtension(ext)),
		ContentLength: contentLength,
		ACL:           types.ObjectCannedACLPublicRead,
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Info("logo uploaded", zap.String("restaurant_id", restaurantID.String()), zap.String("key", key))
	return s.PublicObjectURL(key), nil
}

// DeleteLogo removes a previously uploaded logo by its public URL. URLs that do not
// point into the logo bucket are ignored.
func (s *S3) DeleteLogo(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.LogoBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
