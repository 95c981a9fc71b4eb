package storage

import (
	"bytes"
	"classdesk_go/config"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const presignTTL = 15 * time.Minute

type StorageService struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewStorageService creates an S3-backed avatar store. Static credentials are
// used when configured, otherwise the default AWS credential chain.
func NewStorageService(ctx context.Context) (*StorageService, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(config.AppConfig.AWSRegion)}
	if config.AppConfig.AWSAccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		)))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &StorageService{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  config.AppConfig.S3BucketName,
		prefix:  config.AppConfig.StorageBucket,
	}, nil
}

func (s *StorageService) key(path string) string {
	return s.prefix + "/" + strings.TrimLeft(path, "/")
}

// AvatarURL presigns a short-lived GET for an avatar object path.
func (s *StorageService) AvatarURL(path string) (string, bool) {
	if s == nil || s.bucket == "" || path == "" {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		logrus.WithError(err).WithField("path", path).Debug("presign avatar failed")
		return "", false
	}
	return req.URL, true
}

// UploadAvatar stores an image for ownerID and returns its object path,
// relative to the avatar prefix, ready to be saved as avatar_path.
func (s *StorageService) UploadAvatar(ctx context.Context, file *multipart.FileHeader, ownerID string) (string, error) {
	if !isImageFile(file.Filename) {
		return "", fmt.Errorf("unsupported avatar type %q", getFileExtension(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	ext := getFileExtension(file.Filename)
	if converted, ok := convertToWebP(data); ok {
		data, ext = converted, "webp"
	}

	path := fmt.Sprintf("%s/%s.%s", ownerID, uuid.New().String(), ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(path)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(getContentType(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return path, nil
}

// DeleteAvatar removes an avatar object by its relative path.
func (s *StorageService) DeleteAvatar(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("empty avatar path")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	return err
}

// Ping checks that the bucket is reachable.
func (s *StorageService) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func isImageFile(filename string) bool {
	switch getFileExtension(filename) {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}

func getFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 1 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// convertToWebP shells out to cwebp when it is installed. It reports false
// whenever conversion did not happen.
func convertToWebP(imageBytes []byte) ([]byte, bool) {
	cwebpPath, err := exec.LookPath("cwebp")
	if err != nil {
		return nil, false
	}

	inFile, err := os.CreateTemp("", "avatar-in-*")
	if err != nil {
		return nil, false
	}
	defer func() {
		inFile.Close()
		os.Remove(inFile.Name())
	}()
	if _, err := inFile.Write(imageBytes); err != nil {
		return nil, false
	}

	outFile, err := os.CreateTemp("", "avatar-out-*.webp")
	if err != nil {
		return nil, false
	}
	outFile.Close()
	defer os.Remove(outFile.Name())

	cmd := exec.Command(cwebpPath, "-q", "80", inFile.Name(), "-o", outFile.Name())
	if err := cmd.Run(); err != nil {
		return nil, false
	}

	out, err := os.ReadFile(outFile.Name())
	if err != nil {
		return nil, false
	}
	return out, true
}

func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case "webp":
		return "image/webp"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
