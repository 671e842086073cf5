// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/assetdesk/internal/config"
)

// Upload kinds accepted by GetDefaultUploadOptions.
const (
	UploadKindProductImage    = "product_image"
	UploadKindProductDocument = "product_document"
)

var errPresignUnavailable = errors.New("presigned URLs need S3 storage")

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // bytes, 0 for no limit
	AllowedTypes []string
	IsPublic     bool
}

var uploadPolicies = map[string]UploadOptions{
	UploadKindProductImage: {
		Folder:       "products/images",
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		IsPublic:     true,
	},
	UploadKindProductDocument: {
		Folder:       "products/documents",
		AllowedTypes: []string{".pdf", ".doc", ".docx", ".xlsx", ".csv", ".txt", ".jpg", ".jpeg", ".png"},
	},
}

// objectStore is where attachment bytes end up.
type objectStore interface {
	put(ctx context.Context, key, contentType string, data []byte, public bool) (url string, err error)
	remove(ctx context.Context, key string) error
	link(key string, ttl time.Duration) (string, error)
}

// StorageService keeps product attachments in S3 when credentials are
// configured and on local disk otherwise.
type StorageService struct {
	store      objectStore
	usesS3     bool
	maxUpload  int64
	newKeyName func(ext string) string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{
		maxUpload:  int64(cfg.Storage.MaxUploadMB) << 20,
		newKeyName: datedKeyName,
	}

	if cfg.AWS.AccessKeyID == "" {
		svc.store = &diskStore{dir: cfg.Storage.LocalDir, baseURL: strings.TrimSuffix(cfg.Storage.PublicBaseURL, "/")}
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc.store = &s3Store{
		client:        s3.New(sess),
		bucket:        cfg.AWS.S3Bucket,
		region:        cfg.AWS.Region,
		cloudFrontURL: strings.TrimSuffix(cfg.AWS.CloudFrontURL, "/"),
	}
	svc.usesS3 = true
	return svc, nil
}

// UsesS3 reports whether uploads go to the configured bucket.
func (s *StorageService) UsesS3() bool {
	return s.usesS3
}

// UploadFile stores one multipart file. The returned Key is the relative
// path recorded on the owning product.
func (s *StorageService) UploadFile(ctx context.Context, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, newValidationError(header.Filename, "file size %d bytes exceeds maximum allowed size %d bytes", header.Size, options.MaxSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if len(options.AllowedTypes) > 0 && !slices.Contains(options.AllowedTypes, ext) {
		return nil, newValidationError(header.Filename, "file type %q is not allowed", ext)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key := path.Join(options.Folder, s.newKeyName(ext))
	url, err := s.store.put(ctx, key, contentType, data, options.IsPublic)
	if err != nil {
		return nil, err
	}

	return &UploadResult{URL: url, Key: key, Size: int64(len(data)), MimeType: contentType}, nil
}

// DeleteFile removes a stored attachment. Deleting a missing file is not an
// error.
func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	return s.store.remove(ctx, key)
}

// DeleteQuietly removes attachments whose owning write failed or which
// were replaced. Failures are only logged.
func (s *StorageService) DeleteQuietly(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.DeleteFile(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to remove orphaned upload")
		}
	}
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if !s.usesS3 {
		return "", errPresignUnavailable
	}
	return s.store.link(key, expiration)
}

// AttachmentURL returns a link to a stored attachment: presigned for S3, the
// public base URL on local disk.
func (s *StorageService) AttachmentURL(key string, expiration time.Duration) (string, error) {
	return s.store.link(key, expiration)
}

func (s *StorageService) GetDefaultUploadOptions(kind string) UploadOptions {
	options, ok := uploadPolicies[kind]
	if !ok {
		options = UploadOptions{Folder: "general", AllowedTypes: []string{".jpg", ".jpeg", ".png", ".pdf"}}
	}
	options.MaxSize = s.maxUpload
	return options
}

// datedKeyName yields names like 20240131_1a2b3c4d.png.
func datedKeyName(ext string) string {
	return fmt.Sprintf("%s_%s%s", time.Now().UTC().Format("20060102"), uuid.NewString()[:8], ext)
}

type s3Store struct {
	client        *s3.S3
	bucket        string
	region        string
	cloudFrontURL string
}

func (st *s3Store) put(ctx context.Context, key, contentType string, data []byte, public bool) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(st.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if public {
		input.ACL = aws.String(s3.ObjectCannedACLPublicRead)
	}

	if _, err := st.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if st.cloudFrontURL != "" {
		return st.cloudFrontURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", st.bucket, st.region, key), nil
}

func (st *s3Store) remove(ctx context.Context, key string) error {
	_, err := st.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}

func (st *s3Store) link(key string, ttl time.Duration) (string, error) {
	req, _ := st.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return url, nil
}

type diskStore struct {
	dir     string
	baseURL string
}

// file maps a key onto the upload directory; keys cannot escape it.
func (st *diskStore) file(key string) string {
	return filepath.Join(st.dir, filepath.FromSlash(path.Clean("/"+key)))
}

func (st *diskStore) put(_ context.Context, key, _ string, data []byte, _ bool) (string, error) {
	target := st.file(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return st.baseURL + "/" + key, nil
}

func (st *diskStore) remove(_ context.Context, key string) error {
	if err := os.Remove(st.file(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (st *diskStore) link(key string, _ time.Duration) (string, error) {
	return st.baseURL + "/" + key, nil
}
