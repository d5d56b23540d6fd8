package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"
	"github.com/KOLIFAST/backend/pkg/storage"
)

// UploadService stores KYC artifacts and profile pictures. Files never touch
// the database; only the storage key travels further.
type UploadService interface {
	UploadKYCDocument(ctx context.Context, category models.DocumentCategory, header *multipart.FileHeader) (*UploadResult, error)
	UploadProfilePicture(ctx context.Context, userID string, header *multipart.FileHeader) (*UploadResult, error)
	SignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type uploadService struct {
	provider storage.StorageProvider
	logger   *logger.Logger
}

type UploadResult struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewUploadService(provider storage.StorageProvider, logger *logger.Logger) UploadService {
	return &uploadService{
		provider: provider,
		logger:   logger,
	}
}

func (s *uploadService) UploadKYCDocument(ctx context.Context, category models.DocumentCategory, header *multipart.FileHeader) (*UploadResult, error) {
	switch category {
	case models.DocumentCategoryIdentity, models.DocumentCategoryAddress, models.DocumentCategorySelfie:
	default:
		return nil, NewValidationError("invalid document category", map[string]string{
			"category": "must be identity, address or selfie",
		})
	}

	if err := validateUpload(header, utils.KYCDocumentMaxSize, utils.AllowedDocumentTypes); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("kyc/%s/%d-%s%s",
		category,
		time.Now().UnixNano(),
		utils.GenerateRandomString(8),
		strings.ToLower(utils.GetFileExtension(header.Filename)),
	)

	return s.upload(ctx, key, header)
}

func (s *uploadService) UploadProfilePicture(ctx context.Context, userID string, header *multipart.FileHeader) (*UploadResult, error) {
	if err := validateUpload(header, utils.MaxImageSize, utils.AllowedImageTypes); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profiles/%s/%d%s",
		userID,
		time.Now().UnixNano(),
		strings.ToLower(utils.GetFileExtension(header.Filename)),
	)

	return s.upload(ctx, key, header)
}

func (s *uploadService) upload(ctx context.Context, key string, header *multipart.FileHeader) (*UploadResult, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = utils.GetContentType(header.Filename)
	}

	response, err := s.provider.Upload(ctx, &storage.UploadRequest{
		Key:         key,
		Reader:      file,
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Upload failed")
		return nil, NewStorageError("upload file", err, true)
	}

	return &UploadResult{
		Key:      response.Key,
		URL:      response.URL,
		Size:     header.Size,
		MimeType: contentType,
	}, nil
}

func (s *uploadService) SignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	url, err := s.provider.GetURL(ctx, key, expiration)
	if err != nil {
		return "", NewStorageError("sign url", err, true)
	}
	return url, nil
}

func (s *uploadService) Delete(ctx context.Context, key string) error {
	if err := s.provider.Delete(ctx, key); err != nil {
		return NewStorageError("delete file", err, true)
	}
	return nil
}

func validateUpload(header *multipart.FileHeader, maxSize int64, allowedTypes []string) error {
	if header == nil || header.Size == 0 {
		return NewValidationError("empty file", map[string]string{"file": "required"})
	}
	if header.Size > maxSize {
		return NewValidationError("file too large", map[string]string{
			"file": fmt.Sprintf("must not exceed %d bytes", maxSize),
		})
	}
	if !utils.IsAllowedFileType(header.Filename, allowedTypes) {
		return NewValidationError("unsupported file type", map[string]string{
			"file": "allowed types: " + strings.Join(allowedTypes, ", "),
		})
	}
	return nil
}
