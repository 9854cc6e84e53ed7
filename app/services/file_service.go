package services

import (
	"context"
	"net/http"
	"path"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/storage"
)

// ObjectStore is the part of the object storage client the file workflow
// needs. *storage.S3 satisfies it.
type ObjectStore interface {
	CreateSignedUploadURL(ctx context.Context, keyPrefix, filename, contentType string) (storage.SignedUpload, error)
	Delete(ctx context.Context, key string) error
}

var allowedContentTypes = map[string]map[string]bool{
	models.FilePurposeProductImage: {"image/jpeg": true, "image/png": true, "image/webp": true, "image/gif": true},
	models.FilePurposePaymentProof: {"image/jpeg": true, "image/png": true, "image/webp": true, "application/pdf": true},
	models.FilePurposeOther:        {"image/jpeg": true, "image/png": true, "image/webp": true, "application/pdf": true},
}

var keyPrefixes = map[string]string{
	models.FilePurposeProductImage: "products",
	models.FilePurposePaymentProof: "payment-proofs",
	models.FilePurposeOther:        "uploads",
}

type UploadInput struct {
	UserID      uint // 0 for back-office uploads
	Purpose     string
	Filename    string
	ContentType string
}

// Upload is a persisted file plus the URL the browser PUTs it to.
type Upload struct {
	File   *models.File         `json:"file"`
	Signed storage.SignedUpload `json:"upload"`
}

type FileService struct {
	db     *gorm.DB
	files  *repositories.FileRepository
	prods  *repositories.ProductRepository
	orders *repositories.OrderRepository
	store  ObjectStore
}

// NewFileService accepts a nil store; uploads then fail with 503.
func NewFileService(db *gorm.DB, store ObjectStore) *FileService {
	return &FileService{
		db:     db,
		files:  repositories.NewFileRepository(db),
		prods:  repositories.NewProductRepository(db),
		orders: repositories.NewOrderRepository(db),
		store:  store,
	}
}

var errStorageDisabled = apperr.New(http.StatusServiceUnavailable, "File uploads are not configured")

// CreateUpload signs an upload URL and records the file. The object does
// not exist until the browser completes the PUT.
func (s *FileService) CreateUpload(ctx context.Context, in UploadInput) (*Upload, error) {
	if s.store == nil {
		return nil, errStorageDisabled
	}
	purpose := in.Purpose
	if purpose == "" {
		purpose = models.FilePurposeOther
	}
	types, ok := allowedContentTypes[purpose]
	if !ok {
		return nil, apperr.Validation(map[string]string{"purpose": "The selected purpose is invalid."})
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if !types[contentType] {
		return nil, apperr.Validation(map[string]string{"content_type": "The selected content_type is not allowed."})
	}
	filename := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Filename), `\`, "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperr.Validation(map[string]string{"filename": "The filename field is required."})
	}

	signed, err := s.store.CreateSignedUploadURL(ctx, keyPrefixes[purpose], filename, contentType)
	if err != nil {
		return nil, err
	}

	f := &models.File{
		Key:         signed.Key,
		URL:         signed.PublicURL,
		Filename:    filename,
		ContentType: contentType,
		Purpose:     purpose,
	}
	if in.UserID != 0 {
		uid := in.UserID
		f.UserID = &uid
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, err
	}
	return &Upload{File: f, Signed: signed}, nil
}

func (s *FileService) List(ctx context.Context, purpose string, page repositories.Page) ([]models.File, repositories.Pagination, error) {
	return s.files.List(ctx, purpose, page)
}

// Delete removes the stored object, then the row and any references to it.
func (s *FileService) Delete(ctx context.Context, id uint) error {
	f, err := s.files.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "File not found")
	}
	if s.store == nil {
		return errStorageDisabled
	}
	if err := s.store.Delete(ctx, f.Key); err != nil {
		return err
	}

	err = database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.prods.WithTx(tx).DetachImage(ctx, id); err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).DetachPaymentProof(ctx, id); err != nil {
			return err
		}
		return s.files.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return notFound(err, "File not found")
	}
	logger.WithCtx(ctx).Info("file deleted", "file_id", id, "key", f.Key)
	return nil
}
