package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/wealthwise/docparse/pkg/storage"
)

var (
	// ErrDuplicateDocument indicates a byte-identical file was already uploaded.
	ErrDuplicateDocument = errors.New("this file has already been uploaded")
	// ErrFileTooLarge indicates the upload exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file size exceeds maximum limit")
	// ErrInvalidFileName indicates a filename without a usable extension.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrUnsupportedFileType indicates an extension outside the allowed set.
	ErrUnsupportedFileType = errors.New("file type not allowed")
)

var allowedExtensions = map[string]FileKind{
	"csv":  KindCSV,
	"xlsx": KindXLSX,
	"xls":  KindXLS,
	"pdf":  KindPDF,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
}

// ParseTrigger starts asynchronous parsing for a document. Implemented by
// the parse service; declared here to keep the dependency one-way.
type ParseTrigger interface {
	Trigger(ctx context.Context, documentID uuid.UUID) error
}

// UploadInput carries one document upload.
type UploadInput struct {
	BusinessID  uuid.UUID
	FileName    string
	Category    Category
	FiscalYear  string
	Description string
	Data        []byte
}

// Service handles document uploads and lifecycle queries.
type Service struct {
	repo    Repository
	files   storage.Storage
	trigger ParseTrigger
	maxSize int64
	logger  *slog.Logger
}

// NewService creates the document service.
func NewService(repo Repository, files storage.Storage, maxSize int64, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		files:   files,
		maxSize: maxSize,
		logger:  logger,
	}
}

// WithParseTrigger wires the asynchronous parse trigger.
func (s *Service) WithParseTrigger(trigger ParseTrigger) *Service {
	s.trigger = trigger
	return s
}

// Upload validates and stores a document, rejecting exact duplicates by
// content checksum, and auto-triggers parsing for bank statements.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Document, error) {
	if len(in.Data) == 0 {
		return nil, errors.New("file is empty")
	}
	if s.maxSize > 0 && int64(len(in.Data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	ext, err := fileExtension(in.FileName)
	if err != nil {
		return nil, err
	}
	kind, ok := allowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	checksum := checksumHex(in.Data)
	exists, err := s.repo.ExistsByChecksum(ctx, checksum)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate upload: %w", err)
	}
	if exists {
		return nil, ErrDuplicateDocument
	}

	locator, size, err := s.files.Save(ctx, in.BusinessID, in.FileName, bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &Document{
		ID:               uuid.New(),
		BusinessID:       in.BusinessID,
		FileName:         fmt.Sprintf("%s.%s", uuid.New(), ext),
		OriginalFileName: in.FileName,
		FileKind:         kind,
		Category:         in.Category,
		SizeBytes:        size,
		StoragePath:      locator,
		ParseStatus:      StatusPending,
		FiscalYear:       in.FiscalYear,
		Description:      in.Description,
		Checksum:         checksum,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		if delErr := s.files.Delete(ctx, locator); delErr != nil {
			s.logger.Warn("failed to clean up stored file", slog.Any("error", delErr))
		}
		return nil, err
	}

	s.logger.Info("document uploaded",
		slog.String("document_id", doc.ID.String()),
		slog.String("business_id", in.BusinessID.String()),
		slog.String("file", in.FileName),
	)

	if in.Category == CategoryBankStatement && s.trigger != nil {
		if err := s.trigger.Trigger(ctx, doc.ID); err != nil {
			s.logger.Warn("failed to trigger parse",
				slog.String("document_id", doc.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	return doc, nil
}

// Get returns one document with its current parse status and error text.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a business's documents, newest first.
func (s *Service) List(ctx context.Context, businessID uuid.UUID) ([]*Document, error) {
	return s.repo.ListByBusiness(ctx, businessID)
}

// Delete removes a document record and its stored bytes.
func (s *Service) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.BusinessID != businessID {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.files.Delete(ctx, doc.StoragePath); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func fileExtension(name string) (string, error) {
	idx := strings.LastIndex(name, ".")
	if name == "" || idx < 0 || idx == len(name)-1 {
		return "", ErrInvalidFileName
	}
	return strings.ToLower(name[idx+1:]), nil
}

func checksumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
