// Package services – UploadService
//
// This file implements the document upload pipeline: MIME allow-list, size
// cap, optional country block-list from the edge geolocation header, object
// storage write, and the metadata row that makes the upload addressable.
package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
)

// MaxUploadBytes is the default upload cap (20 MiB).
const MaxUploadBytes = 20 << 20

// allowedUploadTypes is the accepted MIME allow-list.
var allowedUploadTypes = map[string]struct{}{
	"application/pdf": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

// ObjectStore writes document binaries. Implemented by storage.S3Store;
// faked in tests.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// UploadService validates and stores document uploads.
type UploadService struct {
	DB    *gorm.DB
	Store ObjectStore
	Log   zerolog.Logger

	// MaxBytes caps the accepted size; zero means MaxUploadBytes.
	MaxBytes int64
	// BlockedCountries holds upper-case ISO country codes refused at upload.
	BlockedCountries map[string]struct{}
}

// NewUploadService constructs an UploadService with the default size cap.
func NewUploadService(db *gorm.DB, store ObjectStore, blocked []string, log zerolog.Logger) *UploadService {
	m := make(map[string]struct{}, len(blocked))
	for _, c := range blocked {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			m[c] = struct{}{}
		}
	}
	return &UploadService{DB: db, Store: store, Log: log, MaxBytes: MaxUploadBytes, BlockedCountries: m}
}

// countingReader tracks how many bytes the store actually consumed, so the
// metadata row records real storage size rather than the client-declared one.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Accept validates the upload, streams it to object storage, and records the
// Document row. country comes from the edge geolocation header and may be
// blank. Declared metadata is validated before any byte is stored; the size
// cap is additionally enforced on the actual stream, since clients can
// declare a smaller size than they send.
func (s *UploadService) Accept(ctx context.Context, userID, fileName, contentType, country string, size int64, body io.Reader) (*domain.Document, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("upload.content_type", contentType),
			attribute.Int64("upload.size", size),
		),
	)
	defer span.End()

	if s.Store == nil {
		return nil, ErrNotConfigured
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	if _, blocked := s.BlockedCountries[country]; blocked {
		return nil, ErrCountryBlocked
	}

	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}
	if _, ok := allowedUploadTypes[strings.ToLower(mediaType)]; !ok {
		return nil, ErrUnsupportedFileType
	}

	max := s.MaxBytes
	if max <= 0 {
		max = MaxUploadBytes
	}
	if size > max {
		return nil, ErrFileTooLarge
	}

	docID := uuid.NewString()
	// Keep only the base name; clients may send full paths.
	fileName = path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	key := fmt.Sprintf("%s/%s/%s", userID, docID, fileName)

	// One byte of headroom so an over-cap stream is detectable instead of
	// silently truncated.
	cr := &countingReader{r: io.LimitReader(body, max+1)}
	url, err := s.Store.Put(ctx, key, mediaType, cr)
	if err != nil {
		return nil, err
	}
	if cr.n > max {
		return nil, ErrFileTooLarge
	}

	doc := &domain.Document{
		ID:          docID,
		UserID:      userID,
		FileName:    fileName,
		ContentType: mediaType,
		SizeBytes:   cr.n,
		StorageURL:  url,
		Country:     country,
	}
	if err := repo.CreateDocument(ctx, s.DB, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the caller's uploads, most recent first.
func (s *UploadService) List(ctx context.Context, userID string) ([]domain.Document, error) {
	return repo.ListDocuments(ctx, s.DB, userID)
}
