package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxSize is the largest accepted file, in decoded bytes.
const MaxSize = 10 << 20

var AllowedMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/svg+xml",
}

var (
	ErrFileMissing        = errors.New("blob: file data required")
	ErrInvalidEncoding    = errors.New("blob: file must be base64 encoded")
	ErrMIMETypeNotAllowed = errors.New("blob: mime type not allowed")
	ErrContentMismatch    = errors.New("blob: file content does not match mime type")
	ErrTooLarge           = errors.New("blob: file too large")
	ErrFileIDMissing      = errors.New("blob: file id required")
)

// Upload is a file as received from the CMS client.
type Upload struct {
	// Data is standard base64, optionally as a data URL.
	Data     string
	FileName string
	MIMEType string
}

type Service struct {
	store  Store
	bucket string
	newID  func() string
}

func NewService(store Store, bucket string) *Service {
	return &Service{store: store, bucket: bucket, newID: uuid.NewString}
}

// Upload validates type and size before the store is touched.
func (s *Service) Upload(ctx context.Context, in Upload) (Object, error) {
	mt := strings.ToLower(strings.TrimSpace(in.MIMEType))
	if !slices.Contains(AllowedMIMETypes, mt) {
		return Object{}, ErrMIMETypeNotAllowed
	}

	raw := strings.TrimSpace(in.Data)
	if i := strings.Index(raw, ";base64,"); strings.HasPrefix(raw, "data:") && i >= 0 {
		raw = raw[i+len(";base64,"):]
	}
	if raw == "" {
		return Object{}, ErrFileMissing
	}
	if base64.StdEncoding.DecodedLen(len(raw)) > MaxSize+2 {
		return Object{}, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Object{}, ErrInvalidEncoding
	}
	if len(data) > MaxSize {
		return Object{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Object{}, ErrFileMissing
	}
	if !mimetype.Detect(data).Is(mt) {
		return Object{}, ErrContentMismatch
	}

	return s.store.Put(ctx, s.bucket, s.newID(), mt, data)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrFileIDMissing
	}
	return s.store.Delete(ctx, s.bucket, id)
}

// IsValidation reports whether err is a caller mistake.
func IsValidation(err error) bool {
	return errors.Is(err, ErrFileMissing) ||
		errors.Is(err, ErrInvalidEncoding) ||
		errors.Is(err, ErrMIMETypeNotAllowed) ||
		errors.Is(err, ErrContentMismatch) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrFileIDMissing)
}
