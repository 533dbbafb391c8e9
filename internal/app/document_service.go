package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfmark/internal/logging"
	"pdfmark/internal/metrics"
	"pdfmark/internal/model"
	"pdfmark/internal/pkg/pdfinfo"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// UploadFile is an uploaded file body. multipart.File satisfies it.
type UploadFile interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

type UploadInput struct {
	Filename      string
	ContentType   string
	Size          int64
	File          UploadFile
	Author        string
	AuthorMessage string
}

type DocumentService struct {
	docs      DocumentStore
	objects   ObjectStore
	publisher UploadEventPublisher
	metrics   *metrics.Metrics
	log       logging.Logger
	maxSize   int64

	now   func() time.Time
	newID func() string
}

func NewDocumentService(
	docs DocumentStore,
	objects ObjectStore,
	publisher UploadEventPublisher,
	m *metrics.Metrics,
	log logging.Logger,
	maxSize int64,
) *DocumentService {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &DocumentService{
		docs:      docs,
		objects:   objects,
		publisher: publisher,
		metrics:   m,
		log:       log,
		maxSize:   maxSize,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Upload stores the file and then its metadata. When the metadata cannot be
// written the stored object is removed again. The analytics event is best
// effort and never fails the upload.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (doc *model.Document, err error) {
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(input.Filename, "\\", "/")))
	if input.File == nil || input.Size <= 0 || name == "" || name == "." || name == "/" {
		return nil, ErrInvalidInput
	}
	if s.maxSize > 0 && input.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxSize)
	}
	defer func() {
		s.metrics.AddUpload(err)
	}()

	log := logging.From(ctx, s.log)
	id := s.newID()
	key := id + "/" + objectName(name)

	pages, err := pdfinfo.PageCount(input.File, input.Size)
	if err != nil {
		log.Debugf("read page count of %s failed: %v", name, err)
		pages = 0
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind upload: %v", ErrUploadFailed, err)
	}

	contentType := input.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}
	url, err := s.objects.Put(ctx, key, input.File, input.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: store object: %v", ErrUploadFailed, err)
	}

	doc = &model.Document{
		ID:            id,
		OriginalName:  name,
		SourceURL:     url,
		ObjectKey:     key,
		Author:        strings.TrimSpace(input.Author),
		AuthorMessage: strings.TrimSpace(input.AuthorMessage),
		PageCount:     pages,
		Size:          input.Size,
		CreatedAt:     s.now(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			log.Errorf("remove orphaned object %s failed: %v", key, delErr)
		}
		return nil, fmt.Errorf("%w: save metadata: %v", ErrUploadFailed, err)
	}

	if s.publisher != nil {
		event := model.UploadEvent{
			DocumentID:   doc.ID,
			OriginalName: doc.OriginalName,
			Author:       doc.Author,
			Size:         doc.Size,
			PageCount:    doc.PageCount,
			UploadedAt:   doc.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warnf("publish upload event for %s failed: %v", doc.ID, err)
		}
	}

	log.Infow("document.uploaded",
		"doc", doc.ID,
		"name", doc.OriginalName,
		"size", doc.Size,
		"pages", doc.PageCount,
	)
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

// List returns uploaded documents newest first, filtered by a search over
// name, author and message.
func (s *DocumentService) List(ctx context.Context, query string, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	docs, err := s.docs.List(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

// objectName replaces characters that are unsafe in object keys with
// underscores.
func objectName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "document.pdf"
	}
	return out
}
