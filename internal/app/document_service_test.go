package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfmark/internal/logging"
	"pdfmark/internal/model"
	"pdfmark/internal/repository/memory"
)

type memObjects struct {
	objects map[string][]byte
	putErr  error
	delErr  error
	deleted []string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (o *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if o.putErr != nil {
		return "", o.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	o.objects[key] = b
	return "https://cdn.test/" + key, nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.deleted = append(o.deleted, key)
	if o.delErr != nil {
		return o.delErr
	}
	delete(o.objects, key)
	return nil
}

type failingDocs struct {
	DocumentStore
}

func (failingDocs) Create(context.Context, *model.Document) error {
	return errors.New("metadata store down")
}

type recordingPublisher struct {
	events []model.UploadEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.UploadEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func newDocumentService(t *testing.T) (*DocumentService, *memObjects, *recordingPublisher) {
	t.Helper()
	db, err := memory.New()
	require.NoError(t, err)

	objects := newMemObjects()
	pub := &recordingPublisher{}
	s := NewDocumentService(memory.NewDocumentRepository(db), objects, pub, nil, logging.Nop(), 1<<20)
	s.now = func() time.Time { return testNow }
	s.newID = func() string { return "doc-1" }
	return s, objects, pub
}

func pdfUpload(name string, body string) UploadInput {
	return UploadInput{
		Filename: name,
		Size:     int64(len(body)),
		File:     bytes.NewReader([]byte(body)),
		Author:   " Ann ",
	}
}

func TestUploadStoresObjectMetadataAndEvent(t *testing.T) {
	ctx := context.Background()
	s, objects, pub := newDocumentService(t)

	doc, err := s.Upload(ctx, pdfUpload(`C:\papers\Q3 report.pdf`, "%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "Q3 report.pdf", doc.OriginalName)
	assert.Equal(t, "doc-1/Q3_report.pdf", doc.ObjectKey)
	assert.Equal(t, "https://cdn.test/doc-1/Q3_report.pdf", doc.SourceURL)
	assert.Equal(t, "Ann", doc.Author)
	assert.Equal(t, testNow, doc.CreatedAt)
	assert.Equal(t, "%PDF-1.4 body", string(objects.objects["doc-1/Q3_report.pdf"]), "the page count probe must not consume the body")

	stored, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.SourceURL, stored.SourceURL)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "doc-1", pub.events[0].DocumentID)
	assert.Equal(t, int64(len("%PDF-1.4 body")), pub.events[0].Size)
}

func TestUploadRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s, objects, _ := newDocumentService(t)

	_, err := s.Upload(ctx, UploadInput{Filename: "a.pdf"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Upload(ctx, pdfUpload("", "x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	big := pdfUpload("big.pdf", "x")
	big.Size = 2 << 20
	_, err = s.Upload(ctx, big)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, objects.objects)
}

func TestUploadObjectFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	s, objects, pub := newDocumentService(t)
	objects.putErr = errors.New("bucket gone")

	_, err := s.Upload(ctx, pdfUpload("a.pdf", "%PDF"))
	assert.ErrorIs(t, err, ErrUploadFailed)

	_, err = s.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Empty(t, pub.events)
}

func TestUploadMetadataFailureRemovesObject(t *testing.T) {
	ctx := context.Background()
	s, objects, pub := newDocumentService(t)
	s.docs = failingDocs{DocumentStore: s.docs}

	_, err := s.Upload(ctx, pdfUpload("a.pdf", "%PDF"))
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, []string{"doc-1/a.pdf"}, objects.deleted)
	assert.Empty(t, objects.objects)
	assert.Empty(t, pub.events)
}

func TestUploadMetadataFailureWithFailedCleanup(t *testing.T) {
	s, objects, _ := newDocumentService(t)
	s.docs = failingDocs{DocumentStore: s.docs}
	objects.delErr = errors.New("still gone")

	_, err := s.Upload(context.Background(), pdfUpload("a.pdf", "%PDF"))
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Len(t, objects.deleted, 1)
}

func TestUploadSucceedsWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	s, _, pub := newDocumentService(t)
	pub.err = errors.New("broker down")

	doc, err := s.Upload(ctx, pdfUpload("a.pdf", "%PDF"))
	require.NoError(t, err)
	_, err = s.Get(ctx, doc.ID)
	assert.NoError(t, err)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newDocumentService(t)

	docs, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	ids := []string{"d1", "d2", "d3"}
	for i, id := range ids {
		s.newID = func() string { return id }
		s.now = func() time.Time { return testNow.Add(time.Duration(i) * time.Minute) }
		_, err := s.Upload(ctx, pdfUpload(id+".pdf", "%PDF"))
		require.NoError(t, err)
	}

	docs, err = s.List(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d3", docs[0].ID)

	docs, err = s.List(ctx, "D1", 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)
}

func TestGetDocument(t *testing.T) {
	s, _, _ := newDocumentService(t)

	_, err := s.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "a_b_c_.pdf", objectName("a b/c?.pdf"))
	assert.Equal(t, "document.pdf", objectName("..."))
	assert.Equal(t, "report-v2.pdf", objectName("report-v2.pdf"))
}
