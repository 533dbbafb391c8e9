package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/xid"

	"pdfmark/internal/logging"
	"pdfmark/internal/metrics"
	"pdfmark/internal/model"
)

// MarkupService is the markup collection of every kind. Replace overwrites
// the whole stored collection with the submitted one: there is no version
// check, so the last submitter wins over edits it never loaded.
type MarkupService struct {
	docs    DocumentStore
	markups MarkupStore
	cache   MarkupCache
	metrics *metrics.Metrics
	log     logging.Logger

	now   func() time.Time
	newID func() string
}

func NewMarkupService(
	docs DocumentStore,
	markups MarkupStore,
	cache MarkupCache,
	m *metrics.Metrics,
	log logging.Logger,
) *MarkupService {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &MarkupService{
		docs:    docs,
		markups: markups,
		cache:   cache,
		metrics: m,
		log:     log,
		now:     time.Now,
		newID:   func() string { return xid.New().String() },
	}
}

// List returns the stored collection of kind for a document.
func (s *MarkupService) List(ctx context.Context, kind model.Kind, documentID string) ([]model.Markup, error) {
	if err := s.ensureDocument(ctx, kind, documentID); err != nil {
		return nil, err
	}

	fill := false
	var version int64
	if s.cache != nil {
		if cached, hit, err := s.cache.Get(ctx, documentID, kind); err == nil && hit {
			return cached, nil
		}
		v, err := s.cache.Version(ctx, documentID, kind)
		fill, version = err == nil, v
	}

	items, err := s.markups.ListByDocument(ctx, documentID, kind)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Markup{}
	}
	if fill {
		if err := s.cache.Set(ctx, documentID, kind, items, version); err != nil {
			logging.From(ctx, s.log).Debugf("cache %s for %s failed: %v", kind.Collection(), documentID, err)
		}
	}
	return items, nil
}

// Replace validates every submitted record and then replaces the stored
// collection of kind with them. Nothing is written when any record is
// invalid.
func (s *MarkupService) Replace(ctx context.Context, kind model.Kind, documentID string, items []model.Markup) (out []model.Markup, err error) {
	if err := s.ensureDocument(ctx, kind, documentID); err != nil {
		return nil, err
	}
	defer func() {
		s.metrics.AddMarkupSave(string(kind), err)
	}()

	now := s.now()
	out = make([]model.Markup, len(items))
	seen := make(map[model.MarkupID]int, len(items))
	for i := range items {
		m := items[i].Clone()
		if err := s.normalize(&m, kind, documentID, now); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidMarkup, i, err)
		}
		if j, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("%w: records %d and %d share id %q", ErrInvalidMarkup, j, i, m.ID)
		}
		seen[m.ID] = i
		m.Position = i
		out[i] = m
	}

	if err := s.markups.ReplaceByDocument(ctx, documentID, kind, out); err != nil {
		return nil, err
	}
	s.invalidate(ctx, documentID, kind)

	s.metrics.ObserveMarkupRecords(string(kind), len(out))
	logging.From(ctx, s.log).Infow("markup.saved",
		"doc", documentID,
		"kind", string(kind),
		"count", len(out),
	)
	return out, nil
}

// Add appends one record to the collection. A record without an id gets a
// new one.
func (s *MarkupService) Add(ctx context.Context, kind model.Kind, documentID string, m model.Markup) (out *model.Markup, err error) {
	if err := s.ensureDocument(ctx, kind, documentID); err != nil {
		return nil, err
	}
	defer func() {
		s.metrics.AddMarkupSave(string(kind), err)
	}()

	m = m.Clone()
	if err := s.normalize(&m, kind, documentID, s.now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}

	existing, err := s.markups.ListByDocument(ctx, documentID, kind)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.ID == m.ID {
			return nil, fmt.Errorf("%w: %s", ErrMarkupExists, m.ID)
		}
		if e.Position >= m.Position {
			m.Position = e.Position + 1
		}
	}

	if err := s.markups.Create(ctx, &m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, documentID, kind)
	return &m, nil
}

// Update replaces the record with the given id. It keeps its place in the
// collection.
func (s *MarkupService) Update(ctx context.Context, kind model.Kind, documentID string, id model.MarkupID, m model.Markup) (out *model.Markup, err error) {
	if err := s.ensureDocument(ctx, kind, documentID); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrInvalidInput
	}
	defer func() {
		s.metrics.AddMarkupSave(string(kind), err)
	}()

	existing, err := s.markups.Get(ctx, documentID, kind, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: %s", ErrMarkupNotFound, id)
	}

	m = m.Clone()
	if m.ID != "" && m.ID != id {
		return nil, fmt.Errorf("%w: id %q does not match %q", ErrInvalidMarkup, m.ID, id)
	}
	m.ID = id
	if err := s.normalize(&m, kind, documentID, s.now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}
	m.RowID = existing.RowID
	m.Position = existing.Position
	m.CreatedAt = existing.CreatedAt

	if err := s.markups.Update(ctx, &m); err != nil {
		return nil, err
	}
	s.invalidate(ctx, documentID, kind)
	return &m, nil
}

// Delete removes the record with the given id.
func (s *MarkupService) Delete(ctx context.Context, kind model.Kind, documentID string, id model.MarkupID) (err error) {
	if err := s.ensureDocument(ctx, kind, documentID); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidInput
	}
	defer func() {
		s.metrics.AddMarkupSave(string(kind), err)
	}()

	existing, err := s.markups.Get(ctx, documentID, kind, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrMarkupNotFound, id)
	}
	if err := s.markups.Delete(ctx, documentID, kind, id); err != nil {
		return err
	}
	s.invalidate(ctx, documentID, kind)
	return nil
}

func (s *MarkupService) ensureDocument(ctx context.Context, kind model.Kind, documentID string) error {
	if !kind.Valid() || strings.TrimSpace(documentID) == "" {
		return ErrInvalidInput
	}
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	return nil
}

func (s *MarkupService) invalidate(ctx context.Context, documentID string, kind model.Kind) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, documentID, kind); err != nil {
		logging.From(ctx, s.log).Warnf("invalidate %s cache for %s failed: %v", kind.Collection(), documentID, err)
	}
}

// normalize checks a submitted record and fills in everything the server
// owns: kind, id, owning document, visibility and text defaults.
func (s *MarkupService) normalize(m *model.Markup, kind model.Kind, documentID string, now time.Time) error {
	switch {
	case m.Kind == "":
		m.Kind = kind
	case m.Kind != kind:
		return fmt.Errorf("type %q does not belong in %s", m.Kind, kind.Collection())
	}

	m.ID = model.MarkupID(strings.TrimSpace(string(m.ID)))
	if m.ID == "" {
		m.ID = model.MarkupID(s.newID())
	}
	if m.Page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", m.Page)
	}
	if !finite(m.X, m.Y, m.W, m.H, m.BoxX, m.BoxY, m.BoxW, m.BoxH) {
		return fmt.Errorf("geometry must be finite")
	}

	if kind == model.KindComment {
		if !m.Anchor().Inside() {
			return fmt.Errorf("comment anchor (%g, %g) is off the page", m.X, m.Y)
		}
		if m.HasBox() && !m.Box().Valid() {
			return fmt.Errorf("comment box is off the page")
		}
	} else if !m.Rect().Valid() {
		return fmt.Errorf("box (%g, %g, %g, %g) is off the page", m.X, m.Y, m.W, m.H)
	}

	if kind.HasText() {
		if m.Text == nil {
			m.Text = model.StringPtr("")
		}
		if m.LastEdited == nil || m.LastEdited.IsZero() {
			edited := now
			m.LastEdited = &edited
		}
	} else {
		m.Text = nil
		m.Visible = true
		m.LastEdited = nil
	}

	m.DocumentID = documentID
	m.RowID = 0
	m.CreatedAt = now
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
