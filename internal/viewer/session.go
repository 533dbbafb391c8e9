// Package viewer drives one open document: it loads the document and its
// markup collections, hands the editor to the UI and submits the edited
// collections back.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"pdfmark/internal/client"
	"pdfmark/internal/editor"
	"pdfmark/internal/geometry"
	"pdfmark/internal/logging"
	"pdfmark/internal/model"
	"pdfmark/internal/render"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrClosed           = errors.New("viewer session closed")
	// ErrStale is returned by a Refresh whose results were superseded by a
	// later Refresh.
	ErrStale = errors.New("refresh superseded")
)

// API is the part of the HTTP API a session needs. *client.Client implements it.
type API interface {
	GetDocument(ctx context.Context, docID string) (*model.Document, error)
	ListMarkups(ctx context.Context, docID string, kind model.Kind) ([]model.Markup, error)
	ReplaceMarkups(ctx context.Context, docID string, kind model.Kind, items []model.Markup) error
}

type Config struct {
	Editor editor.Config
	Logger logging.Logger
}

// Session is an open document view. Fetches run on their own goroutines, so
// all access to the editor goes through the session's lock.
type Session struct {
	api   API
	doc   model.Document
	kinds []model.Kind
	log   logging.Logger

	mu    sync.Mutex
	ed    *editor.Editor
	alive bool
	gen   uint64
}

// Open fetches the document metadata and then every markup collection the
// view shows. An unknown document stops before any markup is fetched.
func Open(ctx context.Context, api API, docID string, cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.DefaultLogger()
	}

	doc, err := api.GetDocument(ctx, docID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return nil, fmt.Errorf("load document failed: %w", err)
	}

	s := &Session{
		api:   api,
		doc:   *doc,
		kinds: enabledKinds(cfg.Editor),
		log:   log.With("doc", doc.ID),
		ed:    editor.New(cfg.Editor),
		alive: true,
	}
	if doc.PageCount > 0 {
		s.ed.SetPageCount(doc.PageCount)
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func enabledKinds(cfg editor.Config) []model.Kind {
	kinds := make([]model.Kind, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		if k == model.KindComment && !cfg.Comments {
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds
}

func (s *Session) Document() model.Document {
	return s.doc
}

// Kinds lists the collections this session loads and submits.
func (s *Session) Kinds() []model.Kind {
	return append([]model.Kind(nil), s.kinds...)
}

// Refresh refetches every collection in parallel and replaces the local
// items. A collection that fails to load is logged and left empty. Results
// are dropped when the session was closed or refreshed again meanwhile.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return ErrClosed
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	results := make([][]model.Markup, len(s.kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range s.kinds {
		i, kind := i, kind
		g.Go(func() error {
			items, err := s.api.ListMarkups(gctx, s.doc.ID, kind)
			if err != nil {
				s.log.Warnf("load %s failed: %v", kind.Collection(), err)
				return nil
			}
			results[i] = tag(items, kind)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return ErrClosed
	}
	if gen != s.gen {
		return ErrStale
	}
	for i, kind := range s.kinds {
		s.ed.Load(kind, results[i])
	}
	s.ed.MarkSaved()
	return nil
}

// tag gives untyped records the kind of the collection they came from.
func tag(items []model.Markup, kind model.Kind) []model.Markup {
	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = kind
		}
	}
	return items
}

// Edit runs fn with the editor under the session lock.
func (s *Session) Edit(fn func(e *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive {
		return ErrClosed
	}
	return fn(s.ed)
}

// Render lays out the current page for a container of the given size.
func (s *Session) Render(c geometry.Container) render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Draw(s.ed, c)
}

// Submit saves every collection in turn: annotations, then highlights, then
// comments. The first failure stops the sequence and is returned. Collections
// saved before it stay saved and local state is kept as is. Edits made while
// the saves run are not sent and leave the editor dirty.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return ErrClosed
	}
	lists := make([][]model.Markup, len(s.kinds))
	for i, kind := range s.kinds {
		lists[i] = s.ed.Markups(kind)
	}
	rev := s.ed.Revision()
	s.mu.Unlock()

	for i, kind := range s.kinds {
		if err := s.api.ReplaceMarkups(ctx, s.doc.ID, kind, lists[i]); err != nil {
			return fmt.Errorf("save %s failed: %w", kind.Collection(), err)
		}
		s.log.Debugf("saved %d %s", len(lists[i]), kind.Collection())
	}

	s.mu.Lock()
	if s.alive && s.ed.Revision() == rev {
		s.ed.MarkSaved()
	}
	s.mu.Unlock()
	return nil
}

// Close ends the session. Fetches still in flight are discarded when they
// return.
func (s *Session) Close() {
	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()
}
