// Package editor holds the client-side interaction state of a document view:
// the active tool, the in-progress creation gesture, the item being dragged,
// selection and per-item editing. All pointer positions it accepts are
// normalized page coordinates (see geometry.ToNormalized).
//
// An Editor is driven from a single UI thread and is not safe for concurrent
// use.
package editor

import (
	"errors"
	"math"
	"time"

	"github.com/rs/xid"

	"pdfmark/internal/geometry"
	"pdfmark/internal/model"
)

// Mode is the active tool. Tools are mutually exclusive.
type Mode string

const (
	ModeView      Mode = "view"
	ModeAnnotate  Mode = "annotate"
	ModeHighlight Mode = "highlight"
	ModeComment   Mode = "comment"
)

// DragKind is the drag sub-state, orthogonal to the tool mode.
type DragKind int

const (
	DragNone DragKind = iota
	DragMove
	DragResize
)

func (d DragKind) String() string {
	switch d {
	case DragMove:
		return "move"
	case DragResize:
		return "resize"
	}
	return "none"
}

// ListSide is where the markup list panel sits next to the page.
type ListSide string

const (
	ListLeft  ListSide = "left"
	ListRight ListSide = "right"
)

// DefaultMinDragDistance is the smallest extent, on either axis, a creation
// gesture must cover before it produces a box.
const DefaultMinDragDistance = 0.01

var (
	ErrReadOnly        = errors.New("editor is read-only")
	ErrToolDisabled    = errors.New("tool is disabled")
	ErrUnknownMode     = errors.New("unknown tool mode")
	ErrItemNotFound    = errors.New("markup not found")
	ErrNotEditable     = errors.New("markup has no text")
	ErrNotToggleable   = errors.New("markup visibility cannot be toggled")
	ErrPageOutOfRange  = errors.New("page out of range")
	ErrDragInProgress  = errors.New("another drag is in progress")
	ErrInvalidDragKind = errors.New("invalid drag kind")
)

// Config selects between the editing view and the read-only manager view and
// their layout variants.
type Config struct {
	ReadOnly bool
	Comments bool
	ListSide ListSide
	// MinDragDistance suppresses click-sized boxes. Zero keeps every gesture.
	MinDragDistance float64
	Now             func() time.Time
	NewID           func() string
}

// DefaultConfig is the full editing view with comments enabled.
func DefaultConfig() Config {
	return Config{
		Comments:        true,
		ListSide:        ListRight,
		MinDragDistance: DefaultMinDragDistance,
	}
}

// ManagerConfig is the read-only reviewer view with the list on the left.
func ManagerConfig() Config {
	cfg := DefaultConfig()
	cfg.ReadOnly = true
	cfg.ListSide = ListLeft
	return cfg
}

// Item is a markup plus its transient editing flag.
type Item struct {
	model.Markup
	Editing bool
}

type dragState struct {
	id    model.MarkupID
	kind  DragKind
	start geometry.Point
	orig  geometry.Rect
}

// Editor is the interaction state machine of one page view.
type Editor struct {
	cfg Config

	mode      Mode
	page      int
	pageCount int

	items    []*Item
	selected model.MarkupID

	drawStart   *geometry.Point
	drawCurrent *geometry.Point
	drag        *dragState

	dirty    bool
	revision uint64
}

// New returns an editor in view mode on page 1.
func New(cfg Config) *Editor {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return xid.New().String() }
	}
	if cfg.ListSide == "" {
		cfg.ListSide = ListRight
	}
	if cfg.MinDragDistance < 0 {
		cfg.MinDragDistance = 0
	}
	return &Editor{
		cfg:  cfg,
		mode: ModeView,
		page: 1,
	}
}

func (e *Editor) Config() Config {
	return e.cfg
}

func (e *Editor) Mode() Mode {
	return e.mode
}

// SetTool toggles a tool: choosing the active tool again returns to view.
func (e *Editor) SetTool(mode Mode) error {
	switch mode {
	case ModeView:
	case ModeAnnotate, ModeHighlight:
		if e.cfg.ReadOnly {
			return ErrReadOnly
		}
	case ModeComment:
		if e.cfg.ReadOnly {
			return ErrReadOnly
		}
		if !e.cfg.Comments {
			return ErrToolDisabled
		}
	default:
		return ErrUnknownMode
	}

	e.resetGesture()
	if e.mode == mode {
		e.mode = ModeView
		return nil
	}
	e.mode = mode
	return nil
}

func (e *Editor) resetGesture() {
	e.drawStart = nil
	e.drawCurrent = nil
	e.drag = nil
}

// Page is the 1-indexed page currently shown.
func (e *Editor) Page() int {
	return e.page
}

// PageCount is zero until the page count is known.
func (e *Editor) PageCount() int {
	return e.pageCount
}

// SetPageCount records the number of pages once the PDF has loaded.
func (e *Editor) SetPageCount(n int) {
	if n < 0 {
		n = 0
	}
	e.pageCount = n
	if n > 0 && e.page > n {
		e.page = n
	}
}

// SetPage jumps to page n.
func (e *Editor) SetPage(n int) error {
	if n < 1 || (e.pageCount > 0 && n > e.pageCount) {
		return ErrPageOutOfRange
	}
	if n != e.page {
		e.resetGesture()
	}
	e.page = n
	return nil
}

// NextPage advances one page; it stops at the last page once the count is known.
func (e *Editor) NextPage() {
	_ = e.SetPage(e.page + 1)
}

// PrevPage goes back one page, stopping at page 1.
func (e *Editor) PrevPage() {
	_ = e.SetPage(e.page - 1)
}

// Dirty reports whether local state has changed since the last MarkSaved.
// Load does not touch the flag.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Revision counts local changes. A submit compares it before and after the
// save to tell whether the saved snapshot is still current.
func (e *Editor) Revision() uint64 {
	return e.revision
}

// MarkSaved clears the dirty flag after a successful submit or reload.
func (e *Editor) MarkSaved() {
	e.dirty = false
}

func (e *Editor) touch() {
	e.dirty = true
	e.revision++
}

// Load replaces every local markup of kind with items, dropping the editing
// flag. Items with another or no kind are tagged with kind.
func (e *Editor) Load(kind model.Kind, items []model.Markup) {
	kept := e.items[:0:0]
	for _, it := range e.items {
		if it.Kind != kind {
			kept = append(kept, it)
		}
	}
	for _, m := range items {
		m = m.Clone()
		m.Kind = kind
		kept = append(kept, &Item{Markup: m})
	}
	e.items = kept
	if e.selected != "" && e.find(e.selected) == nil {
		e.selected = ""
	}
	if e.drag != nil && e.find(e.drag.id) == nil {
		e.drag = nil
	}
}

// Items returns copies of every local item in creation order.
func (e *Editor) Items() []Item {
	out := make([]Item, 0, len(e.items))
	for _, it := range e.items {
		out = append(out, snapshot(it))
	}
	return out
}

// Markups returns the list of kind to submit.
func (e *Editor) Markups(kind model.Kind) []model.Markup {
	out := make([]model.Markup, 0)
	for _, it := range e.items {
		if it.Kind == kind {
			out = append(out, it.Markup.Clone())
		}
	}
	return out
}

// All returns every local markup regardless of kind.
func (e *Editor) All() []model.Markup {
	out := make([]model.Markup, 0, len(e.items))
	for _, it := range e.items {
		out = append(out, it.Markup.Clone())
	}
	return out
}

// Item returns a copy of the item with the given id.
func (e *Editor) Item(id model.MarkupID) (Item, bool) {
	it := e.find(id)
	if it == nil {
		return Item{}, false
	}
	return snapshot(it), true
}

func snapshot(it *Item) Item {
	c := *it
	c.Markup = it.Markup.Clone()
	return c
}

func (e *Editor) find(id model.MarkupID) *Item {
	for _, it := range e.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (e *Editor) mutable(id model.MarkupID) (*Item, error) {
	if e.cfg.ReadOnly {
		return nil, ErrReadOnly
	}
	it := e.find(id)
	if it == nil {
		return nil, ErrItemNotFound
	}
	return it, nil
}

func (e *Editor) newMarkup(kind model.Kind) model.Markup {
	return model.Markup{
		ID:      model.MarkupID(e.cfg.NewID()),
		Kind:    kind,
		Page:    e.page,
		Visible: true,
	}
}

func (e *Editor) add(it *Item) {
	e.items = append(e.items, it)
	e.touch()
}

// PointerDown starts a creation gesture in annotate and highlight mode.
func (e *Editor) PointerDown(p geometry.Point) {
	if e.mode != ModeAnnotate && e.mode != ModeHighlight {
		return
	}
	start := p
	current := p
	e.drawStart = &start
	e.drawCurrent = &current
}

// PointerMove applies an active item drag, or else extends the creation preview.
func (e *Editor) PointerMove(p geometry.Point) {
	if e.drag != nil {
		e.applyDrag(p)
		return
	}
	if e.drawStart != nil {
		current := p
		e.drawCurrent = &current
	}
}

// PointerUp ends the current gesture. When it completes a creation gesture the
// new item is returned and the tool reverts to view.
func (e *Editor) PointerUp() (Item, bool) {
	defer e.resetGesture()

	if e.drag != nil || e.drawStart == nil || e.drawCurrent == nil {
		return Item{}, false
	}

	start, current := *e.drawStart, *e.drawCurrent
	if !e.farEnough(start, current) {
		return Item{}, false
	}

	var it *Item
	switch e.mode {
	case ModeAnnotate:
		m := e.newMarkup(model.KindAnnotation)
		m.SetRect(geometry.BoundingBox(start, current))
		m.SetText("", e.cfg.Now())
		it = &Item{Markup: m, Editing: true}
	case ModeHighlight:
		m := e.newMarkup(model.KindHighlight)
		m.SetRect(geometry.BoundingBox(start, current))
		it = &Item{Markup: m}
	default:
		return Item{}, false
	}

	e.add(it)
	e.mode = ModeView
	return snapshot(it), true
}

func (e *Editor) farEnough(a, b geometry.Point) bool {
	floor := e.cfg.MinDragDistance
	if floor == 0 {
		return true
	}
	return math.Abs(a.X-b.X) >= floor && math.Abs(a.Y-b.Y) >= floor
}

// Preview is the rectangle of the creation gesture in progress.
func (e *Editor) Preview() (geometry.Rect, bool) {
	if e.drawStart == nil || e.drawCurrent == nil {
		return geometry.Rect{}, false
	}
	return geometry.BoundingBox(*e.drawStart, *e.drawCurrent), true
}

// Click places a comment at p in comment mode, opening its detail box for
// text entry, and reverts to view. Clicks outside the page are ignored.
func (e *Editor) Click(p geometry.Point, c geometry.Container) (Item, bool) {
	if e.mode != ModeComment || !p.Inside() {
		return Item{}, false
	}

	m := e.newMarkup(model.KindComment)
	m.X, m.Y = p.X, p.Y
	m.SetBox(geometry.CommentBox(p, c))
	m.SetText("", e.cfg.Now())
	it := &Item{Markup: m, Editing: true}

	e.add(it)
	e.mode = ModeView
	return snapshot(it), true
}

// Selected returns the id of the selected item, if any.
func (e *Editor) Selected() (model.MarkupID, bool) {
	return e.selected, e.selected != ""
}

// Select makes id the single selected item.
func (e *Editor) Select(id model.MarkupID) error {
	if e.find(id) == nil {
		return ErrItemNotFound
	}
	e.selected = id
	return nil
}

// SelectFromList selects id and jumps to its page.
func (e *Editor) SelectFromList(id model.MarkupID) error {
	it := e.find(id)
	if it == nil {
		return ErrItemNotFound
	}
	e.selected = id
	if it.Page != e.page {
		e.resetGesture()
		e.page = it.Page
	}
	return nil
}

// ClearSelection deselects the selected item.
func (e *Editor) ClearSelection() {
	e.selected = ""
}

// BeginEdit makes an annotation or comment's text writable.
func (e *Editor) BeginEdit(id model.MarkupID) error {
	it, err := e.mutable(id)
	if err != nil {
		return err
	}
	if !it.Kind.HasText() {
		return ErrNotEditable
	}
	it.Editing = true
	return nil
}

// SetText replaces the text as it is typed and stamps the edit time.
func (e *Editor) SetText(id model.MarkupID, text string) error {
	it, err := e.mutable(id)
	if err != nil {
		return err
	}
	if !it.Kind.HasText() {
		return ErrNotEditable
	}
	it.SetText(text, e.cfg.Now())
	e.touch()
	return nil
}

// EndEdit leaves editing mode. The typed text is kept.
func (e *Editor) EndEdit(id model.MarkupID) error {
	it := e.find(id)
	if it == nil {
		return ErrItemNotFound
	}
	it.Editing = false
	return nil
}

// BeginDrag starts moving or resizing an item from pointer position p. For a
// comment the detail box is dragged and the anchor stays put.
func (e *Editor) BeginDrag(id model.MarkupID, kind DragKind, p geometry.Point) error {
	if kind != DragMove && kind != DragResize {
		return ErrInvalidDragKind
	}
	it, err := e.mutable(id)
	if err != nil {
		return err
	}
	if e.drag != nil && e.drag.id != id {
		return ErrDragInProgress
	}

	orig := it.Rect()
	if it.Kind == model.KindComment {
		orig = it.Box()
	}
	e.drawStart = nil
	e.drawCurrent = nil
	e.drag = &dragState{id: id, kind: kind, start: p, orig: orig}
	return nil
}

// Dragging reports the drag sub-state and the dragged item.
func (e *Editor) Dragging() (DragKind, model.MarkupID) {
	if e.drag == nil {
		return DragNone, ""
	}
	return e.drag.kind, e.drag.id
}

func (e *Editor) applyDrag(p geometry.Point) {
	it := e.find(e.drag.id)
	if it == nil {
		e.drag = nil
		return
	}

	var r geometry.Rect
	if e.drag.kind == DragMove {
		r = geometry.Move(e.drag.orig, e.drag.start, p)
	} else {
		r = geometry.Resize(e.drag.orig, e.drag.start, p)
	}

	if it.Kind == model.KindComment {
		it.SetBox(r)
	} else {
		it.SetRect(r)
	}
	e.touch()
}

// ToggleVisibility shows or hides an annotation or comment without deleting it.
func (e *Editor) ToggleVisibility(id model.MarkupID) error {
	it := e.find(id)
	if it == nil {
		return ErrItemNotFound
	}
	if !it.Kind.HasText() {
		return ErrNotToggleable
	}
	it.Visible = !it.Visible
	if !e.cfg.ReadOnly {
		e.touch()
	}
	return nil
}

// Delete removes an item locally. Other viewers see the removal after the next
// submit.
func (e *Editor) Delete(id model.MarkupID) error {
	if e.cfg.ReadOnly {
		return ErrReadOnly
	}
	for i, it := range e.items {
		if it.ID != id {
			continue
		}
		e.items = append(e.items[:i], e.items[i+1:]...)
		if e.selected == id {
			e.selected = ""
		}
		if e.drag != nil && e.drag.id == id {
			e.drag = nil
		}
		e.touch()
		return nil
	}
	return ErrItemNotFound
}
