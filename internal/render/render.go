// Package render resolves markup to on-screen positions. Layout is a pure
// function of the markup list and the container it is given, so callers run
// it again on every frame; nothing here caches pixel geometry.
package render

import (
	"pdfmark/internal/editor"
	"pdfmark/internal/geometry"
	"pdfmark/internal/model"
)

// Placement is one markup laid out in container-relative pixels.
type Placement struct {
	ID       model.MarkupID
	Kind     model.Kind
	Text     string
	Selected bool
	Editing  bool

	// Rect is the box of an annotation or highlight.
	Rect geometry.PixelRect
	// Icon, Box and Connector are set for comments only.
	Icon      geometry.PixelPoint
	Box       geometry.PixelRect
	Connector [2]geometry.PixelPoint
}

// ListEntry is a row of the markup list panel.
type ListEntry struct {
	ID       model.MarkupID
	Kind     model.Kind
	Page     int
	Text     string
	Visible  bool
	Selected bool
}

// Frame is everything drawn over one page.
type Frame struct {
	Page       int
	PageCount  int
	Mode       editor.Mode
	ListSide   editor.ListSide
	Placements []Placement
	Preview    *geometry.PixelRect
	List       []ListEntry
}

// Filter returns the markups drawn on page: those on that page and visible.
func Filter(items []model.Markup, page int) []model.Markup {
	out := make([]model.Markup, 0, len(items))
	for _, m := range items {
		if m.Page == page && m.Visible {
			out = append(out, m)
		}
	}
	return out
}

// Layout places the markups drawn on page inside c.
func Layout(items []model.Markup, page int, c geometry.Container, selected model.MarkupID) []Placement {
	visible := Filter(items, page)
	out := make([]Placement, 0, len(visible))
	for i := range visible {
		out = append(out, place(&visible[i], c, selected))
	}
	return out
}

func place(m *model.Markup, c geometry.Container, selected model.MarkupID) Placement {
	p := Placement{
		ID:       m.ID,
		Kind:     m.Kind,
		Text:     m.TextValue(),
		Selected: selected != "" && m.ID == selected,
	}
	if m.Kind != model.KindComment {
		p.Rect = m.Rect().ToPixels(c)
		return p
	}

	box := m.Box()
	seg := geometry.Connector(m.Anchor(), box)
	p.Icon = geometry.ToPixels(m.Anchor(), c)
	p.Box = box.ToPixels(c)
	p.Connector = [2]geometry.PixelPoint{
		geometry.ToPixels(seg.From, c),
		geometry.ToPixels(seg.To, c),
	}
	return p
}

// Draw lays out the editor's current page in c, including the creation
// preview and the list panel.
func Draw(e *editor.Editor, c geometry.Container) Frame {
	items := e.Items()
	selected, _ := e.Selected()

	markups := make([]model.Markup, 0, len(items))
	editing := make(map[model.MarkupID]bool)
	list := make([]ListEntry, 0, len(items))
	for _, it := range items {
		markups = append(markups, it.Markup)
		if it.Editing {
			editing[it.ID] = true
		}
		list = append(list, ListEntry{
			ID:       it.ID,
			Kind:     it.Kind,
			Page:     it.Page,
			Text:     it.TextValue(),
			Visible:  it.Visible,
			Selected: it.ID == selected,
		})
	}

	placements := Layout(markups, e.Page(), c, selected)
	for i := range placements {
		placements[i].Editing = editing[placements[i].ID]
	}

	f := Frame{
		Page:       e.Page(),
		PageCount:  e.PageCount(),
		Mode:       e.Mode(),
		ListSide:   e.Config().ListSide,
		Placements: placements,
		List:       list,
	}
	if r, ok := e.Preview(); ok {
		px := r.ToPixels(c)
		f.Preview = &px
	}
	return f
}
