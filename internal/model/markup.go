package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pdfmark/internal/geometry"
)

// Kind is the markup kind. Each kind is persisted as its own collection.
type Kind string

const (
	KindAnnotation Kind = "annotation"
	KindHighlight  Kind = "highlight"
	KindComment    Kind = "comment"
)

// Kinds lists every kind in submit order.
var Kinds = []Kind{KindAnnotation, KindHighlight, KindComment}

// legacyAnnotate is the type older clients wrote for annotation boxes.
const legacyAnnotate = "annotate"

// ParseKind accepts a kind name, its collection name or the legacy
// "annotate" alias.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annotation", "annotations", legacyAnnotate:
		return KindAnnotation, nil
	case "highlight", "highlights":
		return KindHighlight, nil
	case "comment", "comments":
		return KindComment, nil
	}
	return "", fmt.Errorf("unknown markup kind %q", s)
}

// Collection is the plural name used in URLs and request envelopes.
func (k Kind) Collection() string {
	return string(k) + "s"
}

// HasText reports whether markups of this kind carry text and a visibility flag.
func (k Kind) HasText() bool {
	return k == KindAnnotation || k == KindComment
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAnnotation, KindHighlight, KindComment:
		return true
	}
	return false
}

// MarkupID identifies a markup within its document. Older clients sent numeric
// ids, so both JSON numbers and strings decode into it.
type MarkupID string

func (id *MarkupID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MarkupID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("markup id must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = MarkupID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = MarkupID(n.String())
	return nil
}

// Markup is one overlay object on a page. Geometry is normalized to the page:
// X, Y, W, H are the box of an annotation or highlight and the anchor point of
// a comment (W and H are zero); BoxX..BoxH are a comment's detail box.
type Markup struct {
	RowID      uint       `gorm:"primaryKey" json:"-" bson:"-"`
	DocumentID string     `gorm:"size:64;not null;index:idx_markup_doc_kind,priority:1;uniqueIndex:uk_markup_item,priority:1" json:"-" bson:"document_id"`
	Kind       Kind       `gorm:"size:16;not null;index:idx_markup_doc_kind,priority:2;uniqueIndex:uk_markup_item,priority:2" json:"type" bson:"kind"`
	ID         MarkupID   `gorm:"column:markup_id;size:64;not null;uniqueIndex:uk_markup_item,priority:3" json:"id" bson:"markup_id"`
	Position   int        `gorm:"not null;default:0" json:"-" bson:"position"`
	Page       int        `gorm:"not null" json:"page" bson:"page"`
	X          float64    `gorm:"not null" json:"x" bson:"x"`
	Y          float64    `gorm:"not null" json:"y" bson:"y"`
	W          float64    `gorm:"not null" json:"w" bson:"w"`
	H          float64    `gorm:"not null" json:"h" bson:"h"`
	BoxX       float64    `json:"boxX,omitempty" bson:"box_x,omitempty"`
	BoxY       float64    `json:"boxY,omitempty" bson:"box_y,omitempty"`
	BoxW       float64    `json:"boxW,omitempty" bson:"box_w,omitempty"`
	BoxH       float64    `json:"boxH,omitempty" bson:"box_h,omitempty"`
	Text       *string    `gorm:"type:text" json:"text,omitempty" bson:"text,omitempty"`
	Visible    bool       `gorm:"not null" json:"visible" bson:"visible"`
	LastEdited *time.Time `json:"lastEdited,omitempty" bson:"last_edited,omitempty"`
	CreatedAt  time.Time  `json:"-" bson:"created_at"`
}

func (Markup) TableName() string {
	return "markups"
}

// UnmarshalJSON decodes the wire shape. A missing "visible" means visible and
// the legacy "annotate" type means annotation.
func (m *Markup) UnmarshalJSON(b []byte) error {
	type wire Markup
	aux := struct {
		*wire
		Kind string `json:"type"`
	}{wire: (*wire)(m)}
	m.Visible = true
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.Kind = ""
	if aux.Kind != "" {
		kind, err := ParseKind(aux.Kind)
		if err != nil {
			return err
		}
		m.Kind = kind
	}
	return nil
}

// Rect is the box of an annotation or highlight.
func (m *Markup) Rect() geometry.Rect {
	return geometry.Rect{X: m.X, Y: m.Y, W: m.W, H: m.H}
}

// SetRect stores r as the markup's box.
func (m *Markup) SetRect(r geometry.Rect) {
	m.X, m.Y, m.W, m.H = r.X, r.Y, r.W, r.H
}

// Anchor is the point a comment is pinned to.
func (m *Markup) Anchor() geometry.Point {
	return geometry.Point{X: m.X, Y: m.Y}
}

// HasBox reports whether the comment carries its own detail box geometry.
func (m *Markup) HasBox() bool {
	return m.BoxW > 0 && m.BoxH > 0
}

// Box is a comment's detail box, falling back to the default placement for
// comments stored without one.
func (m *Markup) Box() geometry.Rect {
	if !m.HasBox() {
		return geometry.DefaultCommentBox(m.Anchor())
	}
	return geometry.Rect{X: m.BoxX, Y: m.BoxY, W: m.BoxW, H: m.BoxH}
}

// SetBox stores r as the comment's detail box.
func (m *Markup) SetBox(r geometry.Rect) {
	m.BoxX, m.BoxY, m.BoxW, m.BoxH = r.X, r.Y, r.W, r.H
}

// TextValue returns the text or an empty string for text-less markups.
func (m *Markup) TextValue() string {
	if m.Text == nil {
		return ""
	}
	return *m.Text
}

// SetText sets the text and stamps the edit time.
func (m *Markup) SetText(text string, now time.Time) {
	m.Text = &text
	m.LastEdited = &now
}

// Clone returns a deep copy of m.
func (m Markup) Clone() Markup {
	if m.Text != nil {
		text := *m.Text
		m.Text = &text
	}
	if m.LastEdited != nil {
		edited := *m.LastEdited
		m.LastEdited = &edited
	}
	return m
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
