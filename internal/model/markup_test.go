package model

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestMarkupUnmarshalDefaults(t *testing.T) {
	var m Markup
	require.NoError(t, json.Unmarshal([]byte(`{"id":1717171717171,"page":2,"x":0.1,"y":0.2,"w":0.3,"h":0.1}`), &m))

	assert.Equal(t, MarkupID("1717171717171"), m.ID)
	assert.Equal(t, 2, m.Page)
	assert.True(t, m.Visible)
	assert.Equal(t, Kind(""), m.Kind)
	assert.Nil(t, m.Text)
}

func TestMarkupUnmarshalLegacyType(t *testing.T) {
	var m Markup
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","type":"annotate","text":"check this","visible":false}`), &m))

	assert.Equal(t, KindAnnotation, m.Kind)
	assert.Equal(t, "check this", m.TextValue())
	assert.False(t, m.Visible)
}

func TestMarkupUnmarshalUnknownType(t *testing.T) {
	var m Markup
	assert.Error(t, json.Unmarshal([]byte(`{"id":"a","type":"sticker"}`), &m))
}

func TestMarkupListUnmarshal(t *testing.T) {
	var list []Markup
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"a","visible":false},{"id":"b"}]`), &list))

	require.Len(t, list, 2)
	assert.False(t, list[0].Visible)
	assert.True(t, list[1].Visible)
}

func TestMarkupMarshalWireShape(t *testing.T) {
	m := Markup{
		DocumentID: "D1",
		Kind:       KindHighlight,
		ID:         "h1",
		Page:       1,
		X:          0.1, Y: 0.1, W: 0.2, H: 0.1,
		Visible: true,
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "highlight", out["type"])
	assert.Equal(t, "h1", out["id"])
	assert.NotContains(t, out, "text")
	assert.NotContains(t, out, "lastEdited")
	assert.NotContains(t, out, "DocumentID")
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"annotation":  KindAnnotation,
		"annotations": KindAnnotation,
		"annotate":    KindAnnotation,
		"Highlights":  KindHighlight,
		"comment":     KindComment,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("box")
	assert.Error(t, err)
}

func TestCommentBoxFallback(t *testing.T) {
	m := Markup{Kind: KindComment, X: 0.3, Y: 0.5}
	assert.False(t, m.HasBox())
	assert.True(t, m.Box().Valid())

	m.SetBox(m.Box())
	assert.True(t, m.HasBox())
}

func TestCloneCopiesText(t *testing.T) {
	m := Markup{Text: StringPtr("a")}
	c := m.Clone()
	*c.Text = "b"
	assert.Equal(t, "a", m.TextValue())
}

func TestLastEditedIsOptional(t *testing.T) {
	s, err := schema.Parse(&Markup{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField("LastEdited")
	require.NotNil(t, field)
	assert.False(t, field.NotNull, "highlights store no edit time")

	m := Markup{ID: "a", Page: 1}
	m.SetText("hi", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	c := m.Clone()
	*c.LastEdited = c.LastEdited.Add(time.Hour)
	assert.Equal(t, 0, m.LastEdited.Hour())
}
