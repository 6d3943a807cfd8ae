package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func ids(ts []Template) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c := defaultCatalog(t)

	assert.Equal(t, []string{
		"valentine-ask", "love-letter", "anniversary",
		"birthday-wish", "sorry-card", "miss-you",
	}, ids(c.All()))
	assert.Len(t, c.Categories(), 4)
	assert.Equal(t, []string{"all", "Partner", "Friend", "Family"}, c.Recipients())
}

// Labels and placeholders with YAML indicator characters must survive decoding.
func TestDefaultCatalogPunctuatedFields(t *testing.T) {
	c := defaultCatalog(t)

	ask, ok := c.Template("valentine-ask")
	require.True(t, ok)
	require.Len(t, ask.Fields, 3)
	assert.Equal(t, "Why them?", ask.Fields[2].Label)
	assert.Equal(t, "You make me smile every day...", ask.Fields[2].Placeholder)
	assert.Equal(t, "Be My Valentine?", ask.Name)

	bday, ok := c.Template("birthday-wish")
	require.True(t, ok)
	assert.Equal(t, "May all your dreams come true!", bday.Fields[4].Placeholder)
	assert.Equal(t, "Turning (optional)", bday.Fields[2].Label)

	anniv, ok := c.Template("anniversary")
	require.True(t, ok)
	assert.Equal(t, "Partner's Name", anniv.Fields[0].Label)
	assert.Equal(t, "5", anniv.Fields[2].Placeholder)
}

func TestTemplateLookup(t *testing.T) {
	c := defaultCatalog(t)

	tmpl, ok := c.Template("love-letter")
	require.True(t, ok)
	assert.Equal(t, CategoryLove, tmpl.Category)
	assert.Equal(t, "💌", tmpl.Emoji)
	assert.Equal(t, "#ec4899", tmpl.Colors.Primary)
	require.Len(t, tmpl.Fields, 5)
	assert.Equal(t, "recipientName", tmpl.Fields[0].Name)
	assert.True(t, tmpl.Fields[0].Required)
	assert.False(t, tmpl.Fields[2].Required)

	_, ok = c.Template("nonexistent-id")
	assert.False(t, ok)

	_, ok = c.Template("Love-Letter")
	assert.False(t, ok, "lookup must be an exact match")
}

func TestTemplateReturnsCopy(t *testing.T) {
	c := defaultCatalog(t)

	tmpl, _ := c.Template("love-letter")
	tmpl.Tags[0] = "mutated"
	tmpl.Fields[0].Label = "mutated"

	again, _ := c.Template("love-letter")
	assert.Equal(t, "Romantic", again.Tags[0])
	assert.Equal(t, "Their Name", again.Fields[0].Label)
}

func TestByCategory(t *testing.T) {
	c := defaultCatalog(t)

	assert.Equal(t, ids(c.All()), ids(c.ByCategory("all")))
	assert.Equal(t, []string{"valentine-ask", "love-letter", "anniversary"}, ids(c.ByCategory("love")))
	assert.Equal(t, []string{"birthday-wish"}, ids(c.ByCategory("celebration")))
	assert.Empty(t, c.ByCategory("unknown"))
	assert.Empty(t, c.ByCategory(""))

	first := ids(c.ByCategory("love"))
	second := ids(c.ByCategory("love"))
	assert.Equal(t, first, second)
}

func TestFilter(t *testing.T) {
	c := defaultCatalog(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero value matches everything", Filter{}, ids(c.All())},
		{"all sentinels match everything", Filter{Category: "all", Recipient: "all"}, ids(c.All())},
		{"category only", Filter{Category: "longing"}, []string{"miss-you"}},
		{"recipient by tag", Filter{Recipient: "Family"}, []string{"birthday-wish", "miss-you"}},
		{"recipient is exact tag match", Filter{Recipient: "family"}, []string{}},
		{"query is case insensitive on name", Filter{Query: "LOVE letter"}, []string{"love-letter"}},
		{"query matches description", Filter{Query: "sincerity"}, []string{"sorry-card"}},
		{"query matches tags", Filter{Query: "crush"}, []string{"valentine-ask"}},
		{"query is trimmed", Filter{Query: "  birthday  "}, []string{"birthday-wish"}},
		{"predicates are combined with AND", Filter{Category: "love", Recipient: "Spouse"}, []string{"anniversary"}},
		{"all three predicates", Filter{Category: "love", Recipient: "Partner", Query: "milestone"}, []string{"anniversary"}},
		{"no match", Filter{Category: "apology", Query: "birthday"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(c.Filter(tt.filter)))
		})
	}
}

func TestNewRejectsBadTemplates(t *testing.T) {
	base := Template{ID: "a", Name: "A", Category: CategoryLove}

	_, err := New([]Template{base, base}, nil, nil)
	assert.ErrorContains(t, err, "duplicate template id")

	_, err = New([]Template{{ID: "", Category: CategoryLove}}, nil, nil)
	assert.ErrorContains(t, err, "empty id")

	_, err = New([]Template{{ID: "Love Letter", Category: CategoryLove}}, nil, nil)
	assert.ErrorContains(t, err, "not a slug")

	_, err = New([]Template{{ID: "b", Category: "gratitude"}}, nil, nil)
	assert.ErrorContains(t, err, "unknown category")

	_, err = New(nil, []CategoryInfo{{ID: "gratitude"}}, nil)
	assert.ErrorContains(t, err, "unknown category")
}

func TestAlternateCatalog(t *testing.T) {
	c, err := New([]Template{
		{ID: "only-one", Name: "Only", Category: CategoryApology, Tags: []string{"Friend"}},
	}, nil, []string{"Friend"})
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"all", "Friend"}, c.Recipients())
	assert.Equal(t, []string{"only-one"}, ids(c.Filter(Filter{Recipient: "Friend"})))
	_, ok := c.Template("love-letter")
	assert.False(t, ok)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "templates: [unterminated"},
		{"missing templates", "categories: []"},
		{"unknown category", `
categories: []
templates:
  - id: x
    name: X
    category: gratitude
    fields: [{name: a, label: A, type: text}]`},
		{"bad field type", `
categories: []
templates:
  - id: x
    name: X
    category: love
    fields: [{name: a, label: A, type: checkbox}]`},
		{"select without options", `
categories: []
templates:
  - id: x
    name: X
    category: love
    fields: [{name: a, label: A, type: select}]`},
		{"bad colour", `
categories: []
templates:
  - id: x
    name: X
    category: love
    colors: {primary: pink, secondary: "#ffffff", accent: "#000000"}
    fields: [{name: a, label: A, type: text}]`},
		{"popularity out of range", `
categories: []
templates:
  - id: x
    name: X
    category: love
    popularity: 9
    fields: [{name: a, label: A, type: text}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadMinimalDocument(t *testing.T) {
	c, err := Load([]byte(`
categories:
  - {id: love, name: Love}
templates:
  - id: note
    name: Note
    category: love
    fields:
      - {name: mood, label: Mood, type: select, options: [happy, sad]}
`))
	require.NoError(t, err)

	tmpl, ok := c.Template("note")
	require.True(t, ok)
	assert.Equal(t, FieldSelect, tmpl.Fields[0].Type)
	assert.Equal(t, []string{"happy", "sad"}, tmpl.Fields[0].Options)
}
