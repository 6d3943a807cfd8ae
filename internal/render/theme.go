package render

import (
	"letterlove/internal/catalog"
	"letterlove/internal/models"
)

const (
	// DefaultThemeColor is the brand pink used when a template has no colour.
	DefaultThemeColor = "#ec4899"

	defaultRecipient = "Someone Special"
	defaultSender    = "Someone"
)

// Theme is the heading and decoration a shared card is presented with.
type Theme struct {
	Title      string // "Happy Birthday", prefixed to the recipient
	Icon       string
	Decoration string
}

var (
	defaultTheme = Theme{Title: "A Letter For", Icon: "💌", Decoration: "💕"}

	categoryThemes = map[catalog.Category]Theme{
		catalog.CategoryCelebration: {Title: "Happy Birthday", Icon: "🎂", Decoration: "🎈"},
		catalog.CategoryApology:     {Title: "Note of Apology", Icon: "🥺", Decoration: "💙"},
		catalog.CategoryLonging:     {Title: "Thinking of You", Icon: "💭", Decoration: "✨"},
		catalog.CategoryLove:        {Title: "A Love Letter For", Icon: "💌", Decoration: "💖"},
	}
)

// ThemeFor returns the theme of a category, or the generic letter theme.
func ThemeFor(c catalog.Category) Theme {
	if t, ok := categoryThemes[c]; ok {
		return t
	}
	return defaultTheme
}

// OpenGraph is the link-preview metadata of a page.
type OpenGraph struct {
	Title       string
	Description string
	Color       string
	URL         string
}

// CardPreview builds link-preview metadata for a card rendered with tmpl.
func CardPreview(card *models.Card, tmpl catalog.Template, shareURL string) OpenGraph {
	color := tmpl.Colors.Primary
	if color == "" {
		color = DefaultThemeColor
	}
	return OpenGraph{
		Title:       ThemeFor(tmpl.Category).Title + " " + valueOr(card, "recipientName", defaultRecipient),
		Description: tmpl.Description,
		Color:       color,
		URL:         shareURL,
	}
}

func valueOr(card *models.Card, field, fallback string) string {
	if v := card.Value(field); v != "" {
		return v
	}
	return fallback
}
