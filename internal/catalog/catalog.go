// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the static set of card templates. A Catalog is built
// once at startup, never mutated afterwards, and handed to whatever needs it.
// Every accessor returns copies, so callers cannot alter the shared value.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"letterlove/internal/slug"
)

// AllSentinel is the filter value meaning "no restriction" for both the
// category and the recipient facets.
const AllSentinel = "all"

// Category is one of the closed set of template groupings.
type Category string

const (
	CategoryLove        Category = "love"
	CategoryCelebration Category = "celebration"
	CategoryApology     Category = "apology"
	CategoryLonging     Category = "longing"
)

// Valid reports whether c belongs to the closed category enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryLove, CategoryCelebration, CategoryApology, CategoryLonging:
		return true
	}
	return false
}

// FieldType controls which form control a template field maps to.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
)

// Field describes one input of a template's form.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Label       string    `yaml:"label" json:"label"`
	Placeholder string    `yaml:"placeholder" json:"placeholder"`
	Type        FieldType `yaml:"type" json:"type"`
	Required    bool      `yaml:"required" json:"required"`
	Options     []string  `yaml:"options,omitempty" json:"options,omitempty"`
}

// Colors is the presentation theme of a template.
type Colors struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Accent    string `yaml:"accent" json:"accent"`
}

// Template is the schema and theme of one kind of card.
type Template struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Description   string   `yaml:"description" json:"description"`
	Category      Category `yaml:"category" json:"category"`
	Emoji         string   `yaml:"emoji" json:"emoji"`
	Colors        Colors   `yaml:"colors" json:"colors"`
	Fields        []Field  `yaml:"fields" json:"fields"`
	PreviewText   string   `yaml:"previewText" json:"previewText"`
	Tags          []string `yaml:"tags" json:"tags"`
	Popularity    int      `yaml:"popularity" json:"popularity"`
	EstimatedTime string   `yaml:"estimatedTime" json:"estimatedTime"`
}

// HasTag reports whether tag is one of the template's labels (exact match).
func (t Template) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Field returns the field with the given name.
func (t Template) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CategoryInfo is the display metadata of a category.
type CategoryInfo struct {
	ID          Category `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Emoji       string   `yaml:"emoji" json:"emoji"`
	Description string   `yaml:"description" json:"description"`
}

// Filter selects templates for the browse view. Empty fields, and the
// "all" sentinel for Category and Recipient, match everything.
type Filter struct {
	Category  string
	Recipient string
	Query     string
}

// Catalog is an immutable, ordered collection of templates.
type Catalog struct {
	templates  []Template
	byID       map[string]int
	categories []CategoryInfo
	recipients []string
}

// New builds a catalog from templates in declaration order. It rejects
// empty, duplicate or non-slug ids and categories outside the closed enumeration.
// recipients is the list of recipient facets offered by the browse view;
// "all" is prepended when missing.
func New(templates []Template, categories []CategoryInfo, recipients []string) (*Catalog, error) {
	c := &Catalog{
		templates: make([]Template, 0, len(templates)),
		byID:      make(map[string]int, len(templates)),
	}

	for _, info := range categories {
		if !info.ID.Valid() {
			return nil, fmt.Errorf("catalog: unknown category %q", info.ID)
		}
		c.categories = append(c.categories, info)
	}

	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog: template with empty id")
		}
		if !slug.Valid(t.ID) {
			return nil, fmt.Errorf("catalog: template id %q is not a slug", t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate template id %q", t.ID)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("catalog: template %q has unknown category %q", t.ID, t.Category)
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, cloneTemplate(t))
	}

	if !slices.Contains(recipients, AllSentinel) {
		c.recipients = append(c.recipients, AllSentinel)
	}
	c.recipients = append(c.recipients, recipients...)

	return c, nil
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}

// All returns every template in declaration order.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	for i, t := range c.templates {
		out[i] = cloneTemplate(t)
	}
	return out
}

// Template looks up a template by exact id.
func (c *Catalog) Template(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return cloneTemplate(c.templates[i]), true
}

// ByCategory returns the templates of one category in declaration order,
// or all of them for the "all" sentinel. An unknown category yields an
// empty slice.
func (c *Catalog) ByCategory(category string) []Template {
	if category == AllSentinel {
		return c.All()
	}
	out := []Template{}
	for _, t := range c.templates {
		if string(t.Category) == category {
			out = append(out, cloneTemplate(t))
		}
	}
	return out
}

// Filter returns the templates matching all three predicates of f.
func (c *Catalog) Filter(f Filter) []Template {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := []Template{}
	for _, t := range c.templates {
		if !matchesCategory(t, f.Category) || !matchesRecipient(t, f.Recipient) || !matchesQuery(t, query) {
			continue
		}
		out = append(out, cloneTemplate(t))
	}
	return out
}

// Categories returns the category display metadata.
func (c *Catalog) Categories() []CategoryInfo {
	return slices.Clone(c.categories)
}

// Category returns display metadata for one category.
func (c *Catalog) Category(id Category) (CategoryInfo, bool) {
	for _, info := range c.categories {
		if info.ID == id {
			return info, true
		}
	}
	return CategoryInfo{}, false
}

// Recipients returns the recipient facet values, "all" first.
func (c *Catalog) Recipients() []string {
	return slices.Clone(c.recipients)
}

func matchesCategory(t Template, category string) bool {
	return category == "" || category == AllSentinel || string(t.Category) == category
}

func matchesRecipient(t Template, recipient string) bool {
	return recipient == "" || recipient == AllSentinel || t.HasTag(recipient)
}

// matchesQuery expects query to be lowercased already.
func matchesQuery(t Template, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Name), query) ||
		strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func cloneTemplate(t Template) Template {
	t.Tags = slices.Clone(t.Tags)
	fields := make([]Field, len(t.Fields))
	for i, f := range t.Fields {
		f.Options = slices.Clone(f.Options)
		fields[i] = f
	}
	t.Fields = fields
	return t
}
