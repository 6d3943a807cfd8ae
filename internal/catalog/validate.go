package catalog

import (
	"slices"
	"sort"
	"strings"
)

// FieldError describes why a set of card values does not fit a template.
type FieldError struct {
	Missing []Field  // required fields left blank, in form order
	Unknown []string // keys the template does not define, sorted
	Invalid []Field  // select fields whose value is not an allowed option
}

// Error renders the message shown to the person filling in the form.
func (e *FieldError) Error() string {
	switch {
	case len(e.Missing) > 0:
		labels := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			labels[i] = f.Label
		}
		return "Please fill in: " + strings.Join(labels, ", ")
	case len(e.Unknown) > 0:
		return "Unknown fields: " + strings.Join(e.Unknown, ", ")
	case len(e.Invalid) > 0:
		return "Invalid choice for " + e.Invalid[0].Label
	}
	return "invalid card data"
}

// MissingFields returns the required fields whose value is blank after
// trimming whitespace.
func (t Template) MissingFields(data map[string]string) []Field {
	var missing []Field
	for _, f := range t.Fields {
		if f.Required && strings.TrimSpace(data[f.Name]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate checks card values against the template's form schema. It
// returns a *FieldError, or nil when data fits.
func (t Template) Validate(data map[string]string) error {
	fe := &FieldError{Missing: t.MissingFields(data)}

	for key, value := range data {
		f, ok := t.Field(key)
		if !ok {
			fe.Unknown = append(fe.Unknown, key)
			continue
		}
		if f.Type == FieldSelect && value != "" && len(f.Options) > 0 && !slices.Contains(f.Options, value) {
			fe.Invalid = append(fe.Invalid, f)
		}
	}
	sort.Strings(fe.Unknown)
	sort.Slice(fe.Invalid, func(i, j int) bool { return fe.Invalid[i].Name < fe.Invalid[j].Name })

	if len(fe.Missing) == 0 && len(fe.Unknown) == 0 && len(fe.Invalid) == 0 {
		return nil
	}
	return fe
}
