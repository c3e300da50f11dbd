package term

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationErrors maps a form field to its error message. It implements
// error so handlers can propagate it as a value.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return strings.Join(parts, "; ")
}

// ValidateDraft checks an entry form before it is allowed near the store.
// Term, definition and category are required. A code requires a code system;
// a code system without a code is accepted (the check is one-directional).
func ValidateDraft(d Draft) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(d.Term) == "" {
		errs["term"] = "Term is required"
	}
	if strings.TrimSpace(d.Definition) == "" {
		errs["definition"] = "Definition is required"
	}
	if d.Category == "" {
		errs["category"] = "Category is required"
	} else if !d.Category.Valid() {
		errs["category"] = fmt.Sprintf("Unknown category %q", d.Category)
	}
	if strings.TrimSpace(d.Code) != "" && d.CodeSystem == "" {
		errs["codeSystem"] = "Code system is required when code is provided"
	}
	if d.CodeSystem != "" && !d.CodeSystem.Valid() {
		errs["codeSystem"] = fmt.Sprintf("Unknown code system %q", d.CodeSystem)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// NormalizeDraft trims whitespace from the free-text fields, matching what
// the entry form submits.
func NormalizeDraft(d Draft) Draft {
	d.Term = strings.TrimSpace(d.Term)
	d.Definition = strings.TrimSpace(d.Definition)
	d.Code = strings.TrimSpace(d.Code)
	return d
}
