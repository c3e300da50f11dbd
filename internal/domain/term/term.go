// Package term implements the clinical terminology domain model: dictionary
// entries, their enumerations, audit stamps, and the query parameters that
// drive paged reads.
package term

import (
	"strings"
	"time"
)

// Category classifies a dictionary entry.
type Category string

const (
	CategoryDiagnosis  Category = "Diagnosis"
	CategoryProcedure  Category = "Procedure"
	CategoryLaboratory Category = "Laboratory"
	CategoryMedication Category = "Medication"
	CategoryAnatomy    Category = "Anatomy"
	CategorySymptom    Category = "Symptom"
)

// CategoryAll is the filter sentinel meaning "no category filter".
const CategoryAll = "All"

// Categories returns every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryDiagnosis,
		CategoryProcedure,
		CategoryLaboratory,
		CategoryMedication,
		CategoryAnatomy,
		CategorySymptom,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDiagnosis, CategoryProcedure, CategoryLaboratory,
		CategoryMedication, CategoryAnatomy, CategorySymptom:
		return true
	}
	return false
}

// CodeSystem identifies the external coding scheme a term's code belongs to.
type CodeSystem string

const (
	CodeSystemICD10  CodeSystem = "ICD-10"
	CodeSystemSNOMED CodeSystem = "SNOMED CT"
	CodeSystemLOINC  CodeSystem = "LOINC"
	CodeSystemCPT    CodeSystem = "CPT"
	CodeSystemRxNorm CodeSystem = "RxNorm"
	CodeSystemHCPCS  CodeSystem = "HCPCS"
)

// CodeSystemAll is the filter sentinel meaning "no code system filter".
const CodeSystemAll = "All"

// CodeSystems returns every valid code system in display order.
func CodeSystems() []CodeSystem {
	return []CodeSystem{
		CodeSystemICD10,
		CodeSystemSNOMED,
		CodeSystemLOINC,
		CodeSystemCPT,
		CodeSystemRxNorm,
		CodeSystemHCPCS,
	}
}

// Valid reports whether s is one of the known code systems.
func (s CodeSystem) Valid() bool {
	switch s {
	case CodeSystemICD10, CodeSystemSNOMED, CodeSystemLOINC,
		CodeSystemCPT, CodeSystemRxNorm, CodeSystemHCPCS:
		return true
	}
	return false
}

// AuditStamp records who touched a term and when.
type AuditStamp struct {
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DisplayName returns the recorded username, falling back to the email's
// local part when no profile username was captured.
func (a AuditStamp) DisplayName() string {
	if a.Username != "" {
		return a.Username
	}
	if at := strings.IndexByte(a.Email, '@'); at > 0 {
		return a.Email[:at]
	}
	return a.Email
}

// Term is a single dictionary entry. The ID is assigned by the store on
// creation and never changes. CreatedBy is written once at creation;
// UpdatedBy is overwritten on every successful update.
type Term struct {
	ID         string      `json:"id"`
	Term       string      `json:"term"`
	Definition string      `json:"definition"`
	Category   Category    `json:"category"`
	Code       string      `json:"code,omitempty"`
	CodeSystem CodeSystem  `json:"codeSystem,omitempty"`
	CreatedBy  *AuditStamp `json:"createdBy,omitempty"`
	UpdatedBy  *AuditStamp `json:"updatedBy,omitempty"`
}

// Draft holds the user-editable fields of a term, as submitted by an entry
// form. Code and CodeSystem are optional; the one-directional rule (a code
// requires a code system, not the inverse) is checked by ValidateDraft.
type Draft struct {
	Term       string     `json:"term"`
	Definition string     `json:"definition"`
	Category   Category   `json:"category"`
	Code       string     `json:"code,omitempty"`
	CodeSystem CodeSystem `json:"codeSystem,omitempty"`
}

// Patch is a partial update: nil fields are left untouched by the store.
type Patch struct {
	Term       *string     `json:"term,omitempty"`
	Definition *string     `json:"definition,omitempty"`
	Category   *Category   `json:"category,omitempty"`
	Code       *string     `json:"code,omitempty"`
	CodeSystem *CodeSystem `json:"codeSystem,omitempty"`
}

// PatchFromDraft converts a full draft into a patch replacing every
// user-editable field.
func PatchFromDraft(d Draft) Patch {
	return Patch{
		Term:       &d.Term,
		Definition: &d.Definition,
		Category:   &d.Category,
		Code:       &d.Code,
		CodeSystem: &d.CodeSystem,
	}
}

// Apply overlays the patch onto a term in place.
func (p Patch) Apply(t *Term) {
	if p.Term != nil {
		t.Term = *p.Term
	}
	if p.Definition != nil {
		t.Definition = *p.Definition
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Code != nil {
		t.Code = *p.Code
	}
	if p.CodeSystem != nil {
		t.CodeSystem = *p.CodeSystem
	}
}

// NewAuditStamp builds a stamp for the given actor at the current time.
func NewAuditStamp(email, username string) *AuditStamp {
	return &AuditStamp{Email: email, Username: username, Timestamp: time.Now().UTC()}
}
