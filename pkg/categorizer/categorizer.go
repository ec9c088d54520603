package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Case selects which output shape is requested from the model.
type Case int

const (
	// CaseSingle asks for exactly one category and one subcategory.
	CaseSingle Case = 1
	// CaseMultiIssue asks for every applicable category with reasons.
	CaseMultiIssue Case = 2
	// CaseDynamic asks for every applicable category with a free-text comment.
	CaseDynamic Case = 3
)

// Valid reports whether c is one of the three known cases.
func (c Case) Valid() bool {
	return c == CaseSingle || c == CaseMultiIssue || c == CaseDynamic
}

// Key is the JSON key used for the case in results ("case_1", ...).
func (c Case) Key() string {
	return fmt.Sprintf("case_%d", int(c))
}

func (c Case) String() string {
	switch c {
	case CaseSingle:
		return "single category"
	case CaseMultiIssue:
		return "multi-issue"
	case CaseDynamic:
		return "dynamic category"
	default:
		return fmt.Sprintf("unknown case %d", int(c))
	}
}

// ParseCase accepts "1", "2", "3" or their "case_N" keys.
func ParseCase(s string) (Case, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "case_")
	switch s {
	case "1":
		return CaseSingle, nil
	case "2":
		return CaseMultiIssue, nil
	case "3":
		return CaseDynamic, nil
	}
	return 0, fmt.Errorf("invalid case %q: must be 1, 2 or 3", s)
}

// Ticket is the raw support ticket body.
type Ticket string

// SingleClassification is the case 1 result.
type SingleClassification struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// IssueClassification is one entry of a case 2 result. Subcategories and
// Reason are expected to be parallel but their lengths are not enforced.
type IssueClassification struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
	Reason        []string `json:"reason"`
}

// DynamicClassification is one entry of a case 3 result.
type DynamicClassification struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
	Comment       string   `json:"comment"`
}

// Result is a tagged union: exactly one of Single, Issues or Dynamic is
// meaningful, selected by Case.
type Result struct {
	Case    Case
	Single  *SingleClassification
	Issues  []IssueClassification
	Dynamic []DynamicClassification
}

// MarshalJSON renders the result under its case key, e.g. {"case_1": {...}}.
func (r Result) MarshalJSON() ([]byte, error) {
	var body interface{}
	switch r.Case {
	case CaseSingle:
		if r.Single == nil {
			return nil, fmt.Errorf("case_1 result has no classification")
		}
		body = r.Single
	case CaseMultiIssue:
		items := r.Issues
		if items == nil {
			items = []IssueClassification{}
		}
		body = items
	case CaseDynamic:
		items := r.Dynamic
		if items == nil {
			items = []DynamicClassification{}
		}
		body = items
	default:
		return nil, fmt.Errorf("cannot marshal result for %s", r.Case)
	}
	return json.Marshal(map[string]interface{}{r.Case.Key(): body})
}

// TicketCategorizer classifies a ticket against a taxonomy.
type TicketCategorizer interface {
	Classify(ctx context.Context, ticket Ticket, taxonomy *Taxonomy, c Case) (Result, error)
}
