package categorizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxRawInError bounds how much of a bad response is kept on a ParseError.
const maxRawInError = 2048

// ParseResponse turns raw model output into a Result for case c. Shape
// problems are reported as *ParseError; names missing from taxonomy are
// reported as *ValidationError carrying the parsed Result.
func ParseResponse(raw string, c Case, taxonomy *Taxonomy) (Result, error) {
	if !c.Valid() {
		return Result{}, &ParseError{Reason: fmt.Sprintf("cannot parse response for %s", c)}
	}

	object, ok := extractJSONObject(raw)
	if !ok {
		return Result{}, newParseError("no balanced JSON object in response", raw, nil)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(object), &top); err != nil {
		return Result{}, newParseError("response is not valid JSON", raw, err)
	}

	var (
		result Result
		err    error
	)
	switch c {
	case CaseSingle:
		result, err = decodeSingle(object, top)
	case CaseMultiIssue:
		result, err = decodeMultiIssue(top)
	case CaseDynamic:
		result, err = decodeDynamic(top)
	}
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Raw = truncate(raw)
		}
		return Result{}, err
	}

	if taxonomy != nil {
		if mismatches := validateResult(result, taxonomy); len(mismatches) > 0 {
			return Result{}, &ValidationError{Case: c, Mismatches: mismatches, Result: result}
		}
	}
	return result, nil
}

// extractJSONObject returns the first balanced {...} in s, skipping braces
// that appear inside JSON strings.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

type singlePayload struct {
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
}

type issuePayload struct {
	Category      *string   `json:"category"`
	Subcategories *[]string `json:"subcategories"`
	Reason        *[]string `json:"reason"`
}

type dynamicPayload struct {
	Category      *string   `json:"category"`
	Subcategories *[]string `json:"subcategories"`
	Comment       *string   `json:"comment"`
}

func decodeSingle(object string, top map[string]json.RawMessage) (Result, error) {
	body := json.RawMessage(object)
	if wrapped, ok := top[CaseSingle.Key()]; ok {
		body = wrapped
	}
	var p singlePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Result{}, newParseError("case_1 payload has the wrong shape", "", err)
	}
	if p.Category == nil {
		return Result{}, newParseError(`case_1 payload is missing "category"`, "", nil)
	}
	if p.Subcategory == nil {
		return Result{}, newParseError(`case_1 payload is missing "subcategory"`, "", nil)
	}
	return Result{
		Case:   CaseSingle,
		Single: &SingleClassification{Category: *p.Category, Subcategory: *p.Subcategory},
	}, nil
}

// listBody finds the item list for case c under its case key or "items".
func listBody(c Case, top map[string]json.RawMessage) (json.RawMessage, error) {
	for _, key := range []string{c.Key(), "items"} {
		if body, ok := top[key]; ok && string(body) != "null" {
			return body, nil
		}
	}
	return nil, newParseError(fmt.Sprintf("response is missing the %q list", c.Key()), "", nil)
}

func decodeMultiIssue(top map[string]json.RawMessage) (Result, error) {
	body, err := listBody(CaseMultiIssue, top)
	if err != nil {
		return Result{}, err
	}
	var payload []issuePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, newParseError("case_2 list has the wrong shape", "", err)
	}
	items := make([]IssueClassification, 0, len(payload))
	for i, p := range payload {
		switch {
		case p.Category == nil:
			return Result{}, newParseError(fmt.Sprintf(`case_2 item %d is missing "category"`, i), "", nil)
		case p.Subcategories == nil:
			return Result{}, newParseError(fmt.Sprintf(`case_2 item %d is missing "subcategories"`, i), "", nil)
		case p.Reason == nil:
			return Result{}, newParseError(fmt.Sprintf(`case_2 item %d is missing "reason"`, i), "", nil)
		}
		items = append(items, IssueClassification{
			Category:      *p.Category,
			Subcategories: *p.Subcategories,
			Reason:        *p.Reason,
		})
	}
	return Result{Case: CaseMultiIssue, Issues: items}, nil
}

func decodeDynamic(top map[string]json.RawMessage) (Result, error) {
	body, err := listBody(CaseDynamic, top)
	if err != nil {
		return Result{}, err
	}
	var payload []dynamicPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, newParseError("case_3 list has the wrong shape", "", err)
	}
	items := make([]DynamicClassification, 0, len(payload))
	for i, p := range payload {
		switch {
		case p.Category == nil:
			return Result{}, newParseError(fmt.Sprintf(`case_3 item %d is missing "category"`, i), "", nil)
		case p.Subcategories == nil:
			return Result{}, newParseError(fmt.Sprintf(`case_3 item %d is missing "subcategories"`, i), "", nil)
		case p.Comment == nil:
			return Result{}, newParseError(fmt.Sprintf(`case_3 item %d is missing "comment"`, i), "", nil)
		}
		items = append(items, DynamicClassification{
			Category:      *p.Category,
			Subcategories: *p.Subcategories,
			Comment:       *p.Comment,
		})
	}
	return Result{Case: CaseDynamic, Dynamic: items}, nil
}

func validateResult(r Result, t *Taxonomy) []Mismatch {
	var mismatches []Mismatch
	check := func(index int, category string, subs []string) {
		if !t.HasCategory(category) {
			mismatches = append(mismatches, Mismatch{Index: index, Category: category})
			return
		}
		for _, s := range subs {
			if !t.HasSubcategory(category, s) {
				mismatches = append(mismatches, Mismatch{Index: index, Category: category, Subcategory: s})
			}
		}
	}
	switch r.Case {
	case CaseSingle:
		check(0, r.Single.Category, []string{r.Single.Subcategory})
	case CaseMultiIssue:
		for i, item := range r.Issues {
			check(i, item.Category, item.Subcategories)
		}
	case CaseDynamic:
		for i, item := range r.Dynamic {
			check(i, item.Category, item.Subcategories)
		}
	}
	return mismatches
}

func newParseError(reason, raw string, err error) *ParseError {
	return &ParseError{Reason: reason, Raw: truncate(raw), Err: err}
}

func truncate(s string) string {
	if len(s) <= maxRawInError {
		return s
	}
	return s[:maxRawInError] + "..."
}
