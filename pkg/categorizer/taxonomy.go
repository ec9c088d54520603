package categorizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// nestedSeparator joins parent and child names when a nested taxonomy is flattened.
const nestedSeparator = " > "

// Subcategory is a leaf of the taxonomy.
type Subcategory struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Category is a top-level taxonomy entry with its ordered subcategories.
type Category struct {
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
}

// SubcategoryNames returns the subcategory names in order.
func (c Category) SubcategoryNames() []string {
	names := make([]string, len(c.Subcategories))
	for i, s := range c.Subcategories {
		names[i] = s.Name
	}
	return names
}

// Taxonomy is an ordered, immutable category -> subcategories mapping.
type Taxonomy struct {
	categories []Category
	index      map[string]int
	subs       []map[string]struct{}
}

// NewTaxonomy validates categories and builds a Taxonomy. Names are kept
// verbatim so they match the source keys exactly; a name that is blank after
// trimming is rejected. Categories must be unique and each must have at least
// one subcategory.
func NewTaxonomy(categories []Category) (*Taxonomy, error) {
	if len(categories) == 0 {
		return nil, errors.New("taxonomy has no categories")
	}
	t := &Taxonomy{
		categories: make([]Category, len(categories)),
		index:      make(map[string]int, len(categories)),
		subs:       make([]map[string]struct{}, len(categories)),
	}
	for i, c := range categories {
		name := c.Name
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("category %d has an empty name", i)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		if len(c.Subcategories) == 0 {
			return nil, fmt.Errorf("category %q has no subcategories", name)
		}
		subs := make([]Subcategory, len(c.Subcategories))
		set := make(map[string]struct{}, len(c.Subcategories))
		for j, s := range c.Subcategories {
			sname := s.Name
			if strings.TrimSpace(sname) == "" {
				return nil, fmt.Errorf("category %q: subcategory %d has an empty name", name, j)
			}
			if _, dup := set[sname]; dup {
				return nil, fmt.Errorf("category %q: duplicate subcategory %q", name, sname)
			}
			set[sname] = struct{}{}
			subs[j] = Subcategory{Name: sname, Description: strings.TrimSpace(s.Description)}
		}
		t.categories[i] = Category{Name: name, Description: strings.TrimSpace(c.Description), Subcategories: subs}
		t.index[name] = i
		t.subs[i] = set
	}
	return t, nil
}

// Categories returns a copy of the categories in load order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		c.Subcategories = append([]Subcategory(nil), c.Subcategories...)
		out[i] = c
	}
	return out
}

// Names returns the category names in load order.
func (t *Taxonomy) Names() []string {
	names := make([]string, len(t.categories))
	for i, c := range t.categories {
		names[i] = c.Name
	}
	return names
}

// Len is the number of top-level categories.
func (t *Taxonomy) Len() int { return len(t.categories) }

// Lookup returns the category with the given name.
func (t *Taxonomy) Lookup(name string) (Category, bool) {
	i, ok := t.index[name]
	if !ok {
		return Category{}, false
	}
	return t.categories[i], true
}

// HasCategory reports whether name is a top-level category.
func (t *Taxonomy) HasCategory(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasSubcategory reports whether sub belongs to category.
func (t *Taxonomy) HasSubcategory(category, sub string) bool {
	i, ok := t.index[category]
	if !ok {
		return false
	}
	_, ok = t.subs[i][sub]
	return ok
}

// MarshalJSON renders the taxonomy in object form, preserving order.
func (t *Taxonomy) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range t.categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.SubcategoryNames())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseTaxonomy decodes a taxonomy document. Two layouts are accepted:
//
//	{"Issue Type": ["Bug", "Feature"], "Priority": ["High", "Low"]}
//	[{"value": "Issue Type", "description": "...", "subcategories": [{"value": "Bug"}]}]
//
// In the object layout a value may itself be an object; nested keys are
// flattened depth-first into "Parent > Child" subcategory names.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("taxonomy document is empty")
	}
	if !json.Valid(trimmed) {
		return nil, errors.New("taxonomy document is not valid JSON")
	}

	var categories []Category
	var err error
	switch trimmed[0] {
	case '{':
		categories, err = parseObjectTaxonomy(trimmed)
	case '[':
		categories, err = parseArrayTaxonomy(trimmed)
	default:
		return nil, errors.New("taxonomy must be a JSON object or array")
	}
	if err != nil {
		return nil, err
	}
	return NewTaxonomy(categories)
}

type orderedField struct {
	Key   string
	Value json.RawMessage
}

// decodeOrderedObject returns the members of a JSON object in document order.
func decodeOrderedObject(raw json.RawMessage) ([]orderedField, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected a JSON object")
	}
	var fields []orderedField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		fields = append(fields, orderedField{Key: key, Value: val})
	}
	return fields, nil
}

func parseObjectTaxonomy(raw json.RawMessage) ([]Category, error) {
	fields, err := decodeOrderedObject(raw)
	if err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(fields))
	for _, f := range fields {
		subs, err := parseSubcategoryValue(f.Value, "")
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", f.Key, err)
		}
		categories = append(categories, Category{Name: f.Key, Subcategories: subs})
	}
	return categories, nil
}

// parseSubcategoryValue flattens a category value (list or nested object)
// into subcategories, prefixing names with prefix.
func parseSubcategoryValue(raw json.RawMessage, prefix string) ([]Subcategory, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("missing subcategories")
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, errors.New("subcategory list is empty")
		}
		subs := make([]Subcategory, 0, len(items))
		for i, item := range items {
			s, err := parseSubcategoryItem(item)
			if err != nil {
				return nil, fmt.Errorf("subcategory %d: %w", i, err)
			}
			s.Name = prefix + s.Name
			subs = append(subs, s)
		}
		return subs, nil
	case '{':
		fields, err := decodeOrderedObject(raw)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, errors.New("nested object is empty")
		}
		var subs []Subcategory
		for _, f := range fields {
			child, err := parseSubcategoryValue(f.Value, prefix+f.Key+nestedSeparator)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", f.Key, err)
			}
			subs = append(subs, child...)
		}
		return subs, nil
	default:
		return nil, errors.New("subcategories must be a list of strings or a nested object")
	}
}

type namedEntry struct {
	Value         *string         `json:"value"`
	Name          *string         `json:"name"`
	Category      *string         `json:"category"`
	Description   string          `json:"description"`
	Subcategories json.RawMessage `json:"subcategories"`
}

func (e namedEntry) label() string {
	for _, s := range []*string{e.Value, e.Name, e.Category} {
		if s != nil {
			return *s
		}
	}
	return ""
}

func parseSubcategoryItem(raw json.RawMessage) (Subcategory, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return Subcategory{Name: name}, nil
	}
	var entry namedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Subcategory{}, errors.New("must be a string or an object with a value")
	}
	if entry.label() == "" {
		return Subcategory{}, errors.New("object has no value or name")
	}
	return Subcategory{Name: entry.label(), Description: entry.Description}, nil
}

func parseArrayTaxonomy(raw json.RawMessage) ([]Category, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(entries))
	for i, item := range entries {
		var entry namedEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("category %d must be an object: %w", i, err)
		}
		name := entry.label()
		if name == "" {
			return nil, fmt.Errorf("category %d has no value or name", i)
		}
		if len(entry.Subcategories) == 0 || string(entry.Subcategories) == "null" {
			return nil, fmt.Errorf("category %q has no subcategories", name)
		}
		subs, err := parseSubcategoryValue(entry.Subcategories, "")
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		categories = append(categories, Category{Name: name, Description: entry.Description, Subcategories: subs})
	}
	return categories, nil
}
