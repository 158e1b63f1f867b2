// Package taxonomy holds the Gardiner sign list used to label cropped symbols.
//
// The table is loaded once at startup and is read-only afterwards. Top-level
// entries are sign categories (A, B, ... Aa) and every sign belongs to exactly
// one category. Codes double as output directory names.
package taxonomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed gardiner.yaml
var defaultTable []byte

// ErrUnknownCode is returned when a code is not present in the table
var ErrUnknownCode = errors.New("unknown taxonomy code")

// Entry is one row of the table
type Entry struct {
	Code        string
	Description string
	// Category is the code of the owning category; equal to Code for categories.
	Category string
}

// IsCategory reports whether the entry is a top-level category
func (e Entry) IsCategory() bool {
	return e.Code == e.Category
}

// String formats the entry the way it is shown in category lists
func (e Entry) String() string {
	return fmt.Sprintf("%s. %s", e.Code, e.Description)
}

// Taxonomy is an immutable code -> description lookup table
type Taxonomy struct {
	entries    []Entry
	index      map[string]int
	categories []string
	signs      map[string][]string
}

type tableFile struct {
	Version    int             `yaml:"version"`
	Categories []categoryEntry `yaml:"categories"`
}

type categoryEntry struct {
	Code        string      `yaml:"code"`
	Description string      `yaml:"description"`
	Signs       []signEntry `yaml:"signs"`
}

type signEntry struct {
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
}

// Default returns the embedded Gardiner table
func Default() *Taxonomy {
	t, err := Load(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded table is invalid: %v", err))
	}
	return t
}

// LoadFile reads a table from a YAML file
func LoadFile(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy file: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load parses and validates a YAML table
func Load(r io.Reader) (*Taxonomy, error) {
	var file tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	t := &Taxonomy{
		index: make(map[string]int),
		signs: make(map[string][]string),
	}
	for _, cat := range file.Categories {
		if err := t.add(Entry{Code: cat.Code, Description: cat.Description, Category: cat.Code}); err != nil {
			return nil, err
		}
		t.categories = append(t.categories, cat.Code)

		for _, sign := range cat.Signs {
			if !strings.HasPrefix(sign.Code, cat.Code) {
				return nil, fmt.Errorf("sign %q does not belong to category %q", sign.Code, cat.Code)
			}
			if err := t.add(Entry{Code: sign.Code, Description: sign.Description, Category: cat.Code}); err != nil {
				return nil, err
			}
			t.signs[cat.Code] = append(t.signs[cat.Code], sign.Code)
		}
	}

	return t, nil
}

func (t *Taxonomy) add(e Entry) error {
	if err := validateCode(e.Code); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("code %q has no description", e.Code)
	}
	if _, dup := t.index[e.Code]; dup {
		return fmt.Errorf("duplicate code %q", e.Code)
	}
	t.index[e.Code] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// validateCode rejects codes that cannot be used as a single directory name
func validateCode(code string) error {
	if code == "" {
		return fmt.Errorf("empty code")
	}
	if code == "." || code == ".." || strings.ContainsAny(code, `/\:*?"<>| `) {
		return fmt.Errorf("code %q is not a valid directory name", code)
	}
	return nil
}

// Lookup finds an entry by code. An exact match wins; otherwise a unique
// case-insensitive match is accepted.
func (t *Taxonomy) Lookup(code string) (Entry, bool) {
	code = strings.TrimSpace(code)
	if i, ok := t.index[code]; ok {
		return t.entries[i], true
	}

	found := -1
	for i, e := range t.entries {
		if strings.EqualFold(e.Code, code) {
			if found >= 0 {
				return Entry{}, false
			}
			found = i
		}
	}
	if found < 0 {
		return Entry{}, false
	}
	return t.entries[found], true
}

// Resolve is Lookup returning ErrUnknownCode on a miss
func (t *Taxonomy) Resolve(code string) (Entry, error) {
	e, ok := t.Lookup(code)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	return e, nil
}

// Describe returns the description of a code, or "" if unknown
func (t *Taxonomy) Describe(code string) string {
	e, _ := t.Lookup(code)
	return e.Description
}

// CategoryOf returns the category code that owns code
func (t *Taxonomy) CategoryOf(code string) (string, bool) {
	e, ok := t.Lookup(code)
	return e.Category, ok
}

// Codes returns every code in table order
func (t *Taxonomy) Codes() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Code
	}
	return out
}

// Entries returns a copy of every entry in table order
func (t *Taxonomy) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Categories returns the top-level category codes in table order
func (t *Taxonomy) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

// Signs returns the sign codes of a category in table order
func (t *Taxonomy) Signs(category string) []string {
	signs := t.signs[category]
	out := make([]string, len(signs))
	copy(out, signs)
	return out
}

// Search returns entries whose code or description contains text, case-insensitively.
// An empty query returns every entry.
func (t *Taxonomy) Search(text string) []Entry {
	q := strings.ToLower(strings.TrimSpace(text))
	var out []Entry
	for _, e := range t.entries {
		if q == "" || strings.Contains(strings.ToLower(e.String()), q) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries
func (t *Taxonomy) Len() int {
	return len(t.entries)
}
