// Package rename holds the symbol rename tables and the engine that applies
// them to a parsed string table.
package rename

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPrefix is prepended to the bare name of a wrapped symbol.
	DefaultPrefix = "___wrap_"
	// UNIX2003 is the versioning tag the 32-bit libc appends to some symbols.
	UNIX2003 = "$UNIX2003"
)

// A Policy says how a matched symbol is renamed: either by prepending the
// table prefix to its bare name or by replacing it with a literal.
type Policy struct {
	Literal string
}

// Prefix is the policy that prepends the table prefix.
var Prefix = Policy{}

// Replace returns a policy that renames to name verbatim.
func Replace(name string) Policy { return Policy{Literal: name} }

func (p Policy) IsLiteral() bool { return p.Literal != "" }

// UnmarshalYAML accepts `true` for the prefix policy or a string literal.
func (p *Policy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var b bool
	if err := unmarshal(&b); err == nil {
		if !b {
			return fmt.Errorf("rename policy must be true or a replacement name, got false")
		}
		*p = Prefix
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("rename policy must be true or a replacement name: %w", err)
	}
	if s == "" {
		return fmt.Errorf("rename policy replacement name is empty")
	}
	*p = Replace(s)
	return nil
}

func (p Policy) MarshalYAML() (interface{}, error) {
	if p.IsLiteral() {
		return p.Literal, nil
	}
	return true, nil
}

func (p Policy) String() string {
	if p.IsLiteral() {
		return "=" + p.Literal
	}
	return "prefix"
}

// A Table maps bare symbol names (leading underscore and versioning tags
// removed) to rename policies.
type Table struct {
	Name     string            `yaml:"name,omitempty"`
	Prefix   string            `yaml:"prefix"`
	Suffixes []string          `yaml:"suffixes,omitempty"`
	Symbols  map[string]Policy `yaml:"symbols"`
}

// Bare strips the leading character of a symbol name and then removes every
// occurrence of the table's suffix tags.
func (t *Table) Bare(name string) string {
	if len(name) == 0 {
		return name
	}
	bare := name[1:]
	for _, sfx := range t.Suffixes {
		if sfx != "" {
			bare = strings.ReplaceAll(bare, sfx, "")
		}
	}
	return bare
}

// Rename returns the new name for a symbol and whether the table matched it.
func (t *Table) Rename(name string) (string, bool) {
	if len(name) <= 1 {
		return name, false
	}
	bare := t.Bare(name)
	p, ok := t.Symbols[bare]
	if !ok {
		return name, false
	}
	if p.IsLiteral() {
		return p.Literal, true
	}
	return t.Prefix + bare, true
}

// Merge returns a copy of t with o's symbols overlaid. A non-empty prefix or
// suffix list in o replaces t's.
func (t *Table) Merge(o *Table) *Table {
	m := t.clone()
	if o == nil {
		return m
	}
	if o.Name != "" {
		m.Name = o.Name
	}
	if o.Prefix != "" {
		m.Prefix = o.Prefix
	}
	if len(o.Suffixes) > 0 {
		m.Suffixes = append([]string(nil), o.Suffixes...)
	}
	for k, v := range o.Symbols {
		m.Symbols[k] = v
	}
	return m
}

// WithPrefix returns a copy of t using prefix.
func (t *Table) WithPrefix(prefix string) *Table {
	m := t.clone()
	m.Prefix = prefix
	return m
}

func (t *Table) clone() *Table {
	m := &Table{
		Name:     t.Name,
		Prefix:   t.Prefix,
		Suffixes: append([]string(nil), t.Suffixes...),
		Symbols:  make(map[string]Policy, len(t.Symbols)),
	}
	for k, v := range t.Symbols {
		m.Symbols[k] = v
	}
	return m
}

// Names returns the table's bare symbol names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Symbols))
	for k := range t.Symbols {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (t *Table) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (prefix %q, %d symbols)\n", t.Name, t.Prefix, len(t.Symbols))
	for _, n := range t.Names() {
		fmt.Fprintf(&sb, "  %-16s %s\n", n, t.Symbols[n])
	}
	return sb.String()
}

// Parse decodes a YAML rename table. A missing prefix defaults to
// DefaultPrefix and a missing suffix list to UNIX2003.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rename table: %w", err)
	}
	if t.Prefix == "" {
		t.Prefix = DefaultPrefix
	}
	if t.Suffixes == nil {
		t.Suffixes = []string{UNIX2003}
	}
	if t.Symbols == nil {
		t.Symbols = make(map[string]Policy)
	}
	return &t, nil
}

// Load reads a YAML rename table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rename table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Marshal encodes t as YAML.
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}
