package rules

import (
	"fmt"
	"strconv"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// RawGroup is a rule group as written in a settings file.
type RawGroup struct {
	Name          string    `yaml:"name"`
	Description   string    `yaml:"description"`
	Active        *bool     `yaml:"active"`
	LanguageIDs   []string  `yaml:"languageIds"`
	LanguageRegex string    `yaml:"languageRegex"`
	FilenameRegex string    `yaml:"filenameRegex"`
	Rules         []RawRule `yaml:"rules"`
}

// RawRule is one pattern with its decorations and nested rules. Group selects
// which group of the parent match a nested rule scans; it is ignored at the
// top level.
type RawRule struct {
	Pattern     Text            `yaml:"pattern"`
	Flags       *string         `yaml:"flags"`
	Limit       *Int            `yaml:"limit"`
	Group       GroupRef        `yaml:"group"`
	Decorations []RawDecoration `yaml:"decorations"`
	Rules       []RawRule       `yaml:"rules"`
}

// RawDecoration styles one group of a match.
type RawDecoration struct {
	Group    GroupRef `yaml:"group"`
	Style    Style    `yaml:",inline"`
	Tooltip  Text     `yaml:"tooltip"`
	Priority Int      `yaml:"priority"`
}

// Style is the visual part of a decoration. Colors are names or #rrggbb.
type Style struct {
	Color           string `yaml:"color"`
	BackgroundColor string `yaml:"backgroundColor"`
	Bold            bool   `yaml:"bold"`
	Italic          bool   `yaml:"italic"`
	Underline       bool   `yaml:"underline"`
	Strikethrough   bool   `yaml:"strikethrough"`
	Reverse         bool   `yaml:"reverse"`
	Dim             bool   `yaml:"dim"`
}

// IsZero reports whether the style changes nothing.
func (s Style) IsZero() bool { return s == Style{} }

// GroupRef names a capturing group of the author's pattern either by number
// or by name. The zero value is group 0, the whole match.
type GroupRef struct {
	Index int
	Name  string
}

// Index refers to a group by number.
func Index(i int) GroupRef { return GroupRef{Index: i} }

// Name refers to a named group.
func Name(s string) GroupRef { return GroupRef{Name: s} }

// Named reports whether the reference is by name.
func (r GroupRef) Named() bool { return r.Name != "" }

func (r GroupRef) String() string {
	if r.Named() {
		return strconv.Quote(r.Name)
	}
	return strconv.Itoa(r.Index)
}

// UnmarshalYAML decodes integers as group numbers and any other scalar as a
// group name.
func (r *GroupRef) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: group must be a number or a name", n.Line)
	}
	if n.Tag == "!!int" {
		var i int
		if err := n.Decode(&i); err != nil {
			return err
		}
		if i < 0 {
			return fmt.Errorf("line %d: negative group %d", n.Line, i)
		}
		*r = Index(i)
		return nil
	}
	if n.Value == "" {
		*r = Index(0)
		return nil
	}
	*r = Name(n.Value)
	return nil
}

// Text is a string that may also be written as a list of strings, which are
// concatenated without separator.
type Text string

func (t *Text) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*t = Text(n.Value)
		return nil
	case yaml.SequenceNode:
		var parts []any
		if err := n.Decode(&parts); err != nil {
			return err
		}
		ss, err := cast.ToStringSliceE(parts)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		var s string
		for _, p := range ss {
			s += p
		}
		*t = Text(s)
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
}

// Int is an integer that also accepts quoted numbers ("50").
type Int int

func (i *Int) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", n.Line)
	}
	v, err := cast.ToIntE(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*i = Int(v)
	return nil
}

// Decode parses a YAML document holding a list of rule groups.
func Decode(data []byte) ([]RawGroup, error) {
	var groups []RawGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
