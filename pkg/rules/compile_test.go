package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"example.com/regexhighlight/pkg/pattern"
)

func compile(t *testing.T, src string) (*Forest, []error) {
	t.Helper()
	raw, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c := &Compiler{DefaultFlags: "gm", DefaultLimit: 1000, Scope: "user"}
	return c.Compile(raw)
}

func TestDecodeLooseValues(t *testing.T) {
	raw, err := Decode([]byte(`
- name: todo
  languageIds: [go]
  rules:
    - pattern: ["(TODO)", ":(.*)"]
      limit: "50"
      decorations:
        - group: 1
          color: yellow
          bold: true
          tooltip: [a, b, 3]
        - group: rest
          priority: "2"
      rules:
        - group: 2
          pattern: \w+
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r := raw[0].Rules[0]
	if r.Pattern != "(TODO):(.*)" {
		t.Fatalf("pattern = %q", r.Pattern)
	}
	if r.Limit == nil || *r.Limit != 50 {
		t.Fatalf("limit = %v", r.Limit)
	}
	want := []RawDecoration{
		{Group: Index(1), Style: Style{Color: "yellow", Bold: true}, Tooltip: "ab3"},
		{Group: Name("rest"), Priority: 2},
	}
	if diff := cmp.Diff(want, r.Decorations); diff != "" {
		t.Fatalf("decorations (-want +got):\n%s", diff)
	}
	if r.Rules[0].Group != Index(2) {
		t.Fatalf("nested group = %v", r.Rules[0].Group)
	}
	if raw[0].Active != nil {
		t.Fatalf("active should be unset")
	}
}

func TestDecorationsSortedByPriorityTiesReversed(t *testing.T) {
	f, errs := compile(t, `
- rules:
    - pattern: (a)(b)(c)
      decorations:
        - {group: 1, color: red}
        - {group: 2, color: green, priority: 5}
        - {group: 3, color: blue}
        - {group: 0, color: white, priority: 5}
`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	var got []string
	for _, d := range f.Groups[0].Rules[0].Decorations {
		got = append(got, d.Style.Color)
	}
	want := []string{"white", "green", "blue", "red"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	for i, d := range f.Decorations {
		if d.ID != i {
			t.Fatalf("decoration %d has id %d", i, d.ID)
		}
	}
}

func TestUnknownGroupSkipsOnlyThatRule(t *testing.T) {
	f, errs := compile(t, `
- rules:
    - pattern: (a)
      decorations: [{group: 2, color: red}]
    - pattern: (?<word>\w+)
      decorations: [{group: word, color: blue}]
    - pattern: x
      decorations: [{group: nope}]
`)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	var re *RuleError
	if !errors.As(errs[0], &re) || re.Path != "user/[0]/rules/[0]" {
		t.Fatalf("unexpected first error %v", errs[0])
	}
	var ug *UnknownGroupError
	if !errors.As(errs[0], &ug) || ug.Ref != Index(2) || ug.Pattern != "(a)" {
		t.Fatalf("expected UnknownGroupError, got %v", errs[0])
	}
	if !errors.As(errs[1], &ug) || ug.Ref != Name("nope") {
		t.Fatalf("expected UnknownGroupError for name, got %v", errs[1])
	}
	rs := f.Groups[0].Rules
	if len(rs) != 1 || rs[0].Pattern.Source != `(?<word>\w+)` {
		t.Fatalf("expected only the named rule to survive, got %d rules", len(rs))
	}
	if len(f.Decorations) != 1 || f.Decorations[0].Group != 1 {
		t.Fatalf("unexpected decoration table: %+v", f.Decorations)
	}
}

func TestMalformedPatternReported(t *testing.T) {
	f, errs := compile(t, `
- rules:
    - pattern: (a
    - pattern: b
`)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	var pe *pattern.PatternError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("expected PatternError, got %v", errs[0])
	}
	if len(f.Groups[0].Rules) != 1 {
		t.Fatalf("sibling rule should compile")
	}
}

func TestNestedRulesResolveAgainstParent(t *testing.T) {
	f, errs := compile(t, `
- rules:
    - pattern: (\w+)@(\w+)
      decorations: [{group: 0, backgroundColor: "#202020"}]
      rules:
        - group: 2
          pattern: ^\w
          decorations: [{color: red}]
        - group: 3
          pattern: x
`)
	if len(errs) != 1 {
		t.Fatalf("expected the group 3 reference to fail, got %v", errs)
	}
	var re *RuleError
	if !errors.As(errs[0], &re) || re.Path != "user/[0]/rules/[0]/rules/[1]" {
		t.Fatalf("unexpected error %v", errs[0])
	}
	parent := f.Groups[0].Rules[0]
	if len(parent.Rules) != 1 {
		t.Fatalf("expected one nested rule")
	}
	child := parent.Rules[0]
	if child.Level != 1 || child.Group != 3 {
		t.Fatalf("child level %d group %d, want 1 and 3", child.Level, child.Group)
	}
	// nested decorations are numbered before the parent's own
	if child.Decorations[0].ID != 0 || parent.Decorations[0].ID != 1 {
		t.Fatalf("unexpected ids: child %d parent %d", child.Decorations[0].ID, parent.Decorations[0].ID)
	}
	if child.Decorations[0].ZIndex <= parent.Decorations[0].ZIndex {
		t.Fatalf("nested decoration should stack above its parent: child %d parent %d", child.Decorations[0].ZIndex, parent.Decorations[0].ZIndex)
	}
}

func TestDefaultsAndOverrides(t *testing.T) {
	f, errs := compile(t, `
- active: false
  languageRegex: ^go$
  rules:
    - pattern: a
      flags: i
      limit: 0
    - pattern: b
`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	g := f.Groups[0]
	if g.Active {
		t.Fatalf("group should be inactive")
	}
	if ok, _ := g.LanguageRegex.MatchString("go"); !ok {
		t.Fatalf("language regex should match go")
	}
	if ok, _ := g.FilenameRegex.MatchString("/any/path"); !ok {
		t.Fatalf("default filename regex should match anything")
	}
	if g.Rules[0].Pattern.Flags != "i" || g.Rules[0].Limit != 0 {
		t.Fatalf("override not applied: %q %d", g.Rules[0].Pattern.Flags, g.Rules[0].Limit)
	}
	if g.Rules[1].Pattern.Flags != "gm" || g.Rules[1].Limit != 1000 {
		t.Fatalf("defaults not applied: %q %d", g.Rules[1].Pattern.Flags, g.Rules[1].Limit)
	}
	if f.Rules() != 2 {
		t.Fatalf("Rules() = %d", f.Rules())
	}
}

func TestInvalidGroupRegexSkipsGroup(t *testing.T) {
	f, errs := compile(t, `
- filenameRegex: "([a"
  rules: [{pattern: a}]
- rules: [{pattern: b}]
`)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if len(f.Groups) != 1 || f.Groups[0].Path != "user/[1]" {
		t.Fatalf("expected only the second group, got %d", len(f.Groups))
	}
}

func TestZIndex(t *testing.T) {
	if ZIndex(0, 0) != -1000 || ZIndex(1, 3) != -897 {
		t.Fatalf("unexpected z-index values %d %d", ZIndex(0, 0), ZIndex(1, 3))
	}
}
