// Package language assigns language ids to files.
package language

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Spec defines a language entry in settings.
type Spec struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
	Filenames  []string `yaml:"filenames"`
}

// Defaults are used when settings list no languages.
var Defaults = []Spec{
	{ID: "go", Name: "Go", Extensions: []string{".go"}},
	{ID: "markdown", Name: "Markdown", Extensions: []string{".md", ".markdown"}},
	{ID: "plaintext", Name: "Plain Text", Extensions: []string{".txt", ".log"}},
	{ID: "yaml", Name: "YAML", Extensions: []string{".yaml", ".yml"}},
	{ID: "makefile", Name: "Makefile", Filenames: []string{"Makefile", "GNUmakefile"}},
}

// Detector maps paths to language ids.
type Detector struct {
	specs []Spec
	// Fallback enables lexer based detection for unknown extensions.
	Fallback bool
}

// NewDetector returns a detector over specs, or Defaults when empty.
func NewDetector(specs []Spec) *Detector {
	if len(specs) == 0 {
		specs = Defaults
	}
	return &Detector{specs: specs, Fallback: true}
}

// Lookup returns the first spec matching path by file name or extension.
func (d *Detector) Lookup(path string) (Spec, bool) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range d.specs {
		for _, f := range s.Filenames {
			if f == base {
				return s, true
			}
		}
		if ext == "" {
			continue
		}
		for _, e := range s.Extensions {
			if strings.EqualFold(e, ext) {
				return s, true
			}
		}
	}
	return Spec{}, false
}

// Detect returns the language id of path. Unknown files fall back to the
// first alias of the lexer registered for the file name, lowercased, and to
// "" when nothing matches.
func (d *Detector) Detect(path string) string {
	if path == "" {
		return ""
	}
	if s, ok := d.Lookup(path); ok {
		return s.ID
	}
	if !d.Fallback {
		return ""
	}
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return strings.ToLower(cfg.Aliases[0])
	}
	return strings.ToLower(cfg.Name)
}
