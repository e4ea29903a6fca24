// Command regexhl highlights files with regex rules, either in a terminal
// viewer or as JSON lines on stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"example.com/regexhighlight/internal/app"
	"example.com/regexhighlight/pkg/config"
	"example.com/regexhighlight/pkg/document"
	"example.com/regexhighlight/pkg/highlighter"
	"example.com/regexhighlight/pkg/language"
	"example.com/regexhighlight/pkg/logs"
	"example.com/regexhighlight/pkg/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// record is one highlighted range in -dump output.
type record struct {
	File       string `json:"file"`
	Scope      string `json:"scope"`
	Decoration int    `json:"decoration"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Text       string `json:"text"`
	Tooltip    string `json:"tooltip,omitempty"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("regexhl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "settings file (default ~/.regexhl/config.yaml)")
	workspace := fs.String("workspace", ".", "directory holding "+config.WorkspaceFile)
	dump := fs.Bool("dump", false, "print highlights as JSON lines instead of starting the viewer")
	withMetrics := fs.Bool("metrics", false, "write scan and cache counters to stderr on exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*cfgPath, *workspace)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := logs.NewFromEnv()
	defer logger.Close()

	var m *metrics.Metrics
	var opts []highlighter.Option
	if *withMetrics {
		m = metrics.New()
		opts = append(opts, highlighter.WithMetrics(m))
	}

	var code int
	if *dump {
		code = dumpFiles(cfg, logger, opts, fs.Args(), stdout, stderr)
	} else {
		code = view(cfg, logger, opts, *workspace, fs.Args(), stderr)
	}
	if m != nil {
		if err := m.WriteText(stderr); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}
	return code
}

func loadConfig(path, workspace string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path == "" {
		cfg, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}
	if workspace != "" {
		if err := cfg.LoadWorkspace(workspace); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func dumpFiles(cfg *config.Config, logger *logs.Logger, opts []highlighter.Option, files []string, stdout, stderr io.Writer) int {
	ctx := highlighter.New(cfg, logger, opts...)
	for _, err := range ctx.Errors() {
		fmt.Fprintln(stderr, "warning:", err)
	}
	det := language.NewDetector(cfg.Languages)
	enc := json.NewEncoder(stdout)
	code := 0
	for _, path := range files {
		doc, err := document.Load(path, det.Detect(path))
		if err != nil {
			fmt.Fprintln(stderr, err)
			code = 1
			continue
		}
		ctx.Update(doc)
		hs := ctx.Highlights(doc)
		sort.SliceStable(hs, func(i, j int) bool { return hs[i].Start < hs[j].Start })
		for _, h := range hs {
			line, col := doc.LineCol(h.Start)
			rec := record{
				File:       path,
				Scope:      h.Scope,
				Decoration: h.Decoration.ID,
				Start:      h.Start,
				End:        h.End,
				Line:       line + 1,
				Col:        col + 1,
				Text:       doc.Text()[h.Start:h.End],
				Tooltip:    h.Tooltip,
			}
			if err := enc.Encode(rec); err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
		}
		ctx.Close(doc)
	}
	return code
}

func view(cfg *config.Config, logger *logs.Logger, opts []highlighter.Option, workspace string, files []string, stderr io.Writer) int {
	r := app.New(cfg, logger, opts...)
	r.Dir = workspace
	for _, path := range files {
		if err := r.LoadFile(path); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if len(r.Editor.Docs) > 0 {
		r.Editor.Current = 0
		r.Highlight.Show(r.Editor.Docs[0].Doc)
	}
	if err := r.Run(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
