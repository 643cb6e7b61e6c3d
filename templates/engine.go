// Package templates compiles the site's html/template sets: a shared set
// (layout, partials) cloned once per page file so every page can define
// its own "content" block.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Set names template files inside an fs.FS.
type Set struct {
	Name     string
	FS       fs.FS
	Patterns []string
}

// Engine holds the compiled page clones.
type Engine struct {
	mu     sync.RWMutex
	funcs  template.FuncMap
	base   *template.Template
	byName map[string]*template.Template
	logger *zap.Logger
}

// New returns an engine with Funcs() plus extra.
func New(extra template.FuncMap, logger *zap.Logger) *Engine {
	funcs := Funcs()
	for k, v := range extra {
		funcs[k] = v
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		funcs:  funcs,
		byName: map[string]*template.Template{},
		logger: logger,
	}
}

// Boot parses shared, then compiles one clone of it per file in pages.
// Each name a page file defines resolves to that file's clone.
func (e *Engine) Boot(shared, pages Set) error {
	base := template.New(shared.Name).Funcs(e.funcs)
	files, err := globAll(shared.FS, shared.Patterns)
	if err != nil {
		return err
	}
	for _, p := range files {
		src, err := fs.ReadFile(shared.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if _, err := base.Parse(string(src)); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
	}
	e.base = base

	pageFiles, err := globAll(pages.FS, pages.Patterns)
	if err != nil {
		return err
	}
	if len(pageFiles) == 0 {
		return fmt.Errorf("templates: set %q matched no files", pages.Name)
	}

	srcs := make(map[string]string, len(pageFiles))
	for _, p := range pageFiles {
		b, err := fs.ReadFile(pages.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		srcs[p] = string(b)
	}

	byName := map[string]*template.Template{}
	for _, page := range pageFiles {
		clone, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone %s: %w", shared.Name, err)
		}
		for _, p := range pageFiles {
			text := srcs[p]
			if p != page {
				text = hideContent(text, p)
			}
			if _, err := clone.Parse(text); err != nil {
				return fmt.Errorf("parse %s (for %s): %w", p, page, err)
			}
		}
		for name := range definedNames(srcs[page]) {
			if name != "content" {
				byName[name] = clone
			}
		}
		e.logger.Debug("template page compiled", zap.String("page", path.Base(page)))
	}

	e.mu.Lock()
	e.byName = byName
	e.mu.Unlock()
	return nil
}

var (
	reContent = regexp.MustCompile(`{{-?\s*define\s+"content"\s*-?}}`)
	reDefine  = regexp.MustCompile(`{{-?\s*define\s+"([^"]+)"`)
)

// hideContent renames another page's "content" block so it cannot
// override the page being compiled.
func hideContent(src, file string) string {
	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	return reContent.ReplaceAllString(src, `{{ define "_content_`+name+`" }}`)
}

func definedNames(src string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, m := range reDefine.FindAllStringSubmatch(src, -1) {
		out[m[1]] = struct{}{}
	}
	return out
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Has reports whether name is a compiled page or snippet.
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.byName[name]
	return ok
}

// Execute renders template name into w. Output is buffered so a failed
// render writes nothing.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	e.mu.RLock()
	t, ok := e.byName[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
