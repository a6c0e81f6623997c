package gotemplate

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// New returns a generator-compatible template renderer backed by html/template.
// Templates under baseDir are addressed by their slash-relative path, so a
// theme template record naming "templates/post.html" resolves to the file at
// baseDir/templates/post.html.
func New(baseDir string) (interfaces.TemplateRenderer, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("inspect template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path %q is not a directory", baseDir)
	}
	return &renderer{
		baseDir: baseDir,
		filters: map[string]func(any, any) (any, error){},
		globals: map[string]any{},
	}, nil
}

type renderer struct {
	baseDir string

	once sync.Once
	tpl  *template.Template
	err  error

	mu      sync.Mutex
	parsed  bool
	filters map[string]func(any, any) (any, error)
	globals map[string]any
}

func (r *renderer) ensureTemplates() (*template.Template, error) {
	r.once.Do(func() {
		r.mu.Lock()
		r.parsed = true
		funcs := r.funcMapLocked()
		r.mu.Unlock()

		var files []string
		err := filepath.WalkDir(r.baseDir, func(file string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(file))
			if ext != ".html" && ext != ".tmpl" {
				return nil
			}
			files = append(files, file)
			return nil
		})
		if err != nil {
			r.err = err
			return
		}
		if len(files) == 0 {
			r.err = fmt.Errorf("no templates found in %s", r.baseDir)
			return
		}

		root := template.New("press-theme").Funcs(funcs)
		for _, file := range files {
			rel, relErr := filepath.Rel(r.baseDir, file)
			if relErr != nil {
				r.err = relErr
				return
			}
			name := filepath.ToSlash(rel)
			content, readErr := os.ReadFile(file)
			if readErr != nil {
				r.err = readErr
				return
			}
			if _, parseErr := root.New(name).Parse(string(content)); parseErr != nil {
				r.err = fmt.Errorf("parse template %s: %w", name, parseErr)
				return
			}
			// Register a base name alias so callers can omit the directory.
			// The first file to claim an ambiguous base name keeps it; the
			// slash-relative path always resolves exactly.
			if base := path.Base(name); base != name && root.Lookup(base) == nil {
				if _, parseErr := root.New(base).Parse(string(content)); parseErr != nil {
					r.err = fmt.Errorf("parse template %s: %w", name, parseErr)
					return
				}
			}
		}
		r.tpl = root
	})
	return r.tpl, r.err
}

func (r *renderer) Render(name string, data any, out ...io.Writer) (string, error) {
	return r.RenderTemplate(name, data, out...)
}

func (r *renderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	tpl, err := r.ensureTemplates()
	if err != nil {
		return "", err
	}
	target := tpl.Lookup(name)
	if target == nil {
		target = tpl.Lookup(path.Base(name))
	}
	if target == nil {
		return "", fmt.Errorf("template %q not found", name)
	}

	var writer io.Writer
	var buffer *bytes.Buffer
	if len(out) > 0 && out[0] != nil {
		writer = out[0]
	} else {
		buffer = &bytes.Buffer{}
		writer = buffer
	}

	if err := target.Execute(writer, data); err != nil {
		return "", err
	}
	if buffer != nil {
		return buffer.String(), nil
	}
	return "", nil
}

func (r *renderer) RenderString(content string, data any, out ...io.Writer) (string, error) {
	r.mu.Lock()
	funcs := r.funcMapLocked()
	r.mu.Unlock()

	tpl, err := template.New("inline").Funcs(funcs).Parse(content)
	if err != nil {
		return "", err
	}

	var writer io.Writer
	var buffer *bytes.Buffer
	if len(out) > 0 && out[0] != nil {
		writer = out[0]
	} else {
		buffer = &bytes.Buffer{}
		writer = buffer
	}

	if err := tpl.Execute(writer, data); err != nil {
		return "", err
	}
	if buffer != nil {
		return buffer.String(), nil
	}
	return "", nil
}

// RegisterFilter exposes fn to templates as a function taking the piped value
// and an optional parameter. Filters must be registered before the first
// render; the parsed template set cannot grow new functions afterwards.
func (r *renderer) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("filter name is required")
	}
	if fn == nil {
		return fmt.Errorf("filter %q requires a function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parsed {
		return fmt.Errorf("templates already parsed; register filter %q before rendering", name)
	}
	r.filters[name] = fn
	return nil
}

// GlobalContext merges the provided map into the values served by the global
// template function. Unlike filters it may be called between renders.
func (r *renderer) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch typed := data.(type) {
	case map[string]any:
		for key, value := range typed {
			r.globals[key] = value
		}
	case map[string]string:
		for key, value := range typed {
			r.globals[key] = value
		}
	default:
		return fmt.Errorf("global context expects a map, got %T", data)
	}
	return nil
}

func (r *renderer) funcMapLocked() template.FuncMap {
	funcs := template.FuncMap{
		"safeHTML":   func(value any) template.HTML { return toHTML(value) },
		"formatDate": formatDate,
		"join":       func(values []string, sep string) string { return strings.Join(values, sep) },
		"global":     r.globalValue,
	}
	for name, fn := range r.filters {
		filter := fn
		funcs[name] = func(input any, param ...any) (any, error) {
			var arg any
			if len(param) > 0 {
				arg = param[0]
			}
			return filter(input, arg)
		}
	}
	return funcs
}

func (r *renderer) globalValue(key string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.globals[key]
}

func toHTML(value any) template.HTML {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case template.HTML:
		return v
	case string:
		return template.HTML(v)
	default:
		return template.HTML(fmt.Sprint(v))
	}
}

// formatDate renders time.Time and *time.Time values; nil and zero times
// produce an empty string so templates can feed optional publish dates
// straight through.
func formatDate(value any, layout string) string {
	var ts time.Time
	switch typed := value.(type) {
	case time.Time:
		ts = typed
	case *time.Time:
		if typed == nil {
			return ""
		}
		ts = *typed
	default:
		return ""
	}
	if ts.IsZero() {
		return ""
	}
	if strings.TrimSpace(layout) == "" {
		layout = "January 2, 2006"
	}
	return ts.Format(layout)
}
