package integrity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/internal/posts"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the integrity feature is disabled.
	ErrServiceDisabled      = errors.New("integrity: service disabled")
	errPostsServiceRequired = errors.New("integrity: posts service is required")
	errOutputRequired       = errors.New("integrity: output directory or filesystem is required")
)

// Check identifiers used on reported issues.
const (
	CheckFrontMatter = "front_matter"
	CheckHTML        = "html"
	CheckLinks       = "links"
)

// Service audits a content repository and its built output.
type Service interface {
	Check(ctx context.Context, opts Options) (*Report, error)
}

// Config captures audit behaviour.
type Config struct {
	// OutputDir locates the built site when Dependencies.Output is nil.
	OutputDir string
	// BaseURL marks absolute links into the site itself as internal.
	BaseURL string
	// Schema optionally validates post front matter as a JSON schema
	// document (compiled with jsonschema, draft 2020-12).
	Schema map[string]any
	// External configures outbound link verification.
	External ExternalConfig
}

// ExternalConfig bounds outbound link checks. Disabled by default so audits
// stay network free.
type ExternalConfig struct {
	Enabled   bool
	Timeout   time.Duration
	Workers   int
	UserAgent string
}

// Options narrows the scope of a single audit run.
type Options struct {
	SkipFrontMatter bool
	SkipHTML        bool
	SkipLinks       bool
	// CheckExternal verifies outbound links for this run even when the
	// configured default leaves them unchecked.
	CheckExternal bool
}

// Dependencies lists the collaborators required by the checker.
type Dependencies struct {
	Posts  posts.Service
	Output fs.FS
	Client *http.Client
	Logger interfaces.Logger
}

// NewService wires an integrity checker with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &service{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
}

func (s *service) Check(ctx context.Context, opts Options) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	logging.WithFields(s.logger, map[string]any{
		"front_matter": !opts.SkipFrontMatter,
		"html":         !opts.SkipHTML,
		"links":        !opts.SkipLinks,
		"external":     opts.CheckExternal || s.cfg.External.Enabled,
	}).Debug("integrity.check.started")

	report := &Report{}

	if !opts.SkipFrontMatter {
		if s.deps.Posts == nil {
			return nil, errPostsServiceRequired
		}
		if err := s.auditFrontMatter(ctx, report); err != nil {
			return nil, err
		}
	}

	if !opts.SkipHTML || !opts.SkipLinks {
		tree, err := s.outputTree()
		if err != nil {
			return nil, err
		}
		if err := s.auditOutput(ctx, tree, opts, report); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)

	logging.WithFields(s.logger, map[string]any{
		"posts":    report.CheckedPosts,
		"files":    report.CheckedFiles,
		"links":    report.CheckedLinks,
		"external": report.ExternalLinks,
		"errors":   report.ErrorCount(),
		"warnings": report.WarningCount(),
		"duration": report.Duration.String(),
	}).Info("integrity.check.completed")

	return report, nil
}

// outputTree selects the built site filesystem: an injected fs.FS wins,
// otherwise the configured output dir is opened from disk.
func (s *service) outputTree() (fs.FS, error) {
	if s.deps.Output != nil {
		return s.deps.Output, nil
	}
	dir := strings.TrimSpace(s.cfg.OutputDir)
	if dir == "" {
		return nil, errOutputRequired
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("integrity: open output dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("integrity: output path %q is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func (s *service) auditOutput(ctx context.Context, tree fs.FS, opts Options, report *Report) error {
	files, htmlFiles, err := collectOutputFiles(ctx, tree)
	if err != nil {
		return err
	}
	report.CheckedFiles = len(files)

	var external []externalRef
	for _, name := range htmlFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := fs.ReadFile(tree, name)
		if err != nil {
			return fmt.Errorf("integrity: read %s: %w", name, err)
		}
		if !opts.SkipHTML {
			report.Issues = append(report.Issues, auditDocument(name, content)...)
		}
		if !opts.SkipLinks {
			resolved := s.resolveLinks(name, content, files)
			report.CheckedLinks += resolved.checked
			report.Issues = append(report.Issues, resolved.issues...)
			external = append(external, resolved.external...)
		}
	}

	if !opts.SkipLinks && (opts.CheckExternal || s.cfg.External.Enabled) {
		issues, unique, err := s.checkExternalLinks(ctx, external)
		if err != nil {
			return err
		}
		report.ExternalLinks = unique
		report.Issues = append(report.Issues, issues...)
	}
	return nil
}

// collectOutputFiles walks the output tree once, returning the set of every
// built file (link targets) and the sorted list of HTML documents to audit.
func collectOutputFiles(ctx context.Context, tree fs.FS) (map[string]struct{}, []string, error) {
	files := map[string]struct{}{}
	var htmlFiles []string
	err := fs.WalkDir(tree, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		files[name] = struct{}{}
		if strings.EqualFold(path.Ext(name), ".html") {
			htmlFiles = append(htmlFiles, name)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("integrity: walk output: %w", err)
	}
	sort.Strings(htmlFiles)
	return files, htmlFiles, nil
}

type disabledService struct{}

func (disabledService) Check(context.Context, Options) (*Report, error) {
	return nil, ErrServiceDisabled
}
