package server

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

// fileHandler serves a generated site from an fs.FS. Directory URLs resolve
// through index.html the way the generator lays pages out, and misses render
// the site's own 404 page when one was built.
type fileHandler struct {
	root     fs.FS
	notFound string
	logger   interfaces.Logger
}

func newFileHandler(root fs.FS, notFound string, logger interfaces.Logger) http.Handler {
	return &fileHandler{
		root:     root,
		notFound: strings.Trim(strings.TrimSpace(notFound), "/"),
		logger:   logger,
	}
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.serve(recorder, r)

	logging.WithFields(h.logger, map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": recorder.status,
	}).Debug("server.request")
}

func (h *fileHandler) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	// Clean resolves dot segments against the URL root, so a crafted
	// ../ sequence can never reach outside the output tree.
	canonical := path.Clean("/" + r.URL.Path)
	name := strings.TrimPrefix(canonical, "/")
	if name == "" {
		name = "index.html"
	}

	info, err := fs.Stat(h.root, name)
	if err != nil {
		h.serveNotFound(w, r)
		return
	}

	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, canonical+"/", http.StatusMovedPermanently)
			return
		}
		name = path.Join(name, "index.html")
		info, err = fs.Stat(h.root, name)
		if err != nil {
			h.serveNotFound(w, r)
			return
		}
	}

	h.serveFile(w, r, name, info.ModTime())
}

func (h *fileHandler) serveFile(w http.ResponseWriter, r *http.Request, name string, modTime time.Time) {
	data, err := fs.ReadFile(h.root, name)
	if err != nil {
		h.serveNotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
}

func (h *fileHandler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	if h.notFound != "" {
		if data, err := fs.ReadFile(h.root, h.notFound); err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = w.Write(data)
			}
			return
		}
	}
	http.NotFound(w, r)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
