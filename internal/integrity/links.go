package integrity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// linkAttributes maps the audited elements to the attribute carrying the target.
var linkAttributes = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
}

type linkRef struct {
	tag   string
	value string
}

type externalRef struct {
	file string
	url  string
}

type resolvedLinks struct {
	checked  int
	issues   []Issue
	external []externalRef
}

func (s *service) resolveLinks(name string, content []byte, files map[string]struct{}) resolvedLinks {
	out := resolvedLinks{}
	refs, err := extractLinks(content)
	if err != nil {
		out.issues = append(out.issues, Issue{
			Check:    CheckLinks,
			Severity: SeverityError,
			Path:     name,
			Message:  fmt.Sprintf("parse html: %v", err),
		})
		return out
	}

	base := strings.TrimRight(strings.TrimSpace(s.cfg.BaseURL), "/")

	for _, ref := range refs {
		raw := strings.TrimSpace(ref.value)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		lowered := strings.ToLower(raw)
		if strings.HasPrefix(lowered, "mailto:") ||
			strings.HasPrefix(lowered, "tel:") ||
			strings.HasPrefix(lowered, "javascript:") ||
			strings.HasPrefix(lowered, "data:") {
			continue
		}
		out.checked++

		// Absolute links into the site itself audit as internal paths.
		if base != "" && (raw == base || strings.HasPrefix(raw, base+"/")) {
			raw = strings.TrimPrefix(raw, base)
			if raw == "" {
				raw = "/"
			}
		}

		parsed, parseErr := url.Parse(raw)
		if parseErr != nil {
			out.issues = append(out.issues, Issue{
				Check:    CheckLinks,
				Severity: SeverityError,
				Path:     name,
				Ref:      ref.value,
				Message:  fmt.Sprintf("malformed url in <%s>: %v", ref.tag, parseErr),
			})
			continue
		}

		switch {
		case parsed.Scheme == "http" || parsed.Scheme == "https":
			out.external = append(out.external, externalRef{file: name, url: raw})
			continue
		case parsed.Scheme == "" && parsed.Host != "":
			// Protocol relative URLs probe over https.
			out.external = append(out.external, externalRef{file: name, url: "https:" + raw})
			continue
		case parsed.Scheme != "":
			continue
		}

		target := parsed.Path
		if target == "" {
			continue
		}
		if !resolveInternal(name, target, files) {
			out.issues = append(out.issues, Issue{
				Check:    CheckLinks,
				Severity: SeverityError,
				Path:     name,
				Ref:      ref.value,
				Message:  fmt.Sprintf("<%s> target not found in build output", ref.tag),
			})
		}
	}
	return out
}

// resolveInternal reports whether target, linked from the document at from,
// maps onto a built file. Directory targets resolve through index.html.
func resolveInternal(from, target string, files map[string]struct{}) bool {
	var resolved string
	if strings.HasPrefix(target, "/") {
		resolved = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		resolved = path.Join(path.Dir(from), target)
	}
	if resolved == "." {
		resolved = ""
	}
	if strings.HasPrefix(resolved, "..") {
		return false
	}
	if resolved == "" {
		_, ok := files["index.html"]
		return ok
	}
	if _, ok := files[resolved]; ok {
		return true
	}
	_, ok := files[resolved+"/index.html"]
	return ok
}

func extractLinks(content []byte) ([]linkRef, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	var refs []linkRef
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttributes[n.Data]; ok {
				if value := getAttr(n, attr); value != "" {
					refs = append(refs, linkRef{tag: n.Data, value: value})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

const defaultUserAgent = "go-press/1.0 (+https://github.com/goliatone/go-press)"

func (s *service) checkExternalLinks(ctx context.Context, refs []externalRef) ([]Issue, int, error) {
	if len(refs) == 0 {
		return nil, 0, nil
	}

	firstSeen := map[string]string{}
	var targets []string
	for _, ref := range refs {
		if _, ok := firstSeen[ref.url]; ok {
			continue
		}
		firstSeen[ref.url] = ref.file
		targets = append(targets, ref.url)
	}
	sort.Strings(targets)

	client := s.deps.Client
	if client == nil {
		timeout := s.cfg.External.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	workers := s.cfg.External.Workers
	if workers <= 0 {
		workers = 4
	}
	agent := strings.TrimSpace(s.cfg.External.UserAgent)
	if agent == "" {
		agent = defaultUserAgent
	}

	var mu sync.Mutex
	var issues []Issue
	hosts := newHostLocks()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, target := range targets {
		target := target
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			release := hosts.acquire(hostOf(target))
			status, err := probe(egCtx, client, agent, target)
			release()
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				mu.Lock()
				issues = append(issues, Issue{
					Check:    CheckLinks,
					Severity: SeverityWarning,
					Path:     firstSeen[target],
					Ref:      target,
					Message:  fmt.Sprintf("external link unreachable: %v", err),
				})
				mu.Unlock()
				return nil
			}
			if status >= http.StatusBadRequest {
				mu.Lock()
				issues = append(issues, Issue{
					Check:    CheckLinks,
					Severity: SeverityWarning,
					Path:     firstSeen[target],
					Ref:      target,
					Message:  fmt.Sprintf("external link returned HTTP %d", status),
				})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Ref < issues[j].Ref
	})
	return issues, len(targets), nil
}

// probe issues a HEAD request and falls back to GET for hosts that reject or
// mishandle HEAD.
func probe(ctx context.Context, client *http.Client, agent, target string) (int, error) {
	status, err := request(ctx, client, agent, http.MethodHead, target)
	if err == nil && status != http.StatusMethodNotAllowed && status != http.StatusNotImplemented {
		return status, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return request(ctx, client, agent, http.MethodGet, target)
}

func request(ctx context.Context, client *http.Client, agent, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", agent)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	return resp.StatusCode, nil
}

// hostLocks serializes probes per host so concurrent checking stays polite.
type hostLocks struct {
	mu    sync.Mutex
	hosts map[string]*sync.Mutex
}

func newHostLocks() *hostLocks {
	return &hostLocks{hosts: map[string]*sync.Mutex{}}
}

func (l *hostLocks) acquire(host string) func() {
	l.mu.Lock()
	lock, ok := l.hosts[host]
	if !ok {
		lock = &sync.Mutex{}
		l.hosts[host] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func hostOf(target string) string {
	if parsed, err := url.Parse(target); err == nil {
		return parsed.Host
	}
	return target
}
