package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".press-manifest.json"
	manifestFileVersion = 1

	// contentAssetOwner keys content-directory assets in the manifest; theme
	// assets use the theme ID instead.
	contentAssetOwner = "content"
)

// buildManifest stores metadata about the last successful build to support
// incremental runs. Pages are keyed by their site-relative route, which is
// unique across kinds and locales.
type buildManifest struct {
	Version     int                        `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Pages       map[string]manifestPage    `json:"pages"`
	Assets      map[string]manifestAsset   `json:"assets"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

type manifestPage struct {
	Kind         string    `json:"kind"`
	Slug         string    `json:"slug,omitempty"`
	Locale       string    `json:"locale"`
	Route        string    `json:"route"`
	Output       string    `json:"output"`
	Template     string    `json:"template"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	Key      string    `json:"key"`
	Owner    string    `json:"owner"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version:     manifestFileVersion,
		Pages:       map[string]manifestPage{},
		Assets:      map[string]manifestAsset{},
		Metadata:    map[string]json.RawMessage{},
		GeneratedAt: time.Time{},
	}
}

// manifestFile is the on-disk layout. Entries are flattened to sorted slices
// so the emitted JSON stays deterministic; parse rebuilds the lookup maps.
type manifestFile struct {
	Version     int                        `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Pages       []manifestPage             `json:"pages"`
	Assets      []manifestAsset            `json:"assets"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest := newBuildManifest()
	if file.Version != 0 {
		manifest.Version = file.Version
	}
	manifest.GeneratedAt = file.GeneratedAt
	if file.Metadata != nil {
		manifest.Metadata = file.Metadata
	}
	for _, entry := range file.Pages {
		manifest.setPage(entry)
	}
	for _, entry := range file.Assets {
		manifest.setAsset(entry)
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	file := manifestFile{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Metadata:    m.Metadata,
	}
	if file.Version == 0 {
		file.Version = manifestFileVersion
	}
	if len(m.Pages) > 0 {
		file.Pages = make([]manifestPage, 0, len(m.Pages))
		for _, entry := range m.Pages {
			file.Pages = append(file.Pages, entry)
		}
		sort.Slice(file.Pages, func(i, j int) bool {
			if file.Pages[i].Route == file.Pages[j].Route {
				return file.Pages[i].Locale < file.Pages[j].Locale
			}
			return file.Pages[i].Route < file.Pages[j].Route
		})
	}
	if len(m.Assets) > 0 {
		file.Assets = make([]manifestAsset, 0, len(m.Assets))
		for _, entry := range m.Assets {
			file.Assets = append(file.Assets, entry)
		}
		sort.Slice(file.Assets, func(i, j int) bool {
			return file.Assets[i].Key < file.Assets[j].Key
		})
	}
	return json.MarshalIndent(file, "", "  ")
}

func (m *buildManifest) pageKey(route string) string {
	return strings.ToLower(strings.TrimSpace(route))
}

func (m *buildManifest) assetKey(owner, source string) string {
	return strings.ToLower(strings.TrimSpace(owner)) + "::" + strings.TrimSpace(source)
}

func (m *buildManifest) lookupPage(route string) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[m.pageKey(route)]
	return entry, ok
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m == nil {
		return
	}
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	m.Pages[m.pageKey(entry.Route)] = entry
}

func (m *buildManifest) shouldSkipPage(route, hash, output string) bool {
	entry, ok := m.lookupPage(route)
	if !ok {
		return false
	}
	if entry.Hash != hash {
		return false
	}
	if strings.TrimSpace(entry.Output) != strings.TrimSpace(output) {
		return false
	}
	return true
}

func (m *buildManifest) lookupAsset(owner, source string) (manifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return manifestAsset{}, false
	}
	entry, ok := m.Assets[m.assetKey(owner, source)]
	return entry, ok
}

func (m *buildManifest) setAsset(entry manifestAsset) {
	if m == nil {
		return
	}
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	key := strings.ToLower(entry.Key)
	if key == "" {
		key = m.assetKey(entry.Owner, entry.Source)
		entry.Key = key
	}
	m.Assets[key] = entry
}

func (m *buildManifest) shouldSkipAsset(owner, source, checksum, output string) bool {
	entry, ok := m.lookupAsset(owner, source)
	if !ok {
		return false
	}
	if entry.Checksum != checksum {
		return false
	}
	if strings.TrimSpace(entry.Output) != strings.TrimSpace(output) {
		return false
	}
	return true
}

func (m *buildManifest) prunePages(keys map[string]struct{}) {
	if len(keys) == 0 || len(m.Pages) == 0 {
		return
	}
	for key := range m.Pages {
		if _, ok := keys[key]; !ok {
			delete(m.Pages, key)
		}
	}
}

func (m *buildManifest) pruneAssets(keys map[string]struct{}) {
	if len(keys) == 0 || len(m.Assets) == 0 {
		return
	}
	for key := range m.Assets {
		if _, ok := keys[key]; !ok {
			delete(m.Assets, key)
		}
	}
}
