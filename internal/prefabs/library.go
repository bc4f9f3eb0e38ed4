// Package prefabs loads the named prefab library used during generation.
//
// Prefabs come from three places, later ones winning on a name clash: the
// set bundled into the binary, an optional remote pack fetched with
// go-getter, and an optional local directory.
package prefabs

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	getter "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/citycraft/pkg/world/prefab"
)

//go:embed defaults/*.schem
var bundled embed.FS

var extensions = []string{".schem", ".schematic"}

// Options select the optional prefab sources.
type Options struct {
	// Dir is a local directory whose prefabs override everything else.
	Dir string
	// Source is a go-getter URL of a prefab pack, e.g.
	// "git::https://example.com/packs.git//city" or an https archive.
	Source string
	// CacheDir receives the fetched pack. Defaults to a directory under
	// os.UserCacheDir.
	CacheDir string
}

// Library is a read-only lookup of prefabs by identifier. It is safe for
// concurrent use once loaded.
type Library struct {
	prefabs map[string]*prefab.Prefab
	origin  map[string]string
}

// NewLibrary wraps an already decoded set of prefabs.
func NewLibrary(m map[string]*prefab.Prefab) *Library {
	lib := &Library{
		prefabs: make(map[string]*prefab.Prefab, len(m)),
		origin:  make(map[string]string, len(m)),
	}
	for name, p := range m {
		lib.prefabs[normalize(name)] = p
		lib.origin[normalize(name)] = "memory"
	}
	return lib
}

// Load builds the library from the bundled prefabs and the sources in
// opts. Malformed prefabs are logged and skipped.
func Load(ctx context.Context, opts Options, log *slog.Logger) (*Library, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	lib := NewLibrary(nil)

	if err := lib.loadFS(bundled, "defaults", "bundled", log); err != nil {
		return nil, fmt.Errorf("load bundled prefabs: %w", err)
	}

	if opts.Source != "" {
		dst, err := Fetch(ctx, opts.Source, opts.CacheDir, log)
		if err != nil {
			return nil, err
		}
		if err := lib.loadFS(os.DirFS(dst), ".", "remote", log); err != nil {
			return nil, fmt.Errorf("load prefab pack: %w", err)
		}
	}

	if opts.Dir != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("prefab dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("prefab dir %s is not a directory", opts.Dir)
		}
		if err := lib.loadFS(os.DirFS(opts.Dir), ".", "dir", log); err != nil {
			return nil, fmt.Errorf("load prefab dir: %w", err)
		}
	}

	log.Info("prefab library loaded", "prefabs", lib.Len())
	return lib, nil
}

// Fetch downloads the pack at src into cacheDir, replacing whatever was
// there, and returns the directory. An empty cacheDir selects the user
// cache directory.
func Fetch(ctx context.Context, src, cacheDir string, log *slog.Logger) (string, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cacheDir = filepath.Join(base, "citycraft", "prefabs")
	}
	if err := os.RemoveAll(cacheDir); err != nil {
		return "", fmt.Errorf("clear prefab cache: %w", err)
	}

	log.Info("fetching prefab pack", "source", src, "dst", cacheDir)
	if err := getter.Get(cacheDir, src, getter.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("fetch prefab pack %s: %w", src, err)
	}
	return cacheDir, nil
}

func (l *Library) loadFS(fsys fs.FS, root, origin string, log *slog.Logger) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if !isPrefabFile(ext) {
			return nil
		}

		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}
		name := normalize(strings.TrimSuffix(rel, path.Ext(rel)))

		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		pf, err := prefab.Decode(name, f)
		var malformed *prefab.MalformedError
		if errors.As(err, &malformed) {
			log.Warn("skipping malformed prefab", "name", name, "origin", origin, "err", err)
			return nil
		}
		if err != nil {
			return err
		}

		if prev, ok := l.origin[name]; ok {
			log.Debug("prefab overridden", "name", name, "was", prev, "now", origin)
		}
		l.prefabs[name] = pf
		l.origin[name] = origin
		return nil
	})
}

func isPrefabFile(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func normalize(name string) string {
	return strings.ToLower(filepath.ToSlash(name))
}

// Lookup returns the prefab named id.
func (l *Library) Lookup(id string) (*prefab.Prefab, bool) {
	p, ok := l.prefabs[normalize(id)]
	return p, ok
}

// Origin reports where the prefab named id was loaded from: "bundled",
// "remote", "dir" or "memory".
func (l *Library) Origin(id string) string {
	return l.origin[normalize(id)]
}

// Len returns the number of prefabs.
func (l *Library) Len() int { return len(l.prefabs) }

// Names returns the sorted prefab identifiers.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.prefabs))
	for n := range l.prefabs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
