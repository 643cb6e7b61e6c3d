package templates

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// ContentHash returns a 10-character SHA-256 fingerprint of the named
// files in fsys. Unreadable files are skipped.
func ContentHash(fsys fs.FS, paths ...string) string {
	h := sha256.New()
	for _, name := range paths {
		if data, err := fs.ReadFile(fsys, name); err == nil {
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:10]
}

// Assets serves a static fs.FS under a URL prefix and versions links to
// it with a content hash so they can be cached indefinitely.
type Assets struct {
	fsys    fs.FS
	prefix  string
	version string
}

// NewAssets fingerprints every regular file in fsys.
func NewAssets(fsys fs.FS, prefix string) (*Assets, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Assets{
		fsys:    fsys,
		prefix:  "/" + strings.Trim(prefix, "/") + "/",
		version: ContentHash(fsys, files...),
	}, nil
}

// Version is the combined fingerprint.
func (a *Assets) Version() string { return a.version }

// URL links to name with the fingerprint as ?v=.
func (a *Assets) URL(name string) string {
	return a.prefix + strings.TrimPrefix(path.Clean("/"+name), "/") + "?v=" + a.version
}

// Handler serves the files. Requests carrying the current fingerprint
// are marked immutable; others must revalidate.
func (a *Assets) Handler() http.Handler {
	files := http.StripPrefix(strings.TrimSuffix(a.prefix, "/"), http.FileServer(http.FS(a.fsys)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("v") == a.version {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		files.ServeHTTP(w, r)
	})
}
