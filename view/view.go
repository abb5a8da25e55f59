// Package view renders html/template pages wrapped in templates/layout.html
// with the shared partials and a per-request func map (t, can, flash...).
package view

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/i18n"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver = func(r *http.Request) string { return i18n.LangFromContext(r.Context()) }
	// permission resolvers are set by the host app so templates can hide links
	canResolver     func(*http.Request, string, string) bool
	isAdminResolver func(*http.Request) bool
	flashResolver   func(http.ResponseWriter, *http.Request) string
	uploadsURL      = "/uploads/"
)

// SetCanResolver sets the callback behind the template func `can resource action`.
func SetCanResolver(f func(*http.Request, string, string) bool) {
	if f != nil {
		canResolver = f
	}
}

// SetIsAdminResolver sets a callback used by templates to determine superadmin users.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

// SetLangResolver allows the host app to provide a custom language resolver.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetFlashResolver sets the callback that pops the pending flash message.
func SetFlashResolver(f func(http.ResponseWriter, *http.Request) string) {
	flashResolver = f
}

// SetUploadsURL sets the URL prefix used by the `image` template func.
func SetUploadsURL(prefix string) {
	if prefix == "" {
		return
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	uploadsURL = prefix
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the func map bound to r. Templates are parsed with Funcs(nil)
// and rebound per request.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.DefaultLang
	if r != nil {
		lang = langResolver(r)
	}
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"tf":   func(code string, args ...any) string { return i18n.Tf(lang, code, args...) },
		"lang": func() string { return lang },
		// can checks profile-level permission (resource, action) -> bool
		"can": func(resource, action string) bool {
			if canResolver == nil || r == nil {
				return false
			}
			return canResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			if isAdminResolver == nil || r == nil {
				return false
			}
			return isAdminResolver(r)
		},
		"year":  func() int { return time.Now().Year() },
		"asset": versionedAsset,
		// date formats a time with layout, zero times render empty.
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		// image turns a stored filename into its public URL, nil stays empty.
		"image": func(name *string) string {
			if name == nil || *name == "" {
				return ""
			}
			return uploadsURL + *name
		},
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	b, err := os.ReadFile(filepath.Join("static", rel))
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return "/static/" + rel + "?v=" + fmt.Sprintf("%x", h[:8])
}

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

func parse(name string) (*template.Template, error) {
	if baseDir == "" {
		once.Do(detectBase)
	}
	mainPath := filepath.Join(baseDir, filepath.FromSlash(name))
	if _, err := os.Stat(mainPath); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	layoutPath := filepath.Join(baseDir, "layout.html")
	files := []string{mainPath}
	root := filepath.Base(mainPath)
	// Full documents skip the layout.
	if !bytes.Contains(bytes.ToLower(content), []byte("<!doctype")) {
		if fi, err := os.Stat(layoutPath); err == nil && !fi.IsDir() {
			files = []string{layoutPath, mainPath}
			root = "layout.html"
		}
	}
	partials, _ := filepath.Glob(filepath.Join(baseDir, "partials", "*.html"))
	files = append(files, partials...)
	return template.New(root).Funcs(Funcs(nil)).ParseFiles(files...)
}

func lookup(name string) (*template.Template, error) {
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := parse(name)
	if err != nil {
		return nil, err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render executes the template name (relative to the templates dir, e.g.
// "article/liste.html") with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes the template into a buffer and writes it with status.
// Nothing is written when the template fails.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	if _, exists := data["Flash"]; !exists && flashResolver != nil {
		if msg := flashResolver(w, r); msg != "" {
			data["Flash"] = msg
		}
	}
	base, err := lookup(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Funcs(Funcs(r)).Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
