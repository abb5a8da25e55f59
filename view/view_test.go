package view

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-blog/i18n"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestRenderStatus_LayoutAndFuncs(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"layout.html":          `<html>{{template "flash" .}}{{template "content" .}}</html>`,
		"partials/flash.html":  `{{define "flash"}}{{with .Flash}}<p class="flash">{{.}}</p>{{end}}{{end}}`,
		"article/liste.html":   `{{define "content"}}{{t "articles"}}|{{date .When "2006-01-02"}}|{{image .Img}}{{end}}`,
		"article/creer.html":   `{{define "content"}}{{t "new_article"}}{{end}}`,
		"standalone/full.html": `<!doctype html><p>{{lang}}</p>`,
	})
	SetBaseDir(dir)
	t.Cleanup(ResetForTests)
	SetFlashResolver(func(http.ResponseWriter, *http.Request) string { return "saved" })
	t.Cleanup(func() { SetFlashResolver(nil) })

	img := "photo-1.png"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(i18n.WithLang(req.Context(), "en"))
	rec := httptest.NewRecorder()
	err := RenderStatus(rec, req, http.StatusUnprocessableEntity, "article/liste.html", map[string]any{
		"When": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"Img":  &img,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, `<html><p class="flash">saved</p>Articles|2024-01-02|/uploads/photo-1.png</html>`, rec.Body.String())

	// cached template rebinds funcs per request
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, Render(rec, req, "article/liste.html", map[string]any{"Flash": "", "When": time.Time{}, "Img": (*string)(nil)}))
	assert.Equal(t, `<html>Articles||</html>`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, Render(rec, req, "article/creer.html", nil))
	assert.Contains(t, rec.Body.String(), "Nouvel article")

	rec = httptest.NewRecorder()
	require.NoError(t, Render(rec, req, "standalone/full.html", nil))
	assert.Equal(t, `<!doctype html><p>fr</p>`, rec.Body.String())
}

func TestRender_MissingTemplate(t *testing.T) {
	SetBaseDir(t.TempDir())
	t.Cleanup(ResetForTests)
	rec := httptest.NewRecorder()
	err := Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "nope.html", nil)
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}

func TestRender_ExecErrorWritesNothing(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"broken.html": `<!doctype html>{{.Missing.Field}}`,
	})
	SetBaseDir(dir)
	t.Cleanup(ResetForTests)
	rec := httptest.NewRecorder()
	err := Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "broken.html", map[string]any{"Missing": 3})
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}

func TestDict(t *testing.T) {
	dict := Funcs(nil)["dict"].(func(...any) map[string]any)
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, dict("a", 1, "b", "x"))
	assert.Nil(t, dict("odd"))
}
