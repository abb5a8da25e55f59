package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"github.com/diewo77/go-blog/internal/config"
	"github.com/diewo77/go-blog/internal/db"
	"github.com/diewo77/go-blog/internal/forms"
	"github.com/diewo77/go-blog/internal/uploads"
	"github.com/diewo77/go-blog/view"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:" + t.Name() + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn, "", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	view.ResetForTests()
	return conn
}

func newArticleHandler(t *testing.T) (*ArticleHandler, *gorm.DB) {
	t.Helper()
	conn := setupTestDB(t)
	images, err := uploads.NewImageStore(t.TempDir(), forms.MaxImageBytes)
	if err != nil {
		t.Fatalf("image store: %v", err)
	}
	return NewArticleHandler(conn, images, forms.DefaultImageRules()), conn
}

type upload struct {
	filename string
	content  []byte
}

func articleRequest(t *testing.T, target string, fields map[string]string, file *upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", file.filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(file.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validArticle() map[string]string {
	return map[string]string{"titre": "Mon article", "texte": "Bonjour", "date": "2024-06-01", "publie": "1"}
}
