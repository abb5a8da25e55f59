package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/httpx"
	"github.com/diewo77/go-blog/i18n"
	"github.com/diewo77/go-blog/internal/forms"
	"github.com/diewo77/go-blog/internal/middleware"
	"github.com/diewo77/go-blog/internal/models"
	"github.com/diewo77/go-blog/internal/store"
	"github.com/diewo77/go-blog/internal/uploads"
	"github.com/diewo77/go-blog/validation"
	"github.com/diewo77/go-blog/view"
)

// Article templates, relative to templates/.
const (
	tplArticleCreate = "article/creer.html"
	tplArticleList   = "article/liste.html"
	tplArticleEdit   = "article/modifier.html"
	tplArticleDelete = "article/supprimer.html"
	tplError         = "error.html"
)

// ArticleHandler serves the article create, list, edit and delete pages.
type ArticleHandler struct {
	Articles *store.ArticleStore
	Images   *uploads.ImageStore
	Rules    forms.ImageRules
}

func NewArticleHandler(db *gorm.DB, images *uploads.ImageStore, rules forms.ImageRules) *ArticleHandler {
	return &ArticleHandler{Articles: store.NewArticleStore(db), Images: images, Rules: rules}
}

// Create handles GET|POST /article/creer.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, v, submitted := forms.BindArticle(r, h.Rules, true)
	if !submitted || !v.Empty() {
		h.renderForm(w, r, tplArticleCreate, submitted, in, v, nil)
		return
	}

	var a models.Article
	forms.ApplyArticle(in, &a)
	if in.Image != nil {
		name, err := h.Images.Save(in.Image)
		if err != nil {
			klog.Errorf("article create: store image %q: %v", in.Image.Filename, err)
			v.Add(forms.FieldImage, uploadErrorCode(err))
			h.renderForm(w, r, tplArticleCreate, true, in, v, nil)
			return
		}
		a.Image = &name
	}

	if err := h.Articles.Create(r.Context(), &a); err != nil {
		klog.Errorf("article create: %v", err)
		if a.HasImage() {
			if rmErr := h.Images.Remove(a.ImageName()); rmErr != nil {
				klog.Errorf("article create: cleanup %s: %v", a.ImageName(), rmErr)
			}
		}
		serverError(w, r)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, a)
		return
	}
	middleware.Flash(w, r, "article_created", a.ID)
	http.Redirect(w, r, "/article/liste", http.StatusSeeOther)
}

// List handles GET /article/liste.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Articles.All(r.Context())
	if err != nil {
		klog.Errorf("article list: %v", err)
		serverError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, articles)
		return
	}
	render(w, r, http.StatusOK, tplArticleList, map[string]any{"Articles": articles})
}

// Edit handles GET|POST /article/modifier/{id}. The image is never changed here.
func (h *ArticleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r, "article_not_found")
	if !ok {
		return
	}
	in, v, submitted := forms.BindArticle(r, h.Rules, false)
	if !submitted {
		in = forms.ArticleValues(&a)
	}
	data := map[string]any{"Article": a}
	if submitted && v.Empty() {
		forms.ApplyArticle(in, &a)
		if err := h.Articles.Save(r.Context(), &a); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(w, r, "article_not_found", strconv.FormatUint(uint64(a.ID), 10))
				return
			}
			klog.Errorf("article edit %d: %v", a.ID, err)
			serverError(w, r)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, a)
			return
		}
		data["Article"] = a
		data["Flash"] = i18n.Tf(middleware.LangFrom(r), "article_updated", a.ID)
	}
	h.renderForm(w, r, tplArticleEdit, submitted, in, v, data)
}

// Delete handles GET|POST /article/supprimer/{id} and shows the removed article.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r, "article_not_found_del")
	if !ok {
		return
	}
	if err := h.Articles.Delete(r.Context(), a.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w, r, "article_not_found_del", strconv.FormatUint(uint64(a.ID), 10))
			return
		}
		klog.Errorf("article delete %d: %v", a.ID, err)
		serverError(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, a)
		return
	}
	render(w, r, http.StatusOK, tplArticleDelete, map[string]any{
		"Article": a,
		"Flash":   i18n.Tf(middleware.LangFrom(r), "article_deleted", a.ID),
	})
}

// lookup resolves {id}. On failure it has already written the response.
func (h *ArticleHandler) lookup(w http.ResponseWriter, r *http.Request, notFoundCode string) (models.Article, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		notFound(w, r, notFoundCode, raw)
		return models.Article{}, false
	}
	res, err := h.Articles.Find(r.Context(), uint(id))
	if err != nil {
		klog.Errorf("article lookup %d: %v", id, err)
		serverError(w, r)
		return models.Article{}, false
	}
	if !res.Found {
		notFound(w, r, notFoundCode, raw)
		return models.Article{}, false
	}
	return res.Article, true
}

func (h *ArticleHandler) renderForm(w http.ResponseWriter, r *http.Request, name string, submitted bool, in forms.ArticleInput, v validation.Violations, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Form"] = in
	data["Errors"] = v
	data["MaxImageKB"] = h.Rules.MaxBytes / 1000
	status := http.StatusOK
	if submitted && !v.Empty() {
		status = http.StatusUnprocessableEntity
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, status, "validation_error", v)
			return
		}
	}
	render(w, r, status, name, data)
}

func uploadErrorCode(err error) string {
	switch {
	case errors.Is(err, uploads.ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, uploads.ErrTooLarge):
		return "image_too_large"
	default:
		return "upload_failed"
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		klog.Errorf("render %s: %v", name, err)
		http.Error(w, i18n.T(middleware.LangFrom(r), "server_error"), http.StatusInternalServerError)
	}
}

func notFound(w http.ResponseWriter, r *http.Request, code, id string) {
	msg := i18n.Tf(middleware.LangFrom(r), code, id)
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusNotFound, msg, map[string]string{"id": id})
		return
	}
	render(w, r, http.StatusNotFound, tplError, map[string]any{"Status": http.StatusNotFound, "Message": msg})
}

func serverError(w http.ResponseWriter, r *http.Request) {
	msg := i18n.T(middleware.LangFrom(r), "server_error")
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusInternalServerError, "server_error", nil)
		return
	}
	http.Error(w, msg, http.StatusInternalServerError)
}
