// Package forms binds submitted article forms to typed input and validates it.
package forms

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-blog/internal/models"
	"github.com/diewo77/go-blog/internal/uploads"
	"github.com/diewo77/go-blog/validation"
)

const maxMemory = 8 << 20

// Field names, shared by the templates and the violations map.
const (
	FieldTitre  = "titre"
	FieldTexte  = "texte"
	FieldPublie = "publie"
	FieldDate   = "date"
	FieldImage  = "image"
)

// ImageRules constrain the optional image of a new article.
type ImageRules struct {
	MaxBytes int64
	Types    []string
}

// MaxImageBytes is the "1024k" image limit, in kilobytes of 1000 bytes.
const MaxImageBytes = 1024 * 1000

// MaxTitreLen matches the titre column size.
const MaxTitreLen = 255

// DefaultImageRules accepts PNG and JPEG up to MaxImageBytes.
func DefaultImageRules() ImageRules {
	return ImageRules{MaxBytes: MaxImageBytes, Types: uploads.AllowedTypes}
}

// ArticleInput is the typed form. Image is unmapped: ApplyArticle ignores it.
type ArticleInput struct {
	Titre  string
	Texte  string
	Publie bool
	Date   time.Time
	// DateText keeps the submitted value so an invalid date is shown back as typed.
	DateText string
	Image    *multipart.FileHeader
}

// ArticleValues pre-populates the form from a stored article.
func ArticleValues(a *models.Article) ArticleInput {
	in := ArticleInput{Titre: a.Titre, Texte: a.Texte, Publie: a.Publie, Date: a.Date}
	if !a.Date.IsZero() {
		in.DateText = a.Date.Format(models.DateLayout)
	}
	return in
}

// ApplyArticle copies the mapped fields onto a. The image is left untouched.
func ApplyArticle(in ArticleInput, a *models.Article) {
	a.Titre = in.Titre
	a.Texte = in.Texte
	a.Publie = in.Publie
	a.Date = in.Date
}

// BindArticle reads the request into an input. Only POST counts as a
// submission; other methods return the zero input and no violations.
// The image is validated on every submission; withImage keeps it in the
// input (create form only), edit drops it after validation.
func BindArticle(r *http.Request, rules ImageRules, withImage bool) (ArticleInput, validation.Violations, bool) {
	v := make(validation.Violations)
	if r.Method != http.MethodPost {
		return ArticleInput{}, v, false
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			v.Add(FieldImage, "upload_failed")
		}
	} else {
		_ = r.ParseForm()
	}

	in := ArticleInput{
		Titre:    strings.TrimSpace(r.PostFormValue(FieldTitre)),
		Texte:    strings.TrimSpace(r.PostFormValue(FieldTexte)),
		Publie:   checked(r.PostFormValue(FieldPublie)),
		DateText: strings.TrimSpace(r.PostFormValue(FieldDate)),
	}
	validation.Required(FieldTitre, in.Titre, v)
	validation.MaxLength(FieldTitre, in.Titre, MaxTitreLen, v)
	validation.Required(FieldTexte, in.Texte, v)
	in.Date = validation.Date(FieldDate, in.DateText, models.DateLayout, v)

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File[FieldImage]; len(files) > 0 && files[0].Size > 0 {
			validateImage(files[0], rules, v)
			if withImage {
				in.Image = files[0]
			}
		}
	}
	return in, v, true
}

func validateImage(fh *multipart.FileHeader, rules ImageRules, v validation.Violations) {
	validation.MaxBytes(FieldImage, fh.Size, rules.MaxBytes, "image_too_large", v)
	contentType, err := uploads.Sniff(fh)
	if err != nil {
		v.Add(FieldImage, "invalid_image")
		return
	}
	validation.MimeType(FieldImage, contentType, rules.Types, "invalid_image", v)
}

func checked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off":
		return false
	}
	return true
}
