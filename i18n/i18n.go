// Package i18n holds the French and English message catalogues used by the
// templates and handlers. French is the default language.
package i18n

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
)

const DefaultLang = "fr"

// Supported lists the languages with a catalogue, default first.
var Supported = []string{"fr", "en"}

var matcher = language.NewMatcher([]language.Tag{language.French, language.English})

var messages = map[string]map[string]string{
	"fr": {
		"required":              "Requis",
		"too_long":              "Ce texte est trop long (255 caractères maximum)",
		"invalid_date":          "Date invalide (AAAA-MM-JJ)",
		"invalid_image":         "Veuillez téléverser une image valide",
		"image_too_large":       "L'image ne doit pas dépasser 1024 Ko",
		"upload_failed":         "L'image n'a pas pu être enregistrée, l'article n'a pas été créé",
		"article_created":       "Votre article %d a été ajouté",
		"article_updated":       "Votre article %d a été modifié",
		"article_not_found":     "L'article d'id %s n'existe pas",
		"article_not_found_del": "Aucun article trouvé pour l'id %s",
		"article_deleted":       "L'article %d a été supprimé",
		"articles":              "Articles",
		"new_article":           "Nouvel article",
		"edit_article":          "Modifier l'article",
		"no_articles":           "Aucun article pour le moment",
		"title":                 "Titre",
		"body":                  "Texte",
		"published":             "Publié",
		"draft":                 "Brouillon",
		"date":                  "Date",
		"image":                 "Image (JPG, PNG)",
		"save":                  "Enregistrer",
		"edit":                  "Modifier",
		"delete":                "Supprimer",
		"back_to_list":          "Retour à la liste",
		"login":                 "Connexion",
		"logout":                "Déconnexion",
		"signup":                "Inscription",
		"email":                 "E-mail",
		"password":              "Mot de passe",
		"name":                  "Nom",
		"invalid_credentials":   "E-mail ou mot de passe invalide",
		"email_taken":           "Cet e-mail est déjà utilisé",
		"server_error":          "Erreur interne du serveur",
		"users":                 "Utilisateurs",
		"profile":               "Profil",
		"no_profile":            "Aucun profil",
		"profiles":              "Profils",
		"permissions":           "Permissions",
		"description":           "Description",
		"create":                "Créer",
		"profile_taken":         "Ce nom de profil existe déjà",
	},
	"en": {
		"required":              "Required",
		"too_long":              "This text is too long (255 characters maximum)",
		"invalid_date":          "Invalid date (YYYY-MM-DD)",
		"invalid_image":         "Please upload a valid image",
		"image_too_large":       "The image must not exceed 1024 kB",
		"upload_failed":         "The image could not be stored, the article was not created",
		"article_created":       "Your article %d has been added",
		"article_updated":       "Your article %d has been updated",
		"article_not_found":     "Article with id %s does not exist",
		"article_not_found_del": "No article found for id %s",
		"article_deleted":       "Article %d has been deleted",
		"articles":              "Articles",
		"new_article":           "New article",
		"edit_article":          "Edit article",
		"no_articles":           "No articles yet",
		"title":                 "Title",
		"body":                  "Text",
		"published":             "Published",
		"draft":                 "Draft",
		"date":                  "Date",
		"image":                 "Image (JPG, PNG)",
		"save":                  "Save",
		"edit":                  "Edit",
		"delete":                "Delete",
		"back_to_list":          "Back to list",
		"login":                 "Log in",
		"logout":                "Log out",
		"signup":                "Sign up",
		"email":                 "Email",
		"password":              "Password",
		"name":                  "Name",
		"invalid_credentials":   "Invalid email or password",
		"email_taken":           "Email already exists",
		"server_error":          "Internal server error",
		"users":                 "Users",
		"profile":               "Profile",
		"no_profile":            "No profile",
		"profiles":              "Profiles",
		"permissions":           "Permissions",
		"description":           "Description",
		"create":                "Create",
		"profile_taken":         "This profile name already exists",
	},
}

// T translates code. Unknown languages fall back to French, unknown codes
// are returned unchanged.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Tf translates code and formats it with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// DetectLanguage picks the best supported language for an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	if idx < 0 || idx >= len(Supported) {
		return DefaultLang
	}
	return Supported[idx]
}

// IsSupported reports whether lang has a catalogue.
func IsSupported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language, defaulting to French.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}
