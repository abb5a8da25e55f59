// Package middleware holds the cross-cutting HTTP middleware: language
// preference, flash messages, request logging and panic recovery.
package middleware

import (
	"net/http"

	"github.com/diewo77/go-blog/i18n"
)

const langCookie = "lang"

// Prefs picks the request language (query > cookie > Accept-Language) and
// stores it in the context. A ?lang= value is persisted in a cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie(langCookie); err == nil && i18n.IsSupported(c.Value) {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); i18n.IsSupported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: langCookie, Value: lang, Path: "/", MaxAge: 86400 * 30})
		}
		if lang == "" {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

// LangFrom returns language preference from context or fallback.
func LangFrom(r *http.Request) string {
	return i18n.LangFromContext(r.Context())
}
