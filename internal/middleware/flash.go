package middleware

import (
	"net/http"
	"net/url"
)

const flashCookie = "flash"

// SetFlash stores an already translated message for the next rendered page.
func SetFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/", HttpOnly: true})
}

// Flash translates code in the request language and stores it.
func Flash(w http.ResponseWriter, r *http.Request, code string, args ...any) {
	SetFlash(w, translate(r, code, args...))
}

// PopFlash returns the pending message and expires the cookie.
func PopFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
