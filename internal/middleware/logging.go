package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/i18n"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Logging writes one klog line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		klog.Infof("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// Recover turns a panic into a 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				klog.Errorf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, v, debug.Stack())
				http.Error(w, i18n.T(LangFrom(r), "server_error"), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func translate(r *http.Request, code string, args ...any) string {
	if len(args) == 0 {
		return i18n.T(LangFrom(r), code)
	}
	return i18n.Tf(LangFrom(r), code, args...)
}
