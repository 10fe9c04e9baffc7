package middleware

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

// MsgMalformedBody is returned when a form body cannot be parsed.
const MsgMalformedBody = "Malformed request body."

const (
	maxFormBytes  = 1 << 20
	maxFormMemory = 32 << 20
)

var overridableMethods = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MethodOverride parses form bodies once for the rest of the chain and lets
// HTML forms, which can only POST, reach PUT/PATCH/DELETE routes through a
// hidden "_method" field or the X-HTTP-Method-Override header.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) && isForm(r) {
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			if err := ParseForm(r); err != nil {
				envelope.Error(w, http.StatusBadRequest, MsgMalformedBody)
				return
			}
		}

		if r.Method == http.MethodPost {
			method := r.Header.Get("X-HTTP-Method-Override")
			if method == "" && isForm(r) {
				method = r.PostForm.Get("_method")
			}
			method = strings.ToUpper(strings.TrimSpace(method))
			if overridableMethods[method] {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ParseForm fills r.PostForm from a urlencoded or multipart body whatever the
// method. net/http leaves DELETE bodies unread. Calling it again is a no-op.
func ParseForm(r *http.Request) error {
	if r.PostForm != nil {
		return nil
	}

	if r.Method == http.MethodDelete && mediaType(r) == "application/x-www-form-urlencoded" && r.Body != nil {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return err
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			r.PostForm = url.Values{}
			return err
		}
		r.PostForm = values
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	if mediaType(r) == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return err
		}
	}
	return nil
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func isForm(r *http.Request) bool {
	mt := mediaType(r)
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}
