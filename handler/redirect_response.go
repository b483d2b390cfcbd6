package handler

import (
	"net/http"
	"strings"
)

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect answers 303 See Other. Only same-site paths are honoured; anything else goes to "/".
func Redirect(url string) Response {
	return RedirectWithCode(url, http.StatusSeeOther)
}

func RedirectWithCode(url string, code int) Response {
	if !isLocalPath(url) {
		url = "/"
	}
	return redirectResponse{url: url, code: code}
}

func isLocalPath(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") && !strings.HasPrefix(u, "/\\")
}
