package api

import (
	_ "embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

type pageData struct {
	Title    string
	Host     string
	ReturnTo string
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	host := strings.TrimSpace(r.Host)
	if host == "" {
		host = "localhost"
	}
	data := pageData{
		Title:    h.cfg.PageTitle,
		Host:     host,
		ReturnTo: safeReturnTo(r.URL.Query().Get("return_to"), host),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := pageTemplate.Execute(w, data); err != nil {
		h.log.Error("altcha.page.render.fail", "err", err)
	}
}

// safeReturnTo keeps redirects on the protected host. It accepts a
// root-relative path, or an absolute http(s) URL whose host equals host.
// Anything else falls back to the site root.
func safeReturnTo(raw, host string) string {
	fallback := "https://" + host + "/"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	// Browsers treat backslashes like slashes, so "/\evil" is protocol-relative.
	if strings.ContainsAny(raw, "\\\r\n\t") {
		return fallback
	}
	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, "//") {
			return fallback
		}
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.User != nil {
		return fallback
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fallback
	}
	if !strings.EqualFold(u.Host, host) {
		return fallback
	}
	return u.String()
}
