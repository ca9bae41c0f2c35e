// Package views renders the HTML pages and serves the static assets,
// both embedded in the binary.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/samber/oops"
)

// Page names.
const (
	PageHome            = "home"
	PageLogin           = "login"
	PageRegister        = "register"
	PageAlreadyUser     = "alreadyUser"
	PageRegisterNewUser = "registerNewUser"
	PageDashboard       = "dashboard"
)

var pages = []string{
	PageHome,
	PageLogin,
	PageRegister,
	PageAlreadyUser,
	PageRegisterNewUser,
	PageDashboard,
}

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, oops.Code("VIEW_PARSE_FAILED").With("page", name).Wrap(err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes page name with data and writes it with status. Nothing
// is written if execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return oops.Code("VIEW_NOT_FOUND").With("page", name).Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return oops.Code("VIEW_RENDER_FAILED").With("page", name).Wrap(err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
