package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	"github.com/iho/gofinance/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"apology",
	"buy",
	"change_password",
	"history",
	"index",
	"login",
	"quote",
	"quoted",
	"reconcile",
	"register",
	"sell",
}

var pages = parsePages()

func parsePages() map[string]*template.Template {
	funcs := template.FuncMap{"usd": dto.USD}

	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		parsed[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}

	return parsed
}

// page is what the layout template receives.
type page struct {
	Session *domain.Session
	Body    any
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func render(w http.ResponseWriter, r *http.Request, status int, name string, body any) {
	tmpl, ok := pages[name]
	if !ok {
		zerolog.Ctx(r.Context()).Error().Str("template", name).Msg("unknown template")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	session, _ := middleware.SessionFromContext(r.Context())

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page{Session: session, Body: body}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
