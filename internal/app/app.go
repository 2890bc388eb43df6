// Package app is the demo site flashd serves: a login flow that shows how
// flash messages survive a redirect and how now-only messages do not.
package app

import (
	"html/template"
	"math"
	"net/http"
	"slices"
	"strings"

	"github.com/matheus3301/flasher/internal/flasher"
	"github.com/matheus3301/flasher/internal/render"
	"go.uber.org/zap"
)

const pages = `
{{define "header"}}<!DOCTYPE html>
<html>
<head><title>Example</title></head>
<body>
{{styledFlash}}
{{end}}

{{define "footer"}}
</body>
</html>
{{end}}

{{define "index"}}{{template "header"}}<a href="/login">Login</a>{{template "footer"}}{{end}}

{{define "login"}}{{template "header"}}<form method="POST"><input type="submit" value="login!"></form>{{template "footer"}}{{end}}

{{define "retry"}}{{template "header"}}<form method="POST">
<input type="hidden" value="1" name="user" id="user">
<input type="submit" value="login!">
</form>{{template "footer"}}{{end}}

{{define "logout"}}{{template "header"}}<p>Flash</p>
<p><a href="/login">Login</a></p>{{template "footer"}}{{end}}
`

// App serves the demo routes. It expects to run behind a flasher.Flasher.
type App struct {
	pages  *template.Template
	logger *zap.Logger
}

// New parses the page templates.
func New(logger *zap.Logger) *App {
	t := template.Must(template.New("pages").Funcs(render.FuncMap(nil)).Parse(pages))
	return &App{pages: t, logger: logger}
}

// Handler returns the route table.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.index)
	mux.HandleFunc("GET /login", a.loginForm)
	mux.HandleFunc("POST /login", a.login)
	mux.HandleFunc("GET /logout", a.logout)
	mux.HandleFunc("GET /flash", a.dump)
	return mux
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	flasher.Flash(r).Add("info", "You just left the index page.")
	a.page(w, r, "index")
}

func (a *App) loginForm(w http.ResponseWriter, r *http.Request) {
	flasher.Flash(r).AddNow("info", "Try logging in.")
	a.page(w, r, "login")
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	if leadingInt(r.FormValue("user")) == 1 {
		flasher.Flash(r).Add("info", "Welcome back!")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	flasher.Flash(r).AddNow("warning", "Login failed. Try again.")
	a.page(w, r, "retry")
}

// leadingInt reads the integer prefix of s the lenient way form fields are
// usually read: leading spaces and a sign are skipped, parsing stops at the
// first non-digit, and no digits at all yields 0.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > (math.MaxInt-9)/10 {
			break
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	flasher.Flash(r).AddNow("info", "Goodbye!")
	a.page(w, r, "logout")
}

// dump lists every info message this request can see: current ones first,
// then the ones queued for the next request.
func (a *App) dump(w http.ResponseWriter, r *http.Request) {
	m := flasher.Flash(r)
	lines := append(slices.Clone(m.Now("info")), m.Next("info")...)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if len(lines) > 0 {
		_, _ = w.Write([]byte(strings.Join(lines, "\n") + "\n"))
	}
}

func (a *App) page(w http.ResponseWriter, r *http.Request, name string) {
	// styledFlash is bound per request, so each render works on a clone.
	t, err := a.pages.Clone()
	if err != nil {
		a.logger.Error("failed to prepare page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Funcs(render.FuncMap(r)).ExecuteTemplate(w, name, nil); err != nil {
		a.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
	}
}
