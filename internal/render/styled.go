// Package render turns a request's current flash messages into HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/matheus3301/flasher/internal/flash"
	"github.com/matheus3301/flasher/internal/flasher"
)

// Func renders the current generation of group. Implementations are
// responsible for escaping.
type Func func(group string, now flash.Generation) (template.HTML, error)

type channel struct {
	Name     string
	Messages []string
}

var defaultTemplate = template.Must(template.New("styled").Parse(
	`<div id='{{.Group}}'>{{range .Channels}}{{$name := .Name}}{{range .Messages}}<div class='flash {{$name}}'><p>{{.}}</p></div>
{{end}}{{end}}</div>`))

// Default wraps each message in <div class='flash CHANNEL'><p>MSG</p></div>,
// one per line, inside <div id='GROUP'>. Channels come out in sorted order.
func Default(group string, now flash.Generation) (template.HTML, error) {
	data := struct {
		Group    string
		Channels []channel
	}{Group: group}
	for _, name := range now.Channels() {
		data.Channels = append(data.Channels, channel{Name: name, Messages: now[name]})
	}

	var buf bytes.Buffer
	if err := defaultTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render flash group %q: %w", group, err)
	}
	return template.HTML(buf.String()), nil
}

// Styled renders m's current messages with fn, or Default when fn is nil.
// It returns "" when there is nothing to show.
func Styled(m *flash.Map, group string, fn Func) (template.HTML, error) {
	now := m.Current()
	if now.Empty() {
		return "", nil
	}
	if fn == nil {
		fn = Default
	}
	return fn(group, now)
}

// FuncMap exposes styledFlash to templates executed for r. With no argument
// it renders the default group; {{styledFlash "api"}} renders another one.
// A render error aborts the template execution.
func FuncMap(r *http.Request) template.FuncMap {
	return template.FuncMap{
		"styledFlash": func(group ...string) (template.HTML, error) {
			reg := flasher.FromContext(r.Context())
			if reg == nil {
				return "", nil
			}
			name := reg.DefaultName()
			if len(group) > 0 && group[0] != "" {
				name = group[0]
			}
			return Styled(reg.Group(name), name, nil)
		},
	}
}
