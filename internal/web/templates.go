package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jaminalder/tictactoe-atlas/internal/app"
	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
	"github.com/jaminalder/tictactoe-atlas/internal/domain"
)

type templates struct {
	index *template.Template
	card  *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"cellSymbol": func(v int) string { return strings.TrimSpace(domain.Cell(v).String()) },
		"add":        func(a, b int) int { return a + b },
		"mul":        func(a, b int) int { return a * b },
		"outcome":    outcomeLabel,
		"asCard":     func(e app.Entry) cardData { return cardData{Entry: e} },
	}
}

func outcomeLabel(r catalog.Row) string {
	switch {
	case r.XWinProbability == 100:
		return "X wins"
	case r.OWinProbability == 100:
		return "O wins"
	default:
		return "Draw"
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-tac-toe atlas</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
	template.Must(base.New("card").Parse(cardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Tic-tac-toe atlas</h1>
<p>{{len .Entries}} positions, {{.Claimed}} claimed.</p>
<div hx-ext="sse" sse-connect="/events" sse-swap="claim" hx-swap="none"></div>
<div id="gallery">
  {{range .Entries}}{{template "card" asCard .}}{{end}}
</div>`))
	// Standalone card template used for fragment rendering
	card := template.Must(template.New("card_only").Funcs(funcs()).Parse(cardTemplate))
	return &templates{index: index, card: card}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

// cardData feeds the card template. OOB marks fragments pushed over SSE
// that replace the card already on the page.
type cardData struct {
	app.Entry
	Error string
	OOB   bool
}

const cardTemplate = `
<div class="card{{if .Claim}} claimed{{end}}" id="card-{{.CanonicalID}}"{{if .OOB}} hx-swap-oob="outerHTML"{{end}}>
  <div class="board">
  {{range $r := iter 3}}
    <div class="row">
    {{range $c := iter 3}}<span class="cell">{{cellSymbol (index $.Board (add (mul $r 3) $c))}}</span>{{end}}
    </div>
  {{end}}
  </div>
  <dl>
    <dt>Turn</dt><dd>{{.TurnCount}}</dd>
    <dt>Rarity</dt><dd>{{.Rarity}}</dd>
    <dt>Progress</dt><dd>{{.Progress}}%</dd>
    <dt>Perfect play</dt><dd>{{outcome .Row}}</dd>
  </dl>
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{if .Claim}}
  <p class="owner">Claimed by {{.Claim.Owner}}</p>
  {{else}}
  <form hx-post="/states/{{.CanonicalID}}/claim" hx-target="#card-{{.CanonicalID}}" hx-swap="outerHTML" method="post" action="/states/{{.CanonicalID}}/claim">
    <button type="submit">Claim</button>
  </form>
  {{end}}
</div>
`

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
