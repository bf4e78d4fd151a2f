package handler

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/macrofx"
	"github.com/menezmethod/macrofx/internal/middleware"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// echoCounterKey counts POST /echo calls.
const echoCounterKey = "ssr:echo"

const indexPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>macrofx demo</title>
  <script src="https://unpkg.com/htmx.org@1.9.12"></script>
  <style>
    body { font-family: system-ui; margin: 2rem; max-width: 720px; }
    .card { border: 1px solid #ddd; padding: 1rem; border-radius: .5rem; }
    .row { display: flex; gap: 1rem; align-items: center; margin: .5rem 0; }
    .muted { color: #666; }
  </style>
</head>
<body>
  <h1>macrofx: decorators, middleware and HAL</h1>
  <div class="card">
    <div class="row"><strong>Time:</strong><span id="t" hx-get="/time" hx-trigger="load, every 5s" hx-swap="outerHTML">...</span></div>
    <div class="row"><button hx-post="/echo" hx-vals='{"msg":"hello"}' hx-headers='{"Idempotency-Key":"demo-abc-123"}' hx-target="#out">Echo</button><div id="out" class="muted">click</div></div>
    <div class="row"><button hx-get="/ext" hx-headers='{"X-Api-Key":"demo-key-123"}' hx-target="#ext">External</button><div id="ext" class="muted">load</div></div>
    <div class="row"><button hx-get="/tasks" hx-headers='{"X-Api-Key":"demo-key-123"}' hx-target="#tasks">Tasks</button><pre id="tasks" class="muted">[]</pre></div>
    <div class="row"><a href="/.well-known/hal">HAL</a> <a href="/forms">HAL-FORMS</a> <a href="/admin">Admin</a> <a href="/docs">API docs</a></div>
  </div>
</body>
</html>`

// Index serves the htmx demo page.
//
//	GET /
func Index(w http.ResponseWriter, _ Ctx) {
	writeHTML(w, http.StatusOK, indexPage)
}

// Time renders the injected clock's reading as an htmx fragment.
//
//	GET /time
func Time(w http.ResponseWriter, c Ctx) {
	now := deps.TimeNow(c.Base.Deps)()
	writeHTML(w, http.StatusOK, `<span id="t">`+now.UTC().Format("2006-01-02T15:04:05.000Z07:00")+`</span>`)
}

// Echo bumps a shared counter and echoes the request body.
// The body may be JSON or a form; anything unreadable echoes as {}.
//
//	POST /echo
func Echo(w http.ResponseWriter, c Ctx) {
	body := readPayload(w, c.Req)

	n, err := deps.BumpCounter(c.Base.Deps)(c.Req.Context(), echoCounterKey)
	if err != nil {
		c.Base.Logger.Error("echo counter failed", "err", err)
		apierror.Write(w, apierror.Internal("Counter unavailable."))
		return
	}

	out, _ := json.MarshalIndent(map[string]any{"n": n, "body": body}, "", "  ")
	writeHTML(w, http.StatusOK, "<pre>"+html.EscapeString(string(out))+"</pre>")
}

// Ext fetches a todo through the resilient pipeline on behalf of the caller.
// The optional "id" query parameter defaults to 1. A timeout answers 504;
// any other failure answers 502.
//
//	GET /ext?id=1
func Ext(w http.ResponseWriter, c Ctx) {
	key := middleware.APIKeyFromContext(c.Req.Context())
	if key == "" {
		k, ok := middleware.APIKeyFromRequest(c.Req)
		if !ok {
			apierror.Write(w, apierror.Unauthorized())
			return
		}
		key = k
	}

	id := nominal.PositiveInt(1)
	if raw := c.URL.Query().Get("id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			id, err = nominal.NewPositiveInt(n)
		}
		if err != nil {
			apierror.Write(w, apierror.InvalidParam("id", "id must be a positive integer"))
			return
		}
	}

	todo, err := c.Base.FetchTodo(c.Req.Context(), deps.TodoRequest{APIKey: key, ID: id})
	if err != nil {
		c.Base.Logger.Warn("upstream fetch failed", "id", int(id), "err", err)
		if errors.Is(err, macrofx.ErrTimeout) {
			apierror.Write(w, apierror.UpstreamTimeout())
			return
		}
		apierror.Write(w, apierror.UpstreamFailed())
		return
	}

	writeHTML(w, http.StatusOK, "<code>"+html.EscapeString(todo.Title)+"</code>")
}

// Admin greets callers that passed the admin role check.
//
//	GET /admin
func Admin(w http.ResponseWriter, c Ctx) {
	name := "admin"
	if u, ok := middleware.UserFromContext(c.Req.Context()); ok && u.ID != "" {
		name = string(u.ID)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Welcome, " + name + "!"))
}

// readPayload decodes a JSON or form body into a map. Failures yield an
// empty map.
func readPayload(w http.ResponseWriter, r *http.Request) map[string]any {
	out := map[string]any{}
	if r.Body == nil {
		return out
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
			return map[string]any{}
		}
		return out
	}

	if err := r.ParseForm(); err != nil {
		return out
	}
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return out
}
