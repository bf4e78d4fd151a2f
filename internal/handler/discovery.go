package handler

import (
	"net/http"

	"github.com/menezmethod/macrofx/internal/hal"
)

// Discovery serves the HAL entry point listing the demo's resources.
//
//	GET /.well-known/hal
func Discovery(w http.ResponseWriter, _ Ctx) {
	doc := hal.New(hal.Links{
		"self":  {Href: "/.well-known/hal"},
		"ui":    {Href: "/"},
		"time":  {Href: "/time"},
		"echo":  {Href: "/echo"},
		"ext":   {Href: "/ext{?id}", Templated: true},
		"quota": {Href: "/quota"},
		"tasks": {Href: "/tasks"},
		"forms": {Href: "/forms"},
		"docs":  {Href: "/docs", Type: "text/html"},
	}, nil, map[string]any{"name": "macrofx demo"})
	hal.Write(w, hal.ContentType, doc)
}

// Forms serves the HAL-FORMS templates for the demo's actions.
//
//	GET /forms
func Forms(w http.ResponseWriter, _ Ctx) {
	doc := hal.New(hal.Links{"self": {Href: "/forms"}}, map[string]hal.Template{
		"echo": {
			Title:      "Echo",
			Method:     http.MethodPost,
			Target:     "/echo",
			Properties: []hal.Property{{Name: "msg", Prompt: "Message", Required: true}},
		},
		"ext": {
			Title:      "Fetch external TODO",
			Method:     http.MethodGet,
			Target:     "/ext",
			Properties: []hal.Property{{Name: "id", Prompt: "Todo ID", Type: "number"}},
		},
		"createTask": {
			Title:       "Create Task",
			Method:      http.MethodPost,
			ContentType: "application/json",
			Target:      "/tasks",
			Properties:  []hal.Property{{Name: "title", Prompt: "Title", Required: true}},
		},
	}, nil)
	hal.Write(w, hal.FormsContentType, doc)
}
