// Package hal builds HAL and HAL-FORMS documents.
// See https://rwcbook.github.io/hal-forms/.
package hal

import (
	"encoding/json"
	"net/http"

	"github.com/menezmethod/macrofx/internal/nominal"
)

// Content types for HAL and HAL-FORMS responses.
const (
	ContentType      = "application/hal+json"
	FormsContentType = "application/prs.hal-forms+json"
)

// Link is a HAL link object.
type Link struct {
	Href      nominal.Href `json:"href"`
	Title     string       `json:"title,omitempty"`
	Type      string       `json:"type,omitempty"`
	Templated bool         `json:"templated,omitempty"`
}

// Links maps a relation to its link.
type Links map[nominal.Rel]Link

// Option is an inline choice for a Property.
type Option struct {
	Value  string `json:"value"`
	Prompt string `json:"prompt,omitempty"`
}

// Property is a HAL-FORMS template field.
type Property struct {
	Name     string   `json:"name"`
	Prompt   string   `json:"prompt,omitempty"`
	Required bool     `json:"required,omitempty"`
	ReadOnly bool     `json:"readOnly,omitempty"`
	Regex    string   `json:"regex,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Value    any      `json:"value,omitempty"`
	Type     string   `json:"type,omitempty"`
	Options  []Option `json:"-"`
}

// MarshalJSON nests Options as {"inline": [...]}.
func (p Property) MarshalJSON() ([]byte, error) {
	type plain Property
	out := struct {
		plain
		Options *struct {
			Inline []Option `json:"inline"`
		} `json:"options,omitempty"`
	}{plain: plain(p)}
	if len(p.Options) > 0 {
		out.Options = &struct {
			Inline []Option `json:"inline"`
		}{Inline: p.Options}
	}
	return json.Marshal(out)
}

// Template is a HAL-FORMS template.
type Template struct {
	Title       string     `json:"title,omitempty"`
	Method      string     `json:"method,omitempty"`
	ContentType string     `json:"contentType,omitempty"`
	Target      string     `json:"target,omitempty"`
	Properties  []Property `json:"properties"`
}

// Document is a HAL resource with optional templates. Extra fields are
// written at the top level next to _links and _templates.
type Document struct {
	Links     Links
	Templates map[string]Template
	Embedded  map[string]any
	Extra     map[string]any
}

// New builds a document. A nil templates map is written as {}.
func New(links Links, templates map[string]Template, extra map[string]any) Document {
	if templates == nil {
		templates = map[string]Template{}
	}
	return Document{Links: links, Templates: templates, Extra: extra}
}

// MarshalJSON flattens Extra into the top-level object. Reserved keys in
// Extra are ignored.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	out["_links"] = d.Links
	out["_templates"] = d.Templates
	if len(d.Embedded) > 0 {
		out["_embedded"] = d.Embedded
	} else {
		delete(out, "_embedded")
	}
	return json.Marshal(out)
}

// Write encodes doc with the given content type and a 200 status.
func Write(w http.ResponseWriter, contentType string, doc Document) {
	w.Header().Set("Content-Type", contentType)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}
