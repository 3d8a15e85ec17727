package render

import (
	"html/template"
	"strings"

	"github.com/joeblew999/osm-map/internal/service"
)

var popupTmpl = template.Must(template.New("popup").Parse(
	`<div class="marker-tooltip">` +
		`{{if .Title}}<div class="marker-title"><h5 class="osm-map-heading">{{.Title}}</h5></div>{{end}}` +
		`<div class="marker-content">` +
		`{{if .Description}}<div class="marker-description">{{.Description}}</div>{{end}}` +
		`{{if .Button}}<div class="marker-button">` +
		`<a class="osm-map-button" target="{{.Target}}" href="{{.URL}}" role="button">` +
		`<span class="osm-map-button-text">{{.ButtonText}}</span></a></div>{{end}}` +
		`</div></div>`))

type popupData struct {
	Title       string
	Description string
	Button      bool
	ButtonText  string
	URL         string
	Target      string
}

// Popup builds the payload shown for a marker: a title heading, the
// description and a call to action button when enabled with a label. It
// returns "" when there is nothing to show.
func Popup(m service.Marker) string {
	d := popupData{
		Title:       strings.TrimSpace(m.Title),
		Description: strings.TrimSpace(m.Description),
		Button:      m.ShowButton && strings.TrimSpace(m.ButtonText) != "",
		ButtonText:  strings.TrimSpace(m.ButtonText),
		URL:         m.ButtonURL,
		Target:      m.ButtonTarget,
	}
	if d.Title == "" && d.Description == "" && !d.Button {
		return ""
	}
	if d.Target == "" {
		d.Target = "_blank"
	}

	var b strings.Builder
	if err := popupTmpl.Execute(&b, d); err != nil {
		return ""
	}
	return b.String()
}
