// Package landing renders the static HTML page shown to browser visitors.
package landing

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed index.html
var indexHTML string

// Links are the two URLs substituted into the page.
type Links struct {
	RepoURL     string
	InstallHost string
}

// Render executes the embedded template once. The result carries no
// per-request data and can be served as is.
func Render(links Links) ([]byte, error) {
	tpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, fmt.Errorf("parse landing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, links); err != nil {
		return nil, fmt.Errorf("render landing page: %w", err)
	}
	return buf.Bytes(), nil
}
