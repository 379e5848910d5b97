// Package web embeds the HTML templates of the to-do list.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded templates. Pages are addressed by file
// name, e.g. "index.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"path": joinPath,
	}).ParseFS(files, "templates/*.html")
}

// joinPath prefixes an absolute route with the mount point.
func joinPath(base, route string) string {
	return base + route
}
