// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

var (
	//go:embed templates/*.html
	templateFiles embed.FS

	//go:embed static
	staticFiles embed.FS
)

// StaticFS returns the stylesheet and other static files, rooted at static/.
func StaticFS() fs.FS {
	return mustSub(staticFiles, "static")
}

// TemplatesFS returns the page templates, rooted at templates/.
func TemplatesFS() fs.FS {
	return mustSub(templateFiles, "templates")
}

// mustSub panics on a bad directory name, which only a broken build can cause.
func mustSub(fsys embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s: %v", dir, err))
	}
	return sub
}
