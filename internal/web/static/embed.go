// Package static embeds the page templates and front-end assets of the web UI.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html assets/*
var files embed.FS

// Templates returns the embedded page templates.
func Templates() fs.FS {
	return sub("templates")
}

// GetFileSystem returns an http.FileSystem for the embedded assets directory.
func GetFileSystem() http.FileSystem {
	return http.FS(sub("assets"))
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return fsys
}
