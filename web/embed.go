// Package web embeds the dashboard served at the API server's root.
//
// The static/ directory holds a single-page dashboard that calls the REST
// API and listens on the WebSocket stream for finished analyses. It is
// embedded at compile-time using go:embed.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/fraudscope/web"
//	fs := web.DistFS()  // returns io/fs.FS rooted at static/
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed all:static
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded static/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "static")
	if err != nil {
		log.Fatalf("web.DistFS: %v", err)
	}
	return sub
}
