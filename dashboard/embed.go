// Package dashboard provides the embedded web UI assets for SignalBoard.
//
// The page is an html/template rendered by the server package with the
// configured title, count element id and indicator markup. Its script
// applies page changes streamed from /api/sse to the live DOM.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - dashboard template with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
