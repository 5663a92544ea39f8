// pkg/web/static.go

package web

import (
	"io"
	"net/http"
	"path"
	"strings"
)

const notFoundBody = "<h1>404 Not Found</h1>"

// contentTypes is the fixed extension table; anything else serves as
// text/plain.
var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
}

// serveStatic resolves GET requests against the static root, with "/"
// mapping to index.html. http.Dir confines lookups to the root, so paths
// that try to climb out of it miss like any other absent file.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeNotFound(w)
		return
	}

	urlPath := path.Clean(r.URL.Path)
	if urlPath == "/" || urlPath == "." {
		urlPath = "/index.html"
	}

	f, err := http.Dir(s.cfg.StaticDir).Open(urlPath)
	if err != nil {
		s.writeNotFound(w)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.writeNotFound(w)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(urlPath))
	w.WriteHeader(http.StatusOK)

	_, _ = io.Copy(w, f)
}

func (s *Server) writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusNotFound)

	_, _ = io.WriteString(w, notFoundBody)
}

func contentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}

	return "text/plain"
}
