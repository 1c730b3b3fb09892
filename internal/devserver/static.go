package devserver

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func httpOpen(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if info, statErr := f.Stat(); statErr == nil && info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// rewriteCharset sets an explicit charset=utf-8 on the Content-Type header
// for any text-ish file (JavaScript, CSS, HTML, JSON, maps) so a browser
// never falls back to sniffing a non-UTF-8 charset for sources containing
// non-ASCII string literals.
func rewriteCharset(w http.ResponseWriter, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		switch ext {
		case ".js", ".mjs", ".cjs":
			ctype = "text/javascript"
		case ".css":
			ctype = "text/css"
		case ".json", ".map":
			ctype = "application/json"
		case ".html":
			ctype = "text/html"
		}
	}
	if ctype == "" {
		return
	}
	if isTextish(ctype) && !strings.Contains(ctype, "charset") {
		ctype = ctype + "; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
}

func isTextish(ctype string) bool {
	return strings.HasPrefix(ctype, "text/") ||
		strings.Contains(ctype, "javascript") ||
		strings.Contains(ctype, "json")
}
