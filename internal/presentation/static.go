package presentation

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// MountStatic serves the storefront (index.html, payment.html, success.html,
// product pages and assets) from a directory on disk. The pages are plain
// files generated ahead of time; the server only hands them out.
func MountStatic(r chi.Router, dir string) {
	fileServer := http.FileServer(http.Dir(dir))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(dir, "index.html"))
	})

	r.Get("/assets/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=604800")
		fileServer.ServeHTTP(w, req)
	})

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+req.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(w, req)
	})
}
