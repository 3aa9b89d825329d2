package server

import (
	"net/http"
	"path"

	"github.com/spf13/afero"
)

// staticHandler serves files from fs. Missing files and directories without
// an index.html get the 404 page instead of a listing.
type staticHandler struct {
	fs       afero.Fs
	files    http.Handler
	notFound func(w http.ResponseWriter, r *http.Request)
}

func newStaticHandler(fs afero.Fs, notFound func(w http.ResponseWriter, r *http.Request)) *staticHandler {
	return &staticHandler{
		fs:       fs,
		files:    http.FileServer(afero.NewHttpFs(fs)),
		notFound: notFound,
	}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	info, err := h.fs.Stat(name)
	if err != nil {
		h.notFound(w, r)
		return
	}
	if info.IsDir() {
		if ok, _ := afero.Exists(h.fs, path.Join(name, "index.html")); !ok {
			h.notFound(w, r)
			return
		}
	}

	h.files.ServeHTTP(w, r)
}
