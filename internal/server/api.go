package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/transfer"
	"github.com/instant-io/instant/internal/ui"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// maxMemory is the part of a multipart upload kept in memory; the rest
// spills to temporary files.
const maxMemory = 32 << 20

// IndexHandler renders the page, or serves the static index.html when
// templates are disabled.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.pages == nil {
		s.static.ServeHTTP(w, r)
		return
	}

	refresh := 0
	if len(s.manager.Sessions()) > 0 {
		refresh = int(transfer.DefaultStatusInterval.Seconds())
	}
	if err := s.pages.index(w, s.log, refresh); err != nil {
		s.logger.Error("failed to render index", zap.Error(err))
	}
}

type startResponse struct {
	Started    bool     `json:"started"`
	InfoHashes []string `json:"info_hashes,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// SubmitHandler starts a transfer for the torrentId form field.
func (s *Server) SubmitHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	started, hash, err := s.intake.Submit(r.Context(), r.PostForm.Get("torrentId"))
	resp := startResponse{Started: started}
	if hash != "" {
		resp.InfoHashes = []string{hash}
	}
	s.afterStart(w, r, resp, err)
}

// SeedHandler shares the uploaded files and starts downloading any uploaded
// .torrent files.
func (s *Server) SeedHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var files []intake.File
	for _, fh := range r.MultipartForm.File["upload"] {
		files = append(files, uploadedFile(fh))
	}

	hashes, err := s.intake.Drop(r.Context(), files)
	s.afterStart(w, r, startResponse{Started: len(hashes) > 0, InfoHashes: hashes}, err)
}

func uploadedFile(fh *multipart.FileHeader) intake.File {
	return intake.File{
		Name: path.Base(fh.Filename),
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// afterStart answers JSON clients with the outcome and sends browsers back to
// the page, where any error already shows in the log.
func (s *Server) afterStart(w http.ResponseWriter, r *http.Request, resp startResponse, err error) {
	if err != nil {
		resp.Error = err.Error()
		s.logger.Warn("failed to start transfer", zap.Error(err))
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	switch {
	case err != nil:
		status = http.StatusBadRequest
	case resp.Started:
		status = http.StatusAccepted
	}
	s.writeJSON(w, status, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

type logResponse struct {
	Lines    []ui.Line   `json:"lines"`
	Statuses []ui.Status `json:"statuses"`
}

func (s *Server) LogHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.writeJSON(w, http.StatusOK, logResponse{Lines: s.log.Lines(), Statuses: s.log.Statuses()})
}

func (s *Server) ListTransfersHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	infos := make([]transfer.Info, 0)
	for _, session := range s.manager.Sessions() {
		infos = append(infos, session.Info())
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) TransferHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, r, ps)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, session.Info())
}

func (s *Server) DescriptorHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, r, ps)
	if !ok {
		return
	}

	data, err := session.Torrent().Descriptor()
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/x-bittorrent")
	w.Header().Set("Content-Disposition", attachment(session.DescriptorName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) FileHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, r, ps)
	if !ok {
		return
	}

	index, err := strconv.Atoi(ps.ByName("index"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid file index %q", ps.ByName("index")))
		return
	}

	file, err := session.File(index)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	rc, err := file.Open(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(file.Name()))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(file.Name()))
	w.Header().Set("Content-Length", strconv.FormatInt(file.Length(), 10))

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("file download interrupted", zap.String("file", file.Path()), zap.Error(err))
	}
}

// ArchiveHandler collects every file of a transfer into one archive and
// redirects to it. The archive stays available for the blob TTL.
func (s *Server) ArchiveHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := s.session(w, r, ps)
	if !ok {
		return
	}

	archiver, err := s.archivers.CreateArchiver(s.cfg.ArchiveFormat)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	sink := &blobSink{store: s.blobs}
	res, err := session.Archive(r.Context(), archiver, sink, nil)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	logger := s.logger.With(zap.String("info_hash", session.InfoHash()), zap.String("archive", res.Name))
	if count, err := s.counter.Inc(r.Context(), session.InfoHash()); err != nil {
		logger.Warn("failed to count archive", zap.Error(err))
	} else {
		logger.Info("archive ready", zap.Int64("downloads", count), zap.Int("failed", res.Failed))
	}

	http.Redirect(w, r, "/blob/"+sink.token, http.StatusSeeOther)
}

func (s *Server) BlobHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	blob, ok := s.blobs.Get(ps.ByName("token"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, errors.New("this download link has expired"))
		return
	}

	contentType := mime.TypeByExtension(path.Ext(blob.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(blob.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Write(blob.Data)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*transfer.Session, bool) {
	session, err := s.manager.Session(ps.ByName("hash"))
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return nil, false
	}
	return session, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, transfer.ErrUnknownTransfer), errors.Is(err, transfer.ErrUnknownFile):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrNotReady), errors.Is(err, transfer.ErrArchiveInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}

	if wantsJSON(r) || s.pages == nil {
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	if renderErr := s.pages.error(w, status, err.Error()); renderErr != nil {
		s.logger.Error("failed to render error page", zap.Error(renderErr))
	}
}
