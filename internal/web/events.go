package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"kalender/internal/ics"
	appLog "kalender/internal/log"
	"kalender/internal/model"
	"kalender/internal/store"
)

type importResponse struct {
	Imported int           `json:"imported"`
	Events   []model.Event `json:"events"`
}

type importURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.Input
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ev, err := model.NewEvent(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added := s.store.Add(ev)
	appLog.Info("event created", "id", added[0].ID, "date", added[0].Date.Format(model.DateLayout))
	writeJSON(w, http.StatusCreated, added[0])
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Remove(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDayEvents(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	day, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, s.store.OnDay(day))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month := s.now()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	view := s.store.Month(month.Year(), month.Month(), store.ParseWeekStart(s.cfg.WeekStart))
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := ics.EncodeTo(&buf, s.store.Snapshot()); err != nil {
		appLog.Error("export failed", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ics.ExportFilename(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxImportBytes)

	data, source, err := readUpload(r)
	if err != nil {
		s.writeImportError(w, &ics.ReadError{Source: source, Err: err})
		return
	}
	s.importData(w, data, source)
}

func (s *Server) handleImportURL(w http.ResponseWriter, r *http.Request) {
	if !s.urlImportAllowed() {
		appLog.Warn("url import refused; basic auth required off loopback", "listen", s.cfg.Listen)
		writeError(w, http.StatusForbidden, "url import requires basic_auth when listening beyond localhost")
		return
	}

	var req importURLRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	data, err := s.fetcher.Fetch(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		s.writeImportError(w, err)
		return
	}
	s.importData(w, data, "url")
}

// urlImportAllowed reports whether the server may fetch URLs on behalf of
// callers: only when they are authenticated or can only reach loopback.
func (s *Server) urlImportAllowed() bool {
	return s.basicAuthEnabled() || isLoopbackListen(s.cfg.Listen)
}

func isLoopbackListen(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// readUpload returns the multipart field "file" when present, else the
// raw request body.
func readUpload(r *http.Request) ([]byte, string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		return data, "body", err
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "file", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	return data, hdr.Filename, err
}

// importData decodes data and appends the result to the store.
func (s *Server) importData(w http.ResponseWriter, data []byte, source string) {
	events, err := ics.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeImportError(w, err)
		return
	}
	if len(events) == 0 {
		appLog.Warn("import produced no events", "source", source, "bytes", len(data))
		writeError(w, http.StatusUnprocessableEntity, ics.ErrNoEvents.Error())
		return
	}

	added := s.store.Add(events...)
	appLog.Info("events imported", "source", source, "count", len(added))
	writeJSON(w, http.StatusOK, importResponse{Imported: len(added), Events: added})
}

func (s *Server) writeImportError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	var readErr *ics.ReadError
	if errors.As(err, &readErr) {
		appLog.Warn("import read failed", "source", readErr.Source, "error", readErr.Err.Error())
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	appLog.Error("import failed", err)
	writeError(w, http.StatusInternalServerError, "import failed")
}
