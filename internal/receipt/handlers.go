package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// multipartOverhead is the room left for form boundaries and headers on top
// of the file size limit
const multipartOverhead = 1 << 20

// writeJSON encodes v as the response body
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Error encoding response")
	}
}

// render executes a page template into a buffer first so a template error
// never leaves a half written page
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("Error rendering template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// logScanError logs upload mistakes as warnings and backend failures as errors
func (s *Server) logScanError(err error, filename string) {
	event := s.log.Error()
	if IsUserError(err) {
		event = s.log.Warn()
	}
	event.Err(err).Str("filename", filename).Msg("Error processing receipt")
}

// readUpload reads the "file" form field, bounded by the upload limit
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	limit := s.service.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	f, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, &ScanError{Op: "read upload", Err: ErrFileTooLarge}
		}
		return "", nil, &ScanError{Op: "read upload", Err: errors.Join(ErrNoFile, err)}
	}
	defer f.Close()

	// One byte past the limit is enough for the service to reject it
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return header.Filename, nil, &ScanError{Op: "read upload", Err: errors.Join(ErrProcessing, err)}
	}
	return header.Filename, data, nil
}

// handleIndex serves the upload page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "upload.html", map[string]any{
		"MaxUploadMB": s.service.MaxUploadBytes() >> 20,
	})
}

// handleStaticCSS serves the stylesheet
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(appCSS)
}

// handleHealth reports that the server is up
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload scans the uploaded receipt and renders the result page
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err == nil {
		var scan *Scan
		scan, err = s.service.Scan(r.Context(), filename, data)
		if err == nil {
			s.render(w, http.StatusOK, "result.html", scan)
			return
		}
	}

	s.logScanError(err, filename)
	status, message := userError(err, s.service.MaxUploadBytes())
	s.render(w, status, "error.html", map[string]any{"Message": message})
}

// handleAPIScan scans the uploaded receipt and returns the result as JSON
func (s *Server) handleAPIScan(w http.ResponseWriter, r *http.Request) {
	filename, data, err := s.readUpload(w, r)
	if err == nil {
		var scan *Scan
		scan, err = s.service.Scan(r.Context(), filename, data)
		if err == nil {
			s.writeJSON(w, http.StatusOK, scan)
			return
		}
	}

	s.logScanError(err, filename)
	status, message := userError(err, s.service.MaxUploadBytes())
	s.writeJSON(w, status, map[string]string{"error": message})
}
