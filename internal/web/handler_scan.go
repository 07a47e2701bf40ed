package web

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/service"
)

const maxPhotoSize = 20 * 1024 * 1024 // 20 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// formLocation reads the optional lat/lng form fields. Both must be present
// and numeric, otherwise the caller has no location.
func formLocation(r *http.Request) (*domain.LatLng, bool) {
	latStr, lngStr := r.FormValue("lat"), r.FormValue("lng")
	if latStr == "" && lngStr == "" {
		return nil, true
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, false
	}
	return &domain.LatLng{Lat: lat, Lng: lng}, true
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, clientID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.serverError(w, "read upload failed", err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	near, ok := formLocation(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid location")
		return
	}

	// Use a detached context so the scan is recorded even if the client
	// goes away while the oracle is working.
	scan, err := s.svc.Scans.Scan(context.WithoutCancel(r.Context()), clientID, imageData, mimeType, near)
	if err != nil {
		s.fail(w, "scan failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, scan)
}

type photoResponse struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request, clientID string) {
	photos, err := s.svc.Scans.Photos(r.Context(), clientID)
	if err != nil {
		s.fail(w, "list photos failed", err)
		return
	}
	out := make([]photoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, photoResponse{
			ID:         p.ID,
			URL:        service.PhotoURL(p.ID),
			MimeType:   p.MimeType,
			UploadedAt: p.UploadedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request, clientID string) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	reader, mimeType, err := s.svc.Scans.Photo(r.Context(), clientID, id)
	if err != nil {
		s.fail(w, "get photo failed", err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "photo_id", id, "error", err)
	}
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request, clientID string) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid photo id")
		return
	}
	if err := s.svc.Scans.DeletePhoto(r.Context(), clientID, id); err != nil {
		s.fail(w, "delete photo failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
