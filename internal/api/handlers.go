package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/anushankari123/docuchain/internal/digest"
	"github.com/anushankari123/docuchain/internal/qrcode"
	"github.com/anushankari123/docuchain/internal/registry"
)

const documentField = "document"

// handleIssue hashes the uploaded document, pins it, and records the
// certificate on the ledger as the authenticated issuer.
func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	key := digest.Sum(data)

	var locator string
	if s.pinner != nil {
		cid, err := s.pinner.Add(r.Context(), filename, data)
		if err != nil {
			respondError(w, fmt.Errorf("%w: %v", registry.ErrUnavailable, err))
			return
		}
		locator = cid
	}

	rec, err := s.svc.Issue(r.Context(), issuerFrom(r.Context()), key, locator)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, s.certificateResponse(rec, true))
}

// handleVerify checks a certificate presented either as the original
// document (multipart upload) or as a key / scanned QR payload form value.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	key, ok := s.keyFromRequest(w, r)
	if !ok {
		return
	}
	s.respondRecord(w, r, key, http.StatusOK)
}

// handleGet is verification by key alone.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := digest.ParseKey(mux.Vars(r)["key"])
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", registry.ErrInvalidKey, err))
		return
	}
	s.respondRecord(w, r, key, http.StatusOK)
}

// handleRevoke deactivates a certificate on behalf of the authenticated
// issuer. History stays queryable afterwards.
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	key, err := digest.ParseKey(mux.Vars(r)["key"])
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", registry.ErrInvalidKey, err))
		return
	}

	rec, err := s.svc.Revoke(r.Context(), issuerFrom(r.Context()), key)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.certificateResponse(rec, true))
}

// handleQR serves the scannable PNG for a certificate key.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	key, err := digest.ParseKey(mux.Vars(r)["key"])
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", registry.ErrInvalidKey, err))
		return
	}

	size := qrcode.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 2048 {
			respondBadRequest(w, "invalid_size", "size must be an integer between 64 and 2048")
			return
		}
		size = n
	}

	img, err := qrcode.Encode(key, size)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Statistics(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{
		TotalIssued:  stats.TotalIssued,
		TotalRevoked: stats.TotalRevoked,
		ActiveCount:  stats.Active(),
	})
}

// respondRecord writes the Verify result plus the ever-issued flag.
func (s *Server) respondRecord(w http.ResponseWriter, r *http.Request, key digest.Key, status int) {
	rec, err := s.svc.Verify(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}

	ever, err := s.svc.WasEverIssued(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, status, s.certificateResponse(rec, ever))
}

// readDocument extracts the uploaded document from a multipart request.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (data []byte, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		respondBadRequest(w, "invalid_upload", "expected a multipart upload with a 'document' file")
		return nil, "", false
	}

	file, header, err := r.FormFile(documentField)
	if err != nil {
		respondBadRequest(w, "invalid_upload", "missing 'document' file field")
		return nil, "", false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		respondBadRequest(w, "invalid_upload", "failed to read uploaded document")
		return nil, "", false
	}
	return data, header.Filename, true
}

// keyFromRequest resolves the verification subject, preferring an uploaded
// document over a key or scanned payload form value.
func (s *Server) keyFromRequest(w http.ResponseWriter, r *http.Request) (digest.Key, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		respondBadRequest(w, "invalid_request", "expected a multipart form")
		return digest.Key{}, false
	}

	if file, _, err := r.FormFile(documentField); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			respondBadRequest(w, "invalid_upload", "failed to read uploaded document")
			return digest.Key{}, false
		}
		return digest.Sum(data), true
	}

	if payload := r.FormValue("payload"); payload != "" {
		key, err := qrcode.ParsePayload(payload)
		if err != nil {
			respondError(w, fmt.Errorf("%w: %v", registry.ErrInvalidKey, err))
			return digest.Key{}, false
		}
		return key, true
	}

	if keyHex := r.FormValue("key"); keyHex != "" {
		key, err := digest.ParseKey(keyHex)
		if err != nil {
			respondError(w, fmt.Errorf("%w: %v", registry.ErrInvalidKey, err))
			return digest.Key{}, false
		}
		return key, true
	}

	respondBadRequest(w, "invalid_request", "provide a 'document' file, a 'key', or a scanned 'payload'")
	return digest.Key{}, false
}
