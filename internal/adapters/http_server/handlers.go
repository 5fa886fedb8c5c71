package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"travel_booking/internal/app"
	"travel_booking/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	C *app.CommandService
	// MaxUploadBytes caps request bodies on create/update; 0 means 10 MiB.
	MaxUploadBytes int64
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

// MountHandlers registers the same four routes for every resource kind.
func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		for _, k := range domain.Kinds {
			r.Get("/"+k.Path, h.list(k))
			r.Post("/"+k.Path, h.create(k))
			r.Put("/"+k.Path+"/{id}", h.update(k))
			r.Delete("/"+k.Path+"/{id}", h.remove(k))
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps client mistakes to 4xx; everything else collapses to a
// 500 carrying the generic message and the raw error.
func writeError(w http.ResponseWriter, r *http.Request, k *domain.Kind, op string, err error) {
	var ve *domain.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: ve.Fields})
		return
	case errors.Is(err, domain.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: []domain.FieldError{{Field: "status", Message: "Status must be Available or Booked"}}})
		return
	case errors.Is(err, domain.ErrNotImage):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Image must be an image file", Error: err.Error()})
		return
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: "Upload too large", Error: err.Error()})
		return
	case errors.Is(err, errBadPayload):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Malformed request body", Error: err.Error()})
		return
	}

	log.Error().Err(err).
		Str("kind", k.Path).
		Str("op", op).
		Str("request_id", requestID(r)).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Error " + op + " " + noun(k, op), Error: err.Error()})
}

// noun: "Error fetching cars", "Error adding car".
func noun(k *domain.Kind, op string) string {
	if op == "fetching" {
		return k.Plural
	}
	return k.Singular
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) list(k *domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.Q.List(r.Context(), k)
		if err != nil {
			writeError(w, r, k, "fetching", err)
			return
		}

		etag, body := calcETagAndBody(items)
		if body == nil {
			writeError(w, r, k, "fetching", errors.New("encode list"))
			return
		}
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			log.Error().Err(err).Str("kind", k.Path).Msg("failed to write list body")
		}
	}
}

func (h *Handlers) create(k *domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.readPayload(w, r)
		if err != nil {
			writeError(w, r, k, "adding", err)
			return
		}
		defer p.cleanup()

		out, err := h.C.Create(r.Context(), k, p.values, p.image)
		if err != nil {
			writeError(w, r, k, "adding", err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *Handlers) update(k *domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.readPayload(w, r)
		if err != nil {
			writeError(w, r, k, "updating", err)
			return
		}
		defer p.cleanup()

		// unknown ids answer 200 with a null body
		out, err := h.C.Update(r.Context(), k, chi.URLParam(r, "id"), p.values, p.image)
		if err != nil {
			writeError(w, r, k, "updating", err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handlers) remove(k *domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.C.Delete(r.Context(), k, chi.URLParam(r, "id")); err != nil {
			writeError(w, r, k, "deleting", err)
			return
		}
		writeJSON(w, http.StatusOK, messageBody{Message: k.Label() + " deleted successfully"})
	}
}
