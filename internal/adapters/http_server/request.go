package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"travel_booking/internal/domain"
)

var errBadPayload = errors.New("malformed payload")

const defaultMaxUpload = 10 << 20

// payload is a decoded create/update body.
type payload struct {
	values map[string]string
	image  *domain.Upload
	close  func()
}

func (p *payload) cleanup() {
	if p.close != nil {
		p.close()
	}
}

// readPayload accepts multipart/form-data (fields + optional "image" file),
// urlencoded forms and JSON objects.
func (h *Handlers) readPayload(w http.ResponseWriter, r *http.Request) (*payload, error) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "multipart/form-data":
		return readMultipart(r, limit)
	case "application/json":
		return readJSON(r)
	default:
		if err := r.ParseForm(); err != nil {
			return nil, wrapBodyErr(err)
		}
		return &payload{values: firstValues(r.PostForm)}, nil
	}
}

func readMultipart(r *http.Request, limit int64) (*payload, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, wrapBodyErr(err)
	}
	form := r.MultipartForm
	p := &payload{
		values: firstValues(form.Value),
		close:  func() { _ = form.RemoveAll() },
	}

	files := form.File["image"]
	if len(files) == 0 {
		return p, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		p.cleanup()
		return nil, fmt.Errorf("open upload: %w", err)
	}
	p.image = upload(fh, f)
	p.close = func() {
		_ = f.Close()
		_ = form.RemoveAll()
	}
	return p, nil
}

func upload(fh *multipart.FileHeader, f multipart.File) *domain.Upload {
	return &domain.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}

func readJSON(r *http.Request) (*payload, error) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, wrapBodyErr(err)
	}
	vals := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			vals[k] = t
		default:
			vals[k] = fmt.Sprint(t)
		}
	}
	return &payload{values: vals}, nil
}

func firstValues(in map[string][]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, vs := range in {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

func wrapBodyErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadPayload, err)
}

func requestID(r *http.Request) string { return chimw.GetReqID(r.Context()) }
