package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"travel_booking/internal/domain"
)

// Cached lists live under a per-collection generation. Mutations bump the
// generation, so a list read before a write can only land under a key no
// later read asks for.
func listGenKey(k *domain.Kind) string { return "list:" + k.Collection + ":gen" }

func listKey(k *domain.Kind, gen int64) string {
	return fmt.Sprintf("list:%s:%d", k.Collection, gen)
}

var imageExts = map[string]string{
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/bmp":                ".bmp",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
	"image/avif":               ".avif",
}

// imageKey: <collection>/<uuid><ext>. The extension follows the sniffed
// content type; the client's file name is never trusted.
func imageKey(k *domain.Kind, contentType string) string {
	return fmt.Sprintf("%s/%s%s", k.Collection, uuid.NewString(), imageExts[contentType])
}

// decodeList turns cached JSON documents back into records of kind k.
func decodeList(k *domain.Kind, raws []json.RawMessage) ([]domain.Entity, error) {
	out := make([]domain.Entity, 0, len(raws))
	for _, raw := range raws {
		e := k.New()
		if err := json.Unmarshal(raw, e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// sniffImage checks the first bytes of the upload and records the detected
// content type. The returned Upload replays the sniffed bytes.
func sniffImage(img domain.Upload) (domain.Upload, error) {
	if img.Body == nil {
		return img, domain.ErrNotImage
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return img, fmt.Errorf("read upload: %w", err)
	}
	ct := http.DetectContentType(head[:n])
	if !strings.HasPrefix(ct, "image/") {
		return img, fmt.Errorf("%w (%s)", domain.ErrNotImage, ct)
	}
	img.ContentType = ct
	img.Body = io.MultiReader(bytes.NewReader(head[:n]), img.Body)
	return img, nil
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any, int) error    { return nil }
func (nopCache) Del(context.Context, string) error              { return nil }
func (nopCache) Incr(context.Context, string) (int64, error)    { return 0, nil }
