package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/domain"
)

type CommandService struct {
	repo   domain.Store
	images domain.ImageStore
	cache  domain.Cache
	now    func() time.Time
}

func NewCommandService(r domain.Store, images domain.ImageStore, c domain.Cache) *CommandService {
	if c == nil {
		c = nopCache{}
	}
	return &CommandService{repo: r, images: images, cache: c, now: nowMillis}
}

// stores keep millisecond precision; responses must match what a later read returns
func nowMillis() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// Create validates vals against the full schema, stores the image (if any)
// and persists a new record. The image is required: either as an upload or
// as an already stored URL in vals["image"].
func (s *CommandService) Create(ctx context.Context, k *domain.Kind, vals map[string]string, img *domain.Upload) (domain.Entity, error) {
	vals = copyValues(vals)
	if img != nil {
		// placeholder so validation sees the image; replaced by the stored URL
		vals["image"] = img.Filename
		if vals["image"] == "" {
			vals["image"] = "upload"
		}
	}
	if err := domain.ValidateValues(k, vals, false); err != nil {
		return nil, err
	}
	key, err := s.storeUpload(ctx, k, img, vals)
	if err != nil {
		return nil, err
	}

	e, err := k.FromValues(vals)
	if err != nil {
		s.dropImage(ctx, k, key)
		return nil, err
	}
	domain.Touch(e, s.now())

	out, err := s.repo.Create(ctx, k, e)
	observability.ObserveStore(k.Collection, "create", err)
	if err != nil {
		s.dropImage(ctx, k, key)
		return nil, fmt.Errorf("create %s: %w", k.Singular, err)
	}
	s.invalidateList(ctx, k)
	return out, nil
}

// Update overwrites the fields present in vals (and the image, if uploaded).
// An unknown id is not an error: the result is nil.
func (s *CommandService) Update(ctx context.Context, k *domain.Kind, id string, vals map[string]string, img *domain.Upload) (domain.Entity, error) {
	vals = copyValues(vals)
	delete(vals, "id")
	if img != nil {
		vals["image"] = "upload"
	}
	if err := domain.ValidateValues(k, vals, true); err != nil {
		return nil, err
	}
	key, err := s.storeUpload(ctx, k, img, vals)
	if err != nil {
		return nil, err
	}

	out, err := s.repo.Update(ctx, k, id, k.NewPatch(vals))
	observability.ObserveStore(k.Collection, "update", err)
	if err != nil {
		s.dropImage(ctx, k, key)
		return nil, fmt.Errorf("update %s %s: %w", k.Singular, id, err)
	}
	if out == nil {
		log.Warn().Str("kind", k.Path).Str("id", id).Msg("update matched no record")
		s.dropImage(ctx, k, key)
	}
	s.invalidateList(ctx, k)
	return out, nil
}

// Delete removes the record; deleting an unknown id succeeds.
func (s *CommandService) Delete(ctx context.Context, k *domain.Kind, id string) error {
	err := s.repo.Delete(ctx, k, id)
	observability.ObserveStore(k.Collection, "delete", err)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", k.Singular, id, err)
	}
	s.invalidateList(ctx, k)
	return nil
}

// storeUpload saves img (if any) and points vals["image"] at it. The
// returned key is empty when nothing was stored.
func (s *CommandService) storeUpload(ctx context.Context, k *domain.Kind, img *domain.Upload, vals map[string]string) (string, error) {
	if img == nil {
		return "", nil
	}
	key, url, err := s.saveImage(ctx, k, *img)
	if err != nil {
		return "", err
	}
	vals["image"] = url
	return key, nil
}

func (s *CommandService) saveImage(ctx context.Context, k *domain.Kind, img domain.Upload) (key, url string, err error) {
	if s.images == nil {
		return "", "", fmt.Errorf("image storage is not configured")
	}
	img, err = sniffImage(img)
	if err != nil {
		observability.ObserveImageUpload(k.Collection, "rejected")
		return "", "", err
	}
	key = imageKey(k, img.ContentType)
	url, err = s.images.Save(ctx, key, img)
	if err != nil {
		observability.ObserveImageUpload(k.Collection, "error")
		return "", "", fmt.Errorf("save image: %w", err)
	}
	observability.ObserveImageUpload(k.Collection, "ok")
	return key, url, nil
}

// dropImage removes an upload no record ended up referencing.
func (s *CommandService) dropImage(ctx context.Context, k *domain.Kind, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Warn().Err(err).Str("kind", k.Path).Str("key", key).Msg("orphaned image not removed")
		return
	}
	observability.ObserveImageUpload(k.Collection, "dropped")
}

// every mutation moves the list to a new generation so the next read goes
// to the store; the superseded list is dropped right away
func (s *CommandService) invalidateList(ctx context.Context, k *domain.Kind) {
	gen, err := s.cache.Incr(ctx, listGenKey(k))
	if err != nil {
		log.Warn().Err(err).Str("kind", k.Path).Msg("list cache invalidation failed")
		return
	}
	if err := s.cache.Del(ctx, listKey(k, gen-1)); err != nil {
		log.Warn().Err(err).Str("kind", k.Path).Msg("superseded list not dropped")
	}
}
