// Package dashboard holds the client-side list/form view shared by the
// hotel and rental car screens.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"travel_booking/internal/adapters/bookingapi"
	"travel_booking/internal/domain"
)

type Dialog int

const (
	Closed Dialog = iota
	Viewing
	Editing
	Adding
)

func (d Dialog) String() string {
	switch d {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Adding:
		return "adding"
	}
	return "closed"
}

var ErrNoForm = errors.New("no form is open")

// API is the slice of bookingapi.Client the view needs.
type API interface {
	List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error)
	Create(ctx context.Context, k *domain.Kind, vals map[string]string, img *bookingapi.Image) (domain.Entity, error)
	Update(ctx context.Context, k *domain.Kind, id string, vals map[string]string, img *bookingapi.Image) (domain.Entity, error)
	Delete(ctx context.Context, k *domain.Kind, id string) (string, error)
}

// Form is what the user submits from the create/edit dialog.
type Form struct {
	Values map[string]string
	Image  *bookingapi.Image
}

// ListView keeps the local copy of one kind's list plus the dialog state.
// It is not safe for concurrent use.
type ListView struct {
	api  API
	kind *domain.Kind
	log  zerolog.Logger

	items    []domain.Entity
	dialog   Dialog
	selected domain.Entity
}

func NewListView(api API, k *domain.Kind, l zerolog.Logger) *ListView {
	return &ListView{api: api, kind: k, log: l.With().Str("kind", k.Path).Logger()}
}

func (v *ListView) Kind() *domain.Kind { return v.kind }

// Mount fetches the full list. On failure the previous list is kept.
func (v *ListView) Mount(ctx context.Context) error {
	items, err := v.api.List(ctx, v.kind)
	if err != nil {
		v.log.Error().Err(err).Msg("fetch failed")
		return err
	}
	v.items = items
	return nil
}

func (v *ListView) Reload(ctx context.Context) error { return v.Mount(ctx) }

func (v *ListView) Items() []domain.Entity {
	out := make([]domain.Entity, len(v.items))
	copy(out, v.items)
	return out
}

func (v *ListView) Dialog() Dialog { return v.dialog }

// Selected is the record shown in the view/edit dialog, nil otherwise.
func (v *ListView) Selected() domain.Entity { return v.selected }

func (v *ListView) View(id string) error { return v.open(Viewing, id) }

func (v *ListView) Edit(id string) error { return v.open(Editing, id) }

func (v *ListView) Add() {
	v.dialog = Adding
	v.selected = nil
}

func (v *ListView) Close() {
	v.dialog = Closed
	v.selected = nil
}

func (v *ListView) open(d Dialog, id string) error {
	i := v.index(id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", v.kind.Singular, id, domain.ErrNotFound)
	}
	v.dialog = d
	v.selected = v.items[i]
	return nil
}

func (v *ListView) index(id string) int {
	for i, e := range v.items {
		if e.GetID() == id {
			return i
		}
	}
	return -1
}

// Submit validates the form and sends a create (Adding) or update (Editing).
// On success the dialog closes and the list is re-fetched; on failure
// nothing changes locally and the dialog stays open.
func (v *ListView) Submit(ctx context.Context, f Form) (domain.Entity, error) {
	switch v.dialog {
	case Adding:
		return v.create(ctx, f)
	case Editing:
		return v.update(ctx, f)
	}
	return nil, ErrNoForm
}

func (v *ListView) create(ctx context.Context, f Form) (domain.Entity, error) {
	vals := formValues(f)
	delete(vals, "image")
	if f.Image != nil {
		vals["image"] = f.Image.Filename
	}
	if err := domain.ValidateValues(v.kind, vals, false); err != nil {
		return nil, err
	}
	delete(vals, "image")

	out, err := v.api.Create(ctx, v.kind, vals, f.Image)
	if err != nil {
		v.log.Error().Err(err).Msg("create failed")
		return nil, err
	}
	v.afterMutation(ctx, func() {
		if out != nil {
			v.items = append(v.items, out)
		}
	})
	return out, nil
}

func (v *ListView) update(ctx context.Context, f Form) (domain.Entity, error) {
	id := v.selected.GetID()
	vals := formValues(f)
	delete(vals, "id")
	if f.Image != nil {
		vals["image"] = f.Image.Filename
	}
	if err := domain.ValidateValues(v.kind, vals, true); err != nil {
		return nil, err
	}
	if f.Image != nil {
		delete(vals, "image")
	}

	out, err := v.api.Update(ctx, v.kind, id, vals, f.Image)
	if err != nil {
		v.log.Error().Err(err).Str("id", id).Msg("update failed")
		return nil, err
	}
	if out == nil {
		v.log.Warn().Str("id", id).Msg("update matched no record")
	}
	v.afterMutation(ctx, func() {
		i := v.index(id)
		switch {
		case i < 0:
		case out == nil:
			v.items = append(v.items[:i], v.items[i+1:]...)
		default:
			v.items[i] = out
		}
	})
	return out, nil
}

// Delete removes id on the server, then locally.
func (v *ListView) Delete(ctx context.Context, id string) error {
	if _, err := v.api.Delete(ctx, v.kind, id); err != nil {
		v.log.Error().Err(err).Str("id", id).Msg("delete failed")
		return err
	}
	v.afterMutation(ctx, func() {
		if i := v.index(id); i >= 0 {
			v.items = append(v.items[:i], v.items[i+1:]...)
		}
	})
	return nil
}

// afterMutation closes the dialog and re-fetches; splice runs only when the
// re-fetch fails.
func (v *ListView) afterMutation(ctx context.Context, splice func()) {
	v.Close()
	items, err := v.api.List(ctx, v.kind)
	if err != nil {
		v.log.Warn().Err(err).Msg("re-fetch after mutation failed; applying server response locally")
		splice()
		return
	}
	v.items = items
}

func formValues(f Form) map[string]string {
	out := make(map[string]string, len(f.Values)+1)
	for k, val := range f.Values {
		out[k] = val
	}
	return out
}
