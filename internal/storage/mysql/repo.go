package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"travel_booking/internal/domain"
)

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(k *domain.Kind, row scanner) (domain.Entity, error) {
	var id string
	var created, updated time.Time
	vals := make([]string, len(k.Fields))

	dest := make([]any, 0, len(k.Fields)+3)
	dest = append(dest, &id)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	dest = append(dest, &created, &updated)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	e := k.New()
	e.SetID(id)
	for i, f := range k.Fields {
		if err := e.Set(f.Name, vals[i]); err != nil {
			return nil, fmt.Errorf("%s %s: %w", k.Collection, id, err)
		}
	}
	e.SetTimes(created, updated)
	return e, nil
}

func (r *Repo) List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error) {
	rows, err := r.db.QueryContext(ctx, listSQL(k))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Entity{}
	for rows.Next() {
		e, err := scanEntity(k, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Create(ctx context.Context, k *domain.Kind, e domain.Entity) (domain.Entity, error) {
	e.SetID(uuid.NewString())
	created, updated := e.Times()
	if created.IsZero() {
		now := r.now()
		created, updated = now, now
	}
	e.SetTimes(created, updated)

	args := make([]any, 0, len(k.Fields)+3)
	args = append(args, e.GetID())
	for _, f := range k.Fields {
		args = append(args, e.Get(f.Name))
	}
	args = append(args, created, updated)

	if _, err := r.db.ExecContext(ctx, insertSQL(k), args...); err != nil {
		return nil, err
	}
	return e, nil
}

// Update does not check existence up front: the re-read decides whether the
// result is a record or nil.
func (r *Repo) Update(ctx context.Context, k *domain.Kind, id string, p domain.Patch) (domain.Entity, error) {
	q, names := updateSQL(k, p)
	args := make([]any, 0, len(names)+2)
	for _, n := range names {
		args = append(args, p[n])
	}
	args = append(args, r.now(), id)

	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}

	e, err := scanEntity(k, r.db.QueryRowContext(ctx, getSQL(k), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Repo) Delete(ctx context.Context, k *domain.Kind, id string) error {
	_, err := r.db.ExecContext(ctx, deleteSQL(k), id)
	return err
}
