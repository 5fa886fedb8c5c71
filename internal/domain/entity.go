package domain

import "time"

// Entity is a stored resource record. Implementations are pointer types.
type Entity interface {
	GetID() string
	SetID(id string)
	// Get returns the field value by name, "" for unknown names.
	Get(field string) string
	// Set assigns a field by name; status values are parsed.
	Set(field, value string) error
	Times() (created, updated time.Time)
	SetTimes(created, updated time.Time)
}

// Timestamps is embedded in every record.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (t *Timestamps) Times() (time.Time, time.Time) { return t.CreatedAt, t.UpdatedAt }

func (t *Timestamps) SetTimes(created, updated time.Time) {
	t.CreatedAt, t.UpdatedAt = created, updated
}

// Touch stamps a record about to be written.
func Touch(e Entity, now time.Time) {
	created, _ := e.Times()
	if created.IsZero() {
		created = now
	}
	e.SetTimes(created, now)
}

// Patch holds the fields present in an update request, keyed by field name.
type Patch map[string]string

// Apply overwrites the fields present in p.
func (p Patch) Apply(e Entity) error {
	for name, v := range p {
		if err := e.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}
