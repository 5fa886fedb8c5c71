package domain

import (
	"fmt"
	"strings"
)

// Field describes one user-editable attribute of a resource.
type Field struct {
	Name   string // JSON, form and document key
	Column string // SQL column
	Label  string // human label, used in validation messages and tables
}

// Kind describes a resource type exposed under /api/<Path>.
type Kind struct {
	Path       string
	Collection string
	Singular   string
	Plural     string
	Fields     []Field
	New        func() Entity
}

var Hotels = &Kind{
	Path:       "hotels",
	Collection: "hotels",
	Singular:   "hotel",
	Plural:     "hotels",
	Fields: []Field{
		{Name: "name", Column: "name", Label: "Hotel name"},
		{Name: "description", Column: "description", Label: "Description"},
		{Name: "location", Column: "location", Label: "Location"},
		{Name: "image", Column: "image", Label: "Image"},
		{Name: "status", Column: "status", Label: "Status"},
	},
	New: func() Entity { return &Hotel{} },
}

var RentalCars = &Kind{
	Path:       "rentCar",
	Collection: "rent_cars",
	Singular:   "car",
	Plural:     "cars",
	Fields: []Field{
		{Name: "carName", Column: "car_name", Label: "Car name"},
		{Name: "model", Column: "model", Label: "Model"},
		{Name: "description", Column: "description", Label: "Description"},
		{Name: "driverName", Column: "driver_name", Label: "Driver name"},
		{Name: "location", Column: "location", Label: "Location"},
		{Name: "status", Column: "status", Label: "Status"},
		{Name: "image", Column: "image", Label: "Image"},
	},
	New: func() Entity { return &RentalCar{} },
}

// Kinds is the static route table: every kind gets the same four endpoints.
var Kinds = []*Kind{Hotels, RentalCars}

func KindByPath(path string) (*Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(k.Path, path) {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, path)
}

func (k *Kind) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Label is the capitalized singular, e.g. "Hotel" or "Car".
func (k *Kind) Label() string {
	if k.Singular == "" {
		return ""
	}
	return strings.ToUpper(k.Singular[:1]) + k.Singular[1:]
}

// Values returns the record's editable fields keyed by field name.
func (k *Kind) Values(e Entity) map[string]string {
	out := make(map[string]string, len(k.Fields))
	for _, f := range k.Fields {
		out[f.Name] = e.Get(f.Name)
	}
	return out
}

// FromValues builds a record from the known fields present in vals.
// Unknown keys and "id" are ignored.
func (k *Kind) FromValues(vals map[string]string) (Entity, error) {
	e := k.New()
	for _, f := range k.Fields {
		v, ok := vals[f.Name]
		if !ok || v == "" {
			continue
		}
		if err := e.Set(f.Name, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// NewPatch keeps the known, non-empty fields of vals.
func (k *Kind) NewPatch(vals map[string]string) Patch {
	p := make(Patch, len(vals))
	for _, f := range k.Fields {
		if v, ok := vals[f.Name]; ok && v != "" {
			p[f.Name] = v
		}
	}
	return p
}
