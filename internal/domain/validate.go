package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names so messages line up with form fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a complete record against the shared schema.
func Validate(k *Kind, e Entity) error {
	return ValidateValues(k, k.Values(e), false)
}

// ValidateValues checks raw field values for kind k. The server and the
// dashboards run the same check. With partial set, only fields present in
// vals are checked (update requests); otherwise every field is required.
func ValidateValues(k *Kind, vals map[string]string, partial bool) error {
	e := k.New()
	failed := make(map[string]string)
	for _, f := range k.Fields {
		v, ok := vals[f.Name]
		if !ok || v == "" {
			continue
		}
		if err := e.Set(f.Name, v); err != nil {
			failed[f.Name] = f.Label + " must be Available or Booked"
		}
	}

	if err := validate.Struct(e); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return err
		}
		for _, fe := range ves {
			name := fe.Field()
			if _, seen := failed[name]; seen {
				continue
			}
			if _, present := vals[name]; partial && !present {
				continue
			}
			f, _ := k.Field(name)
			failed[name] = message(f, fe)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	ve := &ValidationError{}
	for _, f := range k.Fields {
		if msg, ok := failed[f.Name]; ok {
			ve.Fields = append(ve.Fields, FieldError{Field: f.Name, Message: msg})
		}
	}
	return ve
}

func message(f Field, fe validator.FieldError) string {
	label := f.Label
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return label + " is invalid"
}
