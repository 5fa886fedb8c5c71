package domain

import "fmt"

type Hotel struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	Name        string `json:"name" bson:"name" validate:"required"`
	Description string `json:"description" bson:"description" validate:"required"`
	Location    string `json:"location" bson:"location" validate:"required"`
	Image       string `json:"image" bson:"image" validate:"required"`
	Status      Status `json:"status" bson:"status" validate:"required,oneof=Available Booked"`
	Timestamps  `bson:",inline"`
}

func (h *Hotel) GetID() string   { return h.ID }
func (h *Hotel) SetID(id string) { h.ID = id }

func (h *Hotel) Get(field string) string {
	switch field {
	case "name":
		return h.Name
	case "description":
		return h.Description
	case "location":
		return h.Location
	case "image":
		return h.Image
	case "status":
		return string(h.Status)
	}
	return ""
}

func (h *Hotel) Set(field, value string) error {
	switch field {
	case "name":
		h.Name = value
	case "description":
		h.Description = value
	case "location":
		h.Location = value
	case "image":
		h.Image = value
	case "status":
		s, err := ParseStatus(value)
		if err != nil {
			return err
		}
		h.Status = s
	default:
		return fmt.Errorf("%w: hotel.%s", ErrUnknownField, field)
	}
	return nil
}
