package domain

import "fmt"

// RentalCar is a car offered with a driver at a location.
type RentalCar struct {
	ID          string `json:"id" bson:"_id,omitempty"`
	CarName     string `json:"carName" bson:"carName" validate:"required"`
	Model       string `json:"model" bson:"model" validate:"required"`
	Description string `json:"description" bson:"description" validate:"required"`
	DriverName  string `json:"driverName" bson:"driverName" validate:"required"`
	Location    string `json:"location" bson:"location" validate:"required"`
	Status      Status `json:"status" bson:"status" validate:"required,oneof=Available Booked"`
	Image       string `json:"image" bson:"image" validate:"required"`
	Timestamps  `bson:",inline"`
}

func (c *RentalCar) GetID() string   { return c.ID }
func (c *RentalCar) SetID(id string) { c.ID = id }

func (c *RentalCar) Get(field string) string {
	switch field {
	case "carName":
		return c.CarName
	case "model":
		return c.Model
	case "description":
		return c.Description
	case "driverName":
		return c.DriverName
	case "location":
		return c.Location
	case "status":
		return string(c.Status)
	case "image":
		return c.Image
	}
	return ""
}

func (c *RentalCar) Set(field, value string) error {
	switch field {
	case "carName":
		c.CarName = value
	case "model":
		c.Model = value
	case "description":
		c.Description = value
	case "driverName":
		c.DriverName = value
	case "location":
		c.Location = value
	case "image":
		c.Image = value
	case "status":
		s, err := ParseStatus(value)
		if err != nil {
			return err
		}
		c.Status = s
	default:
		return fmt.Errorf("%w: rentCar.%s", ErrUnknownField, field)
	}
	return nil
}
