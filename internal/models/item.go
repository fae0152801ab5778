package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// StatusProcessed is the status marker written by the batch engine.
const StatusProcessed = "PROCESSED"

// Item is the record processed by the batch engine. Only Status is touched by
// processing; the remaining fields pass through unchanged.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Email       string `json:"email"`
}

// Validate checks the user supplied fields of an item.
func (i Item) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Length(0, 255)),
		validation.Field(&i.Email, is.EmailFormat),
	)
}
