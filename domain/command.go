package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SetNameCommand is the payload of the set_name operation.
type SetNameCommand struct {
	Name string `validate:"required"`
}

// SendMessageCommand is the payload of the send_message operation.
type SendMessageCommand struct {
	Text string `validate:"required"`
}

func (c SetNameCommand) Validate() error {
	return validate.Struct(c)
}

func (c SendMessageCommand) Validate() error {
	return validate.Struct(c)
}
