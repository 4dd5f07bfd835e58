package reducer

import (
	"chat-gate/domain"
	"chat-gate/errors"
	"fmt"
)

// validateIdentity lets through callers that are known and authorized.
func validateIdentity(ctx *Context) (domain.User, error) {
	user, found, err := ctx.Users.FindByIdentity(ctx.Sender)
	switch {
	case err != nil:
		return domain.User{}, err
	case !found:
		return domain.User{}, errors.ErrUnknownCaller
	case !user.Authorized:
		return domain.User{}, errors.ErrUnauthorizedCaller
	}
	return user, nil
}

// validateName checks that a name is acceptable as a user's name.
func validateName(name string) (string, error) {
	if err := (domain.SetNameCommand{Name: name}).Validate(); err != nil {
		return "", fmt.Errorf("%w: names must not be empty", errors.ErrEmptyInput)
	}
	return name, nil
}

// validateMessage checks that a text is acceptable to send.
func validateMessage(text string) (string, error) {
	if err := (domain.SendMessageCommand{Text: text}).Validate(); err != nil {
		return "", fmt.Errorf("%w: messages must not be empty", errors.ErrEmptyInput)
	}
	return text, nil
}
