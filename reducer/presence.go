package reducer

import (
	"chat-gate/contract"
	"chat-gate/domain"
	"fmt"
)

// Init creates the administrator row. It must only ever run once per database.
// A malformed admin identity is a deployment error and aborts initialization.
func Init(ctx *Context, adminHex string) error {
	admin, err := domain.ParseIdentity(adminHex)
	if err != nil {
		return fmt.Errorf("invalid admin identity: %w", err)
	}
	if err = ctx.Users.Insert(domain.User{
		Identity:   admin,
		Online:     true,
		Authorized: true,
	}); err != nil {
		return err
	}
	ctx.Log.Info("Administrator created", "identity", admin.String())
	return nil
}

// ClientConnected marks a returning user online, or creates the row of a new one.
// name and authorized of a returning user are left unchanged.
func ClientConnected(ctx *Context, authorizer contract.Authorizer) error {
	user, found, err := ctx.Users.FindByIdentity(ctx.Sender)
	if err != nil {
		return err
	}

	if found {
		user = user.WithOnline(true)
		err = ctx.Users.Update(user)
	} else {
		user = domain.User{
			Identity:   ctx.Sender,
			Online:     true,
			Authorized: authorizer.Authorize(ctx.Sender),
		}
		err = ctx.Users.Insert(user)
	}
	if err != nil {
		return err
	}

	if !user.Authorized {
		ctx.Log.Warn("Unauthorized user connected", "identity", ctx.Sender.String())
	}
	return nil
}

// ClientDisconnected marks the caller offline.
// A disconnect without a prior connect is logged and otherwise ignored.
func ClientDisconnected(ctx *Context) error {
	user, found, err := ctx.Users.FindByIdentity(ctx.Sender)
	if err != nil {
		return err
	}
	if !found {
		ctx.Log.Warn("Disconnect event for unknown user", "identity", ctx.Sender.String())
		return nil
	}
	return ctx.Users.Update(user.WithOnline(false))
}

// SetName renames an authorized caller.
func SetName(ctx *Context, name string) error {
	user, err := validateIdentity(ctx)
	if err != nil {
		return err
	}
	name, err = validateName(name)
	if err != nil {
		return err
	}
	return ctx.Users.Update(user.WithName(name))
}
