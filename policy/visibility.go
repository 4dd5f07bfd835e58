// Package policy holds the row visibility rules applied to every connected observer.
// Rules are pure: they never write and can be re-evaluated at any time.
package policy

import (
	"chat-gate/contract"
	"chat-gate/domain"
)

// UserFilter decides whether a User row is replicated to observer.
type UserFilter func(row domain.User, observer domain.Identity) bool

// MessageFilter decides whether a Message row is replicated to observer.
// users resolves rows from the same snapshot the message was read from.
type MessageFilter func(row domain.Message, observer domain.Identity, users contract.UserFinder) (bool, error)

// Filters is the pair of rules registered with the replication layer.
type Filters struct {
	User    UserFilter
	Message MessageFilter
}

// Default is the policy of the public chat: a participant only sees their own account,
// and sees the whole feed once their own row is authorized.
var Default = Filters{
	User:    OwnAccountOnly,
	Message: AuthorizedObserversOnly,
}

// OwnAccountOnly keeps the row whose identity is the observer's.
func OwnAccountOnly(row domain.User, observer domain.Identity) bool {
	return row.Identity == observer
}

// AuthorizedObserversOnly keeps every message when the observer's own row is authorized,
// none otherwise. The sender's authorization plays no part.
func AuthorizedObserversOnly(_ domain.Message, observer domain.Identity, users contract.UserFinder) (bool, error) {
	return ObserverAuthorized(observer, users)
}

// ObserverAuthorized looks up the observer's own row.
func ObserverAuthorized(observer domain.Identity, users contract.UserFinder) (bool, error) {
	user, found, err := users.FindByIdentity(observer)
	if err != nil {
		return false, err
	}
	return found && user.Authorized, nil
}

// VisibleUsers applies the user rule to rows.
func (f Filters) VisibleUsers(rows []domain.User, observer domain.Identity) []domain.User {
	var visible []domain.User
	for _, row := range rows {
		if f.User(row, observer) {
			visible = append(visible, row)
		}
	}
	return visible
}

// VisibleMessages applies the message rule to rows.
func (f Filters) VisibleMessages(rows []domain.Message, observer domain.Identity, users contract.UserFinder) ([]domain.Message, error) {
	var visible []domain.Message
	for _, row := range rows {
		ok, err := f.Message(row, observer, users)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, row)
		}
	}
	return visible, nil
}
