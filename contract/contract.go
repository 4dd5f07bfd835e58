//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-gate/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// UserFinder is the read side of the User table.
type UserFinder interface {
	FindByIdentity(identity domain.Identity) (domain.User, bool, error)
}

// UserTable is the User table as seen from inside one transaction.
type UserTable interface {
	UserFinder
	Insert(user domain.User) error
	Update(user domain.User) error
}

// MessageTable is the Message table as seen from inside one transaction.
type MessageTable interface {
	Insert(message domain.Message) error
}

// Authorizer decides the authorized flag of a User row created on first connect.
type Authorizer interface {
	Authorize(identity domain.Identity) bool
}

// CommitSink receives the rows written by every successful transaction.
type CommitSink interface {
	Consume(ctx context.Context, commit domain.Commit) error
}

// UpdateSink receives the filtered rows destined to one observer.
type UpdateSink interface {
	Consume(ctx context.Context, update domain.Update) error
}

type IRegistry interface {
	Subscribe(sessionID string, observer domain.Identity, sink UpdateSink)
	Unsubscribe(sessionID string)
	Sessions() []Session
}

// Session binds a live subscription to the identity observing through it.
type Session struct {
	ID       string
	Observer domain.Identity
	Sink     UpdateSink
}
