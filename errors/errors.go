package errors

import (
	stdErrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrUnknownCaller      = fmt.Errorf("validation failed: unknown user")
	ErrUnauthorizedCaller = fmt.Errorf("unauthorized user attempted to perform an action")
	ErrEmptyInput         = fmt.Errorf("empty input")
	ErrMalformedIdentity  = fmt.Errorf("malformed identity")

	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrMissingIdentity    = fmt.Errorf("no caller identity in context")
	ErrSlowSubscriber     = fmt.Errorf("subscriber buffer full")
	ErrReplicationStopped = fmt.Errorf("replication stopped")
)

// MapToGRPCError converts domain errors into gRPC status errors.
// The reason string travels unchanged in the status message.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case stdErrors.Is(err, ErrUnknownCaller):
		return status.Error(codes.FailedPrecondition, err.Error())
	case stdErrors.Is(err, ErrUnauthorizedCaller):
		return status.Error(codes.PermissionDenied, err.Error())
	case stdErrors.Is(err, ErrEmptyInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case stdErrors.Is(err, ErrMissingIdentity):
		return status.Error(codes.Unauthenticated, err.Error())
	case stdErrors.Is(err, ErrSlowSubscriber):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
