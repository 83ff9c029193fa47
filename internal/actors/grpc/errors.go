package grpc

import (
	"errors"

	"github.com/rbroggi/wasteroute/internal/core/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{model.ErrNotFound, codes.NotFound},
	{model.ErrInvalidArgument, codes.InvalidArgument},
	{model.ErrInvalidCollector, codes.FailedPrecondition},
	{model.ErrInvalidDate, codes.FailedPrecondition},
	{model.ErrIneligibleWorkItem, codes.FailedPrecondition},
	{model.ErrOrderingInvariant, codes.FailedPrecondition},
	{model.ErrDuplicateRoute, codes.AlreadyExists},
	{model.ErrDuplicateUser, codes.AlreadyExists},
	{model.ErrInvalidTransition, codes.Aborted},
	{model.ErrUnauthenticated, codes.Unauthenticated},
	{model.ErrForbidden, codes.PermissionDenied},
}

// Status translates a use-case error into a grpc status. Unclassified errors, persistence
// failures included, become codes.Internal with an opaque message.
func Status(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	// persistence errors may wrap a classified driver error, they stay internal
	if errors.Is(err, model.ErrPersistence) {
		return status.New(codes.Internal, "internal error")
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return status.New(ec.code, err.Error())
		}
	}
	return status.New(codes.Internal, "internal error")
}
