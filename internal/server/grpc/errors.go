package grpc

import (
	"errors"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/artwork"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var codeByError = []struct {
	err  error
	code codes.Code
}{
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrAlreadyExists, codes.AlreadyExists},
	{common.ErrInvalidArgument, codes.InvalidArgument},
	{common.ErrInvalidAmount, codes.InvalidArgument},
	{common.ErrInvalidTransfer, codes.InvalidArgument},
	{common.ErrUnknownPack, codes.InvalidArgument},
	{common.ErrCooldownActive, codes.ResourceExhausted},
	{common.ErrForbidden, codes.PermissionDenied},
	{common.ErrUserBanned, codes.PermissionDenied},
	{common.ErrDropAlreadyOpen, codes.FailedPrecondition},
	{common.ErrNoActiveDrop, codes.FailedPrecondition},
	{common.ErrAlreadyClaimed, codes.FailedPrecondition},
	{common.ErrEmptyCatalog, codes.FailedPrecondition},
	{common.ErrInsufficientFunds, codes.FailedPrecondition},
	{common.ErrItemNotForSale, codes.FailedPrecondition},
	{common.ErrTradeNotPending, codes.FailedPrecondition},
	{common.ErrLedgerMismatch, codes.DataLoss},
	{artwork.ErrDisabled, codes.FailedPrecondition},
}

// toStatus converts a service error into a gRPC status. Domain conditions
// keep their message; anything else becomes a generic Internal error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, m := range codeByError {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	return status.Error(codes.Internal, "internal error")
}
