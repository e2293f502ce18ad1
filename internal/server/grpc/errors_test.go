package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/artwork"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"not found", fmt.Errorf("item 3: %w", common.ErrorNotFound), codes.NotFound, "item 3: not found"},
		{"insufficient", common.ErrInsufficientFunds, codes.FailedPrecondition, "insufficient funds"},
		{"already claimed", common.ErrAlreadyClaimed, codes.FailedPrecondition, "drop already claimed"},
		{"forbidden", common.ErrForbidden, codes.PermissionDenied, "forbidden"},
		{"banned", common.ErrUserBanned, codes.PermissionDenied, "user is banned"},
		{"amount", common.ErrInvalidAmount, codes.InvalidArgument, "amount must be positive"},
		{"cooldown", &common.CooldownError{Action: "daily", Remaining: 12}, codes.ResourceExhausted, "cooldown active: daily available in 12s"},
		{"mismatch", common.ErrLedgerMismatch, codes.DataLoss, "balance does not match ledger"},
		{"artwork", artwork.ErrDisabled, codes.FailedPrecondition, artwork.ErrDisabled.Error()},
		{"storage", &common.StorageError{Op: "ledger.append", Err: errors.New("pq: connection reset")}, codes.Internal, "internal error"},
		{"unknown", errors.New("boom"), codes.Internal, "internal error"},
		{"status passthrough", status.Error(codes.Unauthenticated, "missing token"), codes.Unauthenticated, "missing token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := status.Convert(toStatus(tt.err))
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}

	assert.NoError(t, toStatus(nil))
}
