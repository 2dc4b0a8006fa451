package ports

import (
	"context"
	"errors"

	"myko-bridge/internal/domain/model"
)

// ErrConnectivity marks failures caused by the network or a timeout. Callers
// treat them as retryable.
var ErrConnectivity = errors.New("myko unreachable")

type MykoPort interface {
	DiscoverDevices(ctx context.Context) ([]*model.Device, error)
	GetFunctions(ctx context.Context, childID string) ([]model.Function, error)
	LookupChild(ctx context.Context, friendlyName string) (*model.Device, error)
	ReadState(ctx context.Context, childID string) (model.VendorState, error)
	// WriteState applies delta and returns the state the device reports afterwards.
	WriteState(ctx context.Context, childID string, delta model.VendorState) (model.VendorState, error)
	WriteField(ctx context.Context, childID string, cmd model.FieldCommand) (model.VendorState, error)
}
