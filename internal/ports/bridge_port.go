package ports

import (
	"context"

	"myko-bridge/internal/domain/model"
)

type BridgePort interface {
	GetLights(ctx context.Context) ([]model.LightSnapshot, error)
	GetLight(ctx context.Context, id string) (model.LightSnapshot, error)
	TurnOn(ctx context.Context, id string, req model.TurnOnRequest) error
	TurnOff(ctx context.Context, id string) error

	// SendCommand writes a raw vendor field on every listed light.
	SendCommand(ctx context.Context, ids []string, cmd model.FieldCommand) error
}
