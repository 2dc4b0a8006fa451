package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/domain/translator"
	"myko-bridge/internal/ports"
)

// Light is the host facing entity for one Myko device.
//
// Writes update the local state right away and tag it Optimistic. The state
// stays optimistic until a read reaches the device. Light does no locking;
// BridgeService serializes calls per light.
type Light struct {
	device  model.Device
	caps    model.Capabilities
	reader  *stateReader
	metrics ports.Metrics
	debug   bool

	state     model.LightState
	available bool
	debugInfo interface{}
}

func NewLight(device model.Device, caps model.Capabilities, port ports.MykoPort, metrics ports.Metrics, debug bool) *Light {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Light{
		device:    device,
		caps:      caps,
		reader:    newStateReader(port, device.ChildID),
		metrics:   metrics,
		debug:     debug,
		state:     model.LightState{Power: model.PowerUnknown, ColorMode: model.ColorModeUnknown},
		available: true,
	}
}

func (l *Light) Name() string { return l.device.FriendlyName }
func (l *Light) UniqueID() string { return l.device.ChildID }
func (l *Light) Available() bool { return l.available }

// IsOn is nil while the power state is unknown.
func (l *Light) IsOn() *bool {
	if l.state.Power == model.PowerUnknown {
		return nil
	}
	on := l.state.Power == model.PowerOn
	return &on
}

func (l *Light) Brightness() *int { return l.state.Brightness }
func (l *Light) RGB() *model.RGB { return l.state.RGB }
func (l *Light) ColorTemp() *int { return l.state.ColorTempMireds }
func (l *Light) ColorMode() model.ColorMode { return l.state.ColorMode }
func (l *Light) MinMireds() int { return l.caps.MinMireds }
func (l *Light) MaxMireds() int { return l.caps.MaxMireds }
func (l *Light) State() model.LightState { return l.state }
func (l *Light) Capabilities() model.Capabilities { return l.caps }

func (l *Light) SupportedColorModes() []model.ColorMode {
	return slices.Clone(l.caps.Modes)
}

func (l *Light) ExtraAttributes() map[string]interface{} {
	return map[string]interface{}{
		"model":     l.device.Model,
		"deviceId":  l.device.DeviceID,
		"devbranch": false,
		"debugInfo": l.debugInfo,
		"confirmed": l.state.Confirmation == model.Confirmed,
	}
}

func (l *Light) Snapshot() model.LightSnapshot {
	return model.LightSnapshot{
		ID:           l.UniqueID(),
		Name:         l.Name(),
		Model:        l.device.Model,
		Available:    l.available,
		State:        l.state,
		Capabilities: l.caps,
		Attributes:   l.ExtraAttributes(),
	}
}

func (l *Light) TurnOn(ctx context.Context, req model.TurnOnRequest) error {
	delta, err := translator.BuildTurnOn(req, l.caps, l.state.Brightness)
	if err != nil {
		return fmt.Errorf("light %s: %w", l.device.ChildID, err)
	}
	return l.write(ctx, delta)
}

func (l *Light) TurnOff(ctx context.Context) error {
	return l.write(ctx, translator.BuildTurnOff())
}

// SendCommand writes one raw vendor field. The local state is left alone
// since the field may not map to anything the host models.
func (l *Light) SendCommand(ctx context.Context, cmd model.FieldCommand) error {
	echo, err := l.reader.WriteField(ctx, cmd)
	l.metrics.ObserveWrite(err)
	if err != nil {
		return l.fail(err)
	}
	l.recordDebug(echo)
	log.Debug().Str("child_id", l.device.ChildID).Str("function", cmd.Class).Str("value", cmd.Value).Msg("Sent raw command")
	return nil
}

// Update polls the device and replaces the local state with what it reports.
func (l *Light) Update(ctx context.Context) error {
	doc, suppressed, err := l.reader.Read(ctx)
	if err != nil {
		return l.fail(err)
	}
	l.metrics.ObserveRead(suppressed)

	state, err := translator.DecodeState(doc, l.caps)
	if err != nil && suppressed {
		// The echo was partial; ask the device instead.
		log.Debug().Err(err).Str("child_id", l.device.ChildID).Msg("Write echo incomplete, reading state")
		if doc, suppressed, err = l.reader.Read(ctx); err != nil {
			return l.fail(err)
		}
		l.metrics.ObserveRead(suppressed)
		state, err = translator.DecodeState(doc, l.caps)
	}
	if err != nil {
		l.metrics.ObserveDecodeFault()
		return fmt.Errorf("light %s: %w", l.device.ChildID, err)
	}
	if suppressed {
		state.Confirmation = model.Optimistic
	} else {
		state.Confirmation = model.Confirmed
	}
	l.state = state
	l.available = true
	l.recordDebug(doc)
	return nil
}

func (l *Light) write(ctx context.Context, delta model.VendorState) error {
	echo, err := l.reader.Write(ctx, delta)
	l.metrics.ObserveWrite(err)
	if err != nil {
		return l.fail(err)
	}
	l.state = translator.MergeDelta(l.state, delta)
	l.available = true
	l.recordDebug(echo)
	return nil
}

// fail marks the light unavailable on connectivity faults so the host can
// retry on the next poll.
func (l *Light) fail(err error) error {
	if errors.Is(err, ports.ErrConnectivity) {
		l.available = false
	}
	return fmt.Errorf("light %s: %w", l.device.ChildID, err)
}

func (l *Light) recordDebug(doc model.VendorState) {
	if l.debug {
		l.debugInfo = doc
	}
}
