package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/domain/translator"
	"myko-bridge/internal/ports"
)

var (
	ErrNotReady      = errors.New("myko not ready, retry later")
	ErrLightNotFound = errors.New("light not found")
)

// NotReadyError wraps a connectivity fault hit while setting up devices.
// It matches both ErrNotReady and the underlying cause.
type NotReadyError struct {
	Err error
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s: %v", ErrNotReady, e.Err)
}

func (e *NotReadyError) Unwrap() []error {
	return []error{ErrNotReady, e.Err}
}

// lightEntry pairs a light with the lock that keeps its writes and polls
// from overlapping.
type lightEntry struct {
	mu    sync.Mutex
	light *Light
}

type BridgeService struct {
	myko    ports.MykoPort
	factory *translator.Factory
	metrics ports.Metrics
	debug   bool

	mu     sync.RWMutex
	lights map[string]*lightEntry
	order  []string
}

func NewBridgeService(myko ports.MykoPort, factory *translator.Factory, metrics ports.Metrics, debug bool) *BridgeService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &BridgeService{
		myko:    myko,
		factory: factory,
		metrics: metrics,
		debug:   debug,
		lights:  make(map[string]*lightEntry),
	}
}

// Setup discovers Myko devices and creates one light per light-class device.
// Connectivity faults come back as *NotReadyError.
func (s *BridgeService) Setup(ctx context.Context) (int, error) {
	log.Debug().Msg("Attempting automatic discovery")
	devices, err := s.myko.DiscoverDevices(ctx)
	if err != nil {
		return 0, setupError(err)
	}

	lights := make(map[string]*lightEntry)
	var order []string
	for _, d := range devices {
		if d.DeviceClass != "" && d.DeviceClass != model.DeviceClassLight {
			log.Debug().Str("friendly_name", d.FriendlyName).Str("device_class", d.DeviceClass).Msg("Skipping non-light device")
			continue
		}
		if d.Incomplete() {
			found, err := s.myko.LookupChild(ctx, d.FriendlyName)
			if errors.Is(err, ports.ErrConnectivity) {
				return 0, setupError(fmt.Errorf("lookup %q: %w", d.FriendlyName, err))
			}
			if err != nil {
				// Unaddressable; one bad record must not block the rest.
				log.Warn().Err(err).Str("friendly_name", d.FriendlyName).Msg("Skipping device with incomplete identifiers")
				continue
			}
			d.ChildID, d.Model, d.DeviceID, d.DeviceClass = found.ChildID, found.Model, found.DeviceID, found.DeviceClass
		}

		log.Debug().
			Str("child_id", d.ChildID).
			Str("model", d.Model).
			Str("device_id", d.DeviceID).
			Str("device_class", d.DeviceClass).
			Str("friendly_name", d.FriendlyName).
			Int("functions", len(d.Functions)).
			Msg("Discovered device")

		if d.DeviceClass != model.DeviceClassLight {
			continue
		}
		if d.Functions == nil {
			if d.Functions, err = s.myko.GetFunctions(ctx, d.ChildID); err != nil {
				return 0, setupError(fmt.Errorf("functions of %s: %w", d.ChildID, err))
			}
		}

		caps, err := s.factory.Capabilities(d)
		if err != nil {
			return 0, fmt.Errorf("capabilities of %s: %w", d.ChildID, err)
		}
		if _, dup := lights[d.ChildID]; !dup {
			order = append(order, d.ChildID)
		}
		lights[d.ChildID] = &lightEntry{light: NewLight(*d, caps, s.myko, s.metrics, s.debug)}
	}

	s.mu.Lock()
	s.lights = lights
	s.order = order
	s.mu.Unlock()

	log.Info().Int("lights", len(order)).Msg("Myko lights set up")
	return len(order), nil
}

func setupError(err error) error {
	if errors.Is(err, ports.ErrConnectivity) {
		return &NotReadyError{Err: err}
	}
	return err
}

func (s *BridgeService) entries() []*lightEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*lightEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.lights[id])
	}
	return out
}

func (s *BridgeService) entry(id string) (*lightEntry, error) {
	s.mu.RLock()
	e, ok := s.lights[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLightNotFound, id)
	}
	return e, nil
}

func (s *BridgeService) withLight(id string, fn func(*Light) error) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.light)
}

func (s *BridgeService) GetLights(ctx context.Context) ([]model.LightSnapshot, error) {
	entries := s.entries()
	out := make([]model.LightSnapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.light.Snapshot())
		e.mu.Unlock()
	}
	return out, nil
}

func (s *BridgeService) GetLight(ctx context.Context, id string) (model.LightSnapshot, error) {
	var snap model.LightSnapshot
	err := s.withLight(id, func(l *Light) error {
		snap = l.Snapshot()
		return nil
	})
	return snap, err
}

func (s *BridgeService) TurnOn(ctx context.Context, id string, req model.TurnOnRequest) error {
	return s.withLight(id, func(l *Light) error { return l.TurnOn(ctx, req) })
}

func (s *BridgeService) TurnOff(ctx context.Context, id string) error {
	return s.withLight(id, func(l *Light) error { return l.TurnOff(ctx) })
}

// SendCommand writes cmd to every listed light. Unknown ids are reported but
// do not stop the others.
func (s *BridgeService) SendCommand(ctx context.Context, ids []string, cmd model.FieldCommand) error {
	log.Info().Strs("entity_ids", ids).Str("function", cmd.Class).Str("value", cmd.Value).Msg("Received send_command")
	var errs []error
	for _, id := range ids {
		err := s.withLight(id, func(l *Light) error { return l.SendCommand(ctx, cmd) })
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PollAll updates every light once. A failing light does not stop the rest.
func (s *BridgeService) PollAll(ctx context.Context) error {
	var errs []error
	for _, e := range s.entries() {
		e.mu.Lock()
		err := e.light.Update(ctx)
		id := e.light.UniqueID()
		e.mu.Unlock()
		if err != nil {
			log.Warn().Err(err).Str("child_id", id).Msg("Failed to update light")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run polls all lights on a fixed interval until ctx is done.
func (s *BridgeService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = model.DefaultScanInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = s.PollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.PollAll(ctx)
		}
	}
}
