package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/domain/translator"
	"myko-bridge/internal/ports"
)

type MockMykoPort struct {
	mock.Mock
}

func (m *MockMykoPort) DiscoverDevices(ctx context.Context) ([]*model.Device, error) {
	args := m.Called(ctx)
	devices, _ := args.Get(0).([]*model.Device)
	return devices, args.Error(1)
}

func (m *MockMykoPort) GetFunctions(ctx context.Context, childID string) ([]model.Function, error) {
	args := m.Called(ctx, childID)
	functions, _ := args.Get(0).([]model.Function)
	return functions, args.Error(1)
}

func (m *MockMykoPort) LookupChild(ctx context.Context, friendlyName string) (*model.Device, error) {
	args := m.Called(ctx, friendlyName)
	d, _ := args.Get(0).(*model.Device)
	return d, args.Error(1)
}

func (m *MockMykoPort) ReadState(ctx context.Context, childID string) (model.VendorState, error) {
	args := m.Called(ctx, childID)
	return args.Get(0).(model.VendorState), args.Error(1)
}

func (m *MockMykoPort) WriteState(ctx context.Context, childID string, delta model.VendorState) (model.VendorState, error) {
	args := m.Called(ctx, childID, delta)
	return args.Get(0).(model.VendorState), args.Error(1)
}

func (m *MockMykoPort) WriteField(ctx context.Context, childID string, cmd model.FieldCommand) (model.VendorState, error) {
	args := m.Called(ctx, childID, cmd)
	return args.Get(0).(model.VendorState), args.Error(1)
}

type countingMetrics struct {
	reads, suppressed, writes, failedWrites, decodeFaults int
}

func (c *countingMetrics) ObserveRead(suppressed bool) {
	c.reads++
	if suppressed {
		c.suppressed++
	}
}

func (c *countingMetrics) ObserveWrite(err error) {
	c.writes++
	if err != nil {
		c.failedWrites++
	}
}

func (c *countingMetrics) ObserveDecodeFault() { c.decodeFaults++ }

var deskCaps = model.Capabilities{
	Modes:     []model.ColorMode{model.ColorModeRGB, model.ColorModeColorTemp, model.ColorModeWhite},
	MinMireds: 154,
	MaxMireds: 370,
}

func deskDevice() model.Device {
	return model.Device{ChildID: "c1", Model: "TBD", DeviceID: "d1", DeviceClass: "light", FriendlyName: "Desk"}
}

func report(power model.WirePower, brightness int, mode model.WireColorMode, kelvin int) model.VendorState {
	t := model.NumericTemperature(kelvin)
	return model.VendorState{
		Power:            model.PowerPtr(power),
		Brightness:       model.IntPtr(brightness),
		ColorMode:        model.ColorModePtr(mode),
		ColorRGB:         model.NewColorRGB(model.RGB{R: 1, G: 2, B: 3}),
		ColorTemperature: &t,
	}
}

func TestLight_Getters(t *testing.T) {
	port := new(MockMykoPort)
	l := NewLight(deskDevice(), deskCaps, port, nil, false)

	assert.Equal(t, "Desk", l.Name())
	assert.Equal(t, "c1", l.UniqueID())
	assert.Nil(t, l.IsOn())
	assert.Equal(t, 154, l.MinMireds())
	assert.Equal(t, 370, l.MaxMireds())
	assert.Equal(t, deskCaps.Modes, l.SupportedColorModes())

	attrs := l.ExtraAttributes()
	assert.Equal(t, "TBD", attrs["model"])
	assert.Equal(t, "d1", attrs["deviceId"])
	assert.Equal(t, false, attrs["devbranch"])
}

func TestLight_Update(t *testing.T) {
	port := new(MockMykoPort)
	port.On("ReadState", mock.Anything, "c1").Return(report(model.WirePowerOn, 100, model.WireColorModeWhite, 2700), nil)
	metrics := &countingMetrics{}
	l := NewLight(deskDevice(), deskCaps, port, metrics, true)

	require.NoError(t, l.Update(context.Background()))
	require.NotNil(t, l.IsOn())
	assert.True(t, *l.IsOn())
	assert.Equal(t, 255, *l.Brightness())
	assert.Equal(t, model.ColorModeWhite, l.ColorMode())
	assert.Equal(t, 370, *l.ColorTemp())
	assert.Equal(t, model.RGB{R: 1, G: 2, B: 3}, *l.RGB())
	assert.Equal(t, model.Confirmed, l.State().Confirmation)
	assert.NotNil(t, l.ExtraAttributes()["debugInfo"])
	assert.Equal(t, 1, metrics.reads)
}

func TestLight_TurnOnOptimisticThenSuppressedRead(t *testing.T) {
	port := new(MockMykoPort)
	delta := model.VendorState{
		Power:     model.PowerPtr(model.WirePowerOn),
		ColorMode: model.ColorModePtr(model.WireColorModeColor),
		ColorRGB:  model.NewColorRGB(model.RGB{R: 10, G: 20, B: 30}),
	}
	echo := report(model.WirePowerOn, 40, model.WireColorModeColor, 2700)
	port.On("WriteState", mock.Anything, "c1", delta).Return(echo, nil).Once()
	fresh := report(model.WirePowerOn, 60, model.WireColorModeColor, 2700)
	port.On("ReadState", mock.Anything, "c1").Return(fresh, nil).Once()
	metrics := &countingMetrics{}
	l := NewLight(deskDevice(), deskCaps, port, metrics, false)
	ctx := context.Background()

	require.NoError(t, l.TurnOn(ctx, model.TurnOnRequest{RGB: &model.RGB{R: 10, G: 20, B: 30}}))
	assert.True(t, *l.IsOn())
	assert.Equal(t, model.ColorModeRGB, l.ColorMode())
	assert.Equal(t, model.Optimistic, l.State().Confirmation)
	assert.Equal(t, false, l.ExtraAttributes()["confirmed"])

	// First read after the write is served from the echo.
	require.NoError(t, l.Update(ctx))
	port.AssertNotCalled(t, "ReadState", mock.Anything, mock.Anything)
	assert.Equal(t, 102, *l.Brightness())
	assert.Equal(t, model.Optimistic, l.State().Confirmation)

	// The next one goes to the API.
	require.NoError(t, l.Update(ctx))
	assert.Equal(t, 153, *l.Brightness())
	assert.Equal(t, model.Confirmed, l.State().Confirmation)

	port.AssertExpectations(t)
	assert.Equal(t, 2, metrics.reads)
	assert.Equal(t, 1, metrics.suppressed)
	assert.Equal(t, 1, metrics.writes)
}

func TestLight_TurnOff(t *testing.T) {
	port := new(MockMykoPort)
	off := model.VendorState{Power: model.PowerPtr(model.WirePowerOff)}
	port.On("WriteState", mock.Anything, "c1", off).Return(off, nil)
	l := NewLight(deskDevice(), deskCaps, port, nil, false)

	require.NoError(t, l.TurnOff(context.Background()))
	require.NotNil(t, l.IsOn())
	assert.False(t, *l.IsOn())
	port.AssertExpectations(t)
}

func TestLight_WriteFailureKeepsState(t *testing.T) {
	port := new(MockMykoPort)
	port.On("WriteState", mock.Anything, "c1", mock.Anything).
		Return(model.VendorState{}, fmt.Errorf("%w: timeout", ports.ErrConnectivity))
	port.On("ReadState", mock.Anything, "c1").Return(report(model.WirePowerOff, 0, model.WireColorModeWhite, 2700), nil)
	metrics := &countingMetrics{}
	l := NewLight(deskDevice(), deskCaps, port, metrics, false)
	ctx := context.Background()

	err := l.TurnOn(ctx, model.TurnOnRequest{})
	assert.ErrorIs(t, err, ports.ErrConnectivity)
	assert.Nil(t, l.IsOn())
	assert.False(t, l.Available())
	assert.Equal(t, 1, metrics.failedWrites)

	// A failed write must not arm the read suppression.
	require.NoError(t, l.Update(ctx))
	port.AssertCalled(t, "ReadState", mock.Anything, "c1")
	assert.True(t, l.Available())
}

func TestLight_DecodeFault(t *testing.T) {
	port := new(MockMykoPort)
	doc := report(model.WirePowerOn, 50, model.WireColorModeWhite, 2700)
	doc.Brightness = nil
	port.On("ReadState", mock.Anything, "c1").Return(doc, nil)
	metrics := &countingMetrics{}
	l := NewLight(deskDevice(), deskCaps, port, metrics, false)

	err := l.Update(context.Background())
	assert.ErrorIs(t, err, translator.ErrStateInconsistent)
	assert.Nil(t, l.Brightness())
	assert.Equal(t, 1, metrics.decodeFaults)
}

func TestLight_SendCommand(t *testing.T) {
	port := new(MockMykoPort)
	cmd := model.FieldCommand{Class: "power", Value: "on", Instance: "light-power"}
	echo := report(model.WirePowerOn, 50, model.WireColorModeWhite, 2700)
	port.On("WriteField", mock.Anything, "c1", cmd).Return(echo, nil)
	l := NewLight(deskDevice(), deskCaps, port, nil, false)
	ctx := context.Background()

	require.NoError(t, l.SendCommand(ctx, cmd))
	require.NoError(t, l.Update(ctx))
	port.AssertNotCalled(t, "ReadState", mock.Anything, mock.Anything)
	assert.Equal(t, 127, *l.Brightness())
}

func TestLight_PartialEchoFallsBackToRead(t *testing.T) {
	port := new(MockMykoPort)
	cmd := model.FieldCommand{Class: "power", Value: "on"}
	port.On("WriteField", mock.Anything, "c1", cmd).
		Return(model.VendorState{Power: model.PowerPtr(model.WirePowerOn)}, nil)
	port.On("ReadState", mock.Anything, "c1").
		Return(report(model.WirePowerOn, 80, model.WireColorModeWhite, 2700), nil).Once()
	metrics := &countingMetrics{}
	l := NewLight(deskDevice(), deskCaps, port, metrics, false)
	ctx := context.Background()

	require.NoError(t, l.SendCommand(ctx, cmd))
	require.NoError(t, l.Update(ctx))
	port.AssertExpectations(t)
	assert.Equal(t, 204, *l.Brightness())
	assert.Equal(t, model.Confirmed, l.State().Confirmation)
	assert.Zero(t, metrics.decodeFaults)
	assert.Equal(t, 2, metrics.reads)
	assert.Equal(t, 1, metrics.suppressed)
}
