package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/domain/service"
	"myko-bridge/internal/domain/translator"
)

type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) GetLights(ctx context.Context) ([]model.LightSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.LightSnapshot), args.Error(1)
}

func (m *MockBridge) GetLight(ctx context.Context, id string) (model.LightSnapshot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.LightSnapshot), args.Error(1)
}

func (m *MockBridge) TurnOn(ctx context.Context, id string, req model.TurnOnRequest) error {
	return m.Called(ctx, id, req).Error(0)
}

func (m *MockBridge) TurnOff(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBridge) SendCommand(ctx context.Context, ids []string, cmd model.FieldCommand) error {
	return m.Called(ctx, ids, cmd).Error(0)
}

func desk() model.LightSnapshot {
	return model.LightSnapshot{
		ID:        "c1",
		Name:      "Desk",
		Available: true,
		State: model.LightState{
			Power:           model.PowerOn,
			Brightness:      model.IntPtr(255),
			ColorMode:       model.ColorModeWhite,
			ColorTempMireds: model.IntPtr(370),
		},
		Capabilities: model.Capabilities{
			Modes:     []model.ColorMode{model.ColorModeRGB, model.ColorModeColorTemp, model.ColorModeWhite},
			MinMireds: 154,
			MaxMireds: 370,
		},
		Attributes: map[string]interface{}{"model": "TBD"},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_GetLights(t *testing.T) {
	bridge := new(MockBridge)
	bridge.On("GetLights", mock.Anything).Return([]model.LightSnapshot{desk()}, nil)
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodGet, "/api/myko/lights", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var lights map[string]huego.Light
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lights))
	require.Contains(t, lights, "c1")
	l := lights["c1"]
	assert.Equal(t, "Desk", l.Name)
	assert.Equal(t, "Extended color light", l.Type)
	assert.True(t, l.State.On)
	assert.Equal(t, uint8(254), l.State.Bri)
	assert.Equal(t, uint16(370), l.State.Ct)
	assert.Equal(t, "ct", l.State.ColorMode)
}

func TestServer_GetLightNotFound(t *testing.T) {
	bridge := new(MockBridge)
	bridge.On("GetLight", mock.Anything, "nope").
		Return(model.LightSnapshot{}, fmt.Errorf("%w: nope", service.ErrLightNotFound))
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodGet, "/api/myko/lights/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SetLightState(t *testing.T) {
	bridge := new(MockBridge)
	bridge.On("TurnOn", mock.Anything, "c1", model.TurnOnRequest{
		Brightness:      model.IntPtr(128),
		ColorTempMireds: model.IntPtr(250),
	}).Return(nil)
	bridge.On("TurnOff", mock.Anything, "c1").Return(nil)
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodPut, "/api/myko/lights/c1/state", `{"on":true,"bri":128,"ct":250}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 3)

	rec = do(t, h, http.MethodPut, "/api/myko/lights/c1/state", `{"on":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	bridge.AssertExpectations(t)
}

func TestServer_SetLightColor(t *testing.T) {
	bridge := new(MockBridge)
	var got model.TurnOnRequest
	bridge.On("TurnOn", mock.Anything, "c1", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(model.TurnOnRequest) }).
		Return(nil)
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodPut, "/api/myko/lights/c1/state", `{"on":true,"hue":0,"sat":254}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.RGB)
	assert.Equal(t, model.RGB{R: 255, G: 0, B: 0}, *got.RGB)
}

func TestServer_SetLightWhite(t *testing.T) {
	bridge := new(MockBridge)
	var got model.TurnOnRequest
	bridge.On("TurnOn", mock.Anything, "c1", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(model.TurnOnRequest) }).
		Return(nil)
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodPut, "/api/myko/lights/c1/state", `{"on":true,"white":128}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.White)
	require.NotNil(t, got.WhiteLevel)
	assert.Equal(t, 128, *got.WhiteLevel)

	delta, err := translator.BuildTurnOn(got, desk().Capabilities, model.IntPtr(255))
	require.NoError(t, err)
	data, err := json.Marshal(delta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"power":"on","color-mode":"white","brightness":50}`, string(data))
}

func TestServer_SendCommand(t *testing.T) {
	bridge := new(MockBridge)
	cmd := model.FieldCommand{Class: "power", Value: "on", Instance: "light-power"}
	bridge.On("SendCommand", mock.Anything, []string{"c1", "c2"}, cmd).Return(nil)
	bridge.On("SendCommand", mock.Anything, []string{"c3"}, model.FieldCommand{Class: "power", Value: "off"}).Return(nil)
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodPost, "/services/myko/send_command",
		`{"entity_id":["light.c1","c2"],"functionClass":"power","value":"on","functionInstance":"light-power"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/services/myko/send_command",
		`{"entity_id":"light.c3","functionClass":"power","value":"off"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodPost, "/services/myko/send_command", `{"entity_id":"c1","value":"off"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bridge.AssertExpectations(t)
}

func TestServer_Diagnostics(t *testing.T) {
	bridge := new(MockBridge)
	bridge.On("GetLights", mock.Anything).Return([]model.LightSnapshot{desk()}, nil)
	h := NewServer(bridge, "10.0.0.5", nil).Routes()

	rec := do(t, h, http.MethodGet, "/admin/lights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"model":"TBD"`)
	assert.Contains(t, rec.Body.String(), `"max_mireds":370`)
}

func TestToHueState_RGB(t *testing.T) {
	l := desk()
	l.State.ColorMode = model.ColorModeRGB
	l.State.RGB = &model.RGB{R: 255, G: 255, B: 255}
	st := toHueState(l)

	assert.Equal(t, "xy", st.ColorMode)
	require.Len(t, st.Xy, 2)
	assert.InDelta(t, 0.3127, st.Xy[0], 0.01)
	assert.InDelta(t, 0.3290, st.Xy[1], 0.01)
}

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, "Color temperature light", metadataFor(model.Capabilities{Modes: []model.ColorMode{model.ColorModeColorTemp}}).Type)
	assert.Equal(t, "Dimmable light", metadataFor(model.Capabilities{Modes: []model.ColorMode{model.ColorModeWhite}}).Type)
	assert.Equal(t, "On/Off plug-in unit", metadataFor(model.Capabilities{Modes: []model.ColorMode{model.ColorModeOnOff}}).Type)
}
