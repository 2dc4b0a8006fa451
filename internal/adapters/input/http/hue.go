package http

import (
	"github.com/amimof/huego"
	"github.com/lucasb-eyer/go-colorful"
	"myko-bridge/internal/domain/model"
)

type hueMetadata struct {
	Type    string
	ModelID string
}

const manufacturer = "Myko"

// metadataFor picks the Hue light type a client expects for the capabilities.
func metadataFor(caps model.Capabilities) hueMetadata {
	switch {
	case caps.Has(model.ColorModeRGB):
		return hueMetadata{Type: "Extended color light", ModelID: "LCT015"}
	case caps.Has(model.ColorModeColorTemp):
		return hueMetadata{Type: "Color temperature light", ModelID: "LTW001"}
	case caps.OnOffOnly():
		return hueMetadata{Type: "On/Off plug-in unit", ModelID: "LOM001"}
	default:
		return hueMetadata{Type: "Dimmable light", ModelID: "LWB010"}
	}
}

func toHueLight(l model.LightSnapshot) *huego.Light {
	meta := metadataFor(l.Capabilities)
	return &huego.Light{
		Name:             l.Name,
		Type:             meta.Type,
		State:            toHueState(l),
		ModelID:          meta.ModelID,
		UniqueID:         l.ID,
		ManufacturerName: manufacturer,
	}
}

func toHueState(l model.LightSnapshot) *huego.State {
	st := l.State
	state := &huego.State{
		On:        st.Power == model.PowerOn,
		Reachable: l.Available,
	}
	if !l.Capabilities.OnOffOnly() {
		state.Bri = 254
		if st.Brightness != nil {
			state.Bri = uint8(clamp(*st.Brightness, 1, 254))
		}
	}

	switch st.ColorMode {
	case model.ColorModeRGB:
		if st.RGB != nil {
			c := colorful.Color{R: float64(st.RGB.R) / 255, G: float64(st.RGB.G) / 255, B: float64(st.RGB.B) / 255}
			x, y, _ := c.Xyy()
			state.Xy = []float32{float32(x), float32(y)}
			state.ColorMode = "xy"
		}
	case model.ColorModeWhite, model.ColorModeColorTemp:
		if st.ColorTempMireds != nil {
			state.Ct = uint16(clamp(*st.ColorTempMireds, 153, 500))
			state.ColorMode = "ct"
		}
	}
	return state
}

// hueStateUpdate is the body of PUT /lights/{id}/state. Pointers tell absent
// fields from zero values. White is not part of the Hue API: it switches the
// light to white mode at the given 0-255 level.
type hueStateUpdate struct {
	On    *bool     `json:"on,omitempty"`
	Bri   *float64  `json:"bri,omitempty"`
	Ct    *float64  `json:"ct,omitempty"`
	Xy    []float64 `json:"xy,omitempty"`
	Hue   *float64  `json:"hue,omitempty"`
	Sat   *float64  `json:"sat,omitempty"`
	White *float64  `json:"white,omitempty"`
}

func (u hueStateUpdate) turnsOff() bool {
	return u.On != nil && !*u.On
}

func (u hueStateUpdate) empty() bool {
	return u.On == nil && u.Bri == nil && u.Ct == nil && len(u.Xy) < 2 && u.Hue == nil && u.Sat == nil && u.White == nil
}

func (u hueStateUpdate) toRequest() model.TurnOnRequest {
	var req model.TurnOnRequest
	if u.Bri != nil {
		req.Brightness = model.IntPtr(clamp(int(*u.Bri), 0, 255))
	}
	if u.Ct != nil {
		req.ColorTempMireds = model.IntPtr(clamp(int(*u.Ct), 153, 500))
	}
	if u.White != nil {
		req.White = true
		req.WhiteLevel = model.IntPtr(clamp(int(*u.White), 0, 255))
	}

	var c colorful.Color
	switch {
	case len(u.Xy) >= 2:
		c = colorful.Xyy(u.Xy[0], u.Xy[1], 1.0)
	case u.Hue != nil || u.Sat != nil:
		var h, sat float64
		if u.Hue != nil {
			h = *u.Hue / 65535 * 360
		}
		if u.Sat != nil {
			sat = *u.Sat / 254
		}
		c = colorful.Hsv(h, sat, 1.0)
	default:
		return req
	}
	r, g, b := c.Clamped().RGB255()
	req.RGB = &model.RGB{R: int(r), G: int(g), B: int(b)}
	return req
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
