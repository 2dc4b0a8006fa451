package translator

import (
	"myko-bridge/internal/domain/model"
)

// DecodeState reads a full Myko report into the host model. Fields the
// capabilities require must be present; nothing is defaulted.
func DecodeState(doc model.VendorState, caps model.Capabilities) (model.LightState, error) {
	state := model.LightState{
		Power:     model.PowerUnknown,
		ColorMode: fixedColorMode(caps),
	}

	if doc.Power == nil {
		return model.LightState{}, &StateInconsistencyError{Field: "power"}
	}
	switch *doc.Power {
	case model.WirePowerOn:
		state.Power = model.PowerOn
	case model.WirePowerOff:
		state.Power = model.PowerOff
	}

	if !caps.OnOffOnly() {
		if doc.Brightness == nil {
			return model.LightState{}, &StateInconsistencyError{Field: "brightness"}
		}
		state.Brightness = model.IntPtr(BrightnessToHost(doc.Brightness))
	}

	if caps.SupportsColor() {
		if doc.ColorRGB == nil {
			return model.LightState{}, &StateInconsistencyError{Field: "color-rgb"}
		}
		c := doc.ColorRGB.Value
		state.RGB = &model.RGB{R: c.R, G: c.G, B: c.B}
	}

	if caps.SupportsTemperature() {
		if doc.ColorMode == nil {
			return model.LightState{}, &StateInconsistencyError{Field: "color-mode"}
		}
		state.ColorMode = HostColorMode(*doc.ColorMode)

		if doc.ColorTemperature == nil {
			return model.LightState{}, &StateInconsistencyError{Field: "color-temperature"}
		}
		v, err := temperatureValue(*doc.ColorTemperature, caps.TemperatureSuffix)
		if err != nil {
			return model.LightState{}, err
		}
		mireds, err := Reciprocal(v)
		if err != nil {
			return model.LightState{}, err
		}
		state.ColorTempMireds = &mireds
	}

	return state, nil
}

// HostColorMode maps the vendor color-mode tag. Unknown tags pass through.
func HostColorMode(m model.WireColorMode) model.ColorMode {
	switch m {
	case model.WireColorModeColor:
		return model.ColorModeRGB
	case model.WireColorModeWhite:
		return model.ColorModeWhite
	}
	return model.ColorMode(m)
}

func fixedColorMode(caps model.Capabilities) model.ColorMode {
	if caps.OnOffOnly() {
		return model.ColorModeOnOff
	}
	if len(caps.Modes) == 1 {
		return caps.Modes[0]
	}
	return model.ColorModeUnknown
}

// MergeDelta applies the fields of a write delta to state. It is used for the
// optimistic echo after a write, so absent fields keep their old values and
// unparseable temperatures are ignored.
func MergeDelta(state model.LightState, delta model.VendorState) model.LightState {
	if delta.Power != nil {
		switch *delta.Power {
		case model.WirePowerOn:
			state.Power = model.PowerOn
		case model.WirePowerOff:
			state.Power = model.PowerOff
		}
	}
	if delta.Brightness != nil {
		state.Brightness = model.IntPtr(BrightnessToHost(delta.Brightness))
	}
	if delta.ColorMode != nil {
		state.ColorMode = HostColorMode(*delta.ColorMode)
	}
	if delta.ColorRGB != nil {
		c := delta.ColorRGB.Value
		state.RGB = &model.RGB{R: c.R, G: c.G, B: c.B}
	}
	if delta.ColorTemperature != nil {
		if mireds, err := ToMireds(delta.ColorTemperature); err == nil {
			state.ColorTempMireds = &mireds
		}
	}
	state.Confirmation = model.Optimistic
	return state
}
