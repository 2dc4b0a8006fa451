package translator

import (
	"myko-bridge/internal/domain/model"
)

// BuildTurnOn turns a host request into a Myko state delta. Attributes the
// device cannot take are dropped. When several attributes touch color-mode
// the last of rgb, white, color temperature wins.
func BuildTurnOn(req model.TurnOnRequest, caps model.Capabilities, current *int) (model.VendorState, error) {
	delta := model.VendorState{Power: model.PowerPtr(model.WirePowerOn)}

	if req.Brightness != nil && !caps.OnOffOnly() {
		delta.Brightness = model.IntPtr(BrightnessToWire(*req.Brightness))
	}

	if req.RGB != nil && caps.SupportsColor() {
		delta.ColorRGB = model.NewColorRGB(*req.RGB)
		delta.ColorMode = model.ColorModePtr(model.WireColorModeColor)
	}

	if req.White && caps.SupportsTemperature() {
		delta.ColorMode = model.ColorModePtr(model.WireColorModeWhite)
		level := req.WhiteLevel
		if level == nil {
			level = current
		}
		if level != nil {
			delta.Brightness = model.IntPtr(BrightnessToWire(*level))
		}
	}

	// Temperature only applies in white mode, so it overrides an rgb request.
	if req.ColorTempMireds != nil && caps.SupportsTemperature() {
		wire, err := Reciprocal(*req.ColorTempMireds)
		if err != nil {
			return model.VendorState{}, err
		}
		if caps.TemperatureChoices != nil {
			if wire, err = Quantize(wire, caps.TemperatureChoices); err != nil {
				return model.VendorState{}, err
			}
		}
		t := EncodeWireValue(wire, caps.TemperatureSuffix)
		delta.ColorTemperature = &t
		delta.ColorMode = model.ColorModePtr(model.WireColorModeWhite)
	}

	return delta, nil
}

func BuildTurnOff() model.VendorState {
	return model.VendorState{Power: model.PowerPtr(model.WirePowerOff)}
}
