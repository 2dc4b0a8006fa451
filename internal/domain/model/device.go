package model

import "slices"

const DeviceClassLight = "light"

// Function describes one controllable attribute a Myko device advertises.
type Function struct {
	Class    string          `json:"functionClass"`
	Instance string          `json:"functionInstance,omitempty"`
	Values   []FunctionValue `json:"values,omitempty"`
}

type FunctionValue struct {
	Name string `json:"name"`
}

// Device is a discovery record returned by the Myko API.
type Device struct {
	ChildID      string     `json:"childId"`
	Model        string     `json:"model"`
	DeviceID     string     `json:"deviceId"`
	DeviceClass  string     `json:"deviceClass"`
	FriendlyName string     `json:"friendlyName"`
	Functions    []Function `json:"functions,omitempty"`
}

// Incomplete reports whether any identifier needed to address the device is missing.
func (d *Device) Incomplete() bool {
	return d.ChildID == "" || d.Model == "" || d.DeviceID == "" || d.DeviceClass == ""
}

func (d *Device) Function(class string) (Function, bool) {
	for _, f := range d.Functions {
		if f.Class == class {
			return f, true
		}
	}
	return Function{}, false
}

// Capabilities is the static set of things a device can do. It is built once
// per device and never changed.
type Capabilities struct {
	Modes              []ColorMode
	MinMireds          int
	MaxMireds          int
	TemperatureChoices []int  // ascending, wire values; nil when continuous
	TemperatureSuffix  string // appended to outgoing temperatures, e.g. "K"
}

func (c Capabilities) Has(mode ColorMode) bool {
	return slices.Contains(c.Modes, mode)
}

// OnOffOnly is true for lights without brightness control.
func (c Capabilities) OnOffOnly() bool {
	return c.Has(ColorModeOnOff)
}

// SupportsColor reports whether any color mode (rgb) is present.
func (c Capabilities) SupportsColor() bool {
	return c.Has(ColorModeRGB)
}

// SupportsTemperature is true for devices that take white or temperature commands.
func (c Capabilities) SupportsTemperature() bool {
	return c.SupportsColor() || c.Has(ColorModeColorTemp)
}
