package model

type Power string

const (
	PowerOn      Power = "on"
	PowerOff     Power = "off"
	PowerUnknown Power = "unknown"
)

type ColorMode string

const (
	ColorModeRGB       ColorMode = "rgb"
	ColorModeWhite     ColorMode = "white"
	ColorModeColorTemp ColorMode = "color_temp"
	ColorModeOnOff     ColorMode = "onoff"
	ColorModeUnknown   ColorMode = "unknown"
)

// Confirmation tells whether a cached light state was read back from the
// device or assumed after a write.
type Confirmation int

const (
	Confirmed Confirmation = iota
	Optimistic
)

func (c Confirmation) String() string {
	if c == Optimistic {
		return "optimistic"
	}
	return "confirmed"
}

type RGB struct {
	R, G, B int
}

// LightState is the host facing view of a light.
type LightState struct {
	Power           Power
	Brightness      *int // 0-255
	ColorMode       ColorMode
	RGB             *RGB
	ColorTempMireds *int
	Confirmation    Confirmation
}

// TurnOnRequest carries the attributes a host asked for. Nil fields were not requested.
type TurnOnRequest struct {
	Brightness *int // 0-255
	RGB        *RGB

	// White switches the light to white mode. WhiteLevel is the 0-255 level
	// to use; without it the current brightness is kept.
	White      bool
	WhiteLevel *int

	ColorTempMireds *int
}

// FieldCommand writes one raw vendor field.
type FieldCommand struct {
	Class    string `json:"functionClass"`
	Value    string `json:"value"`
	Instance string `json:"functionInstance,omitempty"`
}

func IntPtr(v int) *int {
	return &v
}

// LightSnapshot is a read-only copy of a light entity handed to input adapters.
type LightSnapshot struct {
	ID           string
	Name         string
	Model        string
	Available    bool
	State        LightState
	Capabilities Capabilities
	Attributes   map[string]interface{}
}
