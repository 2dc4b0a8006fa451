package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type WirePower string

const (
	WirePowerOn  WirePower = "on"
	WirePowerOff WirePower = "off"
)

type WireColorMode string

const (
	WireColorModeColor WireColorMode = "color"
	WireColorModeWhite WireColorMode = "white"
)

// VendorState is the Myko state document. Every field is optional: a delta
// carries only what it changes, a full report carries what the device has.
type VendorState struct {
	Power            *WirePower     `json:"power,omitempty"`
	Brightness       *int           `json:"brightness,omitempty"` // 0-100
	ColorMode        *WireColorMode `json:"color-mode,omitempty"`
	ColorRGB         *ColorRGB      `json:"color-rgb,omitempty"`
	ColorTemperature *Temperature   `json:"color-temperature,omitempty"`
}

type ColorRGB struct {
	Value WireRGB `json:"color-rgb"`
}

type WireRGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

func NewColorRGB(c RGB) *ColorRGB {
	return &ColorRGB{Value: WireRGB{R: c.R, G: c.G, B: c.B}}
}

// Temperature is a vendor color-temperature value. Devices report it either
// as a bare number or as text ending in a unit suffix such as "2700K".
type Temperature struct {
	text    string
	number  int
	textual bool
}

func NumericTemperature(v int) Temperature {
	return Temperature{number: v}
}

func TextTemperature(s string) Temperature {
	return Temperature{text: s, textual: true}
}

func (t Temperature) IsText() bool {
	return t.textual
}

// Number returns the numeric form. Only meaningful when IsText is false.
func (t Temperature) Number() int {
	return t.number
}

func (t Temperature) String() string {
	if t.textual {
		return t.text
	}
	return strconv.Itoa(t.number)
}

func (t Temperature) MarshalJSON() ([]byte, error) {
	if t.textual {
		return json.Marshal(t.text)
	}
	return json.Marshal(t.number)
}

func (t *Temperature) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TextTemperature(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("color-temperature: %w", err)
	}
	*t = NumericTemperature(int(f))
	return nil
}

func PowerPtr(p WirePower) *WirePower {
	return &p
}

func ColorModePtr(m WireColorMode) *WireColorMode {
	return &m
}
