package translator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Knetic/govaluate"
	"myko-bridge/internal/domain/model"
)

const (
	FunctionPower            = "power"
	FunctionBrightness       = "brightness"
	FunctionColorRGB         = "color-rgb"
	FunctionColorTemperature = "color-temperature"
	FunctionColorMode        = "color-mode"

	defaultMinMireds = 154
	defaultMaxMireds = 370
)

// DefaultProfiles covers models whose function list is known to be incomplete.
var DefaultProfiles = []*model.CapabilityProfile{
	{
		Name:      "goodhome-panel",
		Match:     "deviceClass == 'light' && model == 'TBD'",
		Modes:     []model.ColorMode{model.ColorModeRGB, model.ColorModeColorTemp, model.ColorModeWhite},
		MinMireds: defaultMinMireds,
		MaxMireds: defaultMaxMireds,
	},
}

type profile struct {
	name string
	expr *govaluate.EvaluableExpression
	caps model.Capabilities
}

// Factory derives device capabilities, first from configured profiles and
// then from the functions a device advertises.
type Factory struct {
	profiles []profile
}

func NewFactory(profiles []*model.CapabilityProfile) (*Factory, error) {
	f := &Factory{}
	for _, p := range profiles {
		expr, err := govaluate.NewEvaluableExpression(p.Match)
		if err != nil {
			return nil, fmt.Errorf("profile %s: match %q: %w", p.Name, p.Match, err)
		}
		caps, err := NewCapabilities(model.Capabilities{
			Modes:              p.Modes,
			MinMireds:          p.MinMireds,
			MaxMireds:          p.MaxMireds,
			TemperatureChoices: p.TemperatureChoices,
			TemperatureSuffix:  p.TemperatureSuffix,
		})
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		f.profiles = append(f.profiles, profile{name: p.Name, expr: expr, caps: caps})
	}
	return f, nil
}

// Capabilities returns the capability snapshot for d.
func (f *Factory) Capabilities(d *model.Device) (model.Capabilities, error) {
	params := map[string]interface{}{
		"model":       d.Model,
		"deviceClass": d.DeviceClass,
		"deviceId":    d.DeviceID,
		"childId":     d.ChildID,
	}
	for _, p := range f.profiles {
		result, err := p.expr.Evaluate(params)
		if err != nil {
			return model.Capabilities{}, fmt.Errorf("profile %s: %w", p.name, err)
		}
		if ok, _ := result.(bool); ok {
			return p.caps, nil
		}
	}
	return inferCapabilities(d)
}

// NewCapabilities validates c and fills in defaults. A non-nil empty choice
// list is an error.
func NewCapabilities(c model.Capabilities) (model.Capabilities, error) {
	if c.TemperatureChoices != nil {
		if len(c.TemperatureChoices) == 0 {
			return model.Capabilities{}, ErrNoTemperatureChoices
		}
		c.TemperatureChoices = slices.Clone(c.TemperatureChoices)
		slices.Sort(c.TemperatureChoices)
	}
	if len(c.Modes) == 0 {
		c.Modes = []model.ColorMode{model.ColorModeOnOff}
	}
	c.Modes = slices.Clone(c.Modes)
	if c.SupportsTemperature() {
		if c.MinMireds == 0 {
			c.MinMireds = defaultMinMireds
		}
		if c.MaxMireds == 0 {
			c.MaxMireds = defaultMaxMireds
		}
	}
	return c, nil
}

func inferCapabilities(d *model.Device) (model.Capabilities, error) {
	var c model.Capabilities
	if _, ok := d.Function(FunctionColorRGB); ok {
		c.Modes = append(c.Modes, model.ColorModeRGB)
	}
	if fn, ok := d.Function(FunctionColorTemperature); ok {
		c.Modes = append(c.Modes, model.ColorModeColorTemp)
		for _, v := range fn.Values {
			n, err := temperatureValue(model.TextTemperature(v.Name), "")
			if err != nil {
				return model.Capabilities{}, fmt.Errorf("device %s: %w", d.ChildID, err)
			}
			c.TemperatureChoices = append(c.TemperatureChoices, n)
			if c.TemperatureSuffix == "" {
				c.TemperatureSuffix = strings.TrimLeft(strings.TrimSpace(v.Name), "0123456789")
			}
		}
	}
	if _, ok := d.Function(FunctionBrightness); ok {
		c.Modes = append(c.Modes, model.ColorModeWhite)
	}

	c, err := NewCapabilities(c)
	if err != nil {
		return model.Capabilities{}, err
	}
	if n := len(c.TemperatureChoices); n > 0 {
		// Warmest choice gives the largest mired value.
		c.MinMireds, _ = Reciprocal(c.TemperatureChoices[n-1])
		c.MaxMireds, _ = Reciprocal(c.TemperatureChoices[0])
	}
	return c, nil
}
