package translator

import (
	"fmt"
	"strconv"
	"strings"

	"myko-bridge/internal/domain/model"
)

const reciprocalScale = 1_000_000

// ToMireds converts a vendor color temperature to mireds. The same transform
// turns mireds into the vendor's wire value. A nil value is read as 1.
func ToMireds(raw *model.Temperature) (int, error) {
	if raw == nil {
		return Reciprocal(1)
	}
	v, err := temperatureValue(*raw, "")
	if err != nil {
		return 0, err
	}
	return Reciprocal(v)
}

// Reciprocal returns 1_000_000 / v, truncated.
func Reciprocal(v int) (int, error) {
	if v <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTemperature, v)
	}
	return reciprocalScale / v, nil
}

// Quantize snaps requested to the closest of choices. On a tie the earlier
// choice wins.
func Quantize(requested int, choices []int) (int, error) {
	if len(choices) == 0 {
		return 0, ErrNoTemperatureChoices
	}
	best := 0
	for i := 1; i < len(choices); i++ {
		if abs(choices[i]-requested) < abs(choices[best]-requested) {
			best = i
		}
	}
	return choices[best], nil
}

// EncodeWireValue renders v the way the device expects: "<v><suffix>" when
// the device uses a unit suffix, a bare number otherwise.
func EncodeWireValue(v int, suffix string) model.Temperature {
	if suffix != "" {
		return model.TextTemperature(strconv.Itoa(v) + suffix)
	}
	return model.NumericTemperature(v)
}

// temperatureValue extracts the number from t. A configured suffix is removed
// first; otherwise a single trailing unit byte is dropped.
func temperatureValue(t model.Temperature, suffix string) (int, error) {
	if !t.IsText() {
		return t.Number(), nil
	}
	s := strings.TrimSpace(t.String())
	if suffix != "" && strings.HasSuffix(s, suffix) {
		s = strings.TrimSuffix(s, suffix)
	} else if n := len(s); n > 0 && (s[n-1] < '0' || s[n-1] > '9') {
		s = s[:n-1]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTemperature, t.String())
	}
	return v, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
