package translator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTemperature   = errors.New("invalid color temperature")
	ErrNoTemperatureChoices = errors.New("temperature choices are empty")
	ErrStateInconsistent    = errors.New("device state inconsistent with capabilities")
)

// StateInconsistencyError is returned when a device report lacks a field its
// capabilities say it must carry.
type StateInconsistencyError struct {
	Field string
}

func (e *StateInconsistencyError) Error() string {
	return fmt.Sprintf("%s: missing field %q", ErrStateInconsistent, e.Field)
}

func (e *StateInconsistencyError) Unwrap() error {
	return ErrStateInconsistent
}
