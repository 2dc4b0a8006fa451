package model

import "time"

const DefaultScanInterval = 60 * time.Second

// CapabilityProfile assigns fixed capabilities to devices matching an expression.
type CapabilityProfile struct {
	Name               string      `json:"name"`
	Match              string      `json:"match"` // e.g. "deviceClass == 'light' && model == 'TBD'"
	Modes              []ColorMode `json:"modes"`
	MinMireds          int         `json:"min_mireds,omitempty"`
	MaxMireds          int         `json:"max_mireds,omitempty"`
	TemperatureChoices []int       `json:"temperature_choices,omitempty"`
	TemperatureSuffix  string      `json:"temperature_suffix,omitempty"`
}

type Config struct {
	Username     string               `json:"username"`
	Password     string               `json:"password"`
	BaseURL      string               `json:"base_url,omitempty"`
	Debug        bool                 `json:"debug"`
	ScanInterval string               `json:"scan_interval,omitempty"` // Go duration, default 60s
	HTTPAddr     string               `json:"http_addr,omitempty"`
	LocalIP      string               `json:"local_ip,omitempty"`
	Profiles     []*CapabilityProfile `json:"profiles,omitempty"` // Ordered, first match wins
}

// Interval returns the poll interval, falling back to the default on empty or bad values.
func (c *Config) Interval() time.Duration {
	if c.ScanInterval == "" {
		return DefaultScanInterval
	}
	d, err := time.ParseDuration(c.ScanInterval)
	if err != nil || d <= 0 {
		return DefaultScanInterval
	}
	return d
}

func (c *Config) Configured() bool {
	return c.Username != "" && c.Password != ""
}
