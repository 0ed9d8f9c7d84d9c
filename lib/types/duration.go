package types

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as text ("500ms", "2s") in config files and flags.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return (time.Duration)(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	err := value.Decode(&s)
	if err != nil {
		return err
	}
	return d.Set(s)
}

func (d Duration) String() string {
	return (time.Duration)(d).String()
}

// Set and Type satisfy pflag.Value.
func (d *Duration) Set(s string) error {
	duration, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration `%s`: %w", s, err)
	}
	if duration < 0 {
		return fmt.Errorf("invalid duration `%s`: must not be negative", s)
	}
	*d = Duration(duration)
	return nil
}

func (d *Duration) Type() string {
	return "duration"
}
