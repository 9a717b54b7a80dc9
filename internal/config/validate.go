package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateAutosave(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if err := ensurePositiveMap(map[string]int{
		"engine.default_clip_fps": c.Engine.DefaultClipFPS,
		"engine.tick_rate":        c.Engine.TickRate,
		"director.timeline_fps":   c.Director.TimelineFPS,
	}); err != nil {
		return err
	}
	if c.Engine.DefaultClipFPS > 240 {
		return errors.New("engine.default_clip_fps must not exceed 240")
	}
	if c.Engine.TickRate > 1000 {
		return errors.New("engine.tick_rate must not exceed 1000")
	}
	return nil
}

func (c *Config) validateAutosave() error {
	if c.Autosave.Enabled && c.Autosave.IntervalSeconds <= 0 {
		return errors.New("autosave.interval_seconds must be positive when autosave.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
