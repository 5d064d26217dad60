package config

import (
	"fmt"
	"sort"
)

// Presets are named pacing profiles selectable with --preset.
var Presets = map[string]*Config{
	"default": {TickRate: DefaultTickRate, FrameRate: DefaultFrameRate, DrainBatch: DefaultDrainBatch},
	"smooth":  {TickRate: 100, FrameRate: 60, DrainBatch: 128},
	"eco":     {TickRate: 1000, FrameRate: 10, DrainBatch: 32},
	// lockstep renders whenever the model lock is free, with no frame timer
	"lockstep": {TickRate: DefaultTickRate, FrameRate: 0, DrainBatch: DefaultDrainBatch},
}

func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the pacing fields with the named preset.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("config: unknown preset %q", name)
	}
	c.TickRate = p.TickRate
	c.FrameRate = p.FrameRate
	c.DrainBatch = p.DrainBatch
	return nil
}
