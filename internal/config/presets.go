package config

import "sort"

var Presets = map[string]func(*Config){
	"triangle": func(c *Config) {},
	"square": func(c *Config) {
		c.Polygon.NumOfSides = 4
		c.Polygon.LengthOfSide = 2.0
	},
	"hexagon": func(c *Config) {
		c.Polygon.NumOfSides = 6
		c.Polygon.LengthOfSide = 1.5
		c.Sim.Duration = 90.0
	},
	"jittery": func(c *Config) {
		c.Polygon.NumOfSides = 4
		c.Sim.Jitter = 0.5
	},
	"coarse": func(c *Config) {
		c.Polygon.TurnDirectionTh = 0.05
		c.Polygon.Velocity = 1.0
		c.Polygon.Yawrate = 0.8
		c.Sim.Dt = 0.05
		c.Integrator = "euler"
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
