package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

// Presets are named starting points for the synthetic trajectory. The
// fcc crystal in a 10^3 box with 4 cells per side has a nearest-neighbor
// distance of about 1.77, so the default cutoff of 2.2 keeps only the
// first shell.
var Presets = map[string]*Config{
	"crystal": preset(func(c *Config) {
		c.Lattice.Amplitude, c.Lattice.MeltAmplitude = 0.03, 0.03
	}),
	"warm-crystal": preset(func(c *Config) {
		c.Lattice.Amplitude, c.Lattice.MeltAmplitude = 0.12, 0.12
	}),
	"melting": preset(func(c *Config) {
		c.Lattice.Amplitude, c.Lattice.MeltAmplitude = 0.03, 0.35
		c.Lattice.Frames = 400
	}),
	"liquid": preset(func(c *Config) {
		c.Lattice.Amplitude, c.Lattice.MeltAmplitude = 0.15, 0.15
		c.Lattice.Diffusion = 0.02
	}),
	"triclinic": preset(func(c *Config) {
		c.Box.XY, c.Box.XZ, c.Box.YZ = 0.2, 0.1, 0.05
		c.Lattice.Amplitude, c.Lattice.MeltAmplitude = 0.05, 0.05
	}),
	"slab": preset(func(c *Config) {
		c.Box.Periodic = [3]bool{true, true, false}
		c.Lattice.Amplitude, c.Lattice.MeltAmplitude = 0.05, 0.05
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
