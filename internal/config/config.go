package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lindex/internal/lattice"
	"github.com/san-kum/lindex/internal/lindemann"
	"github.com/san-kum/lindex/internal/neighbor"
	"github.com/san-kum/lindex/internal/pbc"
)

const (
	DefaultBoxLength = 10.0
	DefaultRMax      = 2.2
	DefaultDr        = 0.05
	DefaultCells     = 4
	DefaultAmplitude = 0.05
	DefaultFrames    = 200
	DefaultSeed      = 1
)

type Config struct {
	Box     BoxConfig     `yaml:"box"`
	RMax    float64       `yaml:"rmax"`
	Dr      float64       `yaml:"dr"`
	Threads int           `yaml:"threads"`
	Lattice LatticeConfig `yaml:"lattice"`
}

type BoxConfig struct {
	Lx       float64 `yaml:"lx"`
	Ly       float64 `yaml:"ly"`
	Lz       float64 `yaml:"lz"`
	XY       float64 `yaml:"xy"`
	XZ       float64 `yaml:"xz"`
	YZ       float64 `yaml:"yz"`
	Periodic [3]bool `yaml:"periodic"`
}

type LatticeConfig struct {
	Kind          string  `yaml:"kind"`
	Cells         [3]int  `yaml:"cells"`
	Amplitude     float64 `yaml:"amplitude"`
	MeltAmplitude float64 `yaml:"melt_amplitude"`
	Diffusion     float64 `yaml:"diffusion"`
	Frames        int     `yaml:"frames"`
	Seed          int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Box: BoxConfig{
			Lx:       DefaultBoxLength,
			Ly:       DefaultBoxLength,
			Lz:       DefaultBoxLength,
			Periodic: [3]bool{true, true, true},
		},
		RMax: DefaultRMax,
		Dr:   DefaultDr,
		Lattice: LatticeConfig{
			Kind:          string(lattice.FCC),
			Cells:         [3]int{DefaultCells, DefaultCells, DefaultCells},
			Amplitude:     DefaultAmplitude,
			MeltAmplitude: DefaultAmplitude,
			Frames:        DefaultFrames,
			Seed:          DefaultSeed,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the box, the cutoff against the box, the engine options
// and the lattice parameters.
func (c *Config) Validate() error {
	box, err := c.NewBox()
	if err != nil {
		return err
	}
	if err := c.EngineOptions().Validate(); err != nil {
		return err
	}
	if err := neighbor.CheckCutoff(box, c.RMax); err != nil {
		return err
	}
	if err := c.LatticeParams().Validate(); err != nil {
		return fmt.Errorf("lattice: %w", err)
	}
	return nil
}

func (c *Config) NewBox() (pbc.Box, error) {
	b := c.Box
	return pbc.NewBox(b.Lx, b.Ly, b.Lz, b.XY, b.XZ, b.YZ, b.Periodic)
}

func (c *Config) EngineOptions() lindemann.Options {
	return lindemann.Options{
		RMax:    c.RMax,
		Dr:      c.Dr,
		Threads: c.Threads,
	}
}

func (c *Config) LatticeParams() lattice.Params {
	l := c.Lattice
	return lattice.Params{
		Kind:          lattice.Kind(l.Kind),
		Cells:         l.Cells,
		Amplitude:     l.Amplitude,
		MeltAmplitude: l.MeltAmplitude,
		Diffusion:     l.Diffusion,
		Frames:        l.Frames,
		Seed:          l.Seed,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
