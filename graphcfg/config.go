// Package graphcfg loads the tunables that size a RunnableGraph's
// PipelineHolder instances and debug behaviour from a TOML file, and can
// watch the file for live edits.
package graphcfg

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/crg/core"
)

// tmpGraphConfig is the on-disk shape: decode into a plain struct,
// validate, then build the typed Config the rest of the module consumes.
type tmpGraphConfig struct {
	Version              string `toml:"version"`
	Name                 string `toml:"name"`
	MaxPassCount         uint32 `toml:"max_pass_count"`
	DescriptorPoolSize   uint32 `toml:"descriptor_pool_size"`
	DebugLabels          bool   `toml:"debug_labels"`
	SeparateDepthStencil bool   `toml:"separate_depth_stencil_layouts"`
}

func (t *tmpGraphConfig) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("graphcfg: missing required field %q", "name")
	}
	if t.MaxPassCount == 0 {
		return fmt.Errorf("graphcfg: max_pass_count must be at least 1")
	}
	return nil
}

func (t *tmpGraphConfig) TransformToConfig() (*Config, error) {
	poolSize := t.DescriptorPoolSize
	if poolSize == 0 {
		poolSize = t.MaxPassCount
	}
	return &Config{
		Name:                        t.Name,
		MaxPassCount:                t.MaxPassCount,
		DescriptorPoolSize:          poolSize,
		DebugLabels:                 t.DebugLabels,
		SeparateDepthStencilLayouts: t.SeparateDepthStencil,
	}, nil
}

// Config is the typed, validated result of loading a graph's TOML
// configuration file.
type Config struct {
	Name                        string
	MaxPassCount                uint32
	DescriptorPoolSize          uint32
	DebugLabels                 bool
	SeparateDepthStencilLayouts bool
}

// Load reads and validates the graph configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphcfg: reading %s: %w", path, err)
	}

	var tmp tmpGraphConfig
	if err := toml.Unmarshal(data, &tmp); err != nil {
		return nil, fmt.Errorf("graphcfg: parsing %s: %w", path, err)
	}
	if err := tmp.Validate(); err != nil {
		return nil, err
	}

	cfg, err := tmp.TransformToConfig()
	if err != nil {
		return nil, err
	}
	core.LogInfo("graphcfg: loaded %q (max_pass_count=%d)", cfg.Name, cfg.MaxPassCount)
	return cfg, nil
}
