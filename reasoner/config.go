package reasoner

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/geoknoesis/lpg-rdf/graph"
)

// Config names the taxonomy elements the reasoner traverses.
type Config struct {
	// CatLabel is the label of category nodes.
	CatLabel string `mapstructure:"catLabel"`
	// CatNameProp holds the label name a category node stands for.
	CatNameProp string `mapstructure:"catNameProp"`
	// SubCatRel links a sub-category to its parent category.
	SubCatRel string `mapstructure:"subCatRel"`
	// RelLabel is the label of relationship descriptor nodes.
	RelLabel string `mapstructure:"relLabel"`
	// RelNameProp holds the relationship type a descriptor stands for.
	RelNameProp string `mapstructure:"relNameProp"`
	// SubRelRel links a sub-relationship descriptor to its parent.
	SubRelRel string `mapstructure:"subRelRel"`
	// InCatRel links an individual to a category node.
	InCatRel string `mapstructure:"inCatRel"`
	// RelDir is ">" for outgoing, "<" for incoming, anything else for both.
	RelDir string `mapstructure:"relDir"`
	// SearchTopDown selects the top-down membership strategy.
	SearchTopDown bool `mapstructure:"searchTopDown"`
}

// DefaultConfig returns the configuration used for absent keys.
func DefaultConfig() Config {
	return Config{
		CatLabel:    "Label",
		CatNameProp: "name",
		SubCatRel:   "SCO",
		RelLabel:    "Relationship",
		RelNameProp: "name",
		SubRelRel:   "SRO",
		InCatRel:    "IN_CAT",
	}
}

// DecodeConfig overlays params on the defaults.
func DecodeConfig(params map[string]any) (Config, error) {
	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(params); err != nil {
		return Config{}, fmt.Errorf("reasoner: config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// withDefaults restores defaults for names set to "".
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.CatLabel, d.CatLabel)
	fill(&c.CatNameProp, d.CatNameProp)
	fill(&c.SubCatRel, d.SubCatRel)
	fill(&c.RelLabel, d.RelLabel)
	fill(&c.RelNameProp, d.RelNameProp)
	fill(&c.SubRelRel, d.SubRelRel)
	fill(&c.InCatRel, d.InCatRel)
	return c
}

// Direction returns the relationship direction selected by RelDir.
func (c Config) Direction() graph.Direction {
	return graph.ParseDirection(c.RelDir)
}
