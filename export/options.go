package export

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/geoknoesis/lpg-rdf/rdf"
)

// Default namespaces of the generic vocabulary and of node individuals.
const (
	VocabularyNamespace  = "neo4j://vocabulary#"
	IndividualsNamespace = "neo4j://individuals#"
)

// Options control one export call.
type Options struct {
	// MappedElemsOnly drops labels, types and keys without a mapping override.
	MappedElemsOnly bool `mapstructure:"mappedElemsOnly"`
	// ExcludeContext omits the relationships of described nodes.
	ExcludeContext bool `mapstructure:"excludeContext"`
	// Format is an explicit serialization name; it overrides Accept.
	Format string `mapstructure:"format"`
	// Accept is an HTTP Accept header value.
	Accept string `mapstructure:"accept"`
	// CypherParams are the parameters of the exported query.
	CypherParams map[string]any `mapstructure:"cypherParams"`

	VocabularyNamespace  string `mapstructure:"vocabularyNamespace"`
	IndividualsNamespace string `mapstructure:"individualsNamespace"`
}

// DefaultOptions returns the options used when a key is absent.
func DefaultOptions() Options {
	return Options{
		VocabularyNamespace:  VocabularyNamespace,
		IndividualsNamespace: IndividualsNamespace,
	}
}

// DecodeOptions reads options from a request parameter map. Unknown keys are
// ignored and scalar values are converted ("true", 1) where possible.
func DecodeOptions(params map[string]any) (Options, error) {
	opts := DefaultOptions()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Options{}, err
	}
	if err := dec.Decode(params); err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if opts.VocabularyNamespace == "" {
		opts.VocabularyNamespace = VocabularyNamespace
	}
	if opts.IndividualsNamespace == "" {
		opts.IndividualsNamespace = IndividualsNamespace
	}
	return opts, nil
}

// Negotiate returns the output format selected by Format and Accept.
func (o Options) Negotiate() (rdf.Format, rdf.NegotiationSource) {
	return rdf.Negotiate(o.Format, o.Accept)
}

func (o Options) vocab() string {
	if o.VocabularyNamespace == "" {
		return VocabularyNamespace
	}
	return o.VocabularyNamespace
}

func (o Options) individuals() string {
	if o.IndividualsNamespace == "" {
		return IndividualsNamespace
	}
	return o.IndividualsNamespace
}
