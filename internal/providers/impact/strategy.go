package impact

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Options selects and configures a strategy at process start.
type Options struct {
	Strategy  string
	ModelPath string
	Gemini    GeminiOptions
	Logger    zerolog.Logger
}

// New builds the classifier for opts.Strategy. The model strategy loads its
// weights here so a bad model file fails start-up rather than requests.
func New(opts Options) (Classifier, *Model, error) {
	switch opts.Strategy {
	case "", ProviderGemini:
		g := opts.Gemini
		g.Logger = opts.Logger
		return NewGeminiClassifier(g), nil, nil
	case ProviderModel:
		m, err := LoadModel(opts.ModelPath)
		if err != nil {
			return nil, nil, err
		}
		opts.Logger.Info().Str("path", opts.ModelPath).Msg("impact model loaded")
		return ModelClassifier{Model: m}, m, nil
	case ProviderKeyword:
		return KeywordClassifier{}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown classifier strategy %q", opts.Strategy)
}
