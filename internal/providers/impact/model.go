package impact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

const labelImpactful = "impactful"

// modelFile is the exported form of a fitted tf-idf vectorizer plus a
// binary linear classifier.
type modelFile struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	Coef       []float64      `json:"coef"`
	Intercept  float64        `json:"intercept"`
	Classes    []string       `json:"classes"`
	NgramRange [2]int         `json:"ngram_range"`
	Lowercase  *bool          `json:"lowercase"`
	Sublinear  bool           `json:"sublinear_tf"`
}

type weights struct {
	vocab     map[string]int
	idf       []float64
	coef      []float64
	intercept float64
	negative  string
	positive  string
	minN      int
	maxN      int
	lowercase bool
	sublinear bool
}

// Model is a loaded linear classifier. It is safe for concurrent use and
// Reload swaps weights without blocking readers for longer than a pointer copy.
type Model struct {
	mu   sync.RWMutex
	w    *weights
	path string
}

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// LoadModel reads a model exported as JSON.
func LoadModel(path string) (*Model, error) {
	w, err := readWeights(path)
	if err != nil {
		return nil, err
	}
	return &Model{w: w, path: path}, nil
}

// Reload replaces the weights with the model at path, or the original path
// when path is empty. The current weights stay active on error.
func (m *Model) Reload(path string) error {
	m.mu.RLock()
	if path == "" {
		path = m.path
	}
	m.mu.RUnlock()

	w, err := readWeights(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.w = w
	m.path = path
	m.mu.Unlock()
	return nil
}

func readWeights(path string) (*weights, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var f modelFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return f.weights()
}

func (f modelFile) weights() (*weights, error) {
	if len(f.Vocabulary) == 0 {
		return nil, errors.New("model vocabulary is empty")
	}
	if len(f.IDF) != len(f.Coef) {
		return nil, fmt.Errorf("model has %d idf weights but %d coefficients", len(f.IDF), len(f.Coef))
	}
	for term, idx := range f.Vocabulary {
		if idx < 0 || idx >= len(f.Coef) {
			return nil, fmt.Errorf("term %q index %d out of range", term, idx)
		}
	}
	classes := f.Classes
	if len(classes) == 0 {
		classes = []string{"not_impactful", labelImpactful}
	}
	if len(classes) != 2 {
		return nil, fmt.Errorf("model must be binary, got %d classes", len(classes))
	}
	minN, maxN := f.NgramRange[0], f.NgramRange[1]
	if minN <= 0 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	lowercase := true
	if f.Lowercase != nil {
		lowercase = *f.Lowercase
	}
	return &weights{
		vocab:     f.Vocabulary,
		idf:       f.IDF,
		coef:      f.Coef,
		intercept: f.Intercept,
		negative:  classes[0],
		positive:  classes[1],
		minN:      minN,
		maxN:      maxN,
		lowercase: lowercase,
		sublinear: f.Sublinear,
	}, nil
}

// Predict returns the predicted label and the decision score.
func (m *Model) Predict(text string) (string, float64) {
	m.mu.RLock()
	w := m.w
	m.mu.RUnlock()

	score := w.score(text)
	if score > 0 {
		return w.positive, score
	}
	return w.negative, score
}

func (w *weights) score(text string) float64 {
	if w.lowercase {
		text = cases.Fold().String(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)

	counts := make(map[int]float64)
	for n := w.minN; n <= w.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if idx, ok := w.vocab[strings.Join(tokens[i:i+n], " ")]; ok {
				counts[idx]++
			}
		}
	}

	var norm float64
	for idx, tf := range counts {
		if w.sublinear {
			tf = 1 + math.Log(tf)
		}
		v := tf * w.idf[idx]
		counts[idx] = v
		norm += v * v
	}
	score := w.intercept
	if norm == 0 {
		return score
	}
	norm = math.Sqrt(norm)
	for idx, v := range counts {
		score += (v / norm) * w.coef[idx]
	}
	return score
}

// ModelClassifier adapts a Model to the Classifier contract.
type ModelClassifier struct {
	Model *Model
}

func (c ModelClassifier) Classify(_ context.Context, in Input) Verdict {
	label, score := c.Model.Predict(in.Title + " " + in.Area + " " + in.Description)
	return Verdict{
		Result:   TriOf(label == labelImpactful),
		Reason:   fmt.Sprintf("predicted %s (score %.4f)", label, score),
		Provider: ProviderModel,
	}
}
