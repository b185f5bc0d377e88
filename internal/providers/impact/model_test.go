package impact

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const testModel = `{
  "vocabulary": {"water": 0, "school": 1, "yacht": 2, "clean water": 3},
  "idf": [1.5, 1.2, 2.0, 2.5],
  "coef": [1.0, 0.8, -2.0, 1.5],
  "intercept": -0.1,
  "classes": ["not_impactful", "impactful"],
  "ngram_range": [1, 2]
}`

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestModelClassifier(t *testing.T) {
	m, err := LoadModel(writeModel(t, testModel))
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	c := ModelClassifier{Model: m}

	tests := []struct {
		in   Input
		want Tri
	}{
		{in: Input{Title: "Clean Water", Area: "health", Description: "wells"}, want: True},
		{in: Input{Title: "Yacht club", Description: "a yacht"}, want: False},
		{in: Input{Title: "unrelated"}, want: False},
	}
	for _, tc := range tests {
		v := c.Classify(context.Background(), tc.in)
		if v.Result != tc.want {
			t.Fatalf("Classify(%+v) = %s (%s), want %s", tc.in, v.Result, v.Reason, tc.want)
		}
		if v.Provider != ProviderModel {
			t.Fatalf("Provider = %q", v.Provider)
		}
	}
}

func TestLoadModelRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "joblib"},
		{name: "empty vocabulary", body: `{"vocabulary":{},"idf":[],"coef":[]}`},
		{name: "length mismatch", body: `{"vocabulary":{"a":0},"idf":[1],"coef":[1,2]}`},
		{name: "index out of range", body: `{"vocabulary":{"a":3},"idf":[1],"coef":[1]}`},
		{name: "multiclass", body: `{"vocabulary":{"a":0},"idf":[1],"coef":[1],"classes":["a","b","c"]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadModel(writeModel(t, tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestModelReload(t *testing.T) {
	m, err := LoadModel(writeModel(t, testModel))
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	in := "yacht"
	if label, _ := m.Predict(in); label != "not_impactful" {
		t.Fatalf("label = %q", label)
	}

	flipped := `{"vocabulary":{"yacht":0},"idf":[1],"coef":[3],"intercept":0}`
	if err := m.Reload(writeModel(t, flipped)); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if label, _ := m.Predict(in); label != labelImpactful {
		t.Fatalf("label after reload = %q", label)
	}

	if err := m.Reload(writeModel(t, "broken")); err == nil {
		t.Fatal("expected reload error")
	}
	if label, _ := m.Predict(in); label != labelImpactful {
		t.Fatal("failed reload must keep the previous weights")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Predict("clean water school")
		}()
	}
	_ = m.Reload("")
	wg.Wait()
}

func TestNewStrategy(t *testing.T) {
	path := writeModel(t, testModel)
	tests := []struct {
		strategy string
		provider string
		wantErr  bool
	}{
		{strategy: "gemini", provider: ProviderGemini},
		{strategy: "", provider: ProviderGemini},
		{strategy: "keyword", provider: ProviderKeyword},
		{strategy: "model", provider: ProviderModel},
		{strategy: "sklearn", wantErr: true},
	}
	for _, tc := range tests {
		c, _, err := New(Options{Strategy: tc.strategy, ModelPath: path})
		if (err != nil) != tc.wantErr {
			t.Fatalf("New(%q) error = %v", tc.strategy, err)
		}
		if err != nil {
			continue
		}
		v := c.Classify(context.Background(), Input{Title: "x"})
		if v.Provider != tc.provider {
			t.Fatalf("New(%q) provider = %q, want %q", tc.strategy, v.Provider, tc.provider)
		}
	}
}
