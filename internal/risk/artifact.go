package risk

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
)

// CounterfeitThreshold is the fixed decision boundary on confidence. It is
// also the lower edge of the multiple-indicators bucket.
const CounterfeitThreshold = 0.5

// Artifact is the exported state of the trained classifier.
type Artifact struct {
	MedianPriceMap       map[string]float64 `json:"median_price_map"`
	Categories           []string           `json:"categories"`
	NameVocabulary       map[string]int     `json:"name_vocabulary"`
	NameIDF              []float64          `json:"name_idf"`
	IngredientVocabulary map[string]int     `json:"ingredient_vocabulary"`
	IngredientIDF        []float64          `json:"ingredient_idf"`
	Scaler               ScalerParams       `json:"scaler"`
	Coefficients         []float64          `json:"coefficients"`
	Intercept            float64            `json:"intercept"`
	// Threshold is accepted only as a restatement of CounterfeitThreshold.
	Threshold            *float64           `json:"threshold,omitempty"`
}

type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadArtifact reads and validates the artifact at path.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeModelUnavailable, err, "open scoring artifact")
	}
	defer f.Close()
	return ParseArtifact(f)
}

// ParseArtifact decodes and validates an artifact document.
func ParseArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeModelUnavailable, err, "decode scoring artifact")
	}
	if err := a.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeModelUnavailable, err, "invalid scoring artifact")
	}
	return &a, nil
}

// FeatureCount is the length of the assembled feature vector.
func (a *Artifact) FeatureCount() int {
	return numericFeatures + len(a.Categories) + len(a.NameIDF) + len(a.IngredientIDF)
}

func (a *Artifact) Validate() error {
	var missing []string
	if a.MedianPriceMap == nil {
		missing = append(missing, "median_price_map")
	}
	if len(a.NameVocabulary) == 0 {
		missing = append(missing, "name_vocabulary")
	}
	if len(a.IngredientVocabulary) == 0 {
		missing = append(missing, "ingredient_vocabulary")
	}
	if len(a.Coefficients) == 0 {
		missing = append(missing, "coefficients")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing keys %v", missing)
	}

	if err := checkVocabulary("name", a.NameVocabulary, len(a.NameIDF)); err != nil {
		return err
	}
	if err := checkVocabulary("ingredient", a.IngredientVocabulary, len(a.IngredientIDF)); err != nil {
		return err
	}

	n := a.FeatureCount()
	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
		return fmt.Errorf("scaler expects %d/%d features, vector has %d", len(a.Scaler.Mean), len(a.Scaler.Scale), n)
	}
	if len(a.Coefficients) != n {
		return fmt.Errorf("classifier expects %d features, vector has %d", len(a.Coefficients), n)
	}
	if a.Threshold != nil && *a.Threshold != CounterfeitThreshold {
		return fmt.Errorf("threshold %v differs from the fixed decision boundary %v", *a.Threshold, CounterfeitThreshold)
	}
	return nil
}

func checkVocabulary(name string, vocab map[string]int, idfLen int) error {
	for term, idx := range vocab {
		if idx < 0 || idx >= idfLen {
			return fmt.Errorf("%s vocabulary term %q index %d outside idf table of %d", name, term, idx, idfLen)
		}
	}
	return nil
}
