package risk

import (
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
)

// Input carries the product attributes the classifier reads.
type Input struct {
	Name        string
	Category    string
	Price       float64
	Ingredients string
}

// Assessment is the scorer's verdict on one product.
type Assessment struct {
	IsCounterfeit   bool
	Confidence      float64
	Reason          ReasonBucket
	PriceRatio      float64
	IngredientCount int
}

// Scorer runs logistic inference over a loaded artifact. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	artifact *Artifact
}

// NewScorer validates artifact and wraps it.
func NewScorer(artifact *Artifact) (*Scorer, error) {
	if artifact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeModelUnavailable, "scoring artifact is required")
	}
	if err := artifact.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeModelUnavailable, err, "invalid scoring artifact")
	}
	return &Scorer{artifact: artifact}, nil
}

// Load reads the artifact at path and builds a scorer.
func Load(path string) (*Scorer, error) {
	artifact, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return &Scorer{artifact: artifact}, nil
}

func (s *Scorer) Score(in Input) (Assessment, error) {
	if s == nil || s.artifact == nil {
		return Assessment{}, pkgerrors.New(pkgerrors.CodeModelUnavailable, "scorer not initialised")
	}
	if strings.TrimSpace(in.Name) == "" {
		return Assessment{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if in.Price <= 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return Assessment{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("price %v must be positive", in.Price))
	}

	x, ratio, count := s.artifact.vector(in)
	z := s.artifact.Intercept
	for i, v := range x {
		scale := s.artifact.Scaler.Scale[i]
		if scale == 0 {
			scale = 1
		}
		z += s.artifact.Coefficients[i] * (v - s.artifact.Scaler.Mean[i]) / scale
	}
	p := sigmoid(z)

	return Assessment{
		IsCounterfeit:   p >= CounterfeitThreshold,
		Confidence:      p,
		Reason:          BucketFor(p),
		PriceRatio:      ratio,
		IngredientCount: count,
	}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
