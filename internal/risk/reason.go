package risk

// ReasonBucket is a coarse reading of the counterfeit probability.
type ReasonBucket string

const (
	ReasonLegitimate         ReasonBucket = "legitimate"
	ReasonMildlySuspicious   ReasonBucket = "mildly_suspicious"
	ReasonMultipleIndicators ReasonBucket = "multiple_indicators"
	ReasonHighConfidence     ReasonBucket = "high_confidence"
)

var reasonDescriptions = map[ReasonBucket]string{
	ReasonLegitimate:         "Characteristics consistent with legitimate items",
	ReasonMildlySuspicious:   "Some suspicious signals but likely genuine",
	ReasonMultipleIndicators: "Multiple suspicious indicators detected",
	ReasonHighConfidence:     "High confidence counterfeit based on multiple factors",
}

// BucketFor maps a probability onto its bucket.
func BucketFor(confidence float64) ReasonBucket {
	switch {
	case confidence < 0.3:
		return ReasonLegitimate
	case confidence < 0.5:
		return ReasonMildlySuspicious
	case confidence < 0.7:
		return ReasonMultipleIndicators
	default:
		return ReasonHighConfidence
	}
}

func (r ReasonBucket) String() string {
	return string(r)
}

// Description is the reviewer-facing sentence stored on flagged products.
func (r ReasonBucket) Description() string {
	if d, ok := reasonDescriptions[r]; ok {
		return d
	}
	return string(r)
}
