package risk

import (
	"math"
	"regexp"
	"strings"
)

// num_ingredients and price_ratio lead the vector.
const numericFeatures = 2

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// PriceRatio divides price by the category median. Unknown categories get the
// benefit of the doubt and score exactly 1.0.
func (a *Artifact) PriceRatio(category string, price float64) float64 {
	median, ok := a.MedianPriceMap[category]
	if !ok || median <= 0 {
		return 1.0
	}
	return price / median
}

// IngredientCount counts comma separated entries the way the model was trained.
func IngredientCount(ingredients string) int {
	return len(strings.Split(strings.TrimSpace(ingredients), ","))
}

func (a *Artifact) vector(in Input) ([]float64, float64, int) {
	name := strings.TrimSpace(in.Name)
	ingredients := strings.TrimSpace(in.Ingredients)
	category := strings.TrimSpace(in.Category)

	ratio := a.PriceRatio(category, in.Price)
	count := IngredientCount(ingredients)

	x := make([]float64, 0, a.FeatureCount())
	x = append(x, float64(count), ratio)
	for _, c := range a.Categories {
		if c == category {
			x = append(x, 1)
		} else {
			x = append(x, 0)
		}
	}
	x = append(x, tfidf(name, a.NameVocabulary, a.NameIDF)...)
	x = append(x, tfidf(ingredients, a.IngredientVocabulary, a.IngredientIDF)...)
	return x, ratio, count
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// tfidf returns raw counts weighted by idf, L2 normalised.
func tfidf(text string, vocab map[string]int, idf []float64) []float64 {
	out := make([]float64, len(idf))
	for _, tok := range tokenize(text) {
		if idx, ok := vocab[tok]; ok {
			out[idx]++
		}
	}
	var norm float64
	for i := range out {
		out[i] *= idf[i]
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}
