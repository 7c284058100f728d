package risk

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCSVAppendsResultColumns(t *testing.T) {
	input := strings.Join([]string{
		"product_name,ingredients,price,category",
		`Glow Serum,mercury,$40.00,serum`,
		`Daily Cream," water , ",10,cream`,
		`,water,10,cream`,
	}, "\n")

	var out bytes.Buffer
	summary, err := ScoreCSV(newTestScorer(t), strings.NewReader(input), &out)
	require.Error(t, err, "the nameless row should be reported")
	assert.Contains(t, err.Error(), "line 4")
	assert.Equal(t, BatchSummary{Rows: 3, Counterfeit: 1, Failed: 1}, summary)

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"product_name", "ingredients", "price", "category", "is_counterfeit", "probability", "reason"}, rows[0])
	assert.Equal(t, "true", rows[1][4])
	assert.Equal(t, string(ReasonHighConfidence), rows[1][6])
	assert.Equal(t, "false", rows[2][4])
	assert.Equal(t, "", rows[3][4])
}

func TestScoreCSVRejectsMissingColumns(t *testing.T) {
	_, err := ScoreCSV(newTestScorer(t), strings.NewReader("product_name,price\nx,1\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingredients")
	assert.Contains(t, err.Error(), "category")
}

func TestCleanHelpers(t *testing.T) {
	assert.Equal(t, 29.99, CleanPrice("$29.99"))
	assert.Equal(t, 0.0, CleanPrice("free"))
	assert.Equal(t, "aqua,glycerin", CleanIngredients(" aqua , , glycerin "))
}
