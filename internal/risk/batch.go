package risk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var batchColumns = []string{"product_name", "ingredients", "price", "category"}

var nonPrice = regexp.MustCompile(`[^\d.]`)

// Assessor is anything that scores a single product.
type Assessor interface {
	Score(Input) (Assessment, error)
}

// BatchSummary counts what ScoreCSV did.
type BatchSummary struct {
	Rows        int
	Counterfeit int
	Failed      int
}

// ScoreCSV reads products from in and writes them to out with is_counterfeit,
// probability and reason columns appended. Rows that cannot be scored keep
// empty result cells; their errors are joined into the returned error.
func ScoreCSV(scorer Assessor, in io.Reader, out io.Writer) (BatchSummary, error) {
	var summary BatchSummary

	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return summary, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return summary, err
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(append(append([]string{}, header...), "is_counterfeit", "probability", "reason")); err != nil {
		return summary, fmt.Errorf("write header: %w", err)
	}

	var rowErrs error
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read line %d: %w", line, err)
		}
		summary.Rows++

		result := []string{"", "", ""}
		assessment, err := scorer.Score(Input{
			Name:        strings.TrimSpace(record[index["product_name"]]),
			Ingredients: CleanIngredients(record[index["ingredients"]]),
			Price:       CleanPrice(record[index["price"]]),
			Category:    strings.TrimSpace(record[index["category"]]),
		})
		if err != nil {
			summary.Failed++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: %w", line, err))
		} else {
			if assessment.IsCounterfeit {
				summary.Counterfeit++
			}
			result = []string{
				strconv.FormatBool(assessment.IsCounterfeit),
				strconv.FormatFloat(assessment.Confidence, 'f', 6, 64),
				string(assessment.Reason),
			}
		}
		if err := writer.Write(append(record, result...)); err != nil {
			return summary, fmt.Errorf("write line %d: %w", line, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return summary, fmt.Errorf("flush output: %w", err)
	}
	return summary, rowErrs
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range batchColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header missing columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

// CleanPrice strips currency symbols and separators. Unparseable input is 0.
func CleanPrice(raw string) float64 {
	cleaned := nonPrice.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// CleanIngredients trims each comma separated entry and drops empty ones.
func CleanIngredients(raw string) string {
	parts := strings.Split(raw, ",")
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ",")
}
