package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/angelmondragon/trustchain-backend/internal/risk"
	"github.com/angelmondragon/trustchain-backend/pkg/config"
	"github.com/angelmondragon/trustchain-backend/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "score"})

	_ = godotenv.Load()

	// only the scorer section is needed; the server config demands a database.
	var scorerCfg config.ScorerConfig
	if err := envconfig.Process(config.EnvPrefix, &scorerCfg); err != nil {
		logg.Error(ctx, "parsing scorer config", err)
		os.Exit(1)
	}

	model := flag.String("model", scorerCfg.ArtifactPath, "path to the scoring artifact")
	input := flag.String("input", "", "csv with product_name,ingredients,price,category columns")
	output := flag.String("output", "", "where to write scored csv (default stdout)")
	interactive := flag.Bool("interactive", false, "score products typed on stdin")
	flag.Parse()

	ctx = logg.WithField(ctx, "model", *model)
	scorer, err := risk.Load(*model)
	if err != nil {
		logg.Error(ctx, "loading scoring artifact", err)
		os.Exit(1)
	}

	if *interactive {
		if err := interactiveLoop(scorer, os.Stdin, os.Stdout); err != nil {
			logg.Error(ctx, "interactive scoring", err)
			os.Exit(1)
		}
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "missing -input (or use -interactive)")
		os.Exit(1)
	}
	if err := scoreFile(ctx, logg, scorer, *input, *output); err != nil {
		logg.Error(ctx, "batch scoring", err)
		os.Exit(1)
	}
}

func scoreFile(ctx context.Context, logg *logger.Logger, scorer risk.Assessor, inPath, outPath string) (err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		out = f
	}

	summary, scoreErr := risk.ScoreCSV(scorer, in, out)
	ctx = logg.WithFields(ctx, map[string]any{
		"rows":        summary.Rows,
		"counterfeit": summary.Counterfeit,
		"failed":      summary.Failed,
	})
	if scoreErr != nil && summary.Rows > summary.Failed {
		// partial failures still produce an output file
		logg.WarnErr(ctx, "some rows could not be scored", scoreErr)
		return nil
	}
	if scoreErr != nil {
		return scoreErr
	}
	logg.Info(ctx, "batch scoring complete")
	return nil
}

func interactiveLoop(scorer risk.Assessor, in io.Reader, out io.Writer) error {
	reader := bufio.NewScanner(in)
	prompt := func(label string) (string, bool) {
		fmt.Fprintf(out, "%s: ", label)
		if !reader.Scan() {
			return "", false
		}
		return strings.TrimSpace(reader.Text()), true
	}

	fmt.Fprintln(out, "counterfeit check (empty product name to quit)")
	for {
		name, ok := prompt("Product name")
		if !ok || name == "" {
			return reader.Err()
		}
		ingredients, ok := prompt("Ingredients (comma separated)")
		if !ok {
			return reader.Err()
		}
		price, ok := prompt("Price")
		if !ok {
			return reader.Err()
		}
		category, ok := prompt("Category")
		if !ok {
			return reader.Err()
		}

		assessment, err := scorer.Score(risk.Input{
			Name:        name,
			Ingredients: risk.CleanIngredients(ingredients),
			Price:       risk.CleanPrice(price),
			Category:    category,
		})
		if err != nil {
			fmt.Fprintf(out, "cannot score: %v\n\n", err)
			continue
		}

		verdict := "LEGITIMATE"
		if assessment.IsCounterfeit {
			verdict = "COUNTERFEIT"
		}
		fmt.Fprintf(out, "%s (confidence %.2f%%) %s\n\n", verdict, assessment.Confidence*100, assessment.Reason.Description())
	}
}
