// Package conformance replays recorded transaction windows through the
// oracle core and reports whether the result still matches the price
// recorded when the fixture was captured — a regression harness for
// catching unintended drift in the pipeline's output.
package conformance

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/utxoracle/price-engine/internal/oracle"
)

// defaultTolerancePct is used for fixtures that don't specify their own.
const defaultTolerancePct = 0.01

// Fixture pairs a captured transaction window with the price a conforming
// implementation is expected to reproduce for it.
type Fixture struct {
	Name          string               `json:"name"`
	Transactions  []oracle.Transaction `json:"transactions"`
	ExpectedPrice float64              `json:"expectedPrice"`
	TolerancePct  float64              `json:"tolerancePct"`
}

// Divergence reports how far a fixture's actual result strayed from its
// recorded expectation.
type Divergence struct {
	Fixture      string
	Expected     float64
	Actual       float64
	DeviationPct float64
	WithinBounds bool
}

// LoadFixtures reads every *.json file in dir as a Fixture.
func LoadFixtures(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture dir %s: %w", dir, err)
	}

	var fixtures []Fixture
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", path, err)
		}
		var f Fixture
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", path, err)
		}
		if f.Name == "" {
			f.Name = e.Name()
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// Run replays every fixture through the core and reports how each result
// compares to its recorded expectation. A fixture with ExpectedPrice <= 0 is
// always reported WithinBounds: neither convergence nor the price itself is
// checked, only that the fixture runs through the core.
func Run(fixtures []Fixture) []Divergence {
	results := make([]Divergence, 0, len(fixtures))
	for _, f := range fixtures {
		window := oracle.NewWindow(f.Transactions)
		result := oracle.Calculate(window)

		d := Divergence{Fixture: f.Name, Expected: f.ExpectedPrice, Actual: result.PriceUSD}
		if f.ExpectedPrice > 0 {
			d.WithinBounds = result.HasPrice
			if result.HasPrice {
				d.DeviationPct = math.Abs(result.PriceUSD-f.ExpectedPrice) / f.ExpectedPrice
				tol := f.TolerancePct
				if tol <= 0 {
					tol = defaultTolerancePct
				}
				d.WithinBounds = d.DeviationPct <= tol
			}
		} else {
			d.WithinBounds = true
		}
		results = append(results, d)
	}
	return results
}
