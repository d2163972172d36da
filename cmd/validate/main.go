// Command validate loads a collision data source and checks the normalized
// records against the data-model invariants the dashboard relies on:
// coordinates, dominant factor selection, vehicle categories, factor labels,
// value ranges, and summary consistency. It exits 1 if any phase fails.
//
// Usage:
//
//	go run ./cmd/validate -source data/Motor_Vehicle_Collisions_Crashes.csv
//	go run ./cmd/validate -source sqlite://data/collisions.db -table collisions
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

// maxReported caps the detailed errors printed per phase.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// row pairs a raw source row with its normalization result.
type row struct {
	line int
	raw  domain.RawRecord
	rec  domain.Record
	kept bool
}

func main() {
	source := flag.String("source", "", "CSV/XLSX path or SQL URL to validate")
	table := flag.String("table", "collisions", "table name for SQL sources")
	keyColumn := flag.String("key-column", "COLLISION_ID", "paging order column for SQL sources")
	sheet := flag.String("sheet", "", "sheet name for XLSX sources (default: first sheet)")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*source, dataset.Options{Table: *table, KeyColumn: *keyColumn, Sheet: *sheet}); code != 0 {
		os.Exit(code)
	}
}

func run(location string, opts dataset.Options) int {
	fmt.Println("=== Collision Data Validation ===")
	fmt.Println()

	rows, err := loadRows(context.Background(), location, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", location, err)
		return 1
	}

	records := make([]domain.Record, 0, len(rows))
	for i := range rows {
		if rows[i].kept {
			records = append(records, rows[i].rec)
		}
	}

	phases := []*phase{
		validateCoordinates(rows),
		validateDominantFactor(records),
		validateVehicleCategories(records),
		validateFactorLabels(records),
		validateValueRanges(records),
		validateSummary(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d source rows, %d kept, %d dropped\n",
		len(rows), len(records), len(rows)-len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors[:min(len(p.errors), maxReported)] {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if n := len(p.errors) - maxReported; n > 0 {
			fmt.Printf("  ... and %d more\n", n)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadRows(ctx context.Context, location string, opts dataset.Options) ([]row, error) {
	src, err := dataset.Open(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	defer src.Close() //nolint:errcheck // read-only source

	var rows []row
	for {
		batch, err := src.ExtractBatch(ctx, 5000)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		for _, raw := range batch {
			rec, kept := domain.Normalize(raw)
			// Line numbers count the header as line 1.
			rows = append(rows, row{line: len(rows) + 2, raw: raw, rec: rec, kept: kept})
		}
	}
}

// ── Phases ──

func validateCoordinates(rows []row) *phase {
	p := &phase{name: "Phase 1: Coordinates"}
	for i := range rows {
		r := &rows[i]
		wantKept := parses(r.raw.Latitude) && parses(r.raw.Longitude)
		switch {
		case wantKept && !r.kept:
			p.errorf("line %d: coordinates (%q, %q) parse but the row was dropped", r.line, r.raw.Latitude, r.raw.Longitude)
		case !wantKept && r.kept:
			p.errorf("line %d: coordinates (%q, %q) are missing but the row was kept", r.line, r.raw.Latitude, r.raw.Longitude)
		}
	}
	return p
}

func parses(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateDominantFactor(records []domain.Record) *phase {
	p := &phase{name: "Phase 2: Dominant Factor"}
	for i := range records {
		rec := &records[i]
		anySet := slices.ContainsFunc(rec.Factors[:], func(f string) bool { return f != "" })
		if anySet != (rec.DominantFactor != "") {
			p.errorf("record %d: dominant factor %q but factors %q", i, rec.DominantFactor, rec.Factors)
			continue
		}
		if want := domain.FirstNonEmpty(rec.Factors[:]); rec.DominantFactor != want {
			p.errorf("record %d: dominant factor %q, first non-empty slot is %q", i, rec.DominantFactor, want)
		}
	}
	return p
}

func validateVehicleCategories(records []domain.Record) *phase {
	p := &phase{name: "Phase 3: Vehicle Categories"}
	known := domain.VehicleCategories()
	for i := range records {
		rec := &records[i]
		for slot, c := range rec.VehicleCategories {
			if !slices.Contains(known, c) {
				p.errorf("record %d slot %d: category %q not in %v", i, slot+1, c, known)
				continue
			}
			if want := domain.ClassifyVehicle(rec.Vehicles[slot]); c != want {
				p.errorf("record %d slot %d: %q classified %q, expected %q", i, slot+1, rec.Vehicles[slot], c, want)
			}
		}
		if rec.Categories() != domain.NewCategorySet(rec.VehicleCategories[:]...) {
			p.errorf("record %d: category set does not match slots %v", i, rec.VehicleCategories)
		}
	}
	return p
}

func validateFactorLabels(records []domain.Record) *phase {
	p := &phase{name: "Phase 4: Factor Labels"}
	for i := range records {
		rec := &records[i]
		if (rec.DominantFactor == "") != (rec.FactorShort == "") {
			p.errorf("record %d: factor %q has label %q", i, rec.DominantFactor, rec.FactorShort)
			continue
		}
		if want := domain.ShortenFactor(rec.DominantFactor); rec.FactorShort != want {
			p.errorf("record %d: label %q, expected %q", i, rec.FactorShort, want)
		}
	}
	return p
}

func validateValueRanges(records []domain.Record) *phase {
	p := &phase{name: "Phase 5: Value Ranges"}
	for i := range records {
		rec := &records[i]
		if rec.Hour != nil && (*rec.Hour < query.MinHour || *rec.Hour > query.MaxHour) {
			p.errorf("record %d: hour %d outside %d-%d", i, *rec.Hour, query.MinHour, query.MaxHour)
		}
		counts := []int{
			rec.TotalInjured, rec.TotalKilled,
			rec.Injured.Pedestrians, rec.Injured.Cyclists, rec.Injured.Motorists,
			rec.Killed.Pedestrians, rec.Killed.Cyclists, rec.Killed.Motorists,
		}
		if slices.Min(counts) < 0 {
			p.errorf("record %d: negative count in %v", i, counts)
		}
	}
	return p
}

func validateSummary(records []domain.Record) *phase {
	p := &phase{name: "Phase 6: Summary Consistency"}

	all := make([]*domain.Record, len(records))
	withHour, injured, killed := 0, 0, 0
	for i := range records {
		all[i] = &records[i]
		if records[i].HasHour() {
			withHour++
		}
		injured += records[i].TotalInjured
		killed += records[i].TotalKilled
	}

	s := query.Aggregate(all)
	if s.Count != len(records) {
		p.errorf("count %d, expected %d", s.Count, len(records))
	}
	if s.InjuryTotal != injured || s.FatalityTotal != killed {
		p.errorf("totals injured=%d killed=%d, expected %d and %d", s.InjuryTotal, s.FatalityTotal, injured, killed)
	}

	if len(s.HourlyHistogram) != query.MaxHour+1 {
		p.errorf("histogram has %d buckets", len(s.HourlyHistogram))
	}
	histTotal := 0
	for _, b := range s.HourlyHistogram {
		histTotal += b.Count
	}
	if histTotal != withHour {
		p.errorf("histogram sums to %d, %d records have an hour", histTotal, withHour)
	}

	if len(s.TopFactors) > query.TopFactorLimit {
		p.errorf("%d top factors, limit is %d", len(s.TopFactors), query.TopFactorLimit)
	}

	regionTotal := 0
	for _, r := range s.RegionBreakdown {
		regionTotal += r.TotalInjured
		if r.PedestrianShare < 0 {
			p.errorf("region %s: negative pedestrian share %.2f", r.Region, r.PedestrianShare)
		}
	}
	if regionTotal != injured {
		p.errorf("region breakdown sums to %d injured, expected %d", regionTotal, injured)
	}
	return p
}
