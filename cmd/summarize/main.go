// Command summarize loads a collision data source, runs one dashboard query,
// and prints the summary. It uses the same pipeline and query engine as the
// service, so its output matches what /api/v1/summary returns.
//
// Usage:
//
//	go run ./cmd/summarize \
//	  -source data/Motor_Vehicle_Collisions_Crashes.csv \
//	  -region BROOKLYN,QUEENS -hours 7-19 -vehicle truck
//
//	go run ./cmd/summarize -source postgres://localhost/nyc -table collisions -format json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
	"github.com/couchcryptid/collision-query-service/internal/pipeline"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	source := flag.String("source", "", "CSV/XLSX path or SQL URL to load")
	table := flag.String("table", "collisions", "table name for SQL sources")
	keyColumn := flag.String("key-column", "COLLISION_ID", "paging order column for SQL sources")
	sheet := flag.String("sheet", "", "sheet name for XLSX sources (default: first sheet)")
	regions := flag.String("region", "", "comma-separated region labels")
	hours := flag.String("hours", "", "inclusive hour range, e.g. 7-19")
	vehicles := flag.String("vehicle", "", "comma-separated vehicle categories (car, motorcycle, truck, other)")
	format := flag.String("format", "text", "output format: text or json")
	batchSize := flag.Int("batch-size", 5000, "records per extract batch")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		return errors.New("missing required flag: -source")
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("unknown -format %q", *format)
	}

	params, err := buildParams(*regions, *hours, *vehicles)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := sharedobs.NewLogger("warn", "text")
	metrics := observability.NewMetrics()

	src, err := dataset.Open(ctx, *source, dataset.Options{Table: *table, KeyColumn: *keyColumn, Sheet: *sheet})
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck // read-only source

	store := dataset.NewStore()
	p := pipeline.New(src, pipeline.NewTransformer(nil, logger), store, logger, metrics, *batchSize)
	snap, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", *source, err)
	}
	log.Printf("loaded %d records (%d dropped)", snap.Len(), snap.Dropped())

	res, err := query.NewEngine(store, nil, logger, metrics).Run(ctx, params)
	if err != nil {
		return err
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Summary)
	}
	return printSummary(os.Stdout, res.Summary)
}

// buildParams turns the flag values into query parameters.
func buildParams(regions, hours, vehicles string) (query.Params, error) {
	var p query.Params
	p.Regions = splitList(regions)

	if hours != "" {
		lo, hi, ok := strings.Cut(hours, "-")
		if !ok {
			hi = lo
		}
		minHour, err1 := strconv.Atoi(strings.TrimSpace(lo))
		maxHour, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return query.Params{}, fmt.Errorf("%w: -hours must look like 7-19, got %q", query.ErrInvalidParams, hours)
		}
		p.HourRange = &query.HourRange{Min: minHour, Max: maxHour}
	}

	for _, v := range splitList(vehicles) {
		c, err := domain.ParseVehicleCategory(v)
		if err != nil {
			return query.Params{}, fmt.Errorf("%w: %w", query.ErrInvalidParams, err)
		}
		p.Vehicles = append(p.Vehicles, c)
	}

	return p, p.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSummary(w io.Writer, s query.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Collisions:\t%d\n", s.Count)
	fmt.Fprintf(tw, "Injured:\t%d\n", s.InjuryTotal)
	fmt.Fprintf(tw, "Killed:\t%d\n", s.FatalityTotal)
	fmt.Fprintf(tw, "Top factor:\t%s\n", s.TopFactor)

	if len(s.TopFactors) > 0 {
		fmt.Fprintln(tw, "\nFactor\tCount\tIntensity\tColor")
		for _, f := range s.TopFactors {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", f.Label, f.Count, f.Intensity, f.Color)
		}
	}

	fmt.Fprintln(tw, "\nHour\tCount")
	for _, b := range s.HourlyHistogram {
		fmt.Fprintf(tw, "%s\t%d\n", b.Label, b.Count)
	}

	if len(s.RegionBreakdown) > 0 {
		fmt.Fprintln(tw, "\nRegion\tPedestrian\tCyclist\tMotorist\tTotal\tPedestrian %")
		for _, r := range s.RegionBreakdown {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f\n",
				r.Region, r.PedestrianInjured, r.CyclistInjured, r.MotoristInjured, r.TotalInjured, r.PedestrianShare)
		}
	}

	return tw.Flush()
}
