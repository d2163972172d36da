package query

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

const (
	// NotApplicable is reported as the top factor when no filtered record has one.
	NotApplicable = "not applicable"

	// UnknownRegion labels the breakdown bucket for records without a region.
	UnknownRegion = "Unknown"

	// TopFactorLimit is the number of factors returned in Summary.TopFactors.
	TopFactorLimit = 5

	// intensityEpsilon keeps the intensity denominator non-zero when every
	// top factor has the same count.
	intensityEpsilon = 1e-9
)

// HourBucket is one point of the hourly histogram.
type HourBucket struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FactorCount is one entry of the top contributing factors.
type FactorCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	// Intensity is the count rescaled to [0,1] across the returned entries.
	Intensity float64 `json:"intensity"`
	// Color is a red gradient shade for Intensity, darker for higher values.
	Color string `json:"color"`
}

// RegionInjuries is the injury breakdown for one region.
type RegionInjuries struct {
	Region            string  `json:"region"`
	PedestrianInjured int     `json:"pedestrian_injured"`
	CyclistInjured    int     `json:"cyclist_injured"`
	MotoristInjured   int     `json:"motorist_injured"`
	TotalInjured      int     `json:"total_injured"`
	PedestrianShare   float64 `json:"pedestrian_share"`
}

// Summary is the full aggregate result of one query.
type Summary struct {
	Count           int              `json:"count"`
	InjuryTotal     int              `json:"injury_total"`
	FatalityTotal   int              `json:"fatality_total"`
	TopFactor       string           `json:"top_factor"`
	HourlyHistogram []HourBucket     `json:"hourly_histogram"`
	TopFactors      []FactorCount    `json:"top_factors"`
	RegionBreakdown []RegionInjuries `json:"region_breakdown"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// Empty reports whether the summary was computed over no records.
func (s Summary) Empty() bool { return s.Count == 0 }

// Region returns the breakdown row for a region label.
func (s Summary) Region(label string) (RegionInjuries, bool) {
	for _, r := range s.RegionBreakdown {
		if r.Region == label {
			return r, true
		}
	}
	return RegionInjuries{}, false
}

// Aggregate computes every summary view from one filtered record set. An
// empty input is valid and yields zero totals, a 24-hour all-zero histogram,
// no factors, no regions, and TopFactor set to NotApplicable.
func Aggregate(records []*domain.Record) Summary {
	s := Summary{
		Count:           len(records),
		TopFactor:       NotApplicable,
		HourlyHistogram: hourlyHistogram(records),
		TopFactors:      []FactorCount{},
		RegionBreakdown: []RegionInjuries{},
	}

	factorCounts := make(map[string]int)
	for _, rec := range records {
		s.InjuryTotal += rec.TotalInjured
		s.FatalityTotal += rec.TotalKilled
		if rec.FactorShort != "" {
			factorCounts[rec.FactorShort]++
		}
	}

	ranked := rankFactors(factorCounts)
	if len(ranked) > 0 {
		s.TopFactor = ranked[0].Label
	}
	s.TopFactors = topFactors(ranked, TopFactorLimit)
	s.RegionBreakdown = regionBreakdown(records)
	return s
}

func hourlyHistogram(records []*domain.Record) []HourBucket {
	var counts [MaxHour + 1]int
	for _, rec := range records {
		if rec.Hour != nil && *rec.Hour >= MinHour && *rec.Hour <= MaxHour {
			counts[*rec.Hour]++
		}
	}
	out := make([]HourBucket, len(counts))
	for h, c := range counts {
		out[h] = HourBucket{Hour: h, Label: HourLabel(h), Count: c}
	}
	return out
}

// HourLabel renders an hour of day in 12-hour form: 0 → "12am", 13 → "1pm".
func HourLabel(h int) string {
	switch {
	case h == 0:
		return "12am"
	case h < 12:
		return fmt.Sprintf("%dam", h)
	case h == 12:
		return "12pm"
	default:
		return fmt.Sprintf("%dpm", h-12)
	}
}

// rankFactors orders labels by count descending, breaking ties by label
// ascending so repeated queries return identical rankings.
func rankFactors(counts map[string]int) []FactorCount {
	ranked := make([]FactorCount, 0, len(counts))
	for label, n := range counts {
		ranked = append(ranked, FactorCount{Label: label, Count: n})
	}
	slices.SortFunc(ranked, func(a, b FactorCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return ranked
}

// topFactors keeps the first k ranked entries and rescales their counts to
// intensities in [0,1] relative to that subset only.
func topFactors(ranked []FactorCount, k int) []FactorCount {
	top := slices.Clone(ranked[:min(k, len(ranked))])
	if len(top) == 0 {
		return top
	}
	maxC := float64(top[0].Count)
	minC := float64(top[len(top)-1].Count)
	for i := range top {
		top[i].Intensity = (float64(top[i].Count) - minC) / (maxC - minC + intensityEpsilon)
		top[i].Color = GradientColor(top[i].Intensity)
	}
	return top
}

// GradientColor maps an intensity in [0,1] to an rgb() string on a red scale:
// HLS hue 0, saturation 0.75, lightness from 0.85 (v=0) down to 0.40 (v=1).
func GradientColor(v float64) string {
	const s = 0.75
	l := 0.85 - 0.45*v

	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - float64(l*s)
	}
	m1 := float64(2*l) - m2

	// At hue 0 the red channel takes m2 and green/blue take m1.
	r, g := int(m2*255), int(m1*255)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, g)
}

func regionBreakdown(records []*domain.Record) []RegionInjuries {
	byRegion := make(map[string]*RegionInjuries)
	for _, rec := range records {
		label := rec.Region
		if label == "" {
			label = UnknownRegion
		}
		row, ok := byRegion[label]
		if !ok {
			row = &RegionInjuries{Region: label}
			byRegion[label] = row
		}
		row.PedestrianInjured += rec.Injured.Pedestrians
		row.CyclistInjured += rec.Injured.Cyclists
		row.MotoristInjured += rec.Injured.Motorists
		row.TotalInjured += rec.TotalInjured
	}

	out := make([]RegionInjuries, 0, len(byRegion))
	for _, row := range byRegion {
		row.PedestrianShare = pedestrianShare(row.PedestrianInjured, row.TotalInjured)
		out = append(out, *row)
	}
	// Named regions alphabetically, Unknown last.
	slices.SortFunc(out, func(a, b RegionInjuries) int {
		if (a.Region == UnknownRegion) != (b.Region == UnknownRegion) {
			if a.Region == UnknownRegion {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return out
}

// pedestrianShare is the percentage of injuries that were pedestrians, or 0
// when there were no injuries.
func pedestrianShare(pedestrians, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(pedestrians) / float64(total) * 100
}
