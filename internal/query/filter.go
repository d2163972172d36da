package query

import "github.com/couchcryptid/collision-query-service/internal/domain"

// Filter returns the records matching every constraint in p. Constraints
// combine with AND; selections inside a constraint combine with OR. The
// result references the input records and must be treated as read-only.
//
//   - region: kept if no regions are selected, or the record's region is
//     unknown, or it is one of the selected labels
//   - hour: kept if the record has an hour inside the range (records
//     without an hour are excluded whenever a range is given)
//   - vehicle: kept if no categories are selected, or any of the record's
//     five vehicle slots is in the selection
func Filter(records []domain.Record, p Params) []*domain.Record {
	regions := make(map[string]struct{}, len(p.Regions))
	for _, r := range p.Regions {
		regions[r] = struct{}{}
	}
	vehicles := domain.NewCategorySet(p.Vehicles...)
	vehicleFilter := len(p.Vehicles) > 0
	hourFilter := p.HourRange != nil
	hours := p.hours()

	out := make([]*domain.Record, 0, len(records))
	for i := range records {
		rec := &records[i]
		if len(regions) > 0 && rec.Region != "" {
			if _, ok := regions[rec.Region]; !ok {
				continue
			}
		}
		if hourFilter && (rec.Hour == nil || !hours.Contains(*rec.Hour)) {
			continue
		}
		if vehicleFilter && !rec.Categories().Intersects(vehicles) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
