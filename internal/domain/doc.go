// Package domain models NYC motor vehicle collision reports and the one-time
// normalization applied to them before querying.
//
// # Data Source
//
// Rows come from the NYC Open Data "Motor Vehicle Collisions - Crashes"
// export (one row per police-reported crash). The loader reads the columns
// listed by [Columns]; anything else in the file is ignored.
//
// # Conventions
//
// Null cells:
//
//	Empty strings are nulls. Counts that are null, unparseable, or negative
//	become 0. Coordinates that are null or unparseable cause the row to be
//	dropped; this is the only rejection rule.
//
// Crash time:
//
//	"HH:MM" in 24-hour notation, e.g. "16:30" → hour 16. A single-digit hour
//	("9:05") is accepted. Anything else yields a nil hour; such records are
//	kept but never counted in hourly aggregates or matched by an hour filter.
//
// Contributing factors:
//
//	Five slots, "CONTRIBUTING FACTOR VEHICLE 1".."5". The dominant factor is
//	the first non-empty slot in slot order (see [FirstNonEmpty]). Its short
//	label comes from a fixed table; unmapped values keep their text.
//
// Vehicle types:
//
//	Five slots, "VEHICLE TYPE CODE 1".."5", each classified independently by
//	[ClassifyVehicle] into car, motorcycle, truck, or other. Keyword lists are
//	checked in the order motorcycle, truck, car, so "Motorcycle Tow" is a
//	motorcycle. The per-record union of categories is precomputed as a
//	[CategorySet] for the vehicle filter.
//
// Region:
//
//	The BOROUGH column. Roughly a third of rows leave it blank; these can be
//	backfilled by reverse geocoding (see [BackfillRegion]) and otherwise
//	aggregate under "Unknown".
package domain
