package domain

// SlotCount is the number of parallel contributing-factor and vehicle columns
// carried by each collision report.
const SlotCount = 5

// RawRecord is one row of the collision source as read from CSV, XLSX, or SQL.
// Every field is kept as text; an empty string means the cell was null.
type RawRecord struct {
	Latitude  string `json:"LATITUDE"`
	Longitude string `json:"LONGITUDE"`
	CrashTime string `json:"CRASH TIME"`
	Borough   string `json:"BOROUGH"`
	Street    string `json:"ON STREET NAME"`

	PersonsInjured     string `json:"NUMBER OF PERSONS INJURED"`
	PersonsKilled      string `json:"NUMBER OF PERSONS KILLED"`
	PedestriansInjured string `json:"NUMBER OF PEDESTRIANS INJURED"`
	PedestriansKilled  string `json:"NUMBER OF PEDESTRIANS KILLED"`
	CyclistsInjured    string `json:"NUMBER OF CYCLIST INJURED"`
	CyclistsKilled     string `json:"NUMBER OF CYCLIST KILLED"`
	MotoristsInjured   string `json:"NUMBER OF MOTORIST INJURED"`
	MotoristsKilled    string `json:"NUMBER OF MOTORIST KILLED"`

	Factors  [SlotCount]string `json:"factors"`
	Vehicles [SlotCount]string `json:"vehicles"`
}

// Column names used by the NYC Open Data export.
const (
	ColLatitude           = "LATITUDE"
	ColLongitude          = "LONGITUDE"
	ColCrashTime          = "CRASH TIME"
	ColBorough            = "BOROUGH"
	ColStreet             = "ON STREET NAME"
	ColPersonsInjured     = "NUMBER OF PERSONS INJURED"
	ColPersonsKilled      = "NUMBER OF PERSONS KILLED"
	ColPedestriansInjured = "NUMBER OF PEDESTRIANS INJURED"
	ColPedestriansKilled  = "NUMBER OF PEDESTRIANS KILLED"
	ColCyclistsInjured    = "NUMBER OF CYCLIST INJURED"
	ColCyclistsKilled     = "NUMBER OF CYCLIST KILLED"
	ColMotoristsInjured   = "NUMBER OF MOTORIST INJURED"
	ColMotoristsKilled    = "NUMBER OF MOTORIST KILLED"
)

// FactorColumn returns the header of contributing-factor slot i (0-based).
func FactorColumn(i int) string {
	return "CONTRIBUTING FACTOR VEHICLE " + string(rune('1'+i))
}

// VehicleColumn returns the header of vehicle-type slot i (0-based).
func VehicleColumn(i int) string {
	return "VEHICLE TYPE CODE " + string(rune('1'+i))
}

// Columns lists every source column the normalizer reads, in export order.
func Columns() []string {
	cols := []string{
		ColCrashTime, ColBorough, ColLatitude, ColLongitude, ColStreet,
		ColPersonsInjured, ColPersonsKilled,
		ColPedestriansInjured, ColPedestriansKilled,
		ColCyclistsInjured, ColCyclistsKilled,
		ColMotoristsInjured, ColMotoristsKilled,
	}
	for i := range SlotCount {
		cols = append(cols, FactorColumn(i))
	}
	for i := range SlotCount {
		cols = append(cols, VehicleColumn(i))
	}
	return cols
}

// RawRecordFromRow builds a RawRecord from a header-keyed lookup. Missing
// columns come back as "" and therefore as null.
func RawRecordFromRow(get func(col string) string) RawRecord {
	rec := RawRecord{
		Latitude:           get(ColLatitude),
		Longitude:          get(ColLongitude),
		CrashTime:          get(ColCrashTime),
		Borough:            get(ColBorough),
		Street:             get(ColStreet),
		PersonsInjured:     get(ColPersonsInjured),
		PersonsKilled:      get(ColPersonsKilled),
		PedestriansInjured: get(ColPedestriansInjured),
		PedestriansKilled:  get(ColPedestriansKilled),
		CyclistsInjured:    get(ColCyclistsInjured),
		CyclistsKilled:     get(ColCyclistsKilled),
		MotoristsInjured:   get(ColMotoristsInjured),
		MotoristsKilled:    get(ColMotoristsKilled),
	}
	for i := range SlotCount {
		rec.Factors[i] = get(FactorColumn(i))
		rec.Vehicles[i] = get(VehicleColumn(i))
	}
	return rec
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Casualties holds per-role injury or fatality counts.
type Casualties struct {
	Pedestrians int `json:"pedestrians"`
	Cyclists    int `json:"cyclists"`
	Motorists   int `json:"motorists"`
}

// Record is a normalized collision. Records are built once at load time and
// never mutated afterwards; queries share them read-only.
type Record struct {
	Geo    Geo    `json:"geo"`
	Region string `json:"region,omitempty"` // "" when the borough is unknown
	Street string `json:"street,omitempty"`

	// Hour is the hour of day 0-23, nil when the crash time was unparseable.
	Hour *int `json:"hour,omitempty"`

	TotalInjured int        `json:"total_injured"`
	TotalKilled  int        `json:"total_killed"`
	Injured      Casualties `json:"injured"`
	Killed       Casualties `json:"killed"`

	Factors        [SlotCount]string `json:"-"`
	DominantFactor string            `json:"dominant_factor,omitempty"`
	FactorShort    string            `json:"factor_short,omitempty"`

	Vehicles          [SlotCount]string          `json:"-"`
	VehicleCategories [SlotCount]VehicleCategory `json:"vehicle_categories"`

	// RegionSource records where Region came from: "original", "reverse"
	// (backfilled by geocoding), or "failed".
	RegionSource string `json:"region_source,omitempty"`

	categories CategorySet
}

// HasHour reports whether the crash time produced an hour of day.
func (r *Record) HasHour() bool { return r.Hour != nil }

// Categories returns the set of vehicle categories across all five slots.
// Normalized records carry it precomputed; hand-built records derive it.
func (r *Record) Categories() CategorySet {
	if r.categories != 0 {
		return r.categories
	}
	return NewCategorySet(r.VehicleCategories[:]...)
}
