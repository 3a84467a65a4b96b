package domain

// Status is the coverage tier assigned to a fleet variant.
type Status string

// Coverage tiers. Lexical order (clearly_missing < covered < weak_match) is
// the report's primary sort key.
const (
	StatusCovered        Status = "covered"
	StatusWeakMatch      Status = "weak_match"
	StatusClearlyMissing Status = "clearly_missing"
)

// Classifier thresholds.
const (
	MissingThreshold = 0.18
	WeakThreshold    = 0.42
)

// IconEntry is one managed icon asset joined with its specs record.
type IconEntry struct {
	IconFile      string
	IconPath      string
	Key           string
	Label         string
	MakeCanonical string
	MakeTokens    []string
	ModelTokens   []string
	FamilyTokens  []string
	Year          int // 0 when unknown
	RaceLike      bool
}

// FleetVariant is one aggregated (make, genmodel, model, year) descriptor
// from the fleet census.
type FleetVariant struct {
	Make          string
	GenModel      string
	Model         string
	Year          int // 0 when unknown
	FleetEstimate int
	Rows          int
}

// VariantKey identifies a FleetVariant.
type VariantKey struct {
	Make     string
	GenModel string
	Model    string
	Year     int
}

// Key returns the aggregation key of the variant.
func (v FleetVariant) Key() VariantKey {
	return VariantKey{Make: v.Make, GenModel: v.GenModel, Model: v.Model, Year: v.Year}
}

// MatchParts holds the component sub-scores of a variant/icon comparison.
type MatchParts struct {
	Make     float64
	Family   float64
	GenModel float64
	Model    float64
	Year     float64
}

// MatchResult is the scored outcome for one fleet variant. Field order is
// the column order of the tier CSVs.
type MatchResult struct {
	Status        Status  `json:"status"`
	Score         float64 `json:"score"`
	Make          string  `json:"make"`
	GenModel      string  `json:"genmodel"`
	Model         string  `json:"model"`
	Year          int     `json:"year"`
	FleetEstimate int     `json:"fleet_estimate"`
	BestIconFile  string  `json:"best_icon_file"`
	BestIconPath  string  `json:"best_icon_path"`
	BestIconLabel string  `json:"best_icon_label"`
	MatchMake     float64 `json:"match_make"`
	MatchFamily   float64 `json:"match_family"`
	MatchGenModel float64 `json:"match_genmodel"`
	MatchModel    float64 `json:"match_model"`
	MatchYear     float64 `json:"match_year"`
}

// CoverageThresholds records the classifier thresholds in the report.
type CoverageThresholds struct {
	ClearlyMissingBelow float64 `json:"clearly_missing_below"`
	WeakMatchBelow      float64 `json:"weak_match_below"`
}

// CoverageReport is the full cross-reference output.
type CoverageReport struct {
	SourceFleet   string             `json:"source_dvla"`
	SourceIcons   string             `json:"source_icons"`
	Thresholds    CoverageThresholds `json:"thresholds"`
	Summary       map[Status]int     `json:"summary"`
	TotalVariants int                `json:"total_variants"`
	Results       []MatchResult      `json:"results"`
}

// ScoredRow is a tier CSV row as consumed by the lookup builder.
type ScoredRow struct {
	Make          string
	Year          int
	FleetEstimate int
	Score         float64
	IconPath      string
	IconLabel     string
}

// OutputEvent is the serialized form destined for the message sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// FleetStats counts how census rows were handled during aggregation.
type FleetStats struct {
	RowsRead          int
	SkippedBodyType   int
	SkippedIncomplete int
	CountColumns      []string
}
