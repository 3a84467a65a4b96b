package domain

import "math"

// Lookup acceptance thresholds. They are stricter than the classifier's
// because the lookup is applied without review.
const (
	MinCoveredScore = 0.50
	MinWeakScore    = 0.60
	MinDefaultScore = 0.52
)

// LookupNode accumulates weighted icon votes for one make or make/year slot.
// The zero value is an undecided node.
type LookupNode struct {
	Icon        string
	Label       string
	Weight      float64
	ScoreWeight float64
	Samples     int
}

// Decided reports whether the node has a leading icon.
func (n LookupNode) Decided() bool {
	return n.Icon != ""
}

// AvgScore is the weight-averaged score of all rows folded into the node.
func (n LookupNode) AvgScore() float64 {
	if n.Weight <= 0 {
		return 0
	}
	return n.ScoreWeight / n.Weight
}

// RowWeight is the voting weight of one row: its fleet size scaled by match
// confidence, never below 1.
func RowWeight(fleet int, score float64) float64 {
	return math.Max(1, float64(fleet)*math.Max(score, 0.01))
}

// FoldRow folds one row into node and returns the updated node.
//
// An undecided node adopts the row's icon. A row for the leading icon adds
// its weight and score mass. A competing icon takes the lead only when its
// own weight exceeds the node's accumulated weight, which resets the
// accumulators to the row's contribution; otherwise the row still adds its
// mass to the node. Samples count every folded row.
func FoldRow(node LookupNode, row ScoredRow, weight float64) LookupNode {
	switch {
	case !node.Decided():
		node.Icon = row.IconPath
		node.Label = row.IconLabel
		node.Weight += weight
		node.ScoreWeight += weight * row.Score
	case node.Icon == row.IconPath:
		node.Weight += weight
		node.ScoreWeight += weight * row.Score
	case weight > node.Weight:
		node.Icon = row.IconPath
		node.Label = row.IconLabel
		node.Weight = weight
		node.ScoreWeight = weight * row.Score
	default:
		node.Weight += weight
		node.ScoreWeight += weight * row.Score
	}
	node.Samples++
	return node
}

// LookupSource records the input files of a lookup build.
type LookupSource struct {
	CoveredCSV string `json:"covered_csv"`
	WeakCSV    string `json:"weak_csv"`
}

// LookupThresholds records the acceptance thresholds of a lookup build.
type LookupThresholds struct {
	MinCoveredScore float64 `json:"min_covered_score"`
	MinWeakScore    float64 `json:"min_weak_score"`
	MinDefaultScore float64 `json:"min_default_score"`
}

// RowsUsed counts accepted rows per source file.
type RowsUsed struct {
	Covered int `json:"covered"`
	Weak    int `json:"weak"`
}

// YearLookup is the finalized icon choice for one make and year.
type YearLookup struct {
	Icon    string  `json:"icon"`
	Label   string  `json:"label"`
	Score   float64 `json:"score"`
	Samples int     `json:"samples"`
}

// MakeLookup is the finalized default icon for one make.
type MakeLookup struct {
	DefaultIcon  string                `json:"default_icon"`
	DefaultLabel string                `json:"default_label"`
	DefaultScore float64               `json:"default_score"`
	Samples      int                   `json:"samples"`
	Years        map[string]YearLookup `json:"years"`
}

// Lookup is the persisted default-icon lookup table.
type Lookup struct {
	GeneratedAtUTC string                `json:"generated_at_utc"`
	Source         LookupSource          `json:"source"`
	Thresholds     LookupThresholds      `json:"thresholds"`
	RowsUsed       RowsUsed              `json:"rows_used"`
	MakeCount      int                   `json:"make_count"`
	ByMake         map[string]MakeLookup `json:"by_make"`
}

// DefaultLookupThresholds returns the thresholds used by the builder.
func DefaultLookupThresholds() LookupThresholds {
	return LookupThresholds{
		MinCoveredScore: MinCoveredScore,
		MinWeakScore:    MinWeakScore,
		MinDefaultScore: MinDefaultScore,
	}
}
