package domain

import "math"

// Scoring weights and penalties.
const (
	weightMake     = 0.42
	weightFamily   = 0.28
	weightGenModel = 0.15
	weightModel    = 0.10
	weightYear     = 0.05

	neutralYearScore = 0.25
	yearScoreSpan    = 15.0

	racePenalty       = 0.16
	yearGapPenalty    = 0.08
	yearGapPenaltyMin = 20
)

// ScoreVariantToIcon scores how well icon represents variant. The result is
// always within [0, 1].
func ScoreVariantToIcon(variant FleetVariant, icon IconEntry) (float64, MatchParts) {
	makeToks := Tokenize(CanonicalMake(variant.Make))
	familyToks := ExtractFamilyTokens(variant.Make, variant.GenModel, variant.Model)

	parts := MatchParts{
		Make:     OverlapScore(makeToks, icon.MakeTokens),
		Family:   OverlapScore(familyToks, icon.FamilyTokens),
		GenModel: OverlapScore(Tokenize(variant.GenModel), icon.ModelTokens),
		Model:    OverlapScore(Tokenize(variant.Model), icon.ModelTokens),
		Year:     neutralYearScore,
	}

	bothYears := variant.Year != 0 && icon.Year != 0
	yearGap := 0
	if bothYears {
		yearGap = variant.Year - icon.Year
		if yearGap < 0 {
			yearGap = -yearGap
		}
		parts.Year = math.Max(0, 1-float64(yearGap)/yearScoreSpan)
	}

	score := parts.Make*weightMake +
		parts.Family*weightFamily +
		parts.GenModel*weightGenModel +
		parts.Model*weightModel +
		parts.Year*weightYear

	// Penalties apply after weighting: they are red flags, not overlap.
	if icon.RaceLike && !LooksRaceOrSpecial(Tokenize(variant.GenModel+" "+variant.Model)) {
		score -= racePenalty
	}
	if bothYears && yearGap > yearGapPenaltyMin {
		score -= yearGapPenalty
	}

	return math.Max(0, math.Min(1, score)), parts
}

// Classify buckets a best score into a coverage tier. A variant without any
// candidate icon is always clearly missing.
func Classify(score float64, hasCandidates bool) Status {
	switch {
	case !hasCandidates, score < MissingThreshold:
		return StatusClearlyMissing
	case score < WeakThreshold:
		return StatusWeakMatch
	default:
		return StatusCovered
	}
}

// NewMatchResult assembles the persisted result for a variant. icon is nil
// when no candidate existed; bestScore is negative in that case.
func NewMatchResult(variant FleetVariant, icon *IconEntry, bestScore float64, parts MatchParts, hasCandidates bool) MatchResult {
	score := math.Max(bestScore, 0)
	r := MatchResult{
		Status:        Classify(score, hasCandidates),
		Score:         Round4(score),
		Make:          variant.Make,
		GenModel:      variant.GenModel,
		Model:         variant.Model,
		Year:          variant.Year,
		FleetEstimate: variant.FleetEstimate,
		MatchMake:     Round4(parts.Make),
		MatchFamily:   Round4(parts.Family),
		MatchGenModel: Round4(parts.GenModel),
		MatchModel:    Round4(parts.Model),
		MatchYear:     Round4(parts.Year),
	}
	if icon != nil {
		r.BestIconFile = icon.IconFile
		r.BestIconPath = icon.IconPath
		r.BestIconLabel = icon.Label
	}
	return r
}
