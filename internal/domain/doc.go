// Package domain models the vehicle icon cross-reference: icon catalog
// entries, DVLA fleet variants, match results and the weighted default-icon
// lookup derived from them.
//
// # Data Sources
//
// Fleet data comes from the DVLA VEH0124 statistics table ("Licensed vehicles
// at the end of the quarter by body type, make, generic model and model"),
// exported as CSV. Each row carries BodyType, Make, GenModel, Model,
// YearManufacture, YearFirstUsed and one registration count column per
// reporting year. Only BodyType "Cars" rows are used.
//
// Icon data is a vehicle-specs JSON database (key -> {specs, label}) plus a
// directory of rendered icons whose file stem equals the specs key.
//
// # Text Conventions
//
// Tokens are maximal runs of ASCII letters and digits after lowercasing:
//
//	"Mercedes-Benz E 220d AMG Line" -> mercedes benz e 220d amg line
//
// Two make normalizations exist and are not interchangeable:
//
//	CanonicalMake: grouping key joined by spaces   "Land Rover" -> "land rover"
//	MakeKey:       flat lookup index key          "Land Rover" -> "landrover"
//
// Suppressed DVLA cells ("[c]", "[x]") and any other non-numeric cell parse
// as 0 via [ParseIntLike].
//
// Catalog keys often end in a year fragment:
//
//	"mustang_1967" -> 1967, "supra_02" -> 2002, "civic_99" -> 1999
//
// Two-digit fragments pivot at 70 (>= 70 is 19xx). See [YearFromKey].
//
// # Scoring
//
// A variant is scored against a candidate icon with asymmetric token overlap
// (share of the query tokens found in the target):
//
//	score = 0.42*make + 0.28*family + 0.15*genmodel + 0.10*model + 0.05*year
//
// then penalized (-0.16 race/concept icon for a road car, -0.08 year gap over
// 20) and clamped to [0, 1]. Coverage tiers:
//
//	< 0.18 clearly_missing | < 0.42 weak_match | >= 0.42 covered
//
// # Lookup Aggregation
//
// The lookup builder folds covered and weak rows into per-make and
// per-make-per-year nodes with [FoldRow]. Row weight is
// max(1, fleet * max(score, 0.01)); a competing icon takes over a node only
// when its single-row weight beats the node's accumulated weight.
package domain
