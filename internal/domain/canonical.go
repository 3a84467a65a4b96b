package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"fortio.org/safecast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tokenRe matches maximal runs of lowercase ASCII letters and digits.
var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// makeAliases maps tokenized make spellings to the scorer's grouping key.
var makeAliases = map[string]string{
	"mercedes benz": "mercedes",
	"mercedes amg":  "mercedes",
	"amg mercedes":  "mercedes",
	"alfa romeo":    "alfa romeo",
	"land rover":    "land rover",
	"range rover":   "land rover",
	"aston martin":  "aston martin",
	"rolls royce":   "rolls royce",
	"vauxhall":      "vauxhall",
	"vw":            "volkswagen",
}

// makeKeyAliases maps tokenized make spellings to the flat lookup index key.
var makeKeyAliases = map[string]string{
	"mercedes benz": "mercedes",
	"mercedes amg":  "mercedes",
	"amg mercedes":  "mercedes",
	"alfa romeo":    "alfaromeo",
	"land rover":    "landrover",
	"range rover":   "landrover",
	"rolls royce":   "rollsroyce",
	"vw":            "volkswagen",
}

var raceTokens = map[string]struct{}{
	"race": {}, "racing": {}, "rally": {}, "touring": {}, "gt3": {}, "gt4": {},
	"gr3": {}, "gr4": {}, "formula": {}, "nascar": {}, "lm": {}, "lemans": {},
	"vision": {}, "concept": {}, "prototype": {}, "drift": {}, "supergt": {},
	"jgtc": {}, "pikes": {}, "f1": {},
}

// classStopwords are trim, drivetrain, fuel and edition words that say
// nothing about the vehicle family.
var classStopwords = map[string]struct{}{
	"and": {}, "the": {}, "auto": {}, "automatic": {}, "manual": {},
	"diesel": {}, "petrol": {}, "hybrid": {}, "ev": {}, "electric": {},
	"se": {}, "sel": {}, "sport": {}, "line": {}, "premium": {}, "amg": {},
	"edition": {}, "isg": {}, "hev": {}, "phev": {}, "awd": {}, "fwd": {},
	"rwd": {}, "cdi": {}, "tsi": {}, "tdi": {}, "d": {}, "t": {}, "s": {},
}

// maxFamilyTokens caps the family signature length.
const maxFamilyTokens = 6

// NormalizeSpace trims the text and collapses internal whitespace runs to a
// single space.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize lowercases text and splits it into ASCII alphanumeric runs.
// Punctuation, whitespace and non-ASCII characters are separators.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(NormalizeSpace(text)), -1)
}

// CanonicalMake returns the scorer's grouping key for a manufacturer name,
// e.g. "Mercedes-Benz" -> "mercedes", "Land Rover" -> "land rover".
func CanonicalMake(text string) string {
	return resolveAlias(Tokenize(text), makeAliases, " ")
}

// MakeKey returns the flat lookup index key for a manufacturer name, e.g.
// "Land Rover" -> "landrover". Unlike CanonicalMake it keeps any Unicode
// letter or number and joins tokens without a separator.
func MakeKey(text string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, cases.Lower(language.Und).String(text))
	return resolveAlias(strings.Fields(base), makeKeyAliases, "")
}

func resolveAlias(toks []string, aliases map[string]string, sep string) string {
	if len(toks) == 0 {
		return ""
	}
	joined := strings.Join(toks, " ")
	if alias, ok := aliases[joined]; ok {
		return alias
	}
	if len(toks) >= 2 {
		if alias, ok := aliases[toks[0]+" "+toks[1]]; ok {
			return alias
		}
	}
	return strings.Join(toks, sep)
}

// ExtractFamilyTokens returns up to six distinctive tokens describing the
// vehicle family (e.g. "golf", "gti"), excluding make tokens, trim
// stopwords and single characters. Order is first-seen.
func ExtractFamilyTokens(makeName, genmodel, model string) []string {
	makeToks := tokenSet(Tokenize(CanonicalMake(makeName)))
	seen := make(map[string]struct{})
	out := make([]string, 0, maxFamilyTokens)
	for _, t := range Tokenize(makeName + " " + genmodel + " " + model) {
		if _, ok := makeToks[t]; ok {
			continue
		}
		if _, ok := classStopwords[t]; ok {
			continue
		}
		if len(t) <= 1 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxFamilyTokens {
			break
		}
	}
	return out
}

// LooksRaceOrSpecial reports whether the tokens mark a motorsport, concept
// or Gran Turismo "Gr.N" class vehicle.
func LooksRaceOrSpecial(tokens []string) bool {
	for _, t := range tokens {
		if _, ok := raceTokens[t]; ok {
			return true
		}
		if len(t) > 2 && strings.HasPrefix(t, "gr") && isDigits(t[2:]) {
			return true
		}
	}
	return false
}

// YearFromKey infers a model year from a catalog key. The last 4-digit token
// in [1900, 2030] wins; otherwise a trailing 2-digit token is pivoted at 70.
// Returns 0 when no plausible year exists.
func YearFromKey(key string) int {
	toks := Tokenize(key)
	if len(toks) == 0 {
		return 0
	}
	year := 0
	for _, t := range toks {
		if len(t) != 4 || !isDigits(t) {
			continue
		}
		if y, _ := strconv.Atoi(t); y >= 1900 && y <= 2030 {
			year = y
		}
	}
	if year != 0 {
		return year
	}
	last := toks[len(toks)-1]
	if len(last) == 2 && isDigits(last) {
		y, _ := strconv.Atoi(last)
		if y >= 70 {
			return 1900 + y
		}
		return 2000 + y
	}
	return 0
}

// OverlapScore is the share of distinct query tokens present in target.
// Either side empty scores 0.
func OverlapScore(query, target []string) float64 {
	if len(query) == 0 || len(target) == 0 {
		return 0
	}
	q := tokenSet(query)
	t := tokenSet(target)
	hits := 0
	for tok := range q {
		if _, ok := t[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// ParseIntLike parses a census or specs cell as an integer, truncating
// decimals. Empty cells, suppression markers like "[c]" and anything
// non-numeric yield 0.
func ParseIntLike(text string) int {
	s := strings.TrimSpace(text)
	if s == "" || strings.HasPrefix(s, "[") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	n, err := safecast.Truncate[int](f)
	if err != nil {
		return 0
	}
	return n
}

// ParseFloatOrZero parses a string as float64, returning 0 on failure.
func ParseFloatOrZero(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return v
}

// Round4 rounds to four decimal places, the precision of all persisted scores.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func tokenSet(toks []string) map[string]struct{} {
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
