package services

import (
	"regexp"
	"strconv"
)

// statPattern is one matcher in an ordered fallback chain. The first pattern
// that captures a positive integer wins; later patterns are never consulted.
// Keeping these as independent entries means adding a system's stat wording
// is a one-line change.
type statPattern struct {
	label string
	re    *regexp.Regexp
}

// sep tolerates ":", "=" or bare whitespace between label and number.
const sep = `\s*[:=]?\s*`

var maxHPPatterns = []statPattern{
	{"hp", regexp.MustCompile(`(?i)\bHP` + sep + `(\d+)`)},
	{"hit points", regexp.MustCompile(`(?i)\bHit\s*Points?` + sep + `(\d+)`)},
	{"max hp", regexp.MustCompile(`(?i)\bMax(?:imum)?\s*HP` + sep + `(\d+)`)},
	{"current/max hp", regexp.MustCompile(`(?i)\d+\s*/\s*(\d+)\s*HP`)},
	{"sp", regexp.MustCompile(`(?i)\bSP` + sep + `(\d+)`)},
	{"table row", regexp.MustCompile(`(?i)\|\s*HP\s*\|\s*(\d+)\s*\|`)},
	{"bold marker", regexp.MustCompile(`(?i)\*\*\s*HP\s*\*\*` + sep + `(\d+)`)},
	{"health", regexp.MustCompile(`(?i)\bHealth` + sep + `(\d+)`)},
}

var defensePatterns = []statPattern{
	{"ac", regexp.MustCompile(`(?i)\bAC` + sep + `(\d+)`)},
	{"armor class", regexp.MustCompile(`(?i)\bArmou?r\s*Class` + sep + `(\d+)`)},
	{"defense", regexp.MustCompile(`(?i)\bDef(?:ense)?` + sep + `(\d+)`)},
	{"eac", regexp.MustCompile(`(?i)\bEAC` + sep + `(\d+)`)},
	{"kac", regexp.MustCompile(`(?i)\bKAC` + sep + `(\d+)`)},
	{"table row", regexp.MustCompile(`(?i)\|\s*AC\s*\|\s*(\d+)\s*\|`)},
	{"bold marker", regexp.MustCompile(`(?i)\*\*\s*AC\s*\*\*` + sep + `(\d+)`)},
	{"defence", regexp.MustCompile(`(?i)\bDefence` + sep + `(\d+)`)},
}

// ExtractMaxHP scans a character sheet for its maximum hit points. Returns
// nil when no pattern in the chain matches a positive integer.
func ExtractMaxHP(content string) *int {
	return extractStat(content, maxHPPatterns)
}

// ExtractDefenseScore scans a character sheet for its defense/armor score.
func ExtractDefenseScore(content string) *int {
	return extractStat(content, defensePatterns)
}

func extractStat(content string, patterns []statPattern) *int {
	for _, pattern := range patterns {
		m := pattern.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil || value <= 0 {
			continue
		}
		return &value
	}
	return nil
}
