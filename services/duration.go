package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FumingPower3925/ttrpg-session-manager/config"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

var (
	minutesRangePattern = regexp.MustCompile(`(?i)(\d+)\s*(?:-|–|to)\s*(\d+)\s*min(?:ute)?s?\b`)
	minutesPattern      = regexp.MustCompile(`(?i)(\d+)\s*min(?:ute)?s?\b`)
)

// ExtractDurationHint pulls an expected session length, in minutes, out of
// free-text plan content. Best effort only: it prefers an explicit minutes
// range on a line mentioning a duration label, then any minutes range, then
// any minutes mention anywhere. Text that matches nothing yields ok=false.
func ExtractDurationHint(text string) (types.DurationHint, bool) {
	labels := config.DurationLabels()

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		labelled := false
		for _, label := range labels {
			if strings.Contains(lower, strings.ToLower(label)) {
				labelled = true
				break
			}
		}
		if !labelled {
			continue
		}
		if hint, ok := minutesIn(line); ok {
			return hint, true
		}
	}

	return minutesIn(text)
}

func minutesIn(text string) (types.DurationHint, bool) {
	if m := minutesRangePattern.FindStringSubmatch(text); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil && lo > 0 && hi >= lo {
			return types.DurationHint{MinMinutes: lo, MaxMinutes: hi}, true
		}
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return types.DurationHint{MinMinutes: n, MaxMinutes: n}, true
		}
	}
	return types.DurationHint{}, false
}
