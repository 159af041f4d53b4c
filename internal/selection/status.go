package selection

import (
	"fmt"
	"strings"
)

// Tone classifies a filter state for colour coding.
type Tone string

const (
	ToneAll     Tone = "all"
	ToneNone    Tone = "none"
	TonePartial Tone = "partial"
)

// FilterStatus summarizes the active filter for display.
type FilterStatus struct {
	Text     string `json:"text"`
	Tone     Tone   `json:"tone"`
	Selected int    `json:"selected"`
	Total    int    `json:"total"`
}

// Status describes the selection against the universe of known codes. Codes
// outside the universe are ignored, so stale codes never count as selected.
func Status(selected, universe []string) FilterStatus {
	known := make(map[string]struct{}, len(universe))
	for _, c := range universe {
		known[c] = struct{}{}
	}
	active := make([]string, 0, len(selected))
	for _, c := range selected {
		if _, ok := known[c]; ok {
			active = append(active, c)
			delete(known, c)
		}
	}

	st := FilterStatus{Selected: len(active), Total: len(universe)}
	switch {
	case len(active) == 0:
		st.Text = "No Products Selected"
		st.Tone = ToneNone
	case len(known) == 0:
		st.Text = "All Products Selected"
		st.Tone = ToneAll
	case len(active) <= 3:
		st.Text = "Selected: " + strings.Join(active, ", ")
		st.Tone = TonePartial
	default:
		st.Text = fmt.Sprintf("Selected: %s and %d more", strings.Join(active[:2], ", "), len(active)-2)
		st.Tone = TonePartial
	}
	return st
}
