package analytics

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// Placeholder is shown for values that cannot be displayed.
	Placeholder = "—"
	// MissingDefinition is shown when a KPI title has no reference entry.
	MissingDefinition = "Definition not available."

	definitionKeyColumn   = "KPI_Metrics"
	definitionValueColumn = "Definition"
)

var numberPrinter = message.NewPrinter(language.English)

// Direction of a KPI change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = "none"
)

// Card is the presentational form of a KPIResult.
type Card struct {
	Title        string    `json:"title"`
	Definition   string    `json:"definition"`
	Years        [2]int    `json:"years"`
	Values       [2]Value  `json:"values"`
	Delta        Value     `json:"delta"`
	Direction    Direction `json:"direction"`
	Display      [2]string `json:"display"`
	DisplayDelta string    `json:"display_delta"`
}

// Definitions maps KPI titles to their human-readable definitions.
type Definitions map[string]string

// DefinitionsFromTable reads the KPI_Metrics / Definition reference tab.
func DefinitionsFromTable(t Table) Definitions {
	defs := make(Definitions, t.Len())
	for r := 0; r < t.Len(); r++ {
		key, ok := t.Cell(r, definitionKeyColumn)
		if !ok {
			break
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := defs[key]; dup {
			continue
		}
		def, _ := t.Cell(r, definitionValueColumn)
		defs[key] = strings.TrimSpace(def)
	}
	return defs
}

// Lookup returns the definition or the fallback message.
func (d Definitions) Lookup(title string) string {
	if def, ok := d[strings.TrimSpace(title)]; ok && def != "" {
		return def
	}
	return MissingDefinition
}

// BuildCard derives the delta, direction and display strings.
func BuildCard(res KPIResult, defs Definitions) Card {
	c := Card{
		Title:      res.Title,
		Definition: defs.Lookup(res.Title),
		Years:      res.Years,
		Values:     res.Values,
		Direction:  DirectionNone,
		Delta:      BlankValue(),
	}
	a, b := res.Values[0], res.Values[1]
	if !a.Blank && !b.Blank {
		c.Delta = Num(b.Number - a.Number)
	}
	if !c.Delta.Blank {
		if c.Delta.Number >= 0 {
			c.Direction = DirectionUp
		} else {
			c.Direction = DirectionDown
		}
	}
	c.Display = [2]string{FormatValue(a), FormatValue(b)}
	c.DisplayDelta = FormatValue(c.Delta)
	return c
}

// FormatValue renders large magnitudes with thousands separators and no
// decimals, smaller ones with one decimal, and blanks as the placeholder.
func FormatValue(v Value) string {
	if v.Blank || math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
		return Placeholder
	}
	// Branch on the value as printed: 999.96 is "1,000".
	rounded := math.Round(v.Number*10) / 10
	if math.Abs(rounded) >= 1000 {
		return numberPrinter.Sprintf("%.0f", rounded)
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64)
}
