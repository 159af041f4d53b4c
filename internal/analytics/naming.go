package analytics

import (
	"fmt"
	"strconv"
	"strings"
)

// YearStyle is the year suffix convention of a table family.
type YearStyle int

const (
	FullYear  YearStyle = iota // "2024"
	ShortYear                  // "24"
)

// ParseYearStyle maps "full" / "short" to a YearStyle.
func ParseYearStyle(s string) (YearStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return FullYear, nil
	case "short":
		return ShortYear, nil
	default:
		return 0, fmt.Errorf("unknown year style %q", s)
	}
}

// Suffix renders the year in this style.
func (s YearStyle) Suffix(year int) string {
	if s == ShortYear {
		return fmt.Sprintf("%02d", year%100)
	}
	return strconv.Itoa(year)
}

// ColumnTemplate names one metric column across years.
type ColumnTemplate struct {
	Base  string
	Style YearStyle
}

// For returns the concrete column name for a year.
func (t ColumnTemplate) For(year int) string {
	return t.Base + "_" + t.Style.Suffix(year)
}

// Naming is the column naming strategy of one chart family: where the
// numerator and denominator live and how the derived ratio column is called.
type Naming struct {
	Numerator   ColumnTemplate
	Denominator ColumnTemplate
	Output      ColumnTemplate
}

const enrollmentColumn = "kbs_enrollment_id"

// EnrollmentNaming is the plain family: kbs_enrollment_id_<y> over <metric>_<y>.
func EnrollmentNaming(metric, output string) Naming {
	return Naming{
		Numerator:   ColumnTemplate{Base: metric},
		Denominator: ColumnTemplate{Base: enrollmentColumn},
		Output:      ColumnTemplate{Base: output},
	}
}

// PrefixedNaming is the score family where every column carries a test prefix,
// e.g. First_score_kbs_enrollment_id_2024 and First_score_scaled_score_2024.
func PrefixedNaming(prefix, metric, output string) Naming {
	return Naming{
		Numerator:   ColumnTemplate{Base: prefix + "_" + metric},
		Denominator: ColumnTemplate{Base: prefix + "_score_" + enrollmentColumn},
		Output:      ColumnTemplate{Base: prefix + "_" + output},
	}
}

// ScopedNaming is the family where the output name scopes both inputs,
// e.g. Avg_Activity_kbs_enrollment_id_2024 and Avg_Activity_sequence_title_2024.
func ScopedNaming(output, metric string) Naming {
	return Naming{
		Numerator:   ColumnTemplate{Base: output + "_" + metric},
		Denominator: ColumnTemplate{Base: output + "_" + enrollmentColumn},
		Output:      ColumnTemplate{Base: output},
	}
}

// WithStyle returns a copy of the naming using the given year style.
func (n Naming) WithStyle(style YearStyle) Naming {
	n.Numerator.Style = style
	n.Denominator.Style = style
	n.Output.Style = style
	return n
}

// YearFromColumn returns the trailing segment after the last underscore.
func YearFromColumn(column string) string {
	if i := strings.LastIndex(column, "_"); i >= 0 {
		return column[i+1:]
	}
	return column
}
