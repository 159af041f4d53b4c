package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestToLong tests the unpivot of ratio columns into tidy rows
func TestToLong(t *testing.T) {
	rt := RatioTable{
		BucketColumn: "Expiry_month",
		Years:        []int{2023, 2024, 2025},
		Columns:      []string{"Score_gain_2023", "Score_gain_2024", "Score_gain_2025"},
		Rows: []RatioRow{
			{Bucket: "January", Values: []Value{{Number: 1}, {Number: 2}, {Number: 3}}},
			{Bucket: "February", Values: []Value{{Number: 4}, BlankValue(), {Number: 6}}},
		},
	}

	long := ToLong(rt, "Score Gain")

	t.Run("n times y rows", func(t *testing.T) {
		require.Len(t, long.Rows, 6)
		assert.Equal(t, "Expiry_month", long.BucketColumn)
		assert.Equal(t, "Score Gain", long.ValueName)
	})

	t.Run("full cross product", func(t *testing.T) {
		pairs := make(map[[2]string]int)
		for _, r := range long.Rows {
			pairs[[2]string{r.Bucket, r.Year}]++
		}
		assert.Len(t, pairs, 6)
		for _, b := range []string{"January", "February"} {
			for _, y := range []string{"2023", "2024", "2025"} {
				assert.Equal(t, 1, pairs[[2]string{b, y}])
			}
		}
	})

	t.Run("melt order and values", func(t *testing.T) {
		assert.Equal(t, TidyRow{Bucket: "January", Year: "2023", Value: Value{Number: 1}}, long.Rows[0])
		assert.Equal(t, TidyRow{Bucket: "February", Year: "2023", Value: Value{Number: 4}}, long.Rows[1])
		assert.Equal(t, TidyRow{Bucket: "February", Year: "2024", Value: BlankValue()}, long.Rows[3])
	})

	t.Run("distinct helpers", func(t *testing.T) {
		assert.Equal(t, []string{"2023", "2024", "2025"}, long.Years())
		assert.Equal(t, []string{"January", "February"}, long.Buckets())
	})

	t.Run("empty input", func(t *testing.T) {
		out := ToLong(RatioTable{Columns: []string{"x_2024"}}, "x")
		assert.Empty(t, out.Rows)
	})

	t.Run("pipeline from aggregate", func(t *testing.T) {
		agg := Aggregate(scoreGainTable(), NewCodeSet("A"), AggregateSpec{
			BucketColumn: "Expiry_month",
			Naming:       EnrollmentNaming("score_gain", "Score_gain"),
			Years:        []int{2023, 2024, 2025},
		})
		out := ToLong(agg, "Score Gain")
		assert.Len(t, out.Rows, 9)
		assert.Equal(t, []string{"January", "February", "March"}, out.Buckets())
	})
}
