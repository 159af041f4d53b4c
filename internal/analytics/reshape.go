package analytics

// TidyRow is one (bucket, year) observation.
type TidyRow struct {
	Bucket string `json:"bucket"`
	Year   string `json:"year"`
	Value  Value  `json:"value"`
}

// TidyTable is the long form handed to the chart renderer.
type TidyTable struct {
	BucketColumn string    `json:"bucket_column"`
	ValueName    string    `json:"value_name"`
	Rows         []TidyRow `json:"rows"`
}

// ToLong unpivots the per-year ratio columns. Rows come out year by year, each
// year keeping the bucket order of the input.
func ToLong(rt RatioTable, valueName string) TidyTable {
	out := TidyTable{
		BucketColumn: rt.BucketColumn,
		ValueName:    valueName,
		Rows:         make([]TidyRow, 0, len(rt.Rows)*len(rt.Columns)),
	}
	for ci, col := range rt.Columns {
		year := YearFromColumn(col)
		for _, r := range rt.Rows {
			v := BlankValue()
			if ci < len(r.Values) {
				v = r.Values[ci]
			}
			out.Rows = append(out.Rows, TidyRow{Bucket: r.Bucket, Year: year, Value: v})
		}
	}
	return out
}

// Years returns the distinct years in first-seen order.
func (t TidyTable) Years() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		out = append(out, r.Year)
	}
	return out
}

// Buckets returns the distinct buckets in first-seen order.
func (t TidyTable) Buckets() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		if _, ok := seen[r.Bucket]; ok {
			continue
		}
		seen[r.Bucket] = struct{}{}
		out = append(out, r.Bucket)
	}
	return out
}
