package optimise

import "chamber_monitor/internal/models"

// NullOutRedundantValues nulls, for every nullable field, the values strictly inside
// each run of equal non-null values. The first and last of a run are kept so that
// consumers can interpolate across the gap. A nil value ends a run.
func NullOutRedundantValues(readings []models.Reading) {
	for _, f := range nullableFields {
		nullOutField(readings, f)
	}
}

func nullOutField(readings []models.Reading, f field) {
	n := len(readings)
	start := 0
	for i := 1; i <= n; i++ {
		if i < n && f.same(&readings[start], &readings[i]) {
			continue
		}
		// run is [start, i-1]
		for k := start + 1; k < i-1; k++ {
			f.clear(&readings[k])
		}
		start = i
	}
}

// RemoveRedundantIntermediate drops records, other than the first and last,
// whose every nullable field is nil. The returned slice shares readings' backing array.
func RemoveRedundantIntermediate(readings []models.Reading) []models.Reading {
	if len(readings) <= 2 {
		return readings
	}
	out := readings[:1]
	for i := 1; i < len(readings)-1; i++ {
		if !readings[i].AllNullableNil() {
			out = append(out, readings[i])
		}
	}
	return append(out, readings[len(readings)-1])
}
