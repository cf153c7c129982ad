package optimise

import "chamber_monitor/internal/models"

// field gives typed access to one nullable Reading field.
type field struct {
	name  string
	isNil func(r *models.Reading) bool
	same  func(a, b *models.Reading) bool
	clear func(r *models.Reading)
}

func nullable[T comparable](name string, ref func(r *models.Reading) **T) field {
	return field{
		name:  name,
		isNil: func(r *models.Reading) bool { return *ref(r) == nil },
		same: func(a, b *models.Reading) bool {
			pa, pb := *ref(a), *ref(b)
			return pa != nil && pb != nil && *pa == *pb
		},
		clear: func(r *models.Reading) { *ref(r) = nil },
	}
}

// temperatureColumns are the columns the smoother runs over.
var temperatureColumns = []struct {
	name string
	ref  func(r *models.Reading) **int
}{
	{"tTarget", func(r *models.Reading) **int { return &r.TTarget }},
	{"tBeer", func(r *models.Reading) **int { return &r.TBeer }},
	{"tExternal", func(r *models.Reading) **int { return &r.TExternal }},
	{"tChamber", func(r *models.Reading) **int { return &r.TChamber }},
	{"tPi", func(r *models.Reading) **int { return &r.TPi }},
}

// nullableFields lists every Reading field that may be elided.
var nullableFields = []field{
	nullable("tTarget", func(r *models.Reading) **int { return &r.TTarget }),
	nullable("tBeer", func(r *models.Reading) **int { return &r.TBeer }),
	nullable("tExternal", func(r *models.Reading) **int { return &r.TExternal }),
	nullable("tChamber", func(r *models.Reading) **int { return &r.TChamber }),
	nullable("tPi", func(r *models.Reading) **int { return &r.TPi }),
	nullable("heaterOutput", func(r *models.Reading) **int { return &r.HeaterOutput }),
	nullable("fridgeOn", func(r *models.Reading) **bool { return &r.FridgeOn }),
	nullable("mode", func(r *models.Reading) **models.Mode { return &r.Mode }),
}
