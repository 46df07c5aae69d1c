package enum

// Default returns an unfrozen registry seeded with the built-in
// enumerations. Callers may extend it before freezing.
func Default() *Registry {
	r := New()
	for _, def := range defaults {
		// Built-in definitions are static; a failure here is a programming error.
		if err := r.Register(def.name, def.tokens...); err != nil {
			panic(err)
		}
	}
	return r
}

var defaults = []struct {
	name   string
	tokens []string
}{
	{Role, []string{"guest", "member", "admin"}},
	{PostStatus, []string{"draft", "active", "closed"}},
	{PostCategory, []string{"apartment", "house", "room", "studio", "shared"}},
	{PostType, []string{"housing_request", "sublet"}},
	{Amenity, []string{
		"wifi", "parking", "laundry", "gym", "pool",
		"air_conditioning", "heating", "dishwasher", "furnished", "pet_friendly",
	}},
	{Utility, []string{"electricity", "water", "gas", "internet", "trash", "heating"}},
	{ErrorCode, []string{
		"SCHEMA_MISMATCH", "UNKNOWN_VARIANT", "PAGINATION_INVALID",
		"PAGE_SIZE_EXCEEDED", "CREDENTIAL_LEAK", "INTERNAL",
	}},
}
