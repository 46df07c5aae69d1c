// Package enum is the single source of truth for the closed string sets
// (roles, post status, categories, amenities, utilities, error codes)
// that schema fields may reference.
//
// # Lifecycle
//
// A registry is populated once at startup and then frozen:
//
//	reg := enum.Default()
//	if err := reg.LoadFile("enums.yaml"); err != nil {
//	    return err
//	}
//	reg.Freeze()
//
//	reg.IsMember(enum.Amenity, "wifi") // true
//
// Adding a token is a registry update; no schema changes elsewhere.
package enum
