package model

import (
	"github.com/forgo/sublet/api/internal/enum"
	"github.com/forgo/sublet/api/internal/schema"
)

// Schema names
const (
	SchemaUser               = "User"
	SchemaUserProfile        = "UserProfile"
	SchemaUserAuth           = "UserAuth"
	SchemaPostAuthor         = "PostAuthor"
	SchemaBasePost           = "BasePost"
	SchemaHousingRequestPost = "HousingRequestPost"
	SchemaSubletPost         = "SubletPost"

	SchemaResponseMeta   = "ResponseMeta"
	SchemaPaginationMeta = "PaginationMeta"
	SchemaFieldError     = "FieldError"
	SchemaApiError       = "ApiError"
)

// PostDiscriminator is the field that selects a post variant
const PostDiscriminator = "type"

// SchemaVersion is bumped whenever a declared contract changes shape
const SchemaVersion = 1

// Schemas returns the declarations for every domain and metadata type, in
// registration order
func Schemas() []schema.Schema {
	return []schema.Schema{
		{
			Name:    SchemaUser,
			Version: SchemaVersion,
			Fields: []schema.FieldSpec{
				schema.Field("id", schema.NonEmptyString()),
				schema.Field("username", schema.NonEmptyString()),
				schema.OptionalField("email", schema.Email()),
				schema.OptionalField("avatar", schema.URL()),
				schema.Field("level", schema.NonNegativeInteger()),
				schema.Field("role", schema.Enum(enum.Role)),
				schema.OptionalField("created_on", schema.Timestamp()),
				schema.OptionalField("updated_on", schema.Timestamp()),
			},
		},
		{
			Name:    SchemaUserProfile,
			Version: SchemaVersion,
			Extends: SchemaUser,
			Fields: []schema.FieldSpec{
				schema.OptionalField("bio", schema.String()),
				schema.OptionalField("stats", schema.MapOf(schema.NonNegativeInteger())),
				schema.OptionalField("preferences", schema.MapOf(schema.String())),
			},
		},
		{
			Name:              SchemaUserAuth,
			Version:           SchemaVersion,
			Extends:           SchemaUser,
			CredentialBearing: true,
			Fields: []schema.FieldSpec{
				schema.Field("credential_hash", schema.CredentialHash()),
				schema.OptionalField("last_login_on", schema.Timestamp()),
			},
		},
		{
			Name:         SchemaPostAuthor,
			Version:      SchemaVersion,
			ProjectionOf: SchemaUser,
			Fields: []schema.FieldSpec{
				schema.Field("id", schema.NonEmptyString()),
				schema.Field("username", schema.NonEmptyString()),
				schema.OptionalField("avatar", schema.URL()),
				schema.Field("level", schema.NonNegativeInteger()),
			},
		},
		{
			Name:          SchemaBasePost,
			Version:       SchemaVersion,
			Discriminator: PostDiscriminator,
			Variants: map[string]string{
				string(PostTypeHousingRequest): SchemaHousingRequestPost,
				string(PostTypeSublet):         SchemaSubletPost,
			},
			Fields: []schema.FieldSpec{
				schema.Field("id", schema.NonEmptyString()),
				schema.Field("author", schema.Ref(SchemaPostAuthor)),
				schema.Field("category", schema.Enum(enum.PostCategory)),
				schema.Field("status", schema.Enum(enum.PostStatus)),
				schema.Field("title", schema.NonEmptyString()),
				schema.OptionalField("description", schema.String()),
				schema.Field("created_on", schema.Timestamp()),
				schema.Field("updated_on", schema.Timestamp()),
			},
		},
		{
			Name:    SchemaHousingRequestPost,
			Version: SchemaVersion,
			Extends: SchemaBasePost,
			Fields: []schema.FieldSpec{
				schema.Field(PostDiscriminator, schema.Literal(string(PostTypeHousingRequest))),
				schema.OptionalField("budget_min", schema.NonNegativeInteger()),
				schema.Field("budget_max", schema.NonNegativeInteger()),
				schema.Field("move_in_date", schema.Timestamp()),
				schema.OptionalField("preferred_location", schema.String()),
				schema.OptionalField("desired_amenities", schema.SetOf(schema.Enum(enum.Amenity))),
			},
		},
		{
			Name:    SchemaSubletPost,
			Version: SchemaVersion,
			Extends: SchemaBasePost,
			Fields: []schema.FieldSpec{
				schema.Field(PostDiscriminator, schema.Literal(string(PostTypeSublet))),
				schema.Field("rent", schema.NonNegativeInteger()),
				schema.Field("address", schema.NonEmptyString()),
				schema.Field("available_from", schema.Timestamp()),
				schema.Field("available_until", schema.Timestamp()),
				schema.Field("amenities", schema.SetOf(schema.Enum(enum.Amenity))),
				schema.Field("utilities_included", schema.SetOf(schema.Enum(enum.Utility))),
			},
		},

		// Envelope metadata
		{
			Name:    SchemaResponseMeta,
			Class:   schema.ClassMeta,
			Version: SchemaVersion,
			Fields: []schema.FieldSpec{
				schema.Field("request_id", schema.NonEmptyString()),
				schema.Field("timestamp", schema.Timestamp()),
			},
		},
		{
			Name:    SchemaPaginationMeta,
			Class:   schema.ClassMeta,
			Version: SchemaVersion,
			Fields: []schema.FieldSpec{
				schema.Field("page", schema.PositiveInteger()),
				schema.Field("page_size", schema.PositiveInteger()),
				schema.Field("total_items", schema.NonNegativeInteger()),
				schema.Field("total_pages", schema.NonNegativeInteger()),
			},
		},
		{
			Name:    SchemaFieldError,
			Class:   schema.ClassMeta,
			Version: SchemaVersion,
			Fields: []schema.FieldSpec{
				schema.Field("field", schema.String()),
				schema.OptionalField("code", schema.String()),
				schema.Field("message", schema.NonEmptyString()),
			},
		},
		{
			Name:    SchemaApiError,
			Class:   schema.ClassEnvelope,
			Version: SchemaVersion,
			Fields: []schema.FieldSpec{
				schema.Field("code", schema.Enum(enum.ErrorCode)),
				schema.Field("message", schema.NonEmptyString()),
				schema.OptionalField("details", schema.ArrayOf(schema.Ref(SchemaFieldError))),
			},
		},
	}
}

// RegisterSchemas registers every declaration with reg. The registry is
// left unfrozen so callers can add their own schemas first.
func RegisterSchemas(reg *schema.Registry) error {
	for _, s := range Schemas() {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}
