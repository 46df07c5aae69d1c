// Package fixtures provides test data factories for contract tests.
//
// Each factory method builds an entity with realistic defaults while
// allowing customization via option functions. Entities are plain typed
// values; Raw turns any of them into the decoded-JSON form validators
// consume.
//
// Usage:
//
//	f := fixtures.New(1)
//	user := f.User(t)
//	post := f.SubletPost(t, user)
//	raw := f.Raw(t, post)
package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/sublet/api/internal/model"
)

// Factory creates test entities from a seeded faker so runs are
// reproducible
type Factory struct {
	faker *gofakeit.Faker
	now   time.Time
	seq   int
}

// New creates a factory seeded with seed
func New(seed int64) *Factory {
	return &Factory{
		faker: gofakeit.New(seed),
		now:   time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Now is the reference time every fixture timestamp is derived from
func (f *Factory) Now() time.Time {
	return f.now
}

func (f *Factory) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d_%s", prefix, f.seq, f.faker.LetterN(6))
}

// Raw converts a typed value into decoded JSON (numbers kept exact)
func (f *Factory) Raw(t *testing.T, v any) map[string]any {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("fixtures: failed to encode %T: %v", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		t.Fatalf("fixtures: failed to decode %T: %v", v, err)
	}
	return raw
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Username string
	Email    string
	Avatar   string
	Level    int
	Role     model.UserRole
}

// User creates a member with optional customizations
func (f *Factory) User(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Username: f.faker.Username(),
		Email:    f.faker.Email(),
		Avatar:   fmt.Sprintf("https://avatars.example.com/%s.png", f.faker.UUID()),
		Level:    f.faker.Number(0, 50),
		Role:     model.UserRoleMember,
	}
	for _, fn := range opts {
		fn(o)
	}

	created := f.now.Add(-time.Duration(f.faker.Number(24, 24*365)) * time.Hour)
	user := &model.User{
		ID:        f.nextID("user"),
		Username:  o.Username,
		Level:     o.Level,
		Role:      o.Role,
		CreatedOn: &created,
		UpdatedOn: &created,
	}
	if o.Email != "" {
		user.Email = &o.Email
	}
	if o.Avatar != "" {
		user.Avatar = &o.Avatar
	}
	return user
}

// Admin creates an admin user
func (f *Factory) Admin(t *testing.T) *model.User {
	return f.User(t, func(o *UserOpts) {
		o.Role = model.UserRoleAdmin
	})
}

// UserProfile creates a profile around a fresh user
func (f *Factory) UserProfile(t *testing.T, opts ...func(*UserOpts)) *model.UserProfile {
	t.Helper()

	bio := f.faker.Sentence(8)
	return &model.UserProfile{
		User: *f.User(t, opts...),
		Bio:  &bio,
		Stats: map[string]int{
			"posts":   f.faker.Number(0, 40),
			"replies": f.faker.Number(0, 200),
		},
		Preferences: map[string]string{
			"theme":  "dark",
			"locale": "en-US",
		},
	}
}

// UserAuth creates a credential-bearing user with a bcrypt hash of
// password
func (f *Factory) UserAuth(t *testing.T, password string, opts ...func(*UserOpts)) *model.UserAuth {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	last := f.now.Add(-time.Hour)
	return &model.UserAuth{
		User:           *f.User(t, opts...),
		CredentialHash: string(hash),
		LastLoginOn:    &last,
	}
}

// ============================================================================
// Post Fixtures
// ============================================================================

// PostOpts customizes the shared post fields
type PostOpts struct {
	Title    string
	Category model.PostCategory
	Status   model.PostStatus
}

func (f *Factory) basePost(author *model.User, kind model.PostType, opts []func(*PostOpts)) model.BasePost {
	o := &PostOpts{
		Title:    f.faker.Sentence(5),
		Category: model.PostCategoryApartment,
		Status:   model.PostStatusActive,
	}
	for _, fn := range opts {
		fn(o)
	}

	desc := f.faker.Paragraph(1, 3, 8, " ")
	created := f.now.Add(-time.Duration(f.faker.Number(1, 72)) * time.Hour)
	return model.BasePost{
		ID:          f.nextID("post"),
		Type:        kind,
		Author:      author.ToPostAuthor(),
		Category:    o.Category,
		Status:      o.Status,
		Title:       o.Title,
		Description: &desc,
		CreatedOn:   created,
		UpdatedOn:   created,
	}
}

// HousingRequestPost creates a housing request written by author
func (f *Factory) HousingRequestPost(t *testing.T, author *model.User, opts ...func(*PostOpts)) *model.HousingRequestPost {
	t.Helper()

	budgetMin := f.faker.Number(400, 900)
	location := f.faker.City()
	return &model.HousingRequestPost{
		BasePost:          f.basePost(author, model.PostTypeHousingRequest, opts),
		BudgetMin:         &budgetMin,
		BudgetMax:         budgetMin + f.faker.Number(100, 800),
		MoveInDate:        f.now.AddDate(0, 1, 0),
		PreferredLocation: &location,
		DesiredAmenities:  []model.Amenity{model.AmenityWifi, model.AmenityLaundry},
	}
}

// SubletPost creates a sublet offer written by author
func (f *Factory) SubletPost(t *testing.T, author *model.User, opts ...func(*PostOpts)) *model.SubletPost {
	t.Helper()

	from := f.now.AddDate(0, 0, 14)
	return &model.SubletPost{
		BasePost:          f.basePost(author, model.PostTypeSublet, opts),
		Rent:              f.faker.Number(500, 2500),
		Address:           fmt.Sprintf("%s, %s", f.faker.Street(), f.faker.City()),
		AvailableFrom:     from,
		AvailableUntil:    from.AddDate(0, 3, 0),
		Amenities:         []model.Amenity{model.AmenityFurnished, model.AmenityWifi},
		UtilitiesIncluded: []model.Utility{model.UtilityWater, model.UtilityInternet},
	}
}
