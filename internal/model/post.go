package model

import "time"

// PostType is the discriminator distinguishing post variants
type PostType string

const (
	PostTypeHousingRequest PostType = "housing_request" // Someone looking for a place
	PostTypeSublet         PostType = "sublet"          // Someone offering a place
)

// PostStatus represents the lifecycle state of a post
type PostStatus string

const (
	PostStatusDraft  PostStatus = "draft"
	PostStatusActive PostStatus = "active"
	PostStatusClosed PostStatus = "closed"
)

// PostCategory is the kind of housing a post is about
type PostCategory string

const (
	PostCategoryApartment PostCategory = "apartment"
	PostCategoryHouse     PostCategory = "house"
	PostCategoryRoom      PostCategory = "room"
	PostCategoryStudio    PostCategory = "studio"
	PostCategoryShared    PostCategory = "shared"
)

// Amenity is a feature of a place
type Amenity string

const (
	AmenityWifi            Amenity = "wifi"
	AmenityParking         Amenity = "parking"
	AmenityLaundry         Amenity = "laundry"
	AmenityGym             Amenity = "gym"
	AmenityPool            Amenity = "pool"
	AmenityAirConditioning Amenity = "air_conditioning"
	AmenityHeating         Amenity = "heating"
	AmenityDishwasher      Amenity = "dishwasher"
	AmenityFurnished       Amenity = "furnished"
	AmenityPetFriendly     Amenity = "pet_friendly"
)

// Utility is a service that may be included in rent
type Utility string

const (
	UtilityElectricity Utility = "electricity"
	UtilityWater       Utility = "water"
	UtilityGas         Utility = "gas"
	UtilityInternet    Utility = "internet"
	UtilityTrash       Utility = "trash"
	UtilityHeating     Utility = "heating"
)

// Post is implemented by every post variant
type Post interface {
	PostKind() PostType
}

// BasePost holds the fields shared by every post variant. The author is
// a copy taken when the post was written, not a link to the user.
type BasePost struct {
	ID          string       `json:"id"`
	Type        PostType     `json:"type"`
	Author      PostAuthor   `json:"author"`
	Category    PostCategory `json:"category"`
	Status      PostStatus   `json:"status"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	CreatedOn   time.Time    `json:"created_on"`
	UpdatedOn   time.Time    `json:"updated_on"`
}

// HousingRequestPost is a request for a place to live
type HousingRequestPost struct {
	BasePost
	BudgetMin         *int      `json:"budget_min,omitempty"`
	BudgetMax         int       `json:"budget_max"`
	MoveInDate        time.Time `json:"move_in_date"`
	PreferredLocation *string   `json:"preferred_location,omitempty"`
	DesiredAmenities  []Amenity `json:"desired_amenities,omitempty"`
}

// PostKind implements Post
func (p *HousingRequestPost) PostKind() PostType {
	return PostTypeHousingRequest
}

// SubletPost offers a place for a fixed window. Amenities and
// UtilitiesIncluded are required; use empty slices, not nil.
type SubletPost struct {
	BasePost
	Rent              int       `json:"rent"`
	Address           string    `json:"address"`
	AvailableFrom     time.Time `json:"available_from"`
	AvailableUntil    time.Time `json:"available_until"`
	Amenities         []Amenity `json:"amenities"`
	UtilitiesIncluded []Utility `json:"utilities_included"`
}

// PostKind implements Post
func (p *SubletPost) PostKind() PostType {
	return PostTypeSublet
}
