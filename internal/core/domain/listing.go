package domain

import (
	"errors"
	"time"
)

// PublicationStatus is the owner-controlled lifecycle state of a listing.
type PublicationStatus string

const (
	PublicationDraft   PublicationStatus = "draft"
	PublicationForSale PublicationStatus = "for_sale"
	PublicationForRent PublicationStatus = "for_rent"
	PublicationSold    PublicationStatus = "sold"
)

// ListingKind classifies what kind of property a listing offers.
type ListingKind string

const (
	KindHouse      ListingKind = "house"
	KindApartment  ListingKind = "apartment"
	KindPlot       ListingKind = "plot"
	KindCommercial ListingKind = "commercial"
)

var ErrListingNotFound = errors.New("listing not found")

// Public reports whether the publication state alone permits public display.
// Draft is the only owner-side state withheld from listings; sold items stay
// visible.
func (p PublicationStatus) Public() bool {
	switch p {
	case PublicationForSale, PublicationForRent, PublicationSold:
		return true
	}
	return false
}

// ValidPublication reports whether p is a defined listing publication state.
func ValidPublication(p PublicationStatus) bool {
	return p == PublicationDraft || p.Public()
}

// ValidListingKind reports whether k is a defined listing kind.
func ValidListingKind(k ListingKind) bool {
	switch k {
	case KindHouse, KindApartment, KindPlot, KindCommercial:
		return true
	}
	return false
}

// Listing is a property offer submitted by an agent.
type Listing struct {
	ID                string            `json:"id" bson:"_id,omitempty"`
	OwnerID           string            `json:"owner_id" bson:"owner_id"`
	Title             string            `json:"title" bson:"title"`
	Description       string            `json:"description" bson:"description"`
	Kind              ListingKind       `json:"kind" bson:"kind"`
	Price             float64           `json:"price" bson:"price"`
	Currency          string            `json:"currency" bson:"currency"`
	City              string            `json:"city" bson:"city"`
	PublicationStatus PublicationStatus `json:"publication_status" bson:"publication_status"`
	ModerationStatus  ModerationStatus  `json:"moderation_status" bson:"moderation_status"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" bson:"updated_at"`
}

// IsPubliclyVisible is the single predicate deciding whether a listing may be
// shown to anonymous or third-party callers. Both filters compose with AND:
// an approved draft stays hidden, and an unapproved for-sale listing stays
// hidden.
func (l *Listing) IsPubliclyVisible() bool {
	return l.ModerationStatus == ModerationApproved && l.PublicationStatus.Public()
}
