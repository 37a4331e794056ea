package handler

import "github.com/estatehub/marketplace-api/internal/core/domain"

type createListingRequest struct {
	Title       string  `json:"title" validate:"required,min=3"`
	Description string  `json:"description"`
	Kind        string  `json:"kind" validate:"required,oneof=house apartment plot commercial"`
	Price       float64 `json:"price" validate:"gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	City        string  `json:"city" validate:"required"`
	Publication string  `json:"publication_status" validate:"omitempty,oneof=draft for_sale for_rent sold"`
}

type updateListingRequest struct {
	Title       string  `json:"title" validate:"required,min=3"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	City        string  `json:"city" validate:"required"`
	Publication string  `json:"publication_status" validate:"omitempty,oneof=draft for_sale for_rent sold"`
}

type moderationRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type listingResponse struct {
	ID                string  `json:"id"`
	OwnerID           string  `json:"owner_id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Kind              string  `json:"kind"`
	Price             float64 `json:"price"`
	Currency          string  `json:"currency"`
	City              string  `json:"city"`
	PublicationStatus string  `json:"publication_status"`
	ModerationStatus  string  `json:"moderation_status,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type listingPageResponse struct {
	Items      []listingResponse `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

const timeLayout = "2006-01-02T15:04:05Z"

// toListingResponse renders a listing. The moderation field is only exposed
// to the owner and moderators; public views omit it.
func toListingResponse(l *domain.Listing, includeModeration bool) listingResponse {
	resp := listingResponse{
		ID:                l.ID,
		OwnerID:           l.OwnerID,
		Title:             l.Title,
		Description:       l.Description,
		Kind:              string(l.Kind),
		Price:             l.Price,
		Currency:          l.Currency,
		City:              l.City,
		PublicationStatus: string(l.PublicationStatus),
		CreatedAt:         l.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:         l.UpdatedAt.UTC().Format(timeLayout),
	}
	if includeModeration {
		resp.ModerationStatus = string(l.ModerationStatus)
	}
	return resp
}

func toListingPageResponse(page []*domain.Listing, total int64, pageNum, limit, totalPages int, includeModeration bool) listingPageResponse {
	items := make([]listingResponse, 0, len(page))
	for _, l := range page {
		items = append(items, toListingResponse(l, includeModeration))
	}
	return listingPageResponse{
		Items:      items,
		Total:      total,
		Page:       pageNum,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
