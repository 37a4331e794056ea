package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-api/internal/api/middleware"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

// ListingHandler handles HTTP requests for property listings.
type ListingHandler struct {
	service ports.ListingService
}

func NewListingHandler(service ports.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// List handles GET /v1/listings — the public marketplace view.
//
// @Summary      List publicly visible listings
// @Tags         listings
// @Produce      json
// @Param        publication_status  query  string  false  "Filter by publication status"
// @Param        kind                query  string  false  "Filter by property kind"
// @Param        city                query  string  false  "Filter by city"
// @Param        price_min           query  number  false  "Minimum price"
// @Param        price_max           query  number  false  "Maximum price"
// @Param        page                query  int     false  "Page (1-based)"
// @Param        limit               query  int     false  "Page size (max 100)"
// @Success      200  {object}  listingPageResponse
// @Router       /v1/listings [get]
func (h *ListingHandler) List(c echo.Context) error {
	page, limit := queryPage(c)
	result, err := h.service.ListPublic(c.Request().Context(), ports.ListListingsInput{
		Publication: domain.PublicationStatus(c.QueryParam("publication_status")),
		Kind:        domain.ListingKind(c.QueryParam("kind")),
		City:        c.QueryParam("city"),
		PriceMin:    queryFloat(c, "price_min"),
		PriceMax:    queryFloat(c, "price_max"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingPageResponse(result.Items, result.Total, result.Page, result.Limit, result.TotalPages, false))
}

// ListMine handles GET /v1/listings/mine — the owner's dashboard view,
// including items still pending review.
//
// @Summary      List the caller's own listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listingPageResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/listings/mine [get]
func (h *ListingHandler) ListMine(c echo.Context) error {
	page, limit := queryPage(c)
	result, err := h.service.ListOwned(c.Request().Context(), middleware.CallerIdentity(c), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingPageResponse(result.Items, result.Total, result.Page, result.Limit, result.TotalPages, true))
}

// Get handles GET /v1/listings/:id. Unapproved listings are only visible to
// their owner; everyone else receives the same 404 an absent id produces.
//
// @Summary      Get a listing by id
// @Tags         listings
// @Produce      json
// @Param        id  path  string  true  "Listing id"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/listings/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	caller := middleware.CallerIdentity(c)
	listing, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(listing, caller.SubjectID != "" && caller.SubjectID == listing.OwnerID))
}

// Create handles POST /v1/listings.
//
// @Summary      Submit a new listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  createListingRequest  true  "Listing details"
// @Success      201  {object}  listingResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /v1/listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	listing, err := h.service.Create(c.Request().Context(), middleware.CallerIdentity(c), ports.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Kind:        domain.ListingKind(req.Kind),
		Price:       req.Price,
		Currency:    req.Currency,
		City:        req.City,
		Publication: domain.PublicationStatus(req.Publication),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toListingResponse(listing, true))
}

// Update handles PUT /v1/listings/:id. Ownership is decided against the
// persisted record; the payload carries no owner field to trust.
//
// @Summary      Update a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                true  "Listing id"
// @Param        body  body  updateListingRequest  true  "Updated fields"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/listings/{id} [put]
func (h *ListingHandler) Update(c echo.Context) error {
	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	listing, err := h.service.Update(c.Request().Context(), middleware.CallerIdentity(c), c.Param("id"), ports.UpdateListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		City:        req.City,
		Publication: domain.PublicationStatus(req.Publication),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(listing, true))
}

// Delete handles DELETE /v1/listings/:id.
//
// @Summary      Delete a listing
// @Tags         listings
// @Security     BearerAuth
// @Param        id  path  string  true  "Listing id"
// @Success      204  "No Content"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/listings/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), middleware.CallerIdentity(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Moderate handles POST /v1/listings/:id/moderation — the admin approval
// action. A lost concurrent race returns 409 and the client should re-fetch.
//
// @Summary      Apply a moderation transition to a listing
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "Listing id"
// @Param        body  body  moderationRequest  true  "Target moderation status"
// @Success      200  {object}  listingResponse
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /v1/listings/{id}/moderation [post]
func (h *ListingHandler) Moderate(c echo.Context) error {
	var req moderationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	listing, err := h.service.Moderate(c.Request().Context(), middleware.CallerIdentity(c), c.Param("id"), domain.ModerationStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(listing, true))
}

// ModerationQueue handles GET /v1/moderation/listings — listings by
// moderation state, for the admin review queue.
//
// @Summary      List listings by moderation status
// @Tags         moderation
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Moderation status (default pending)"
// @Success      200  {object}  listingPageResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/moderation/listings [get]
func (h *ListingHandler) ModerationQueue(c echo.Context) error {
	status := domain.ModerationStatus(c.QueryParam("status"))
	if status == "" {
		status = domain.ModerationPending
	}
	page, limit := queryPage(c)
	result, err := h.service.ListByModeration(c.Request().Context(), middleware.CallerIdentity(c), status, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingPageResponse(result.Items, result.Total, result.Page, result.Limit, result.TotalPages, true))
}

// queryPage extracts pagination query parameters; zero values let the
// service apply its defaults.
func queryPage(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}

func queryFloat(c echo.Context, name string) float64 {
	f, _ := strconv.ParseFloat(c.QueryParam(name), 64)
	return f
}
