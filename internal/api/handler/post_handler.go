package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/estatehub/marketplace-api/internal/api/middleware"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

// PostHandler handles HTTP requests for blog posts.
type PostHandler struct {
	service ports.PostService
}

func NewPostHandler(service ports.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Title  string   `json:"title" validate:"required,min=3"`
	Body   string   `json:"body" validate:"required"`
	Tags   []string `json:"tags"`
	Status string   `json:"status" validate:"omitempty,oneof=draft published"`
}

type updatePostRequest struct {
	Title  string   `json:"title" validate:"required,min=3"`
	Body   string   `json:"body" validate:"required"`
	Tags   []string `json:"tags"`
	Status string   `json:"status" validate:"omitempty,oneof=draft published"`
}

type postResponse struct {
	ID               string   `json:"id"`
	OwnerID          string   `json:"owner_id"`
	Title            string   `json:"title"`
	Body             string   `json:"body"`
	Tags             []string `json:"tags,omitempty"`
	Status           string   `json:"status"`
	ModerationStatus string   `json:"moderation_status,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type postPageResponse struct {
	Items      []postResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

func toPostResponse(p *domain.BlogPost, includeModeration bool) postResponse {
	resp := postResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Title:     p.Title,
		Body:      p.Body,
		Tags:      p.Tags,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: p.UpdatedAt.UTC().Format(timeLayout),
	}
	if includeModeration {
		resp.ModerationStatus = string(p.ModerationStatus)
	}
	return resp
}

func toPostPageResponse(page *ports.PostPage, includeModeration bool) postPageResponse {
	items := make([]postResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, toPostResponse(p, includeModeration))
	}
	return postPageResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

// List handles GET /v1/posts — approved, published posts.
//
// @Summary      List publicly visible blog posts
// @Tags         posts
// @Produce      json
// @Param        tag    query  string  false  "Filter by tag"
// @Param        page   query  int     false  "Page (1-based)"
// @Param        limit  query  int     false  "Page size (max 100)"
// @Success      200  {object}  postPageResponse
// @Router       /v1/posts [get]
func (h *PostHandler) List(c echo.Context) error {
	page, limit := queryPage(c)
	result, err := h.service.ListPublic(c.Request().Context(), ports.ListPostsInput{
		Tag:   c.QueryParam("tag"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostPageResponse(result, false))
}

// ListMine handles GET /v1/posts/mine.
func (h *PostHandler) ListMine(c echo.Context) error {
	page, limit := queryPage(c)
	result, err := h.service.ListOwned(c.Request().Context(), middleware.CallerIdentity(c), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostPageResponse(result, true))
}

// Get handles GET /v1/posts/:id with the same not-found normalization as
// listings.
func (h *PostHandler) Get(c echo.Context) error {
	caller := middleware.CallerIdentity(c)
	post, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post, caller.SubjectID != "" && caller.SubjectID == post.OwnerID))
}

// Create handles POST /v1/posts. Any authenticated identity may submit.
//
// @Summary      Submit a blog post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  createPostRequest  true  "Post content"
// @Success      201  {object}  postResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	post, err := h.service.Create(c.Request().Context(), middleware.CallerIdentity(c), ports.CreatePostInput{
		Title:  req.Title,
		Body:   req.Body,
		Tags:   req.Tags,
		Status: domain.PostStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPostResponse(post, true))
}

// Update handles PUT /v1/posts/:id.
func (h *PostHandler) Update(c echo.Context) error {
	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	post, err := h.service.Update(c.Request().Context(), middleware.CallerIdentity(c), c.Param("id"), ports.UpdatePostInput{
		Title:  req.Title,
		Body:   req.Body,
		Tags:   req.Tags,
		Status: domain.PostStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post, true))
}

// Delete handles DELETE /v1/posts/:id.
func (h *PostHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), middleware.CallerIdentity(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Moderate handles POST /v1/posts/:id/moderation.
func (h *PostHandler) Moderate(c echo.Context) error {
	var req moderationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	post, err := h.service.Moderate(c.Request().Context(), middleware.CallerIdentity(c), c.Param("id"), domain.ModerationStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post, true))
}

// ModerationQueue handles GET /v1/moderation/posts.
func (h *PostHandler) ModerationQueue(c echo.Context) error {
	status := domain.ModerationStatus(c.QueryParam("status"))
	if status == "" {
		status = domain.ModerationPending
	}
	page, limit := queryPage(c)
	result, err := h.service.ListByModeration(c.Request().Context(), middleware.CallerIdentity(c), status, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostPageResponse(result, true))
}
