package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/api/metrics"
	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/policy"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ListingCache abstracts the public listing detail cache (Redis).
type ListingCache interface {
	Get(ctx context.Context, id string) (*domain.Listing, bool)
	Set(ctx context.Context, l *domain.Listing)
	Invalidate(ctx context.Context, id string)
}

// AuditSink receives moderation audit entries for asynchronous persistence.
type AuditSink interface {
	Enqueue(entry domain.ModerationAudit)
}

type listingService struct {
	repo   ports.ListingRepository
	engine *policy.Engine
	cache  ListingCache
	audit  AuditSink
	log    zerolog.Logger
}

// NewListingService returns a ListingService implementation.
func NewListingService(
	repo ports.ListingRepository,
	engine *policy.Engine,
	cache ListingCache,
	audit AuditSink,
	log zerolog.Logger,
) ports.ListingService {
	return &listingService{
		repo:   repo,
		engine: engine,
		cache:  cache,
		audit:  audit,
		log:    log,
	}
}

// authorize runs the policy engine and records the decision metric.
func authorize(engine *policy.Engine, id domain.Identity, op policy.Operation) policy.Decision {
	d := engine.Authorize(id, op)
	outcome := "allow"
	if !d.Allowed {
		outcome = string(d.Reason)
	}
	metrics.AuthzDecisionsTotal.WithLabelValues(string(op.Resource), string(op.Action), outcome).Inc()
	return d
}

// Create submits a new listing. Non-admin submissions start pending review;
// recognized admins are auto-approved.
func (s *listingService) Create(ctx context.Context, caller domain.Identity, in ports.CreateListingInput) (*domain.Listing, error) {
	d := authorize(s.engine, caller, policy.Operation{
		Resource: policy.ResourceListing,
		Action:   policy.ActionCreate,
	})
	if !d.Allowed {
		return nil, d.Err()
	}

	pub := in.Publication
	if pub == "" {
		pub = domain.PublicationDraft
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		OwnerID:           caller.SubjectID,
		Title:             in.Title,
		Description:       in.Description,
		Kind:              in.Kind,
		Price:             in.Price,
		Currency:          in.Currency,
		City:              in.City,
		PublicationStatus: pub,
		ModerationStatus:  s.initialModeration(caller),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", caller.SubjectID).Msg("failed to create listing")
		return nil, err
	}

	metrics.ListingsCreatedTotal.WithLabelValues(string(created.Kind)).Inc()
	s.log.Info().Str("listing_id", created.ID).Str("owner_id", created.OwnerID).
		Str("moderation", string(created.ModerationStatus)).Msg("listing created")
	return created, nil
}

// initialModeration applies the admin trust shortcut only to identities that
// pass the second admin check, not to any token claiming the role.
func (s *listingService) initialModeration(caller domain.Identity) domain.ModerationStatus {
	if s.engine.IsSuperAdmin(caller) {
		return domain.ModerationApproved
	}
	return domain.ModerationPending
}

// Get retrieves one listing. Denied reads are reported as not-found so a
// forbidden item is indistinguishable from an absent one.
func (s *listingService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Listing, error) {
	if caller.IsAnonymous() && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, id); ok {
			return cached, nil
		}
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourceListing,
		Action:     policy.ActionRead,
		OwnerID:    listing.OwnerID,
		Moderation: listing.ModerationStatus,
	})
	if !d.Allowed {
		return nil, domain.ErrListingNotFound
	}

	if listing.IsPubliclyVisible() && s.cache != nil {
		s.cache.Set(ctx, listing)
	}
	return listing, nil
}

// ListPublic returns the anonymous marketplace view. Visibility is enforced
// by the store-side equivalent of the public-visibility predicate; no other
// filter can widen it.
func (s *listingService) ListPublic(ctx context.Context, in ports.ListListingsInput) (*ports.ListingPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)
	items, total, err := s.repo.List(ctx, ports.ListListingsFilter{
		VisibleOnly: true,
		Publication: in.Publication,
		Kind:        in.Kind,
		City:        in.City,
		PriceMin:    in.PriceMin,
		PriceMax:    in.PriceMax,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	return listingPage(items, total, page, limit), nil
}

// ListOwned returns the caller's own listings in any moderation state.
func (s *listingService) ListOwned(ctx context.Context, caller domain.Identity, pageNum, limit int) (*ports.ListingPage, error) {
	if caller.IsAnonymous() {
		return nil, domain.ErrUnauthenticated
	}
	page, lim := normalizePage(pageNum, limit)
	items, total, err := s.repo.List(ctx, ports.ListListingsFilter{
		OwnerID: caller.SubjectID,
		Page:    page,
		Limit:   lim,
	})
	if err != nil {
		return nil, err
	}
	return listingPage(items, total, page, lim), nil
}

// ListByModeration is the admin review queue.
func (s *listingService) ListByModeration(ctx context.Context, caller domain.Identity, status domain.ModerationStatus, pageNum, limit int) (*ports.ListingPage, error) {
	d := authorize(s.engine, caller, policy.Operation{
		Resource: policy.ResourceListing,
		Action:   policy.ActionModerate,
	})
	if !d.Allowed {
		return nil, d.Err()
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidModerationState
	}

	page, lim := normalizePage(pageNum, limit)
	items, total, err := s.repo.List(ctx, ports.ListListingsFilter{
		Moderation: status,
		Page:       page,
		Limit:      lim,
	})
	if err != nil {
		return nil, err
	}
	return listingPage(items, total, page, lim), nil
}

// Update edits content fields. The authorization decision uses the persisted
// owner, fetched fresh; the client payload carries no ownership claim. A
// non-admin edit sends the listing back to review.
func (s *listingService) Update(ctx context.Context, caller domain.Identity, id string, in ports.UpdateListingInput) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourceListing,
		Action:     policy.ActionUpdate,
		OwnerID:    listing.OwnerID,
		Moderation: listing.ModerationStatus,
	})
	if !d.Allowed {
		return nil, d.Err()
	}

	listing.Title = in.Title
	listing.Description = in.Description
	listing.Price = in.Price
	listing.Currency = in.Currency
	listing.City = in.City
	if in.Publication != "" {
		listing.PublicationStatus = in.Publication
	}
	if !s.engine.IsSuperAdmin(caller) {
		listing.ModerationStatus = domain.ModerationPending
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, listing); err != nil {
		s.log.Error().Err(err).Str("listing_id", id).Msg("failed to update listing")
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return listing, nil
}

// Delete removes a listing; owner or recognized admin only.
func (s *listingService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourceListing,
		Action:     policy.ActionDelete,
		OwnerID:    listing.OwnerID,
		Moderation: listing.ModerationStatus,
	})
	if !d.Allowed {
		return d.Err()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	s.log.Info().Str("listing_id", id).Str("actor", caller.SubjectID).Msg("listing deleted")
	return nil
}

// Moderate applies an admin moderation transition with a compare-and-swap
// write. Two concurrent decisions on the same item cannot both win: the
// loser's expected current state no longer matches and it receives
// domain.ErrModerationConflict.
func (s *listingService) Moderate(ctx context.Context, caller domain.Identity, id string, target domain.ModerationStatus) (*domain.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := authorize(s.engine, caller, policy.Operation{
		Resource:   policy.ResourceListing,
		Action:     policy.ActionModerate,
		OwnerID:    listing.OwnerID,
		Moderation: listing.ModerationStatus,
	})
	if !d.Allowed {
		return nil, d.Err()
	}

	next, err := domain.NextModeration(listing.ModerationStatus, target)
	if err != nil {
		return nil, err
	}
	if next == listing.ModerationStatus {
		// Idempotent no-op; nothing to persist, audit, or invalidate.
		return listing, nil
	}

	if err := s.repo.UpdateModeration(ctx, id, listing.ModerationStatus, next); err != nil {
		if errors.Is(err, domain.ErrModerationConflict) {
			metrics.ModerationTransitionsTotal.WithLabelValues("listing", string(next), "conflict").Inc()
		}
		return nil, err
	}

	metrics.ModerationTransitionsTotal.WithLabelValues("listing", string(next), "applied").Inc()
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	if s.audit != nil {
		s.audit.Enqueue(domain.ModerationAudit{
			ContentKind: string(policy.ResourceListing),
			ContentID:   id,
			From:        listing.ModerationStatus,
			To:          next,
			ActorID:     caller.SubjectID,
			Timestamp:   time.Now().UTC(),
		})
	}

	s.log.Info().Str("listing_id", id).Str("from", string(listing.ModerationStatus)).
		Str("to", string(next)).Str("actor", caller.SubjectID).Msg("moderation transition applied")

	listing.ModerationStatus = next
	listing.UpdatedAt = time.Now().UTC()
	return listing, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func listingPage(items []*domain.Listing, total int64, page, limit int) *ports.ListingPage {
	if items == nil {
		items = []*domain.Listing{}
	}
	return &ports.ListingPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}
