package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/core/domain"
	"github.com/estatehub/marketplace-api/internal/core/policy"
	"github.com/estatehub/marketplace-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubListingRepo struct {
	mu       sync.Mutex
	items    map[string]*domain.Listing
	nextID   int
	casCalls int
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{items: make(map[string]*domain.Listing)}
}

func (r *stubListingRepo) Create(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *l
	clone.ID = "l-" + strconv.Itoa(r.nextID)
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	clone := *l
	return &clone, nil
}

// List applies the same filters the real Mongo repo would use.
func (r *stubListingRepo) List(_ context.Context, f ports.ListListingsFilter) ([]*domain.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Listing
	for _, l := range r.items {
		if f.VisibleOnly && !l.IsPubliclyVisible() {
			continue
		}
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		if f.Moderation != "" && l.ModerationStatus != f.Moderation {
			continue
		}
		if f.Kind != "" && l.Kind != f.Kind {
			continue
		}
		if f.City != "" && l.City != f.City {
			continue
		}
		clone := *l
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

func (r *stubListingRepo) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[l.ID]; !ok {
		return domain.ErrListingNotFound
	}
	clone := *l
	r.items[l.ID] = &clone
	return nil
}

func (r *stubListingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.items, id)
	return nil
}

// UpdateModeration mirrors the real CAS write: the expected current state is
// part of the match, so exactly one of two concurrent transitions wins.
func (r *stubListingRepo) UpdateModeration(_ context.Context, id string, from, to domain.ModerationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.casCalls++
	l, ok := r.items[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	if l.ModerationStatus != from {
		return domain.ErrModerationConflict
	}
	l.ModerationStatus = to
	return nil
}

type stubCache struct {
	mu          sync.Mutex
	entries     map[string]*domain.Listing
	invalidated []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*domain.Listing)}
}

func (c *stubCache) Get(_ context.Context, id string) (*domain.Listing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[id]
	return l, ok
}

func (c *stubCache) Set(_ context.Context, l *domain.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[l.ID] = l
}

func (c *stubCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

type stubAuditSink struct {
	mu      sync.Mutex
	entries []domain.ModerationAudit
}

func (s *stubAuditSink) Enqueue(entry domain.ModerationAudit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *stubAuditSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	testUser  = domain.Identity{SubjectID: "u-user", Email: "user@example.com", Role: domain.RoleUser}
	agentA    = domain.Identity{SubjectID: "u-agent-a", Email: "a@example.com", Role: domain.RoleAgent}
	agentB    = domain.Identity{SubjectID: "u-agent-b", Email: "b@example.com", Role: domain.RoleAgent}
	testAdmin = domain.Identity{SubjectID: "u-admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	fakeAdmin = domain.Identity{SubjectID: "u-fake", Email: "fake@example.com", Role: domain.RoleAdmin}
)

type listingFixture struct {
	svc   ports.ListingService
	repo  *stubListingRepo
	cache *stubCache
	audit *stubAuditSink
}

func newListingFixture() *listingFixture {
	repo := newStubListingRepo()
	cache := newStubCache()
	audit := &stubAuditSink{}
	engine := policy.NewEngine([]string{"admin@example.com"})
	svc := NewListingService(repo, engine, cache, audit, zerolog.Nop())
	return &listingFixture{svc: svc, repo: repo, cache: cache, audit: audit}
}

func createForSale(t *testing.T, f *listingFixture, by domain.Identity) *domain.Listing {
	t.Helper()
	l, err := f.svc.Create(context.Background(), by, ports.CreateListingInput{
		Title:       "Sunny apartment",
		Description: "Two rooms, top floor",
		Kind:        domain.KindApartment,
		Price:       250000,
		Currency:    "EUR",
		City:        "Lisbon",
		Publication: domain.PublicationForSale,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return l
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreate_AgentStartsPending(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	if l.ModerationStatus != domain.ModerationPending {
		t.Fatalf("agent submission moderation = %s, want pending", l.ModerationStatus)
	}
	if l.OwnerID != agentA.SubjectID {
		t.Fatalf("owner = %s", l.OwnerID)
	}
}

func TestCreate_AdminAutoApproved(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, testAdmin)

	if l.ModerationStatus != domain.ModerationApproved {
		t.Fatalf("admin submission moderation = %s, want approved", l.ModerationStatus)
	}
}

// The auto-approve shortcut requires the configured admin set, not just the
// role claim.
func TestCreate_UnrecognizedAdminNotAutoApproved(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, fakeAdmin)

	if l.ModerationStatus != domain.ModerationPending {
		t.Fatalf("unrecognized admin submission moderation = %s, want pending", l.ModerationStatus)
	}
}

func TestCreate_UserForbidden(t *testing.T) {
	f := newListingFixture()
	_, err := f.svc.Create(context.Background(), testUser, ports.CreateListingInput{
		Title: "Nope", Kind: domain.KindHouse, Price: 1, Currency: "EUR", City: "Porto",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestCreate_AnonymousUnauthenticated(t *testing.T) {
	f := newListingFixture()
	_, err := f.svc.Create(context.Background(), domain.Identity{}, ports.CreateListingInput{
		Title: "Nope", Kind: domain.KindHouse, Price: 1, Currency: "EUR", City: "Porto",
	})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}

// An anonymous fetch of a pending item and a fetch of a nonexistent id must
// be indistinguishable.
func TestGet_PendingHiddenLikeMissing(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	_, errPending := f.svc.Get(context.Background(), domain.Identity{}, l.ID)
	_, errMissing := f.svc.Get(context.Background(), domain.Identity{}, "l-does-not-exist")

	if !errors.Is(errPending, domain.ErrListingNotFound) {
		t.Fatalf("pending fetch: want ErrListingNotFound, got %v", errPending)
	}
	if !errors.Is(errMissing, domain.ErrListingNotFound) {
		t.Fatalf("missing fetch: want ErrListingNotFound, got %v", errMissing)
	}

	// A third authenticated party gets the same answer as anonymous.
	_, errThird := f.svc.Get(context.Background(), agentB, l.ID)
	if !errors.Is(errThird, domain.ErrListingNotFound) {
		t.Fatalf("third-party fetch: want ErrListingNotFound, got %v", errThird)
	}
}

func TestGet_OwnerSeesPending(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	got, err := f.svc.Get(context.Background(), agentA, l.ID)
	if err != nil {
		t.Fatalf("owner fetch: %v", err)
	}
	if got.ID != l.ID {
		t.Fatalf("fetched wrong listing: %s", got.ID)
	}
}

// The update decision uses the persisted owner; nothing in the update payload
// can shift it.
func TestUpdate_OwnershipFromPersistedRecord(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	input := ports.UpdateListingInput{
		Title: "Hijacked", Price: 1, Currency: "EUR", City: "Lisbon",
	}
	if _, err := f.svc.Update(context.Background(), agentB, l.ID, input); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner update: want ErrForbidden, got %v", err)
	}

	// Same payload, owner caller: allowed.
	updated, err := f.svc.Update(context.Background(), agentA, l.ID, input)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Hijacked" {
		t.Fatalf("title not applied")
	}
}

func TestUpdate_OwnerEditResetsModeration(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	if _, err := f.svc.Moderate(context.Background(), testAdmin, l.ID, domain.ModerationApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	updated, err := f.svc.Update(context.Background(), agentA, l.ID, ports.UpdateListingInput{
		Title: "New title", Price: 260000, Currency: "EUR", City: "Lisbon",
	})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.ModerationStatus != domain.ModerationPending {
		t.Fatalf("owner edit left moderation at %s, want pending", updated.ModerationStatus)
	}
}

func TestUpdate_AdminEditKeepsModeration(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	if _, err := f.svc.Moderate(context.Background(), testAdmin, l.ID, domain.ModerationApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	updated, err := f.svc.Update(context.Background(), testAdmin, l.ID, ports.UpdateListingInput{
		Title: "Corrected title", Price: 250000, Currency: "EUR", City: "Lisbon",
	})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.ModerationStatus != domain.ModerationApproved {
		t.Fatalf("admin edit changed moderation to %s", updated.ModerationStatus)
	}
}

func TestDelete_AdminOverride(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	if err := f.svc.Delete(context.Background(), agentB, l.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner delete: want ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), testAdmin, l.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := f.repo.FindByID(context.Background(), l.ID); !errors.Is(err, domain.ErrListingNotFound) {
		t.Fatalf("listing still present after delete")
	}
}

func TestModerate_NonAdminForbidden(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	// Not even the owner may moderate.
	if _, err := f.svc.Moderate(context.Background(), agentA, l.ID, domain.ModerationApproved); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("owner moderation: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Moderate(context.Background(), fakeAdmin, l.ID, domain.ModerationApproved); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("unrecognized admin moderation: want ErrForbidden, got %v", err)
	}
}

func TestModerate_InvalidTarget(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	_, err := f.svc.Moderate(context.Background(), testAdmin, l.ID, domain.ModerationStatus("archived"))
	if !errors.Is(err, domain.ErrInvalidModerationState) {
		t.Fatalf("want ErrInvalidModerationState, got %v", err)
	}
}

func TestModerate_SameStateIsNoOp(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	got, err := f.svc.Moderate(context.Background(), testAdmin, l.ID, domain.ModerationPending)
	if err != nil {
		t.Fatalf("same-state moderation: %v", err)
	}
	if got.ModerationStatus != domain.ModerationPending {
		t.Fatalf("state changed on no-op: %s", got.ModerationStatus)
	}
	if f.repo.casCalls != 0 {
		t.Fatalf("no-op reached the store (%d writes)", f.repo.casCalls)
	}
	if f.audit.count() != 0 {
		t.Fatalf("no-op produced %d audit entries", f.audit.count())
	}
}

func TestModerate_TransitionAuditsAndInvalidates(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	got, err := f.svc.Moderate(context.Background(), testAdmin, l.ID, domain.ModerationApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.ModerationStatus != domain.ModerationApproved {
		t.Fatalf("moderation = %s", got.ModerationStatus)
	}
	if f.audit.count() != 1 {
		t.Fatalf("audit entries = %d, want 1", f.audit.count())
	}
	entry := f.audit.entries[0]
	if entry.From != domain.ModerationPending || entry.To != domain.ModerationApproved || entry.ActorID != testAdmin.SubjectID {
		t.Fatalf("audit entry = %+v", entry)
	}
	if len(f.cache.invalidated) == 0 || f.cache.invalidated[0] != l.ID {
		t.Fatalf("cache not invalidated on moderation change")
	}
}

// Two simultaneous transitions on the same pending item: exactly one
// succeeds, the other observes a conflict, and the persisted state matches
// the winner.
func TestModerate_ConcurrentRace(t *testing.T) {
	f := newListingFixture()
	l := createForSale(t, f, agentA)

	targets := []domain.ModerationStatus{domain.ModerationApproved, domain.ModerationRejected}
	results := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.ModerationStatus) {
			defer wg.Done()
			_, results[i] = f.svc.Moderate(context.Background(), testAdmin, l.ID, target)
		}(i, target)
	}
	wg.Wait()

	var wins, conflicts int
	var winner domain.ModerationStatus
	for i, err := range results {
		switch {
		case err == nil:
			wins++
			winner = targets[i]
		case errors.Is(err, domain.ErrModerationConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins=%d conflicts=%d, want exactly one of each", wins, conflicts)
	}

	persisted, err := f.repo.FindByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if persisted.ModerationStatus != winner {
		t.Fatalf("persisted = %s, winner = %s", persisted.ModerationStatus, winner)
	}
}

// End-to-end flow: submit → hidden → approve → visible → foreign update
// denied → admin update allowed.
func TestListingLifecycle(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	l := createForSale(t, f, agentA)
	if l.ModerationStatus != domain.ModerationPending {
		t.Fatalf("fresh submission not pending")
	}

	public, err := f.svc.ListPublic(ctx, ports.ListListingsInput{})
	if err != nil {
		t.Fatalf("public list: %v", err)
	}
	if public.Total != 0 {
		t.Fatalf("pending listing leaked into public list")
	}

	if _, err := f.svc.Moderate(ctx, testAdmin, l.ID, domain.ModerationApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	public, err = f.svc.ListPublic(ctx, ports.ListListingsInput{})
	if err != nil {
		t.Fatalf("public list: %v", err)
	}
	if public.Total != 1 {
		t.Fatalf("approved listing missing from public list")
	}

	if _, err := f.svc.Update(ctx, agentB, l.ID, ports.UpdateListingInput{
		Title: "Not yours", Price: 1, Currency: "EUR", City: "Lisbon",
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign agent update: want ErrForbidden, got %v", err)
	}

	if _, err := f.svc.Update(ctx, testAdmin, l.ID, ports.UpdateListingInput{
		Title: "Admin touch-up", Price: 250000, Currency: "EUR", City: "Lisbon",
	}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

// An approved draft must never appear in public lists: the moderation and
// publication filters compose with AND.
func TestListPublic_ApprovedDraftExcluded(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	l, err := f.svc.Create(ctx, agentA, ports.CreateListingInput{
		Title: "Unfinished", Kind: domain.KindHouse, Price: 100, Currency: "EUR", City: "Faro",
		Publication: domain.PublicationDraft,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Moderate(ctx, testAdmin, l.ID, domain.ModerationApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	public, err := f.svc.ListPublic(ctx, ports.ListListingsInput{})
	if err != nil {
		t.Fatalf("public list: %v", err)
	}
	if public.Total != 0 {
		t.Fatalf("approved draft leaked into public list")
	}
}

func TestListOwned_RequiresAuthentication(t *testing.T) {
	f := newListingFixture()
	if _, err := f.svc.ListOwned(context.Background(), domain.Identity{}, 1, 20); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}
}

func TestListByModeration_AdminOnly(t *testing.T) {
	f := newListingFixture()
	createForSale(t, f, agentA)

	if _, err := f.svc.ListByModeration(context.Background(), agentA, domain.ModerationPending, 1, 20); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("agent queue access: want ErrForbidden, got %v", err)
	}

	page, err := f.svc.ListByModeration(context.Background(), testAdmin, domain.ModerationPending, 1, 20)
	if err != nil {
		t.Fatalf("admin queue: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("queue total = %d, want 1", page.Total)
	}
}
