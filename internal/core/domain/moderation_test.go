package domain

import (
	"errors"
	"testing"
)

func TestNextModeration_AllPairwiseTransitions(t *testing.T) {
	states := []ModerationStatus{ModerationPending, ModerationApproved, ModerationRejected}

	for _, from := range states {
		for _, to := range states {
			got, err := NextModeration(from, to)
			if err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", from, to, err)
			}
			if got != to {
				t.Fatalf("%s -> %s: got %s", from, to, got)
			}
		}
	}
}

func TestNextModeration_SameStateIsNoOp(t *testing.T) {
	got, err := NextModeration(ModerationApproved, ModerationApproved)
	if err != nil {
		t.Fatalf("same-state transition errored: %v", err)
	}
	if got != ModerationApproved {
		t.Fatalf("same-state transition changed state: %s", got)
	}
}

func TestNextModeration_InvalidTarget(t *testing.T) {
	_, err := NextModeration(ModerationPending, ModerationStatus("archived"))
	if !errors.Is(err, ErrInvalidModerationState) {
		t.Fatalf("want ErrInvalidModerationState, got %v", err)
	}
}

func TestListing_IsPubliclyVisible(t *testing.T) {
	cases := []struct {
		name       string
		moderation ModerationStatus
		pub        PublicationStatus
		want       bool
	}{
		{"approved for sale", ModerationApproved, PublicationForSale, true},
		{"approved for rent", ModerationApproved, PublicationForRent, true},
		{"approved sold", ModerationApproved, PublicationSold, true},
		{"approved but draft", ModerationApproved, PublicationDraft, false},
		{"pending for sale", ModerationPending, PublicationForSale, false},
		{"rejected for sale", ModerationRejected, PublicationForSale, false},
		{"pending draft", ModerationPending, PublicationDraft, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := &Listing{ModerationStatus: tc.moderation, PublicationStatus: tc.pub}
			if got := l.IsPubliclyVisible(); got != tc.want {
				t.Fatalf("IsPubliclyVisible = %v, want %v", got, tc.want)
			}
			// Visible implies approved, always.
			if got := l.IsPubliclyVisible(); got && l.ModerationStatus != ModerationApproved {
				t.Fatalf("visible item is not approved")
			}
		})
	}
}

func TestBlogPost_IsPubliclyVisible(t *testing.T) {
	visible := &BlogPost{ModerationStatus: ModerationApproved, Status: PostPublished}
	if !visible.IsPubliclyVisible() {
		t.Fatalf("approved published post should be visible")
	}

	hidden := []*BlogPost{
		{ModerationStatus: ModerationApproved, Status: PostDraft},
		{ModerationStatus: ModerationPending, Status: PostPublished},
		{ModerationStatus: ModerationRejected, Status: PostPublished},
	}
	for i, p := range hidden {
		if p.IsPubliclyVisible() {
			t.Fatalf("case %d: post should be hidden", i)
		}
	}
}

func TestIdentity_IsAnonymous(t *testing.T) {
	if !(Identity{}).IsAnonymous() {
		t.Fatalf("zero identity should be anonymous")
	}
	if (Identity{SubjectID: "u-1", Role: RoleUser}).IsAnonymous() {
		t.Fatalf("authenticated identity reported anonymous")
	}
	// A subject with no role (or vice versa) is not a usable credential.
	if !(Identity{SubjectID: "u-1"}).IsAnonymous() {
		t.Fatalf("identity without role should be anonymous")
	}
}
