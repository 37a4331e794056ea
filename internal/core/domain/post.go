package domain

import (
	"errors"
	"time"
)

// PostStatus is the owner-controlled publication state of a blog post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

var ErrPostNotFound = errors.New("post not found")

// ValidPostStatus reports whether p is a defined post publication state.
func ValidPostStatus(p PostStatus) bool {
	return p == PostDraft || p == PostPublished
}

// BlogPost is a marketplace blog entry. Any authenticated identity may
// submit one; visibility is still gated by moderation.
type BlogPost struct {
	ID               string           `json:"id" bson:"_id,omitempty"`
	OwnerID          string           `json:"owner_id" bson:"owner_id"`
	Title            string           `json:"title" bson:"title"`
	Body             string           `json:"body" bson:"body"`
	Tags             []string         `json:"tags,omitempty" bson:"tags,omitempty"`
	Status           PostStatus       `json:"status" bson:"status"`
	ModerationStatus ModerationStatus `json:"moderation_status" bson:"moderation_status"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
}

// IsPubliclyVisible mirrors the listing predicate for posts: approved by
// moderation and published by the owner.
func (p *BlogPost) IsPubliclyVisible() bool {
	return p.ModerationStatus == ModerationApproved && p.Status == PostPublished
}
