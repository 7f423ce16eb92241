package venue

import "time"

type Venue struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Slug      string     `json:"slug" bson:"slug"`
	City      string     `json:"city" bson:"city"`
	Country   string     `json:"country" bson:"country"`
	Capacity  int        `json:"capacity" bson:"capacity"`
	OwnerID   string     `json:"ownerId" bson:"owner_id"`
	Status    string     `json:"status" bson:"status"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
}

// Summary is the part of a venue shown alongside a support session.
type Summary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	City   string `json:"city"`
	Status string `json:"status"`
}

const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
)

type ListRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Search string `form:"search"`
	City   string `form:"city"`
	Status string `form:"status"`
}

type ListResponse struct {
	Venues     []*Venue `json:"venues"`
	TotalCount int64    `json:"totalCount"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

func (v *Venue) ToSummary() *Summary {
	return &Summary{
		ID:     v.ID,
		Name:   v.Name,
		Slug:   v.Slug,
		City:   v.City,
		Status: v.Status,
	}
}

func (v *Venue) IsDeleted() bool {
	return v.DeletedAt != nil
}
