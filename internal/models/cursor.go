package models

import "time"

// Bounds are the keyset values of the top and bottom rows of a page. Each
// field is optional; nil means "not known".
type Bounds struct {
	FirstID         *int64
	LastID          *int64
	FirstPostedTime *time.Time
	LastPostedTime  *time.Time
}

func (b Bounds) IsZero() bool {
	return b.FirstID == nil && b.LastID == nil && b.FirstPostedTime == nil && b.LastPostedTime == nil
}

// Cursor is the paginator's position in the ordered result set.
type Cursor struct {
	Bounds
	Page     int
	PageSize int
}

func NewCursor(pageSize int) Cursor {
	return Cursor{Page: 1, PageSize: pageSize}
}

// Reset drops every bound and returns to page 1. The page size is kept.
func (c *Cursor) Reset() {
	c.Bounds = Bounds{}
	c.Page = 1
}

// Merge copies the fields present in b and leaves the others unchanged.
func (c *Cursor) Merge(b Bounds) {
	if b.FirstID != nil {
		c.FirstID = Int64Ptr(*b.FirstID)
	}
	if b.LastID != nil {
		c.LastID = Int64Ptr(*b.LastID)
	}
	if b.FirstPostedTime != nil {
		c.FirstPostedTime = TimePtr(*b.FirstPostedTime)
	}
	if b.LastPostedTime != nil {
		c.LastPostedTime = TimePtr(*b.LastPostedTime)
	}
}

// Clone returns a copy that shares no pointers with c.
func (c Cursor) Clone() Cursor {
	out := Cursor{Page: c.Page, PageSize: c.PageSize}
	out.Merge(c.Bounds)
	return out
}
