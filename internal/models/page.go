package models

import (
	"errors"
	"sort"
	"time"
)

var ErrInvalidPageSize = errors.New("page size must be positive")

// Direction selects which neighborhood of the current page a query fetches.
type Direction int

const (
	DirectionInitial Direction = iota
	DirectionNext
	DirectionPrevious
)

func (d Direction) String() string {
	switch d {
	case DirectionInitial:
		return "initial"
	case DirectionNext:
		return "next"
	case DirectionPrevious:
		return "previous"
	default:
		return "unknown"
	}
}

// Filter is the set of active listing filters. An empty NameQuery and a nil
// PostedByUserID mean "no filter".
type Filter struct {
	NameQuery        string
	PostedByUserID   *int64
	NotCompletedOnly bool
}

func (f Filter) Equal(o Filter) bool {
	if f.NameQuery != o.NameQuery || f.NotCompletedOnly != o.NotCompletedOnly {
		return false
	}
	return equalInt64Ptr(f.PostedByUserID, o.PostedByUserID)
}

// PageQuery is one outbound request to the question-listing endpoint.
type PageQuery struct {
	GroupID          *int64
	NameQuery        string
	IsLoggedIn       bool
	NotCompletedOnly bool
	PageSize         int
	TakeLower        bool
	FirstQID         *int64
	LastQID          *int64
	FirstPostedTime  *time.Time
	LastPostedTime   *time.Time
	UserID           *int64
	PostedByUserID   *int64
}

func (q PageQuery) Validate() error {
	if q.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	return nil
}

// Bounded reports whether the query carries any keyset bound.
func (q PageQuery) Bounded() bool {
	return q.FirstQID != nil || q.LastQID != nil || q.FirstPostedTime != nil || q.LastPostedTime != nil
}

// Page is the listing endpoint response. Bound fields are nil when the
// endpoint returned no rows; totals are nil when the backend does not report
// them.
type Page struct {
	Questions       []Question `json:"data"`
	FirstQID        *int64     `json:"first_q_id,omitempty"`
	LastQID         *int64     `json:"last_q_id,omitempty"`
	FirstPostedTime *time.Time `json:"first_posted_time,omitempty"`
	LastPostedTime  *time.Time `json:"last_posted_time,omitempty"`
	TotalCount      *int       `json:"total_q_count,omitempty"`
	NumberOfPages   *int       `json:"number_of_pages,omitempty"`
}

func (p *Page) Bounds() Bounds {
	return Bounds{
		FirstID:         p.FirstQID,
		LastID:          p.LastQID,
		FirstPostedTime: p.FirstPostedTime,
		LastPostedTime:  p.LastPostedTime,
	}
}

// DisplayBefore reports whether a is listed above b: most recent first, higher
// id first among equal timestamps.
func DisplayBefore(a, b Question) bool {
	if !a.PostedTime.Equal(b.PostedTime) {
		return a.PostedTime.After(b.PostedTime)
	}
	return a.ID > b.ID
}

// SortForDisplay orders questions by (posted_time DESC, id DESC) in place.
func SortForDisplay(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		return DisplayBefore(qs[i], qs[j])
	})
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func Int64Ptr(v int64) *int64 {
	return &v
}

func IntPtr(v int) *int {
	return &v
}

func TimePtr(v time.Time) *time.Time {
	return &v
}
