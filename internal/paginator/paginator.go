// Package paginator turns listing actions (load, next, previous, filter and
// page-size changes) into keyset queries against the question-listing
// endpoint and folds the responses back into cursor state.
//
// Rows are ordered by (posted_time DESC, id DESC). Each page is bounded by the
// keyset values of its top and bottom rows: "next" asks for rows strictly after
// the bottom row, "previous" asks for the lower neighborhood strictly before the
// top row and puts it back into display order.
package paginator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
	"go.uber.org/zap"
)

const DefaultPageSize = 10

// ErrSuperseded is returned for a response that arrived after a newer query
// was issued. Such responses are dropped without touching state.
var ErrSuperseded = errors.New("query superseded by a newer one")

// Lister is the question-listing endpoint.
type Lister interface {
	ListQuestions(ctx context.Context, q models.PageQuery) (*models.Page, error)
}

// State is a snapshot of what the paginator currently displays.
type State struct {
	Questions  []models.Question
	Cursor     models.Cursor
	Filter     models.Filter
	Session    session.Session
	TotalCount *int
	TotalPages *int
	Loading    bool
}

func (s State) HasPrevious() bool {
	return s.Cursor.Page > 1
}

// HasNext is true unless the backend reported a page count and the cursor is
// already on the last page.
func (s State) HasNext() bool {
	if s.TotalPages == nil {
		return true
	}
	return s.Cursor.Page < *s.TotalPages
}

type Paginator struct {
	lister     Lister
	logger     *zap.Logger
	session    session.Session
	groupID    *int64
	cursor     models.Cursor
	shown      int // page the current bounds and rows belong to
	filter     models.Filter
	rows       []models.Question
	totalCount *int
	totalPages *int
	issued     uint64
	loading    bool
	mu         sync.Mutex
}

type Option func(*Paginator)

func WithLogger(l *zap.Logger) Option {
	return func(p *Paginator) {
		p.logger = l
	}
}

// WithGroup scopes every query to one colab group.
func WithGroup(id int64) Option {
	return func(p *Paginator) {
		p.groupID = models.Int64Ptr(id)
	}
}

// WithPageSize sets the initial page size. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.cursor.PageSize = n
		}
	}
}

func WithFilter(f models.Filter) Option {
	return func(p *Paginator) {
		p.filter = cloneFilter(f)
	}
}

func New(lister Lister, sess session.Session, opts ...Option) *Paginator {
	p := &Paginator{
		lister:  lister,
		logger:  zap.NewNop(),
		session: sess,
		cursor:  models.NewCursor(DefaultPageSize),
		shown:   1,
		rows:    []models.Question{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildQuery returns the request for dir given the current cursor and
// filters. ok is false when dir has nothing to fetch: previous on page 1, or a
// move in a direction whose bound is unknown.
func BuildQuery(dir models.Direction, cursor models.Cursor, filter models.Filter, sess session.Session, groupID *int64) (q models.PageQuery, ok bool) {
	q = models.PageQuery{
		GroupID:          copyInt64(groupID),
		NameQuery:        filter.NameQuery,
		IsLoggedIn:       sess.IsAuthenticated(),
		NotCompletedOnly: filter.NotCompletedOnly && sess.IsAuthenticated(),
		PageSize:         cursor.PageSize,
		UserID:           sess.UserIDPtr(),
		PostedByUserID:   copyInt64(filter.PostedByUserID),
	}

	switch dir {
	case models.DirectionInitial:
		return q, true
	case models.DirectionNext:
		if cursor.LastID == nil && cursor.LastPostedTime == nil {
			return q, false
		}
		q.LastQID = copyInt64(cursor.LastID)
		q.LastPostedTime = copyTime(cursor.LastPostedTime)
		return q, true
	case models.DirectionPrevious:
		if cursor.Page <= 1 {
			return q, false
		}
		if cursor.FirstID == nil && cursor.FirstPostedTime == nil {
			return q, false
		}
		q.TakeLower = true
		q.FirstQID = copyInt64(cursor.FirstID)
		q.FirstPostedTime = copyTime(cursor.FirstPostedTime)
		return q, true
	default:
		return q, false
	}
}

// Load issues an initial query from page 1.
func (p *Paginator) Load(ctx context.Context) (State, error) {
	return p.Query(ctx, models.DirectionInitial)
}

func (p *Paginator) Next(ctx context.Context) (State, error) {
	return p.Query(ctx, models.DirectionNext)
}

func (p *Paginator) Previous(ctx context.Context) (State, error) {
	return p.Query(ctx, models.DirectionPrevious)
}

// Query moves in dir. A no-op move returns the current state and no error.
func (p *Paginator) Query(ctx context.Context, dir models.Direction) (State, error) {
	p.mu.Lock()
	seq, target, q, ok := p.prepareLocked(dir)
	if !ok {
		st := p.snapshotLocked()
		p.mu.Unlock()
		return st, nil
	}
	p.mu.Unlock()

	return p.dispatch(ctx, seq, dir, target, q)
}

// SetFilter replaces every filter, resets the cursor and reloads page 1.
func (p *Paginator) SetFilter(ctx context.Context, f models.Filter) (State, error) {
	return p.reset(ctx, func() {
		p.filter = cloneFilter(f)
	})
}

func (p *Paginator) SetNameQuery(ctx context.Context, name string) (State, error) {
	return p.reset(ctx, func() {
		p.filter.NameQuery = name
	})
}

// SetPostedBy filters by poster; nil clears the filter.
func (p *Paginator) SetPostedBy(ctx context.Context, userID *int64) (State, error) {
	return p.reset(ctx, func() {
		p.filter.PostedByUserID = copyInt64(userID)
	})
}

func (p *Paginator) SetNotCompletedOnly(ctx context.Context, on bool) (State, error) {
	return p.reset(ctx, func() {
		p.filter.NotCompletedOnly = on
	})
}

// SetPageSize changes the page size, which always restarts from page 1.
func (p *Paginator) SetPageSize(ctx context.Context, n int) (State, error) {
	if n <= 0 {
		return p.State(), models.ErrInvalidPageSize
	}
	return p.reset(ctx, func() {
		p.cursor.PageSize = n
	})
}

// SetSession switches the viewer. Completion flags depend on the viewer, so
// the listing restarts from page 1.
func (p *Paginator) SetSession(ctx context.Context, sess session.Session) (State, error) {
	return p.reset(ctx, func() {
		p.session = sess
	})
}

// Refresh reloads page 1 with the current filters, e.g. after a mutation.
func (p *Paginator) Refresh(ctx context.Context) (State, error) {
	return p.reset(ctx, func() {})
}

// Patch applies fn to the displayed row with the given id, e.g. to flip its
// completion flag after a successful mark. It reports whether the row is on
// the current page. Cursor bounds are not touched.
func (p *Paginator) Patch(id int64, fn func(q *models.Question)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.rows {
		if p.rows[i].ID == id {
			fn(&p.rows[i])
			return true
		}
	}
	return false
}

func (p *Paginator) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Paginator) reset(ctx context.Context, mutate func()) (State, error) {
	p.mu.Lock()
	mutate()
	p.cursor.Reset()
	p.totalCount = nil
	p.totalPages = nil
	seq, target, q, _ := p.prepareLocked(models.DirectionInitial)
	p.mu.Unlock()

	return p.dispatch(ctx, seq, models.DirectionInitial, target, q)
}

// prepareLocked builds the query for dir and applies the optimistic page
// change, returning the page the response will be shown as. Moves are taken
// relative to the shown page, not to one still in flight, so the bound and
// the page number always describe the same rows. It must be called with mu
// held.
func (p *Paginator) prepareLocked(dir models.Direction) (uint64, int, models.PageQuery, bool) {
	if dir == models.DirectionInitial {
		p.cursor.Reset()
		p.shown = 1
	}

	from := p.cursor.Clone()
	from.Page = p.shown
	q, ok := BuildQuery(dir, from, p.filter, p.session, p.groupID)
	if !ok {
		return 0, 0, q, false
	}
	if dir == models.DirectionNext && p.totalPages != nil && p.shown >= *p.totalPages {
		return 0, 0, q, false
	}

	target := p.shown
	switch dir {
	case models.DirectionNext:
		target++
	case models.DirectionPrevious:
		target = max(target-1, 1)
	}
	p.cursor.Page = target

	p.issued++
	p.loading = true
	return p.issued, target, q, true
}

func (p *Paginator) dispatch(ctx context.Context, seq uint64, dir models.Direction, target int, q models.PageQuery) (State, error) {
	log := p.logger.With(zap.Uint64("seq", seq), zap.Stringer("direction", dir))
	log.Debug("listing questions",
		zap.Int("page_size", q.PageSize),
		zap.Bool("take_lower", q.TakeLower),
		zap.String("name_query", q.NameQuery),
	)

	page, err := p.lister.ListQuestions(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.issued {
		log.Debug("dropping superseded response", zap.Uint64("latest", p.issued))
		return p.snapshotLocked(), ErrSuperseded
	}
	p.loading = false

	if err != nil {
		log.Warn("list questions failed", zap.Error(err))
		return p.snapshotLocked(), fmt.Errorf("list questions (%s): %w", dir, err)
	}
	if page == nil {
		page = &models.Page{}
	}

	rows := make([]models.Question, len(page.Questions))
	copy(rows, page.Questions)
	if q.TakeLower {
		models.SortForDisplay(rows)
	}
	p.rows = rows
	p.cursor.Merge(page.Bounds())
	if dir == models.DirectionNext && len(rows) == 0 {
		// Nothing after the shown page; the kept bounds still belong to it.
		target = p.shown
	}
	p.shown = target
	p.cursor.Page = target
	if page.TotalCount != nil {
		p.totalCount = models.IntPtr(*page.TotalCount)
	}
	if page.NumberOfPages != nil {
		p.totalPages = models.IntPtr(*page.NumberOfPages)
	}

	log.Debug("applied page", zap.Int("rows", len(rows)), zap.Int("page", p.cursor.Page))
	return p.snapshotLocked(), nil
}

func (p *Paginator) snapshotLocked() State {
	rows := make([]models.Question, len(p.rows))
	copy(rows, p.rows)

	st := State{
		Questions: rows,
		Cursor:    p.cursor.Clone(),
		Filter:    cloneFilter(p.filter),
		Session:   p.session,
		Loading:   p.loading,
	}
	if p.totalCount != nil {
		st.TotalCount = models.IntPtr(*p.totalCount)
	}
	if p.totalPages != nil {
		st.TotalPages = models.IntPtr(*p.totalPages)
	}
	return st
}

func cloneFilter(f models.Filter) models.Filter {
	f.PostedByUserID = copyInt64(f.PostedByUserID)
	return f
}
