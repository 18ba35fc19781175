package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
)

var defaultLanguages = []models.Language{
	{ID: 1, Name: "Python"},
	{ID: 2, Name: "Java"},
	{ID: 3, Name: "C++"},
	{ID: 4, Name: "JavaScript"},
	{ID: 5, Name: "Go"},
}

// MemoryStorage keeps questions in process and answers listing queries with
// the same keyset semantics as the real backend.
type MemoryStorage struct {
	users     map[int64]models.User
	members   map[int64]map[int64]bool
	questions map[int64]*models.Question
	marks     map[int64]map[int64]bool
	solutions map[int64][]*models.Solution
	languages []models.Language
	nextQID   int64
	nextSID   int64
	now       func() time.Time
	mu        sync.RWMutex
}

type Option func(*MemoryStorage)

// WithClock replaces time.Now for posted timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

func New(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		users:     make(map[int64]models.User),
		members:   make(map[int64]map[int64]bool),
		questions: make(map[int64]*models.Question),
		marks:     make(map[int64]map[int64]bool),
		solutions: make(map[int64][]*models.Solution),
		languages: defaultLanguages,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddUser registers a user, optionally as a member of the given groups.
func (s *MemoryStorage) AddUser(u models.User, groupIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u
	for _, g := range groupIDs {
		if s.members[g] == nil {
			s.members[g] = make(map[int64]bool)
		}
		s.members[g][u.ID] = true
	}
}

// Seed inserts a question as-is. A zero ID is assigned from the sequence and a
// zero PostedTime is taken from the clock.
func (s *MemoryStorage) Seed(q models.Question) models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.ID == 0 {
		s.nextQID++
		q.ID = s.nextQID
	} else if q.ID > s.nextQID {
		s.nextQID = q.ID
	}
	if q.PostedTime.IsZero() {
		q.PostedTime = s.now()
	}
	if u, ok := s.users[q.PostedByID]; ok && q.PostedBy == "" {
		q.PostedBy = u.Username
	}
	q.IsCompleted = false
	stored := q
	s.questions[q.ID] = &stored
	return q
}

func (s *MemoryStorage) ListQuestions(ctx context.Context, q models.PageQuery) (*models.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrBadRequest, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	viewer := viewerID(q)
	matched := make([]models.Question, 0, len(s.questions))
	for _, stored := range s.questions {
		if !s.matches(*stored, q, viewer) {
			continue
		}
		row := *stored
		row.IsCompleted = viewer != nil && s.marks[*viewer][row.ID]
		matched = append(matched, row)
	}
	models.SortForDisplay(matched)

	rows := make([]models.Question, 0, q.PageSize)
	if q.TakeLower {
		// Walk upwards from the bound so the nearest rows are kept; the result
		// stays in that ascending order.
		for i := len(matched) - 1; i >= 0 && len(rows) < q.PageSize; i-- {
			if above(matched[i], q.FirstQID, q.FirstPostedTime) {
				rows = append(rows, matched[i])
			}
		}
	} else {
		for _, m := range matched {
			if len(rows) == q.PageSize {
				break
			}
			if below(m, q.LastQID, q.LastPostedTime) {
				rows = append(rows, m)
			}
		}
	}

	total := len(matched)
	pages := (total + q.PageSize - 1) / q.PageSize
	page := &models.Page{
		Questions:     rows,
		TotalCount:    models.IntPtr(total),
		NumberOfPages: models.IntPtr(pages),
	}

	if len(rows) > 0 {
		display := make([]models.Question, len(rows))
		copy(display, rows)
		models.SortForDisplay(display)
		top, bottom := display[0], display[len(display)-1]
		page.FirstQID = models.Int64Ptr(top.ID)
		page.FirstPostedTime = models.TimePtr(top.PostedTime)
		page.LastQID = models.Int64Ptr(bottom.ID)
		page.LastPostedTime = models.TimePtr(bottom.PostedTime)
	}

	return page, nil
}

func (s *MemoryStorage) matches(row models.Question, q models.PageQuery, viewer *int64) bool {
	if q.GroupID != nil && (row.GroupID == nil || *row.GroupID != *q.GroupID) {
		return false
	}
	if q.NameQuery != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(q.NameQuery)) {
		return false
	}
	if q.PostedByUserID != nil && row.PostedByID != *q.PostedByUserID {
		return false
	}
	if q.NotCompletedOnly && viewer != nil && s.marks[*viewer][row.ID] {
		return false
	}
	return true
}

// above reports whether m sorts strictly before the bound.
func above(m models.Question, id *int64, t *time.Time) bool {
	switch {
	case id != nil && t != nil:
		return models.DisplayBefore(m, models.Question{ID: *id, PostedTime: *t})
	case t != nil:
		return m.PostedTime.After(*t)
	case id != nil:
		return m.ID > *id
	default:
		return true
	}
}

// below reports whether m sorts strictly after the bound.
func below(m models.Question, id *int64, t *time.Time) bool {
	switch {
	case id != nil && t != nil:
		return models.DisplayBefore(models.Question{ID: *id, PostedTime: *t}, m)
	case t != nil:
		return m.PostedTime.Before(*t)
	case id != nil:
		return m.ID < *id
	default:
		return true
	}
}

func viewerID(q models.PageQuery) *int64 {
	if !q.IsLoggedIn || q.UserID == nil {
		return nil
	}
	return q.UserID
}

func (s *MemoryStorage) GetQuestion(ctx context.Context, sess session.Session, id int64) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, storage.ErrNotFound)
	}
	q := *stored
	q.IsCompleted = sess.IsAuthenticated() && s.marks[sess.UserID][id]
	return &q, nil
}

func (s *MemoryStorage) CreateQuestion(ctx context.Context, sess session.Session, nq models.NewQuestion) (*models.Question, error) {
	if !sess.IsAuthenticated() {
		return nil, storage.ErrUnauthorized
	}
	if strings.TrimSpace(nq.Name) == "" || strings.TrimSpace(nq.Link) == "" {
		return nil, fmt.Errorf("%w: name and link are required", storage.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[sess.UserID]; !ok {
		s.users[sess.UserID] = models.User{ID: sess.UserID, Username: sess.Username}
	}

	s.nextQID++
	q := &models.Question{
		ID:         s.nextQID,
		Name:       nq.Name,
		Link:       nq.Link,
		PostedBy:   sess.Username,
		PostedByID: sess.UserID,
		PostedTime: s.now(),
		GroupID:    nq.GroupID,
	}
	s.questions[q.ID] = q

	out := *q
	return &out, nil
}

func (s *MemoryStorage) MarkQuestion(ctx context.Context, sess session.Session, m models.Mark) error {
	if !sess.IsAuthenticated() {
		return storage.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[m.QuestionID]; !ok {
		return fmt.Errorf("question %d: %w", m.QuestionID, storage.ErrNotFound)
	}
	if s.marks[sess.UserID] == nil {
		s.marks[sess.UserID] = make(map[int64]bool)
	}
	s.marks[sess.UserID][m.QuestionID] = m.Done
	return nil
}

func (s *MemoryStorage) DeleteQuestion(ctx context.Context, sess session.Session, id int64) error {
	if !sess.IsAuthenticated() {
		return storage.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return fmt.Errorf("question %d: %w", id, storage.ErrNotFound)
	}
	if q.PostedByID != sess.UserID {
		return fmt.Errorf("question %d posted by %s: %w", id, q.PostedBy, storage.ErrForbidden)
	}

	delete(s.questions, id)
	delete(s.solutions, id)
	for _, done := range s.marks {
		delete(done, id)
	}
	return nil
}

func (s *MemoryStorage) CreateSolution(ctx context.Context, sess session.Session, ns models.NewSolution) (*models.Solution, error) {
	if !sess.IsAuthenticated() {
		return nil, storage.ErrUnauthorized
	}
	if strings.TrimSpace(ns.Language) == "" {
		return nil, fmt.Errorf("%w: language is required", storage.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[ns.QuestionID]; !ok {
		return nil, fmt.Errorf("question %d: %w", ns.QuestionID, storage.ErrNotFound)
	}

	s.nextSID++
	sol := &models.Solution{
		ID:              s.nextSID,
		QuestionID:      ns.QuestionID,
		Title:           ns.Title,
		Language:        ns.Language,
		TimeComplexity:  ns.TimeComplexity,
		SpaceComplexity: ns.SpaceComplexity,
		Notes:           ns.Notes,
		Code:            ns.Code,
		PostedBy:        sess.Username,
		PostedByID:      sess.UserID,
		PostedTime:      s.now(),
	}
	s.solutions[ns.QuestionID] = append(s.solutions[ns.QuestionID], sol)

	out := *sol
	return &out, nil
}

// Solutions returns the solutions posted for a question, oldest first.
func (s *MemoryStorage) Solutions(questionID int64) []models.Solution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Solution, 0, len(s.solutions[questionID]))
	for _, sol := range s.solutions[questionID] {
		out = append(out, *sol)
	}
	return out
}

func (s *MemoryStorage) ListUsers(ctx context.Context, groupID *int64) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.groupUsers(groupID), nil
}

func (s *MemoryStorage) groupUsers(groupID *int64) []models.User {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if groupID != nil && !s.members[*groupID][u.ID] {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStorage) ListLanguages(ctx context.Context) ([]models.Language, error) {
	out := make([]models.Language, len(s.languages))
	copy(out, s.languages)
	return out, nil
}

func (s *MemoryStorage) GroupStats(ctx context.Context, sess session.Session, groupID int64) (*models.GroupStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var inGroup []models.Question
	for _, q := range s.questions {
		if q.GroupID != nil && *q.GroupID == groupID {
			inGroup = append(inGroup, *q)
		}
	}
	models.SortForDisplay(inGroup)

	stats := &models.GroupStats{
		QuestionCount:  len(inGroup),
		StackGraphData: []models.UserProgress{},
		StillNeed:      []models.Question{},
	}
	for _, u := range s.groupUsers(&groupID) {
		done := 0
		for _, q := range inGroup {
			if s.marks[u.ID][q.ID] {
				done++
			}
		}
		stats.StackGraphData = append(stats.StackGraphData, models.UserProgress{Username: u.Username, Completed: done})
	}
	if sess.IsAuthenticated() {
		for _, q := range inGroup {
			if s.marks[sess.UserID][q.ID] {
				stats.CompletedCount++
				continue
			}
			stats.StillNeed = append(stats.StillNeed, q)
		}
	}
	return stats, nil
}

// Close drops all stored data.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = make(map[int64]*models.Question)
	s.solutions = make(map[int64][]*models.Solution)
	s.marks = make(map[int64]map[int64]bool)
	return nil
}
