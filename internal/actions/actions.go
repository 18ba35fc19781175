// Package actions holds the question mutations. Every action takes the
// caller's session and an onAuthFail callback, which is run when the caller is
// not logged in or the backend rejects the credentials.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codemonkey/colab/internal/linkname"
	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
	"go.uber.org/zap"
)

// LanguagePrompt is shown when a solution is submitted without a language.
const LanguagePrompt = "Please select the language of your code"

var (
	ErrUnauthenticated  = errors.New("not logged in")
	ErrNotOwner         = errors.New("only the posting user can delete a question")
	ErrLinkRequired     = errors.New("question link is required")
	ErrNameRequired     = errors.New("question name is required")
	ErrLanguageRequired = errors.New("solution language is required")
)

// Namer fills in a question name for a link.
type Namer interface {
	Name(ctx context.Context, link string) (string, error)
}

type Service struct {
	store  storage.Storage
	namer  Namer
	logger *zap.Logger
}

type Option func(*Service)

func WithNamer(n Namer) Option {
	return func(s *Service) {
		s.namer = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func New(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkQuestion sets the caller's completion flag on a question.
func (s *Service) MarkQuestion(ctx context.Context, sess session.Session, id int64, done bool, onAuthFail func()) error {
	if err := requireSession(sess, onAuthFail); err != nil {
		return err
	}

	err := s.store.MarkQuestion(ctx, sess, models.Mark{QuestionID: id, Done: done, Difficulty: 0})
	if err != nil {
		return s.backendError("mark question", err, onAuthFail)
	}

	s.logger.Info("question marked", zap.Int64("question_id", id), zap.Bool("done", done), zap.Int64("user_id", sess.UserID))
	return nil
}

// DeleteQuestion deletes q. Only its posting user may do so; anyone else is
// refused without a backend call.
func (s *Service) DeleteQuestion(ctx context.Context, sess session.Session, q models.Question, onAuthFail func()) error {
	if err := requireSession(sess, onAuthFail); err != nil {
		return err
	}
	if q.PostedByID != sess.UserID {
		return fmt.Errorf("question %d: %w", q.ID, ErrNotOwner)
	}

	if err := s.store.DeleteQuestion(ctx, sess, q.ID); err != nil {
		return s.backendError("delete question", err, onAuthFail)
	}

	s.logger.Info("question deleted", zap.Int64("question_id", q.ID), zap.Int64("user_id", sess.UserID))
	return nil
}

// AddQuestion posts a question. An empty name is filled in from the link.
func (s *Service) AddQuestion(ctx context.Context, sess session.Session, link, name string, groupID *int64, onAuthFail func()) (*models.Question, error) {
	if err := requireSession(sess, onAuthFail); err != nil {
		return nil, err
	}

	link = strings.TrimSpace(link)
	name = strings.TrimSpace(name)
	if link == "" {
		return nil, ErrLinkRequired
	}
	if name == "" {
		name = s.autofill(ctx, link)
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	q, err := s.store.CreateQuestion(ctx, sess, models.NewQuestion{Name: name, Link: link, GroupID: groupID})
	if err != nil {
		return nil, s.backendError("add question", err, onAuthFail)
	}

	s.logger.Info("question added", zap.Int64("question_id", q.ID), zap.String("name", q.Name))
	return q, nil
}

// AddSolution posts a solution. A language must be selected.
func (s *Service) AddSolution(ctx context.Context, sess session.Session, ns models.NewSolution, onAuthFail func()) (*models.Solution, error) {
	if err := requireSession(sess, onAuthFail); err != nil {
		return nil, err
	}

	ns.Language = strings.TrimSpace(ns.Language)
	ns.Title = strings.TrimSpace(ns.Title)
	if ns.Language == "" {
		return nil, ErrLanguageRequired
	}

	sol, err := s.store.CreateSolution(ctx, sess, ns)
	if err != nil {
		return nil, s.backendError("add solution", err, onAuthFail)
	}

	s.logger.Info("solution added", zap.Int64("solution_id", sol.ID), zap.Int64("question_id", sol.QuestionID))
	return sol, nil
}

func (s *Service) autofill(ctx context.Context, link string) string {
	if s.namer == nil {
		return linkname.FromLink(link)
	}
	name, err := s.namer.Name(ctx, link)
	if err != nil {
		s.logger.Debug("name autofill failed", zap.String("link", link), zap.Error(err))
		return linkname.FromLink(link)
	}
	return strings.TrimSpace(name)
}

func (s *Service) backendError(op string, err error, onAuthFail func()) error {
	if errors.Is(err, storage.ErrUnauthorized) {
		s.logger.Warn(op+": credentials rejected", zap.Error(err))
		if onAuthFail != nil {
			onAuthFail()
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireSession(sess session.Session, onAuthFail func()) error {
	if sess.IsAuthenticated() {
		return nil
	}
	if onAuthFail != nil {
		onAuthFail()
	}
	return ErrUnauthenticated
}
