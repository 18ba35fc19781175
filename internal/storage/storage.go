package storage

import (
	"context"
	"errors"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
)

// Storage is the question API as seen from the client.
type Storage interface {
	ListQuestions(ctx context.Context, q models.PageQuery) (*models.Page, error)
	GetQuestion(ctx context.Context, sess session.Session, id int64) (*models.Question, error)
	CreateQuestion(ctx context.Context, sess session.Session, q models.NewQuestion) (*models.Question, error)
	MarkQuestion(ctx context.Context, sess session.Session, m models.Mark) error
	DeleteQuestion(ctx context.Context, sess session.Session, id int64) error
	CreateSolution(ctx context.Context, sess session.Session, s models.NewSolution) (*models.Solution, error)
	ListUsers(ctx context.Context, groupID *int64) ([]models.User, error)
	ListLanguages(ctx context.Context) ([]models.Language, error)
	GroupStats(ctx context.Context, sess session.Session, groupID int64) (*models.GroupStats, error)
	Close() error
}
