// Package loader batches and caches question and user lookups for one
// viewer session.
package loader

import (
	"context"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/graph-gophers/dataloader/v7"
)

// allGroups keys the user list that is not scoped to a group.
const allGroups int64 = 0

// Source is the subset of storage.Storage the loader reads from.
type Source interface {
	GetQuestion(ctx context.Context, sess session.Session, id int64) (*models.Question, error)
	ListUsers(ctx context.Context, groupID *int64) ([]models.User, error)
}

var _ Source = (storage.Storage)(nil)

type Loader struct {
	questions *dataloader.Loader[int64, *models.Question]
	users     *dataloader.Loader[int64, []models.User]
}

// New builds a loader whose cached questions carry the completion flags of
// sess. Build a new one when the session changes.
func New(src Source, sess session.Session) *Loader {
	return &Loader{
		questions: dataloader.NewBatchedLoader(
			questionBatch(src, sess),
			dataloader.WithWait[int64, *models.Question](2*time.Millisecond),
		),
		users: dataloader.NewBatchedLoader(
			userBatch(src),
			dataloader.WithWait[int64, []models.User](2*time.Millisecond),
		),
	}
}

func questionBatch(src Source, sess session.Session) dataloader.BatchFunc[int64, *models.Question] {
	return func(ctx context.Context, ids []int64) []*dataloader.Result[*models.Question] {
		results := make([]*dataloader.Result[*models.Question], len(ids))
		for i, id := range ids {
			q, err := src.GetQuestion(ctx, sess, id)
			results[i] = &dataloader.Result[*models.Question]{Data: q, Error: err}
		}
		return results
	}
}

func userBatch(src Source) dataloader.BatchFunc[int64, []models.User] {
	return func(ctx context.Context, groups []int64) []*dataloader.Result[[]models.User] {
		results := make([]*dataloader.Result[[]models.User], len(groups))
		for i, g := range groups {
			var groupID *int64
			if g != allGroups {
				groupID = models.Int64Ptr(g)
			}
			users, err := src.ListUsers(ctx, groupID)
			results[i] = &dataloader.Result[[]models.User]{Data: users, Error: err}
		}
		return results
	}
}

func (l *Loader) Question(ctx context.Context, id int64) (*models.Question, error) {
	return l.questions.Load(ctx, id)()
}

// Questions loads ids in one batch. Results and errors line up with ids.
func (l *Loader) Questions(ctx context.Context, ids []int64) ([]*models.Question, []error) {
	return l.questions.LoadMany(ctx, ids)()
}

// Users returns the members of a group, or every user for a nil group.
func (l *Loader) Users(ctx context.Context, groupID *int64) ([]models.User, error) {
	key := allGroups
	if groupID != nil {
		key = *groupID
	}
	return l.users.Load(ctx, key)()
}

// ForgetQuestion drops a cached question after it was marked or deleted.
func (l *Loader) ForgetQuestion(ctx context.Context, id int64) {
	l.questions.Clear(ctx, id)
}

func (l *Loader) Reset() {
	l.questions.ClearAll()
	l.users.ClearAll()
}
