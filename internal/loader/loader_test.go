package loader

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetQuestion(ctx context.Context, sess session.Session, id int64) (*models.Question, error) {
	args := m.Called(ctx, sess, id)
	q, _ := args.Get(0).(*models.Question)
	return q, args.Error(1)
}

func (m *mockSource) ListUsers(ctx context.Context, groupID *int64) ([]models.User, error) {
	args := m.Called(ctx, groupID)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func TestQuestion(t *testing.T) {
	ctx := context.Background()
	sess := session.Authenticated(1, "alice", "tok", time.Time{})

	t.Run("concurrent loads hit the source once", func(t *testing.T) {
		src := &mockSource{}
		src.On("GetQuestion", mock.Anything, sess, int64(7)).Return(&models.Question{ID: 7, Name: "Two Sum"}, nil).Once()
		l := New(src, sess)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q, err := l.Question(ctx, 7)
				assert.NoError(t, err)
				assert.Equal(t, "Two Sum", q.Name)
			}()
		}
		wg.Wait()

		_, err := l.Question(ctx, 7)
		require.NoError(t, err)
		src.AssertNumberOfCalls(t, "GetQuestion", 1)
	})

	t.Run("ForgetQuestion reloads", func(t *testing.T) {
		src := &mockSource{}
		src.On("GetQuestion", mock.Anything, sess, int64(7)).Return(&models.Question{ID: 7}, nil)
		l := New(src, sess)

		_, err := l.Question(ctx, 7)
		require.NoError(t, err)
		l.ForgetQuestion(ctx, 7)
		_, err = l.Question(ctx, 7)
		require.NoError(t, err)

		src.AssertNumberOfCalls(t, "GetQuestion", 2)
	})

	t.Run("errors are per key", func(t *testing.T) {
		src := &mockSource{}
		src.On("GetQuestion", mock.Anything, sess, int64(1)).Return(&models.Question{ID: 1}, nil)
		src.On("GetQuestion", mock.Anything, sess, int64(2)).Return(nil, storage.ErrNotFound)
		l := New(src, sess)

		qs, errs := l.Questions(ctx, []int64{1})
		for _, err := range errs {
			assert.NoError(t, err)
		}
		require.Len(t, qs, 1)
		assert.Equal(t, int64(1), qs[0].ID)

		_, err := l.Question(ctx, 2)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	src := &mockSource{}
	group := []models.User{{ID: 1, Username: "alice"}}
	everyone := []models.User{{ID: 1, Username: "alice"}, {ID: 9, Username: "zed"}}
	src.On("ListUsers", mock.Anything, models.Int64Ptr(4)).Return(group, nil).Once()
	src.On("ListUsers", mock.Anything, (*int64)(nil)).Return(everyone, nil).Once()

	l := New(src, session.Unauthenticated())

	got, err := l.Users(ctx, models.Int64Ptr(4))
	require.NoError(t, err)
	assert.Equal(t, group, got)

	got, err = l.Users(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, everyone, got)

	_, err = l.Users(ctx, models.Int64Ptr(4))
	require.NoError(t, err)
	src.AssertExpectations(t)

	l.Reset()
	src.On("ListUsers", mock.Anything, models.Int64Ptr(4)).Return(group, nil).Once()
	_, err = l.Users(ctx, models.Int64Ptr(4))
	require.NoError(t, err)
	src.AssertNumberOfCalls(t, "ListUsers", 3)
}
