package memory

import (
	"context"
	"testing"

	"github.com/codemonkey/colab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDemo(t *testing.T) {
	ctx := context.Background()
	s := NewDemo(base)

	page, err := s.ListQuestions(ctx, models.PageQuery{GroupID: models.Int64Ptr(DemoGroupID), PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, len(demoProblems), *page.TotalCount)

	// The two newest share a timestamp and are ordered by id.
	assert.Equal(t, []int64{46, 45}, ids(page.Questions))
	assert.True(t, page.Questions[0].PostedTime.Equal(page.Questions[1].PostedTime))
	assert.True(t, page.Questions[0].PostedTime.Before(base))

	users, err := s.ListUsers(ctx, models.Int64Ptr(DemoGroupID))
	require.NoError(t, err)
	assert.Len(t, users, len(demoUsers))

	alice := models.Int64Ptr(1)
	open, err := s.ListQuestions(ctx, models.PageQuery{
		IsLoggedIn:       true,
		UserID:           alice,
		NotCompletedOnly: true,
		PageSize:         100,
	})
	require.NoError(t, err)
	assert.Equal(t, 31, *open.TotalCount)
	for _, q := range open.Questions {
		assert.False(t, q.IsCompleted, q.Name)
	}
}
