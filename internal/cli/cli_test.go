package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/paginator"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage/memory"
	"github.com/codemonkey/colab/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func newStore() *memory.MemoryStorage {
	s := memory.New(memory.WithClock(func() time.Time { return base.Add(time.Hour) }))
	s.AddUser(models.User{ID: 1, Username: "alice"}, 4)
	s.AddUser(models.User{ID: 2, Username: "bob"}, 4)
	names := []string{"Two Sum", "LRU Cache", "Three Sum", "Word Ladder", "Coin Change"}
	for i, name := range names {
		s.Seed(models.Question{
			ID:         int64(i + 1),
			Name:       name,
			Link:       "https://leetcode.com/problems/x/",
			PostedByID: int64(1 + i%2),
			PostedTime: base.Add(time.Duration(i) * time.Minute),
			GroupID:    models.Int64Ptr(4),
		})
	}
	return s
}

func newApp(store *memory.MemoryStorage, sess session.Session, out *bytes.Buffer) *App {
	group := models.Int64Ptr(4)
	pag := paginator.New(store, sess, paginator.WithPageSize(2), paginator.WithGroup(*group))
	return New(store, sess, out, WithGroup(group), WithPaginator(pag))
}

func run(t *testing.T, app *App, script string) {
	t.Helper()
	require.NoError(t, app.Run(context.Background(), strings.NewReader(script)))
}

func TestBrowsing(t *testing.T) {
	var out bytes.Buffer
	app := newApp(newStore(), session.Unauthenticated(), &out)

	run(t, app, "next\nnext\nnext\nprev\nquit\n")
	got := out.String()

	assert.Contains(t, got, "page 1/3 · size 2 · total 5")
	assert.Contains(t, got, "page 2/3")
	assert.Contains(t, got, "page 3/3")
	assert.Equal(t, 2, app.pag.State().Cursor.Page)
	assert.Equal(t, []int64{3, 2}, ids(app.pag.State().Questions))
}

func TestFilters(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	app := newApp(newStore(), session.Unauthenticated(), &out)
	run(t, app, "")

	require.NoError(t, app.Exec(ctx, "search sum"))
	assert.Equal(t, []int64{3, 1}, ids(app.pag.State().Questions))

	require.NoError(t, app.Exec(ctx, "search zzz"))
	assert.Contains(t, out.String(), view.NoResults)

	require.NoError(t, app.Exec(ctx, "search"))
	require.NoError(t, app.Exec(ctx, "user bob"))
	st := app.pag.State()
	assert.Equal(t, int64(2), *st.Filter.PostedByUserID)
	for _, q := range st.Questions {
		assert.Equal(t, int64(2), q.PostedByID)
	}

	require.NoError(t, app.Exec(ctx, "user all"))
	assert.Nil(t, app.pag.State().Filter.PostedByUserID)

	assert.Error(t, app.Exec(ctx, "user nobody"))

	require.NoError(t, app.Exec(ctx, "size 10"))
	assert.Len(t, app.pag.State().Questions, 5)
	assert.Error(t, app.Exec(ctx, "size 0"))
}

func TestMutationsNeedLogin(t *testing.T) {
	var out bytes.Buffer
	store := newStore()
	app := newApp(store, session.Unauthenticated(), &out)

	run(t, app, "mark 1\nadd https://leetcode.com/problems/two-sum/\n")
	assert.Equal(t, 2, strings.Count(out.String(), loginHint))

	page, err := store.ListQuestions(context.Background(), models.PageQuery{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, *page.TotalCount)
}

func TestMutations(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	store := newStore()
	alice := session.Authenticated(1, "alice", "tok", time.Time{})
	app := newApp(store, alice, &out)
	run(t, app, "")

	t.Run("mark flips the row", func(t *testing.T) {
		require.NoError(t, app.Exec(ctx, "mark 2"))
		st := app.pag.State()
		assert.True(t, st.Questions[1].IsCompleted)

		got, err := store.GetQuestion(ctx, alice, st.Questions[1].ID)
		require.NoError(t, err)
		assert.True(t, got.IsCompleted)

		assert.Error(t, app.Exec(ctx, "mark 9"))
	})

	t.Run("delete someone else's question", func(t *testing.T) {
		// Row 2 of page 1 is question 4, posted by bob.
		err := app.Exec(ctx, "delete 2")
		assert.Error(t, err)
	})

	t.Run("add autofills and reloads", func(t *testing.T) {
		require.NoError(t, app.Exec(ctx, "add https://leetcode.com/problems/house-robber/description/"))
		st := app.pag.State()
		assert.Equal(t, 1, st.Cursor.Page)
		assert.Equal(t, "house-robber", st.Questions[0].Name)
	})

	t.Run("delete own question", func(t *testing.T) {
		require.NoError(t, app.Exec(ctx, "delete 1"))
		assert.Contains(t, out.String(), `Deleted "house-robber".`)
	})

	t.Run("solution needs a language", func(t *testing.T) {
		out.Reset()
		require.NoError(t, app.Exec(ctx, "solution 1 brute force"))
		assert.Contains(t, out.String(), "Please select the language of your code")

		require.NoError(t, app.Exec(ctx, "solution 1 language=Go tc=O(n) sc=O(1) single pass"))
		first := app.pag.State().Questions[0]
		sols := store.Solutions(first.ID)
		require.Len(t, sols, 1)
		assert.Equal(t, "single pass", sols[0].Title)
		assert.Equal(t, "O(1)", sols[0].SpaceComplexity)
	})

	t.Run("show users stats", func(t *testing.T) {
		out.Reset()
		require.NoError(t, app.Exec(ctx, "show 1"))
		require.NoError(t, app.Exec(ctx, "users"))
		require.NoError(t, app.Exec(ctx, "stats"))
		assert.Contains(t, out.String(), "Coin Change")
		assert.Contains(t, out.String(), "bob")
		assert.Contains(t, out.String(), "of 5 questions")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	app := newApp(newStore(), session.Unauthenticated(), &out)
	run(t, app, "")

	tok, err := session.Issue("some-secret-0123456789-0123456789", 2, "bob", time.Hour, time.Now())
	require.NoError(t, err)

	require.NoError(t, app.Exec(ctx, "login "+tok))
	assert.Contains(t, out.String(), "Logged in as bob.")
	assert.True(t, app.pag.State().Session.IsAuthenticated())

	require.NoError(t, app.Exec(ctx, "logout"))
	assert.False(t, app.pag.State().Session.IsAuthenticated())

	assert.Error(t, app.Exec(ctx, "login not-a-token"))
	assert.Error(t, app.Exec(ctx, "frobnicate"))
}

func ids(qs []models.Question) []int64 {
	out := make([]int64, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}
