package linkname

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLink(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://leetcode.com/problems/two-sum/", "two-sum"},
		{"https://leetcode.com/problems/two-sum/description/", "two-sum"},
		{"https://leetcode.com/problems/two-sum/description/?envType=daily", "two-sum"},
		{"https://leetcode.com/problems/lru-cache/?envType=study-plan", "lru-cache"},
		{"https://leetcode.com/problems/valid-parentheses?tab=solutions", "valid-parentheses"},
		{"  https://leetcode.com/problems/3sum  ", "3sum"},
		{"", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, FromLink(tt.link))
		})
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("slug when the link has a path", func(t *testing.T) {
		name, err := NewResolver().Name(ctx, "https://leetcode.com/problems/two-sum/description/")
		require.NoError(t, err)
		assert.Equal(t, "two-sum", name)
	})

	t.Run("og:title when the link is a bare host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "colab-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`<html><head><meta property="og:title" content=" Daily Problem "><title>ignored</title></head></html>`))
		}))
		defer srv.Close()

		name, err := NewResolver(WithUserAgent("colab-test")).Name(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Daily Problem", name)
	})

	t.Run("title element fallback", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><head><title>Two Sum - LeetCode</title></head></html>`))
		}))
		defer srv.Close()

		title, err := NewResolver().FetchTitle(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "Two Sum - LeetCode", title)
	})

	t.Run("no title", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body>nothing</body></html>`))
		}))
		defer srv.Close()

		_, err := NewResolver().FetchTitle(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrNoTitle)
	})

	t.Run("fetch failure falls back to the slug", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		name, err := NewResolver().Name(ctx, srv.URL+"/")
		require.NoError(t, err)
		assert.Equal(t, FromLink(srv.URL+"/"), name)
	})
}
