package memory

import (
	"time"

	"github.com/codemonkey/colab/internal/models"
)

// DemoGroupID is the colab group the demo data is posted to.
const DemoGroupID int64 = 1

var demoUsers = []models.User{
	{ID: 1, Username: "alice"},
	{ID: 2, Username: "bob"},
	{ID: 3, Username: "carol"},
}

var demoProblems = []string{
	"two-sum", "valid-parentheses", "merge-two-sorted-lists", "best-time-to-buy-and-sell-stock",
	"valid-palindrome", "invert-binary-tree", "valid-anagram", "binary-search",
	"flood-fill", "lowest-common-ancestor-of-a-binary-search-tree", "balanced-binary-tree",
	"linked-list-cycle", "implement-queue-using-stacks", "first-bad-version", "ransom-note",
	"climbing-stairs", "longest-palindrome", "reverse-linked-list", "majority-element",
	"add-binary", "diameter-of-binary-tree", "middle-of-the-linked-list", "maximum-depth-of-binary-tree",
	"contains-duplicate", "meeting-rooms", "roman-to-integer", "backspace-string-compare",
	"counting-bits", "same-tree", "number-of-1-bits", "longest-common-prefix",
	"single-number", "palindrome-linked-list", "move-zeroes", "symmetric-tree",
	"missing-number", "palindrome-number", "convert-sorted-array-to-binary-search-tree",
	"reverse-bits", "subtree-of-another-tree", "squares-of-a-sorted-array", "maximum-subarray",
	"insert-interval", "01-matrix", "k-closest-points-to-origin", "longest-substring-without-repeating-characters",
}

// NewDemo returns a store with a few users and a group's worth of questions,
// posted a few hours apart before now. Some share a timestamp so that the id
// tie-break is visible.
func NewDemo(now time.Time) *MemoryStorage {
	s := New()
	for _, u := range demoUsers {
		s.AddUser(u, DemoGroupID)
	}

	start := now.Add(-time.Duration(len(demoProblems)) * 3 * time.Hour)
	for i, slug := range demoProblems {
		poster := demoUsers[i%len(demoUsers)]
		s.Seed(models.Question{
			Name:       slug,
			Link:       "https://leetcode.com/problems/" + slug + "/",
			PostedByID: poster.ID,
			PostedTime: start.Add(time.Duration(i/2) * 6 * time.Hour),
			GroupID:    models.Int64Ptr(DemoGroupID),
		})
	}

	for i := int64(1); i <= int64(len(demoProblems)); i++ {
		for _, u := range demoUsers {
			if (i+u.ID)%3 == 0 {
				s.marks[u.ID] = ensure(s.marks[u.ID])
				s.marks[u.ID][i] = true
			}
		}
	}
	return s
}

func ensure(m map[int64]bool) map[int64]bool {
	if m == nil {
		return make(map[int64]bool)
	}
	return m
}
