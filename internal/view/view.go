// Package view renders paginator state and lookups as plain text.
package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/paginator"
)

const NoResults = "No questions found."

// RowNumber is the 1-based position of row i of the current page in the
// whole listing.
func RowNumber(c models.Cursor, i int) int {
	return (c.Page-1)*c.PageSize + i + 1
}

// Render prints the page as a numbered table followed by a status line. An
// empty page prints NoResults instead of the table.
func Render(w io.Writer, st paginator.State) error {
	if len(st.Questions) == 0 {
		if _, err := fmt.Fprintln(w, NoResults); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, StatusLine(st))
		return err
	}

	loggedIn := st.Session.IsAuthenticated()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"No.", "Name", "Posted By"}
	if loggedIn {
		header = append(header, "Completed")
	}
	header = append(header, "Link")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, q := range st.Questions {
		cols := []string{
			fmt.Sprintf("%d", RowNumber(st.Cursor, i)),
			q.Name,
			q.PostedBy,
		}
		if loggedIn {
			cols = append(cols, checkmark(q.IsCompleted))
		}
		cols = append(cols, q.Link)
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, StatusLine(st))
	return err
}

// StatusLine reads "page N[/M] · size S · total T".
func StatusLine(st paginator.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "page %d", st.Cursor.Page)
	if st.TotalPages != nil {
		fmt.Fprintf(&b, "/%d", *st.TotalPages)
	}
	fmt.Fprintf(&b, " · size %d", st.Cursor.PageSize)
	if st.TotalCount != nil {
		fmt.Fprintf(&b, " · total %d", *st.TotalCount)
	}
	if st.Loading {
		b.WriteString(" · loading")
	}
	return b.String()
}

func checkmark(done bool) string {
	if done {
		return "yes"
	}
	return "-"
}

// Question prints one question in detail.
func Question(w io.Writer, q *models.Question) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\n", q.ID)
	fmt.Fprintf(tw, "Name\t%s\n", q.Name)
	fmt.Fprintf(tw, "Link\t%s\n", q.Link)
	fmt.Fprintf(tw, "Posted By\t%s\n", q.PostedBy)
	fmt.Fprintf(tw, "Posted\t%s\n", q.PostedTime.UTC().Format(time.DateTime))
	fmt.Fprintf(tw, "Completed\t%s\n", checkmark(q.IsCompleted))
	return tw.Flush()
}

func Users(w io.Writer, users []models.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUsername")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\n", u.ID, u.Username)
	}
	return tw.Flush()
}

// Stats prints the group totals, per-member progress and the questions the
// viewer still needs.
func Stats(w io.Writer, s *models.GroupStats) error {
	fmt.Fprintf(w, "Completed %d of %d questions\n", s.CompletedCount, s.QuestionCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Member\tCompleted")
	for _, p := range s.StackGraphData {
		fmt.Fprintf(tw, "%s\t%d\n", p.Username, p.Completed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.StillNeed) > 0 {
		fmt.Fprintln(w, "Still need:")
		for _, q := range s.StillNeed {
			fmt.Fprintf(w, "  %d  %s\n", q.ID, q.Name)
		}
	}
	return nil
}
