// Package cli is the terminal front end: a line-oriented command loop over
// the paginator, the mutation actions and the lookups.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/codemonkey/colab/internal/actions"
	"github.com/codemonkey/colab/internal/loader"
	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/paginator"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/codemonkey/colab/internal/view"
	"go.uber.org/zap"
)

const (
	prompt    = "> "
	loginHint = "Please log in to do that (login <token>)."
)

var errQuit = errors.New("quit")

type App struct {
	store   storage.Storage
	pag     *paginator.Paginator
	actions *actions.Service
	loader  *loader.Loader
	sess    session.Session
	groupID *int64
	out     io.Writer
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*App)

func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

func WithGroup(id *int64) Option {
	return func(a *App) {
		a.groupID = id
	}
}

func WithActions(s *actions.Service) Option {
	return func(a *App) {
		a.actions = s
	}
}

// WithPaginator replaces the default paginator, e.g. to set a page size.
func WithPaginator(p *paginator.Paginator) Option {
	return func(a *App) {
		a.pag = p
	}
}

func New(store storage.Storage, sess session.Session, out io.Writer, opts ...Option) *App {
	a := &App{
		store:  store,
		sess:   sess,
		out:    out,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.actions == nil {
		a.actions = actions.New(store, actions.WithLogger(a.logger))
	}
	if a.pag == nil {
		popts := []paginator.Option{paginator.WithLogger(a.logger)}
		if a.groupID != nil {
			popts = append(popts, paginator.WithGroup(*a.groupID))
		}
		a.pag = paginator.New(store, sess, popts...)
	}
	a.loader = loader.New(store, sess)
	return a
}

// Run loads the first page and executes commands from in until EOF or quit.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	a.show(a.pag.Load(ctx))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		err := a.Exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs one command line.
func (a *App) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "next", "n":
		a.show(a.pag.Next(ctx))
	case "prev", "p":
		a.show(a.pag.Previous(ctx))
	case "list", "ls":
		a.show(a.pag.State(), nil)
	case "search":
		a.show(a.pag.SetNameQuery(ctx, strings.Join(args, " ")))
	case "user":
		return a.filterUser(ctx, args)
	case "notdone":
		return a.notDone(ctx, args)
	case "size":
		return a.size(ctx, args)
	case "mark", "unmark":
		return a.mark(ctx, args, cmd == "mark")
	case "delete":
		return a.delete(ctx, args)
	case "add":
		return a.add(ctx, args)
	case "solution":
		return a.solution(ctx, args)
	case "show":
		return a.showQuestion(ctx, args)
	case "users":
		users, err := a.loader.Users(ctx, a.groupID)
		if err != nil {
			return err
		}
		return view.Users(a.out, users)
	case "stats":
		return a.stats(ctx)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.setSession(ctx, session.Unauthenticated())
	case "help", "?":
		fmt.Fprint(a.out, helpText)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// show renders st. A failed or superseded query keeps the previous page on
// screen.
func (a *App) show(st paginator.State, err error) {
	switch {
	case errors.Is(err, paginator.ErrSuperseded):
		return
	case err != nil:
		a.logger.Warn("failed to fetch questions", zap.Error(err))
		fmt.Fprintln(a.out, "Could not load questions; showing the last page.")
	}
	if rerr := view.Render(a.out, st); rerr != nil {
		a.logger.Error("render failed", zap.Error(rerr))
	}
}

func (a *App) onAuthFail() {
	fmt.Fprintln(a.out, loginHint)
}

func (a *App) filterUser(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: user <id|username|all>")
	}
	if args[0] == "all" {
		a.show(a.pag.SetPostedBy(ctx, nil))
		return nil
	}

	id, err := a.resolveUser(ctx, args[0])
	if err != nil {
		return err
	}
	a.show(a.pag.SetPostedBy(ctx, &id))
	return nil
}

func (a *App) resolveUser(ctx context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	users, err := a.loader.Users(ctx, a.groupID)
	if err != nil {
		return 0, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, ref) {
			return u.ID, nil
		}
	}
	return 0, fmt.Errorf("no user %q", ref)
}

func (a *App) notDone(ctx context.Context, args []string) error {
	on := !a.pag.State().Filter.NotCompletedOnly
	if len(args) == 1 {
		switch args[0] {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return errors.New("usage: notdone [on|off]")
		}
	}
	if on && !a.sess.IsAuthenticated() {
		fmt.Fprintln(a.out, "The not-completed filter applies once you log in.")
	}
	a.show(a.pag.SetNotCompletedOnly(ctx, on))
	return nil
}

func (a *App) size(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: size <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return models.ErrInvalidPageSize
	}
	a.show(a.pag.SetPageSize(ctx, n))
	return nil
}

// row resolves a displayed row number on the current page.
func (a *App) row(arg string) (models.Question, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return models.Question{}, fmt.Errorf("invalid row %q", arg)
	}
	st := a.pag.State()
	i := n - view.RowNumber(st.Cursor, 0)
	if i < 0 || i >= len(st.Questions) {
		return models.Question{}, fmt.Errorf("no row %d on this page", n)
	}
	return st.Questions[i], nil
}

func (a *App) mark(ctx context.Context, args []string, done bool) error {
	if len(args) != 1 {
		return errors.New("usage: mark|unmark <row>")
	}
	q, err := a.row(args[0])
	if err != nil {
		return err
	}

	if err := a.actions.MarkQuestion(ctx, a.sess, q.ID, done, a.onAuthFail); err != nil {
		return authQuiet(err)
	}
	a.loader.ForgetQuestion(ctx, q.ID)
	a.pag.Patch(q.ID, func(row *models.Question) { row.IsCompleted = done })
	a.show(a.pag.State(), nil)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <row>")
	}
	q, err := a.row(args[0])
	if err != nil {
		return err
	}

	if err := a.actions.DeleteQuestion(ctx, a.sess, q, a.onAuthFail); err != nil {
		return authQuiet(err)
	}
	a.loader.ForgetQuestion(ctx, q.ID)
	fmt.Fprintf(a.out, "Deleted %q.\n", q.Name)
	a.show(a.pag.Refresh(ctx))
	return nil
}

func (a *App) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: add <link> [name]")
	}

	q, err := a.actions.AddQuestion(ctx, a.sess, args[0], strings.Join(args[1:], " "), a.groupID, a.onAuthFail)
	if err != nil {
		return authQuiet(err)
	}
	fmt.Fprintf(a.out, "Added %q.\n", q.Name)
	a.show(a.pag.Refresh(ctx))
	return nil
}

// solution <row> language=<lang> [tc=<tc>] [sc=<sc>] [notes=<notes>] <title...>
func (a *App) solution(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: solution <row> language=<lang> [tc=..] [sc=..] [notes=..] <title>")
	}
	q, err := a.row(args[0])
	if err != nil {
		return err
	}

	ns := models.NewSolution{QuestionID: q.ID}
	var title []string
	for _, arg := range args[1:] {
		key, val, ok := strings.Cut(arg, "=")
		switch {
		case ok && key == "language":
			ns.Language = val
		case ok && key == "tc":
			ns.TimeComplexity = val
		case ok && key == "sc":
			ns.SpaceComplexity = val
		case ok && key == "notes":
			ns.Notes = val
		default:
			title = append(title, arg)
		}
	}
	ns.Title = strings.Join(title, " ")

	sol, err := a.actions.AddSolution(ctx, a.sess, ns, a.onAuthFail)
	if errors.Is(err, actions.ErrLanguageRequired) {
		fmt.Fprintln(a.out, actions.LanguagePrompt)
		return nil
	}
	if err != nil {
		return authQuiet(err)
	}
	fmt.Fprintf(a.out, "Added solution %q to %q.\n", sol.Title, q.Name)
	return nil
}

func (a *App) showQuestion(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: show <row>")
	}
	row, err := a.row(args[0])
	if err != nil {
		return err
	}
	q, err := a.loader.Question(ctx, row.ID)
	if err != nil {
		return err
	}
	return view.Question(a.out, q)
}

func (a *App) stats(ctx context.Context) error {
	if a.groupID == nil {
		return errors.New("stats need a group (paginator.group_id)")
	}
	stats, err := a.store.GroupStats(ctx, a.sess, *a.groupID)
	if err != nil {
		return err
	}
	return view.Stats(a.out, stats)
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: login <token>")
	}
	sess, err := session.FromToken(args[0], a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", sess.Username)
	return a.setSession(ctx, sess)
}

func (a *App) setSession(ctx context.Context, sess session.Session) error {
	a.sess = sess
	a.loader = loader.New(a.store, sess)
	a.show(a.pag.SetSession(ctx, sess))
	return nil
}

// authQuiet swallows auth errors, which onAuthFail has already reported.
func authQuiet(err error) error {
	if errors.Is(err, actions.ErrUnauthenticated) || errors.Is(err, storage.ErrUnauthorized) {
		return nil
	}
	return err
}

const helpText = `Commands:
  next | n                    next page
  prev | p                    previous page
  list                        show the current page again
  search [text]               filter by name (empty clears)
  user <id|username|all>      filter by poster
  notdone [on|off]            only questions you have not completed
  size <n>                    change the page size
  mark <row> | unmark <row>   set your completion flag
  delete <row>                delete a question you posted
  add <link> [name]           post a question
  solution <row> language=<lang> [tc=..] [sc=..] [notes=..] <title>
  show <row>                  question details
  users                       list users
  stats                       group statistics
  login <token> | logout
  quit
`
