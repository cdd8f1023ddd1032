package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"tourismcam/internal/client"
	"tourismcam/internal/models"
)

var errUsage = errors.New("invalid usage; run tourismcam without arguments for help")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
		a.posts.Reset()
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "feed":
		return a.feed(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "like":
		return a.like(ctx, args)
	case "save":
		return a.save(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "uncomment":
		return a.uncomment(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "open":
		return a.open(args)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not a valid id", raw)
	}
	return uint(id), nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil || *email == "" || *password == "" {
		return errUsage
	}
	if err := a.auth.Login(ctx, *email, *password); err != nil {
		return err
	}
	u := a.auth.CurrentUser()
	fmt.Fprintf(a.out, "Signed in as %s (@%s).\n", u.Name, u.Username)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	var req models.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.Password, "password", "", "at least 6 characters")
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Username, "username", "", "optional handle")
	if err := fs.Parse(args); err != nil || req.Email == "" || req.Password == "" || req.Name == "" {
		return errUsage
	}
	if err := a.auth.Register(ctx, req); err != nil {
		return err
	}
	u := a.auth.CurrentUser()
	fmt.Fprintf(a.out, "Welcome, %s! Your handle is @%s.\n", u.Name, u.Username)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.auth.CheckAuthStatus(ctx); err != nil {
		return err
	}
	u := a.auth.CurrentUser()
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (@%s) <%s>\n", u.Name, u.Username, u.Email)
	return nil
}

func (a *app) printPosts(posts []*models.Post, st func(id uint) string) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAPTION\tLOCATION\tLIKES\tCOMMENTS\t")
	for _, p := range posts {
		caption := p.Caption
		if r := []rune(caption); len(r) > 48 {
			caption = string(r[:45]) + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d%s\t%d\t\n", p.ID, caption, p.Location, p.LikesCount, st(p.ID), p.CommentsCount)
	}
	tw.Flush()
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := newFlags("feed")
	var opts client.ListOptions
	fs.IntVar(&opts.Limit, "limit", 0, "page size")
	fs.IntVar(&opts.Offset, "offset", 0, "skip this many posts")
	fs.StringVar(&opts.Tag, "tag", "", "only posts with this tag")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := a.posts.FetchPosts(ctx, opts); err != nil {
		return err
	}
	st := a.posts.State()
	if len(st.Posts) == 0 {
		fmt.Fprintln(a.out, "No posts yet.")
		return nil
	}
	a.printPosts(st.Posts, func(id uint) string {
		if st.LikedPosts.Has(id) {
			return " *"
		}
		return ""
	})
	if st.Pagination.HasMore {
		fmt.Fprintf(a.out, "More: tourismcam feed -offset %d\n", st.Pagination.Offset+len(st.Posts))
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.posts.FetchPost(ctx, id); err != nil {
		return err
	}
	if err := a.posts.FetchComments(ctx, id); err != nil {
		return err
	}
	st := a.posts.State()
	p := st.CurrentPost

	author := "unknown"
	if p.User != nil {
		author = "@" + p.User.Username
	}
	fmt.Fprintf(a.out, "#%d %s\n", p.ID, p.Caption)
	fmt.Fprintf(a.out, "by %s", author)
	if p.Location != "" {
		fmt.Fprintf(a.out, " at %s", p.Location)
	}
	fmt.Fprintf(a.out, "\n%s\n", p.ImageURL)
	if len(p.Tags) > 0 {
		fmt.Fprintf(a.out, "#%s\n", strings.Join(p.Tags, " #"))
	}
	fmt.Fprintf(a.out, "%d likes, %d comments, %d views\n", p.LikesCount, p.CommentsCount, p.ViewsCount)
	for _, c := range st.Comments[id] {
		fmt.Fprintf(a.out, "  [%d] @%s: %s\n", c.ID, c.Username, c.Content)
	}
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	resp, err := a.posts.ToggleLike(ctx, id)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if resp.IsLiked {
		verb = "Liked"
	}
	fmt.Fprintf(a.out, "%s post %d (%d likes).\n", verb, id, resp.LikesCount)
	return nil
}

func (a *app) save(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	resp, err := a.posts.ToggleSave(ctx, id)
	if err != nil {
		return err
	}
	if resp.IsSaved {
		fmt.Fprintf(a.out, "Saved post %d.\n", id)
	} else {
		fmt.Fprintf(a.out, "Removed post %d from saved.\n", id)
	}
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c, err := a.posts.AddComment(ctx, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment %d added.\n", c.ID)
	return nil
}

func (a *app) uncomment(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	postID, err := parseID(args[0])
	if err != nil {
		return err
	}
	commentID, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := a.posts.DeleteComment(ctx, postID, commentID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment %d deleted.\n", commentID)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := newFlags("search")
	pages := fs.Int("pages", 1, "number of result pages to load")
	if err := fs.Parse(args); err != nil || fs.NArg() == 0 {
		return errUsage
	}
	query := strings.Join(fs.Args(), " ")
	if err := a.posts.SearchPosts(ctx, query); err != nil {
		return err
	}
	for i := 1; i < *pages; i++ {
		if err := a.posts.LoadMoreSearchResults(ctx); err != nil {
			return err
		}
	}

	st := a.posts.State()
	if len(st.SearchResults) == 0 {
		fmt.Fprintf(a.out, "No posts match %q.\n", query)
		return nil
	}
	a.printPosts(st.SearchResults, func(uint) string { return "" })
	fmt.Fprintf(a.out, "%d of %d results\n", len(st.SearchResults), st.SearchPagination.Total)
	return nil
}

func (a *app) open(args []string) error {
	if len(args) != 1 || !strings.HasPrefix(args[0], "/") {
		return errUsage
	}
	if a.guard.Enter(args[0]) {
		fmt.Fprintf(a.out, "%s: allowed\n", args[0])
	}
	return nil
}
