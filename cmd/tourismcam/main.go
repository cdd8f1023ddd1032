// Command tourismcam is a terminal client for the TourismCam API.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"tourismcam/internal/client"
	"tourismcam/internal/config"
	"tourismcam/internal/routegate"
	"tourismcam/internal/store"
)

const usage = `Usage: tourismcam <command> [flags]

Commands:
  login -email E -password P      Sign in
  register -email E -password P -name N [-username U]
  logout                          Sign out and forget the token
  whoami                          Validate the stored token and show the user
  feed [-limit N] [-offset N] [-tag T]
  show <post-id>                  Show a post with its comments
  like <post-id>                  Toggle a like
  save <post-id>                  Toggle a bookmark
  comment <post-id> <text...>     Add a comment
  uncomment <post-id> <comment-id>
  search [-pages N] <query...>    Search captions and locations
  open <path>                     Check page access for path

Environment: TOURISMCAM_API_URL, TOURISMCAM_POSTS_API_URL, TOURISMCAM_API_TIMEOUT,
PROTECTED_PATHS, AUTH_PAGES
`

// app is everything a command needs.
type app struct {
	client *client.Client
	auth   *store.AuthStore
	posts  *store.PostsStore
	guard  *store.Guard
	out    io.Writer
}

// printNavigator reports navigation instead of switching pages.
type printNavigator struct{ w io.Writer }

func (n printNavigator) Navigate(path string) {
	fmt.Fprintf(n.w, "-> %s\n", path)
}

func newApp(cfg client.Config, tokens client.TokenStore, persist store.Persister, gate *routegate.Gate, out io.Writer) (*app, error) {
	c, err := client.New(cfg, client.WithTokenStore(tokens))
	if err != nil {
		return nil, err
	}
	nav := printNavigator{w: out}
	auth := store.NewAuthStore(c, persist, nav)
	return &app{
		client: c,
		auth:   auth,
		posts:  store.NewPostsStore(c, persist, auth.CurrentUser),
		guard:  store.NewGuard(gate, auth, nav),
		out:    out,
	}, nil
}

func gateFromEnv() *routegate.Gate {
	protected := config.SplitList(getenv("PROTECTED_PATHS", "/upload,/profile,/saved,/settings"))
	authPages := config.SplitList(getenv("AUTH_PAGES", "/login,/register,/forgot-password"))
	return routegate.New(protected, authPages)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	cfg, err := client.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid client configuration: %v", err)
	}
	tokenPath, err := client.DefaultTokenPath()
	if err != nil {
		log.Fatalf("Cannot locate config directory: %v", err)
	}
	stateDir := filepath.Join(filepath.Dir(tokenPath), "state")

	a, err := newApp(cfg, client.NewFileTokenStore(tokenPath), store.NewFilePersister(stateDir), gateFromEnv(), os.Stdout)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.Message(err))
		os.Exit(1)
	}
}
