// storefront is a terminal client for the shop API: it logs in, keeps the
// session token on disk, and lists, searches and pages through shops.
//
// Usage:
//
//	storefront login --email you@example.com
//	storefront shops --query chair --limit 20 --page 2
//	storefront browse
//	storefront whoami
//	storefront logout
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/logging"
	"github.com/MikeMC777/storefront/internal/session"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

var errNotLoggedIn = &exitError{code: 1, msg: `not logged in (session missing or expired): run "storefront login"`}

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"login", "authenticate and store the session token", runLogin},
	{"logout", "remove the stored session token", runLogout},
	{"whoami", "show the logged-in user", runWhoami},
	{"shops", "list shops once (--query, --page, --limit)", runShops},
	{"browse", "interactive search and pagination", runBrowse},
}

func run(args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			a := &app{in: in, out: out}
			return c.run(a, args[1:])
		}
	}
	printUsage(out)
	return usageError("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: storefront <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "storefront <command> --help" for command flags.`)
}

// app holds what every command shares. setup fills it after flags are
// parsed so flag values can override the environment.
type app struct {
	in  io.Reader
	out io.Writer

	apiURL      string
	sessionFile string
	logLevel    string

	cfg    config.Config
	log    *zap.Logger
	http   *http.Client
	router *cliRouter
	sess   *session.Controller
}

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("storefront "+name, pflag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&a.apiURL, "api-url", "", "shop API base URL (default $STOREFRONT_API_URL)")
	fs.StringVar(&a.sessionFile, "session-file", "", "session file (default $STOREFRONT_SESSION_FILE)")
	fs.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default $STOREFRONT_LOG_LEVEL)")
	return fs
}

func (a *app) parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, usageError("%v", err)
	}
	if fs.NArg() > 0 {
		return false, usageError("unexpected argument: %s", fs.Arg(0))
	}
	return true, nil
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIBaseURL = a.apiURL
	}
	if a.sessionFile != "" {
		cfg.SessionFile = a.sessionFile
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return usageError("%v", err)
	}
	a.cfg = cfg
	a.log = log
	a.http = httpx.NewClient(cfg.RequestTimeout, log.Named("http"))
	a.router = &cliRouter{log: log}
	a.sess = session.NewController(
		session.NewFileStore(cfg.SessionFile, log.Named("store")),
		session.NewValidator(nil),
		session.NewHTTPAuthenticator(a.http, cfg.APIBaseURL, log.Named("auth")),
		a.router,
		log.Named("session"),
	)
	log.Debug("config",
		zap.String("api_url", cfg.APIBaseURL),
		zap.String("session_file", cfg.SessionFile),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	return nil
}

// requireSession restores the session and fails when the router was sent to
// the login page.
func (a *app) requireSession() error {
	if err := a.sess.Initialize(); err != nil {
		return err
	}
	if !a.sess.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) newCatalog(itemsPerPage int, opts ...catalog.Option) (*catalog.Controller, error) {
	fetcher := catalog.NewHTTPFetcher(a.http, a.cfg.APIBaseURL, a.sess, a.log.Named("catalog"))
	opts = append(opts, catalog.WithLogger(a.log.Named("catalog")))
	return catalog.NewController(fetcher, itemsPerPage, a.cfg.PageSizes, opts...)
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// cliRouter stands in for page navigation: it remembers where the session
// controller last sent the user.
type cliRouter struct {
	log  *zap.Logger
	last string
}

func (r *cliRouter) Redirect(path string) {
	r.last = path
	r.log.Debug("redirect", zap.String("path", path))
}
