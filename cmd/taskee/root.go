package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Nathan-Yinka/Project-management-application/internal/app"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/auth"
	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
	"github.com/Nathan-Yinka/Project-management-application/internal/config"
	"github.com/Nathan-Yinka/Project-management-application/internal/domain"
	domerrors "github.com/Nathan-Yinka/Project-management-application/internal/domain/errors"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/notify"
	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/tokenstore"
)

var errNotLoggedIn = errors.New("not logged in, run `taskee login` first")

const (
	outputText = "text"
	outputYAML = "yaml"
)

type cli struct {
	in     io.Reader
	out    io.Writer
	cfg    *config.Config
	log    zerolog.Logger
	org    int64
	output string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}
	root := &cobra.Command{
		Use:           "taskee",
		Short:         "Taskee - organizations, members and tasks from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.Int64Var(&c.org, "org", 0, "organization ID to act on (default: the first one)")
	pf.StringVarP(&c.output, "output", "o", outputText, "output format: text or yaml")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.orgsCmd(),
		c.membersCmd(),
		c.tasksCmd(),
		c.devserverCmd(),
	)
	return root
}

func (c *cli) setup(logOut io.Writer) error {
	if c.output != outputText && c.output != outputYAML {
		return fmt.Errorf("unknown output format %q", c.output)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	c.log = newLogger(logOut, cfg.Log.Level)
	return nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}

// session is a started App plus the resources it owns.
type session struct {
	*app.App
	close func()
}

// open builds and starts the state layer. With needAuth the stored session
// must still be valid, and --org is applied once organizations are loaded.
func (c *cli) open(ctx context.Context, needAuth bool) (*session, error) {
	store, closeStore, err := c.tokenStore()
	if err != nil {
		return nil, err
	}
	a, err := app.New(app.Deps{
		BaseURL:    c.cfg.API.BaseURL,
		Timeout:    c.cfg.API.Timeout,
		TokenStore: store,
		Notifier:   notify.NewLogNotifier(c.log),
		Debounce:   c.cfg.Search.Debounce,
		Log:        c.log,
	})
	if err != nil {
		closeStore()
		return nil, err
	}
	s := &session{App: a, close: func() {
		a.Close()
		closeStore()
	}}
	if err := a.Start(ctx); err != nil {
		s.close()
		return nil, err
	}
	if !needAuth {
		return s, nil
	}
	if a.Session.Status() != auth.Authenticated {
		s.close()
		return nil, errNotLoggedIn
	}
	if c.org != 0 {
		if err := a.Organizations.Select(domain.OrganizationID(c.org)); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (c *cli) tokenStore() (ports.TokenStore, func(), error) {
	if c.cfg.TokenStore.Kind == config.TokenStoreRedis {
		r, err := tokenstore.NewRedisFromURL(c.cfg.Redis.URL, c.log)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	path := c.cfg.TokenStore.Path
	if path == "" {
		path = tokenstore.DefaultPath()
	}
	return tokenstore.NewFile(path, c.log), func() {}, nil
}

func activeOrg(s *session) (domain.Organization, error) {
	o, ok := s.Organizations.Active()
	if !ok {
		return domain.Organization{}, domerrors.ErrNoActiveOrganization
	}
	return o, nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, arg)
	}
	return id, nil
}
