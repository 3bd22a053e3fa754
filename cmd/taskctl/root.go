package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Rishi-0007/tm-assignment/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServer = "http://localhost:5000"

// app carries what every command needs once flags are parsed.
type app struct {
	in       *bufio.Reader
	out      io.Writer
	stdinTTY bool
	settings *viper.Viper

	store   *client.SQLiteStore
	session *client.Session
	api     *client.Client
}

// run executes the command line and returns the process exit code.
func run(args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{
		in:       bufio.NewReader(in),
		out:      out,
		stdinTTY: isTerminal(in),
		settings: viper.New(),
	}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(context.Background())
	if a.store != nil {
		_ = a.store.Close()
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, client.ErrSessionExpired):
		fmt.Fprintln(errOut, "session expired, please log in again")
	default:
		fmt.Fprintln(errOut, "error:", err)
	}
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage your tasks from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("server", defaultServer, "API base URL (env TASKCTL_SERVER)")
	flags.String("session", defaultSessionPath(), "session database file (env TASKCTL_SESSION)")

	a.settings.SetEnvPrefix("TASKCTL")
	a.settings.AutomaticEnv()
	_ = a.settings.BindPFlag("server", flags.Lookup("server"))
	_ = a.settings.BindPFlag("session", flags.Lookup("session"))

	root.AddCommand(
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.tasksCommand(),
	)
	return root
}

// connect opens the persisted session and builds the API client.
func (a *app) connect(ctx context.Context) error {
	path := a.settings.GetString("session")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	store, err := client.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	a.store = store

	session, err := client.NewSession(ctx, store)
	if err != nil {
		return err
	}
	a.session = session
	a.api = client.New(a.settings.GetString("server"), session)
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskctl", "session.db")
	}
	return filepath.Join(home, ".taskctl", "session.db")
}
