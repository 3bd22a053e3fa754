package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	taskdomain "github.com/Rishi-0007/tm-assignment/domain/task"
	userdomain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/Rishi-0007/tm-assignment/internal/database"
	"github.com/Rishi-0007/tm-assignment/modules/api"
	"github.com/Rishi-0007/tm-assignment/modules/auth"
	"github.com/Rishi-0007/tm-assignment/modules/task"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t       *testing.T
	server  string
	session string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	db, err := database.Open(database.MemoryPath, false, &userdomain.User{}, &taskdomain.Task{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  "cli-test-access-secret-0123456789abcdefgh",
		RefreshSecret: "cli-test-refresh-secret-0123456789abcdefg",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "taskmanager",
	})
	srv := httptest.NewServer(adaptor.FiberApp(api.NewRouter(api.RouterConfig{
		Auth:     auth.NewService(auth.NewUserRepository(db), auth.NewPasswordHasher(), tokens),
		Tasks:    task.NewService(task.NewRepository(db)),
		Verifier: tokens,
	})))
	t.Cleanup(srv.Close)

	return &cli{
		t:       t,
		server:  srv.URL,
		session: filepath.Join(t.TempDir(), "nested", "session.db"),
	}
}

// exec runs taskctl with stdin and returns the exit code, stdout and stderr.
func (c *cli) exec(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--server", c.server, "--session", c.session}, args...)
	code := run(full, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSessionLifecycle(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.exec("", "register", "--email", "cli@example.com", "--password", "password123", "--name", "Cli User")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Account created")

	code, out, _ = c.exec("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Not logged in")

	// Password read from stdin when it is not a terminal.
	code, out, errOut = c.exec("password123\n", "login", "--email", "cli@example.com")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Logged in as Cli User <cli@example.com>")

	code, out, _ = c.exec("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Cli User <cli@example.com>")

	code, out, _ = c.exec("", "whoami", "--remote")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "cli@example.com")

	code, out, errOut = c.exec("", "tasks", "add", "Water the plants", "--description", "both balconies")
	require.Equal(t, 0, code, errOut)
	id := regexp.MustCompile(`Created (\S+)`).FindStringSubmatch(out)
	require.Len(t, id, 2)

	code, out, _ = c.exec("", "tasks", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Water the plants")
	assert.Contains(t, out, "pending")

	code, out, _ = c.exec("", "tasks", "toggle", id[1])
	require.Equal(t, 0, code)
	assert.Contains(t, out, "completed")

	code, out, _ = c.exec("", "tasks", "edit", id[1], "--title", "Water all plants")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Water all plants")

	code, _, errOut = c.exec("", "tasks", "edit", id[1])
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "nothing to change")

	code, out, _ = c.exec("", "tasks", "show", id[1])
	require.Equal(t, 0, code)
	assert.Contains(t, out, "both balconies")

	code, _, _ = c.exec("", "tasks", "rm", id[1])
	require.Equal(t, 0, code)

	code, _, errOut = c.exec("", "tasks", "show", id[1])
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "404")

	code, out, _ = c.exec("", "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged out")

	code, _, errOut = c.exec("", "tasks", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "session expired, please log in again")
}

func TestLoginFailure(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.exec("", "login", "--email", "nobody@example.com", "--password", "password123")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid credentials")
}

func TestServerFromEnvironment(t *testing.T) {
	c := newCLI(t)
	t.Setenv("TASKCTL_SERVER", c.server)

	var out, errOut bytes.Buffer
	code := run([]string{"--session", c.session, "register", "--email", "env@example.com", "--password", "password123"},
		strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Account created")
}
