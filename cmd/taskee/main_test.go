package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/devserver"
)

func setupEnv(t *testing.T) {
	t.Helper()
	s, err := devserver.New(devserver.Config{JWTSecret: "cli-secret", Log: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TASKEE_API_BASE_URL", srv.URL)
	t.Setenv("TASKEE_TOKEN_STORE", "file")
	t.Setenv("TASKEE_TOKEN_FILE", filepath.Join(t.TempDir(), "authToken"))
	t.Setenv("TASKEE_SEARCH_DEBOUNCE", "10ms")
	t.Setenv("TASKEE_LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out)
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("taskee %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestCLIWorkflow(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "", "register",
		"--email", "ada@example.com", "--username", "ada",
		"--first-name", "Ada", "--last-name", "Lovelace",
		"--password", "password123", "--confirm-password", "password123")
	if !strings.Contains(out, "registered ada") {
		t.Errorf("register output = %q", out)
	}

	out = mustRun(t, "password123\n", "login", "-u", "ada", "--password-stdin")
	if !strings.Contains(out, "logged in as ada") {
		t.Errorf("login output = %q", out)
	}

	out = mustRun(t, "", "whoami", "-o", "yaml")
	if !strings.Contains(out, "username: ada") {
		t.Errorf("whoami output = %q", out)
	}

	out = mustRun(t, "", "orgs", "create", "Acme", "-d", "rockets")
	if !strings.Contains(out, "created organization Acme") {
		t.Errorf("orgs create output = %q", out)
	}

	out = mustRun(t, "", "tasks", "create", "Write spec", "-d", "first draft", "-p", "high")
	if !strings.Contains(out, "Write spec [in_progress, high]") {
		t.Errorf("tasks create output = %q", out)
	}

	out = mustRun(t, "", "tasks", "board", "-o", "yaml")
	for _, want := range []string{"status: in_progress", "name: Write spec", "priority: high"} {
		if !strings.Contains(out, want) {
			t.Errorf("board output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "wri\nwrite\n", "tasks", "search")
	if !strings.Contains(out, `search "write": 1 task(s)`) {
		t.Errorf("search output = %q", out)
	}

	out = mustRun(t, "", "orgs", "list")
	if !strings.Contains(out, "*") || !strings.Contains(out, "Acme") {
		t.Errorf("orgs list output = %q", out)
	}

	mustRun(t, "", "logout")
	if _, err := run(t, "", "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Errorf("whoami after logout: %v", err)
	}
}

func TestCLIRejectsBadInput(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "", "whoami", "-o", "json"); err == nil {
		t.Error("unknown output format accepted")
	}
	if _, err := run(t, "", "tasks", "delete", "abc"); err == nil {
		t.Error("bad task id accepted")
	}
	if _, err := run(t, "", "login", "-u", "nobody", "-p", "wrongpass"); err == nil {
		t.Error("bad credentials accepted")
	}
}
