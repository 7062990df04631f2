package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		switch {
		case creds.Password != "secret":
			w.WriteHeader(http.StatusUnauthorized)
		case creds.Username == "pending":
			w.Header().Set("Host", "77")
			w.WriteHeader(http.StatusAccepted)
		default:
			w.Header().Set("Authorization", "tok-5")
			w.Header().Set("Host", "5")
			w.Header().Set("Allow", "USER")
		}
	})
	mux.HandleFunc("PUT /verify/{id}", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if r.PathValue("id") != "77" || string(b) != "123456" {
			w.WriteHeader(http.StatusConflict)
		}
	})
	mux.HandleFunc("GET /getavatar/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "https://cdn.example/5.png")
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"categoryId":1,"name":"Science"},{"categoryId":2,"name":"History"}]`)
	})
	mux.HandleFunc("GET /usersauth/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	srv := newBackend(t)
	return &cli{t: t, base: []string{
		"--api-url", srv.URL,
		"--store", "sqlite",
		"--store-path", filepath.Join(t.TempDir(), "session.db"),
		"--log-level", "error",
	}}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append(args, c.base...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (c *cli) status() statusView {
	c.t.Helper()
	out, _, err := c.run("status", "--json")
	require.NoError(c.t, err)
	var view statusView
	require.NoError(c.t, json.Unmarshal([]byte(out), &view))
	return view
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("login", "alice", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice")

	view := c.status()
	assert.Equal(t, "authenticated", view.State)
	assert.Equal(t, "5", view.UserID)
	assert.Equal(t, "USER", view.Role)
	assert.Equal(t, "https://cdn.example/5.png", view.Avatar)

	out, _, err = c.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.Equal(t, "anonymous", c.status().State)
}

func TestLoginPasswordFromEnv(t *testing.T) {
	c := newCLI(t)
	t.Setenv("QUIZCTL_PASSWORD", "secret")

	_, _, err := c.run("login", "alice")
	require.NoError(t, err)
	assert.Equal(t, "authenticated", c.status().State)
}

func TestLoginWrongPassword(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("login", "alice", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect credentials")
	assert.Equal(t, "anonymous", c.status().State)
}

func TestVerificationFlow(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("login", "pending", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "verification code")

	view := c.status()
	assert.Equal(t, "pending_verification", view.State)
	assert.Equal(t, "77", view.PendingID)

	_, _, err = c.run("verify", "000000")
	require.Error(t, err)
	assert.Equal(t, "pending_verification", c.status().State)

	out, _, err = c.run("verify", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Verification went well")
	assert.Equal(t, "anonymous", c.status().State)
}

func TestCategoriesTable(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("categories")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Science")
	assert.Contains(t, out, "History")
}

func TestRejectedSessionIsForgotten(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("login", "alice", "--password", "secret")
	require.NoError(t, err)

	_, errOut, err := c.run("leaderboard")
	require.Error(t, err)
	assert.Contains(t, errOut, "Please re-login to prove your identity")
	assert.Equal(t, "anonymous", c.status().State)
}

func TestUnknownStore(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"status", "--store", "floppy"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
