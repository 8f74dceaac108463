package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rowset/pkg/auth"
	"github.com/mesh-intelligence/rowset/pkg/credential"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	t.Setenv("ROWSET_TOKEN_SECRET", "")
	return cliEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
}

// exec runs one rowset invocation and returns stdout and the exit code.
func (e cliEnv) exec(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := run(root, full, &stderr)
	if code != exitSuccess {
		t.Logf("rowset %s: %s", strings.Join(args, " "), stderr.String())
	}
	return stdout.String(), code
}

func (e cliEnv) record(t *testing.T, args ...string) types.Record {
	t.Helper()
	out, code := e.exec(t, args...)
	require.Equal(t, exitSuccess, code)
	var rec types.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec), out)
	return rec
}

func (e cliEnv) records(t *testing.T, args ...string) []types.Record {
	t.Helper()
	out, code := e.exec(t, args...)
	require.Equal(t, exitSuccess, code)
	var recs []types.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs), out)
	return recs
}

func TestVersion(t *testing.T) {
	env := newCLIEnv(t)
	out, code := env.exec(t, "version")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "rowset v")
	assert.Contains(t, out, modulePath)
}

func TestInitWritesConfigAndSchema(t *testing.T) {
	env := newCLIEnv(t)
	out, code := env.exec(t, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "initialized successfully")
	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.configDir, defaultSchemaFile))

	// A second init keeps the existing files.
	custom := []byte("backend: bson\nschema_file: schema.yaml\n")
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), custom, 0o644))
	_, code = env.exec(t, "init")
	require.Equal(t, exitSuccess, code)
	got, err := os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, custom, got)
	assert.FileExists(t, filepath.Join(env.dataDir, "workbook.bson"))
}

func TestMissingSchemaIsUserError(t *testing.T) {
	env := newCLIEnv(t)
	_, code := env.exec(t, "entities")
	assert.Equal(t, exitUserError, code)
}

func TestRecordLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	_, code := env.exec(t, "init")
	require.Equal(t, exitSuccess, code)

	var infos []entityInfo
	out, code := env.exec(t, "entities")
	require.Equal(t, exitSuccess, code)
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "Users", infos[0].Name)
	assert.Equal(t, []string{"id", "email", "password", "token"}, infos[0].Columns)
	assert.Zero(t, infos[0].Count)

	user := env.record(t, "insert", "Users", `{"email":"ann@example.com","password":"pw"}`, "--hash", "password")
	uid := user.ID()
	require.NotEmpty(t, uid)
	assert.Equal(t, credential.SHA256Hasher{}.Hash("pw"), user["password"])

	_, code = env.exec(t, "insert", "Users", `{"email":"not-an-email","password":"pw"}`)
	assert.Equal(t, exitUserError, code)
	_, code = env.exec(t, "insert", "Users", `{"email":"ann@example.com","password":"pw"}`)
	assert.Equal(t, exitUserError, code, "duplicate email")
	_, code = env.exec(t, "insert", "Users", `not json`)
	assert.Equal(t, exitUserError, code)

	post := env.record(t, "insert", "Posts", fmt.Sprintf(`{"userId":%q,"title":"hello"}`, uid))
	pid := post.ID()

	got := env.record(t, "get", "Users", uid, "--depth", "1")
	posts, ok := got["posts"].([]any)
	require.True(t, ok, "posts attached at depth 1")
	assert.Len(t, posts, 1)

	assert.Len(t, env.records(t, "list", "Posts", "userId="+uid), 1)
	assert.Empty(t, env.records(t, "list", "Posts", "title=nope"))
	_, code = env.exec(t, "list", "Posts", "broken")
	assert.Equal(t, exitUserError, code)

	updated := env.record(t, "update", "Posts", pid, `{"title":"changed"}`)
	assert.Equal(t, "changed", updated["title"])
	assert.Equal(t, uid, updated["userId"])

	out, code = env.exec(t, "delete", "Users", uid)
	require.Equal(t, exitSuccess, code)
	var res types.RemoveResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []types.RemovedRecord{
		{Entity: "Posts", ID: pid},
		{Entity: "Users", ID: uid},
	}, res.Removed)

	_, code = env.exec(t, "get", "Users", uid)
	assert.Equal(t, exitUserError, code)
	assert.Empty(t, env.records(t, "list", "Posts"))
}

func TestUpdateHashesOnlyPatchedFields(t *testing.T) {
	env := newCLIEnv(t)
	_, code := env.exec(t, "init")
	require.Equal(t, exitSuccess, code)
	hasher := credential.SHA256Hasher{}

	uid := env.record(t, "insert", "Users", `{"email":"ann@example.com","password":"pw"}`, "--hash", "password").ID()

	got := env.record(t, "update", "Users", uid, `{"email":"anne@example.com"}`, "--hash", "password")
	assert.Equal(t, "anne@example.com", got["email"])
	assert.Equal(t, hasher.Hash("pw"), got["password"], "stored digest is not hashed again")

	got = env.record(t, "update", "Users", uid, `{"password":"pw2"}`, "--hash", "password")
	assert.Equal(t, hasher.Hash("pw2"), got["password"])
}

func TestPatchedFields(t *testing.T) {
	tests := []struct {
		name  string
		patch types.Record
		hash  []string
		want  []string
	}{
		{"no hash columns", types.Record{"password": "x"}, nil, nil},
		{"column in patch", types.Record{"password": "x"}, []string{"password"}, []string{"password"}},
		{"column not in patch", types.Record{"email": "a@b.c"}, []string{"password"}, nil},
		{"mixed", types.Record{"pin": "1"}, []string{"password", "pin"}, []string{"pin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, patchedFields(tt.patch, tt.hash))
		})
	}
}

func TestClear(t *testing.T) {
	env := newCLIEnv(t)
	_, code := env.exec(t, "init")
	require.Equal(t, exitSuccess, code)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		env.record(t, "insert", "Users", fmt.Sprintf(`{"email":%q,"password":"pw"}`, email))
	}
	_, code = env.exec(t, "clear", "Users")
	require.Equal(t, exitSuccess, code)
	assert.Empty(t, env.records(t, "list", "Users"))
}

func TestTokens(t *testing.T) {
	env := newCLIEnv(t)
	_, code := env.exec(t, "init")
	require.Equal(t, exitSuccess, code)
	uid := env.record(t, "insert", "Users", `{"email":"ann@example.com","password":"pw"}`).ID()

	_, code = env.exec(t, "token", "issue", uid)
	assert.Equal(t, exitUserError, code, "no secret configured")

	t.Setenv("ROWSET_TOKEN_SECRET", "s3cret")
	out, code := env.exec(t, "token", "issue", uid)
	require.Equal(t, exitSuccess, code)
	token := strings.TrimSpace(out)
	assert.Len(t, strings.Split(token, "."), 3)

	user := env.record(t, "token", "verify", token)
	assert.Equal(t, uid, user.ID())
	assert.Equal(t, token, user[auth.TokenColumn])

	_, code = env.exec(t, "token", "verify", "a.b.c")
	assert.Equal(t, exitUserError, code)
	_, code = env.exec(t, "token", "issue", "no-such-user")
	assert.Equal(t, exitUserError, code)
}

func TestUsageErrors(t *testing.T) {
	env := newCLIEnv(t)
	_, code := env.exec(t, "init")
	require.Equal(t, exitSuccess, code)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown entity", []string{"list", "Nope"}},
		{"missing argument", []string{"get", "Users"}},
		{"unknown flag", []string{"list", "Users", "--nope"}},
		{"depth out of range", []string{"list", "Users", "--depth", "99"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := env.exec(t, tt.args...)
			assert.Equal(t, exitUserError, code)
		})
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{"none", nil, map[string]any{}, false},
		{"string", []string{"title=hello"}, map[string]any{"title": "hello"}, false},
		{"number", []string{"total=12"}, map[string]any{"total": float64(12)}, false},
		{"bool", []string{"done=true"}, map[string]any{"done": true}, false},
		{"value with equals", []string{"q=a=b"}, map[string]any{"q": "a=b"}, false},
		{"missing equals", []string{"title"}, nil, true},
		{"empty key", []string{"=x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterValueMatches(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	tests := []struct {
		name string
		got  any
		want any
		ok   bool
	}{
		{"same string", "a", "a", true},
		{"different string", "a", "b", false},
		{"int against float", int64(7), float64(7), true},
		{"number text", float64(7), "7", true},
		{"time as RFC3339", ts, "2024-02-03T04:05:06Z", true},
		{"null matches empty", "", nil, true},
		{"null against value", "x", nil, false},
		{"missing cell", nil, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, filterValueMatches(tt.got, tt.want))
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", classify(fmt.Errorf("insert: %w", types.ErrValidation)), exitUserError},
		{"unauthenticated", classify(auth.ErrUnauthenticated), exitUserError},
		{"store failure", classify(errors.New("disk full")), exitSysError},
		{"explicit system", sysError(types.ErrNotFound), exitSysError},
		{"cobra error", errors.New("unknown flag"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
	assert.NoError(t, classify(nil))
}

func TestHasher(t *testing.T) {
	tests := []struct {
		name    string
		hash    string
		salt    string
		want    credential.Hasher
		wantErr bool
	}{
		{"default", "", "", credential.SHA256Hasher{}, false},
		{"sha256", "sha256", "", credential.SHA256Hasher{}, false},
		{"argon2", "argon2", "pepper", credential.NewArgon2Hasher([]byte("pepper")), false},
		{"argon2 without salt", "argon2", "", nil, true},
		{"unknown", "md5", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(cfgKeyHash, tt.hash)
			v.Set(cfgKeyHashSalt, tt.salt)
			got, err := (&app{cfg: v}).hasher()
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
