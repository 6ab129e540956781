package installer

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSynthesizer(t *testing.T, dir string) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func testParams() interfaces.ScriptParams {
	return interfaces.ScriptParams{
		GitURL:       "https://git.example.com/acme/billing.git",
		EntityHash:   "entity-hash-acme",
		InstallHash:  "0123456789abcdef0123456789abcdef",
		InstallToken: "header.payload.signature",
		BaseURL:      "https://installer.example.com/",
	}
}

func TestRender_Content(t *testing.T) {
	script, err := newTestSynthesizer(t, t.TempDir()).Render(testParams())
	require.NoError(t, err)
	out := string(script)

	assert.Regexp(t, `^#!/bin/bash\n`, out)
	assert.Contains(t, out, "GIT_URL=https://git.example.com/acme/billing.git\n")
	assert.Contains(t, out, "ENTITY_HASH=entity-hash-acme\n")
	assert.Contains(t, out, "INSTALL_HASH=0123456789abcdef0123456789abcdef\n")
	assert.Contains(t, out, "INSTALL_TOKEN=header.payload.signature\n")
	assert.Contains(t, out, "REGISTER_URL=https://installer.example.com/installer/register\n")
	assert.Contains(t, out, `REPO_DIR=$(basename "${GIT_URL}" .git)`)
	assert.Contains(t, out, "> .env")
	assert.Contains(t, out, "./installdb.sh ||")

	// The registration body is valid JSON carrying the three fields.
	m := regexp.MustCompile(`-d '([^']*)'`).FindStringSubmatch(out)
	require.Len(t, m, 2)
	var body interfaces.Registration
	require.NoError(t, json.Unmarshal([]byte(m[1]), &body))
	assert.Equal(t, interfaces.Registration{
		InstallHash:  "0123456789abcdef0123456789abcdef",
		EntityHash:   "entity-hash-acme",
		InstallToken: "header.payload.signature",
	}, body)
}

func TestRender_StepsFailFast(t *testing.T) {
	script, err := newTestSynthesizer(t, t.TempDir()).Render(testParams())
	require.NoError(t, err)

	for _, cmd := range []string{"git clone", `cd "${REPO_DIR}"`, "> .env", "-d '", "./installdb.sh"} {
		line := regexp.MustCompile(`(?m)^.*` + regexp.QuoteMeta(cmd) + `.*$`).FindString(string(script))
		require.NotEmpty(t, line, cmd)
		assert.Contains(t, line, "|| { echo", cmd)
		assert.Contains(t, line, "exit 1; }", cmd)
	}
}

func TestRender_QuotesHostileValues(t *testing.T) {
	params := testParams()
	params.BaseURL = "https://x'; touch /tmp/pwned; echo '"

	script, err := newTestSynthesizer(t, t.TempDir()).Render(params)
	require.NoError(t, err)
	assert.Contains(t, string(script), `REGISTER_URL='https://x'\''; touch /tmp/pwned; echo '\''/installer/register'`)
}

func TestRender_RejectsValuesUnsafeForEnvFile(t *testing.T) {
	s := newTestSynthesizer(t, t.TempDir())

	for name, mutate := range map[string]func(*interfaces.ScriptParams){
		"entity hash with quote":   func(p *interfaces.ScriptParams) { p.EntityHash = "e'h" },
		"entity hash with space":   func(p *interfaces.ScriptParams) { p.EntityHash = "e h" },
		"entity hash with subst":   func(p *interfaces.ScriptParams) { p.EntityHash = "e$(x)" },
		"entity hash with newline": func(p *interfaces.ScriptParams) { p.EntityHash = "eh\nEVIL=1" },
		"install hash with space":  func(p *interfaces.ScriptParams) { p.InstallHash = "ab cd" },
		"token with quote":         func(p *interfaces.ScriptParams) { p.InstallToken = "a.b'.c" },
	} {
		t.Run(name, func(t *testing.T) {
			p := testParams()
			mutate(&p)
			_, err := s.Render(p)
			assert.ErrorIs(t, err, interfaces.ErrRender)
		})
	}

	p := testParams()
	p.EntityHash = "e h"
	_, err := s.Render(p)
	assert.ErrorIs(t, err, interfaces.ErrInvalidEntityHash)
}

func TestRender_Errors(t *testing.T) {
	s := newTestSynthesizer(t, t.TempDir())

	for name, mutate := range map[string]func(*interfaces.ScriptParams){
		"bad git url": func(p *interfaces.ScriptParams) { p.GitURL = "file:///etc" },
		"no entity":   func(p *interfaces.ScriptParams) { p.EntityHash = "" },
		"no token":    func(p *interfaces.ScriptParams) { p.InstallToken = "" },
		"no hash":     func(p *interfaces.ScriptParams) { p.InstallHash = "" },
		"no base url": func(p *interfaces.ScriptParams) { p.BaseURL = "" },
	} {
		t.Run(name, func(t *testing.T) {
			p := testParams()
			mutate(&p)
			_, err := s.Render(p)
			assert.ErrorIs(t, err, interfaces.ErrRender)
		})
	}
}

func TestStage(t *testing.T) {
	dir := t.TempDir()
	s := newTestSynthesizer(t, dir)

	first, err := s.Stage([]byte("#!/bin/bash\necho one\n"))
	require.NoError(t, err)
	second, err := s.Stage([]byte("#!/bin/bash\necho two\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].Name(), entries[1].Name())

	info, err := os.Stat(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	rd, err := first.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rd)
	require.NoError(t, err)
	require.NoError(t, rd.Close())
	assert.Equal(t, "#!/bin/bash\necho one\n", string(data))
	assert.Equal(t, int64(len(data)), first.Size())

	require.NoError(t, first.Remove())
	require.NoError(t, second.Remove())
	require.NoError(t, second.Remove())

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = first.Open()
	assert.ErrorIs(t, err, interfaces.ErrScriptStream)
}

func TestStage_WriteFailure(t *testing.T) {
	s := newTestSynthesizer(t, filepath.Join(t.TempDir(), "missing"))
	_, err := s.Stage([]byte("echo"))
	assert.ErrorIs(t, err, interfaces.ErrScriptWrite)
}
