// Package installer renders the provisioning script handed to a host and
// stages it on disk for delivery.
//
// The script clones the application repository, writes a .env file holding
// the install hash, entity hash and installation token, calls the
// registration endpoint and runs ./installdb.sh. Every interpolated value is
// shell quoted and every external command aborts the script on failure.
package installer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/google/uuid"
	"github.com/ruteri/installer-provisioning-backend/interfaces"
)

//go:embed installer.sh.tmpl
var scriptTemplate string

// envSafePattern covers hex hashes and compact JWTs.
var envSafePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ScriptFilename is the attachment name of a delivered script.
const ScriptFilename = "installer.sh"

// scriptView is the template input.
type scriptView struct {
	interfaces.ScriptParams
	RegistrationBody string
}

// Synthesizer implements interfaces.ScriptSynthesizer.
type Synthesizer struct {
	tmpl    *template.Template
	tempDir string
	log     *slog.Logger
}

// NewSynthesizer creates a synthesizer staging scripts in tempDir, or in
// os.TempDir() when tempDir is empty.
func NewSynthesizer(tempDir string, log *slog.Logger) (*Synthesizer, error) {
	tmpl, err := template.New(ScriptFilename).
		Funcs(template.FuncMap{"shq": shellQuote}).
		Option("missingkey=error").
		Parse(scriptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse script template: %w", err)
	}

	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Synthesizer{tmpl: tmpl, tempDir: tempDir, log: log}, nil
}

// Render produces the provisioning script for params.
func (s *Synthesizer) Render(params interfaces.ScriptParams) ([]byte, error) {
	switch {
	case params.EntityHash == "":
		return nil, fmt.Errorf("%w: empty entity hash", interfaces.ErrRender)
	case params.InstallHash == "":
		return nil, fmt.Errorf("%w: empty install hash", interfaces.ErrRender)
	case params.InstallToken == "":
		return nil, fmt.Errorf("%w: empty installation token", interfaces.ErrRender)
	case params.BaseURL == "":
		return nil, fmt.Errorf("%w: empty base url", interfaces.ErrRender)
	}
	if err := ValidateGitURL(params.GitURL); err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrRender, err)
	}
	// These three end up unquoted in .env.
	if err := interfaces.ValidateEntityHash(params.EntityHash); err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrRender, err)
	}
	if !envSafePattern.MatchString(params.InstallHash) {
		return nil, fmt.Errorf("%w: install hash %q has unsafe characters", interfaces.ErrRender, params.InstallHash)
	}
	if !envSafePattern.MatchString(params.InstallToken) {
		return nil, fmt.Errorf("%w: installation token has unsafe characters", interfaces.ErrRender)
	}

	body, err := json.Marshal(interfaces.Registration{
		InstallHash:  params.InstallHash,
		EntityHash:   params.EntityHash,
		InstallToken: params.InstallToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrRender, err)
	}

	var buf bytes.Buffer
	err = s.tmpl.Execute(&buf, scriptView{
		ScriptParams:     params,
		RegistrationBody: string(body),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Stage writes script to a new executable file with a unique name. The
// caller owns the file and must call Remove.
func (s *Synthesizer) Stage(script []byte) (interfaces.StagedScript, error) {
	path := filepath.Join(s.tempDir, fmt.Sprintf("installer-%s.sh", uuid.NewString()))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0700)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrScriptWrite, err)
	}

	staged := &stagedFile{path: path, size: int64(len(script)), log: s.log}
	if _, err := f.Write(script); err != nil {
		f.Close()
		_ = staged.Remove()
		return nil, fmt.Errorf("%w: %w", interfaces.ErrScriptWrite, err)
	}
	if err := f.Chmod(0755); err != nil {
		f.Close()
		_ = staged.Remove()
		return nil, fmt.Errorf("%w: %w", interfaces.ErrScriptWrite, err)
	}
	if err := f.Close(); err != nil {
		_ = staged.Remove()
		return nil, fmt.Errorf("%w: %w", interfaces.ErrScriptWrite, err)
	}
	return staged, nil
}

type stagedFile struct {
	path string
	size int64
	log  *slog.Logger
}

func (f *stagedFile) Open() (io.ReadCloser, error) {
	rd, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrScriptStream, err)
	}
	return rd, nil
}

func (f *stagedFile) Size() int64 {
	return f.size
}

func (f *stagedFile) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		f.log.Warn("Failed to remove staged script", slog.String("path", f.path), "err", err)
		return err
	}
	return nil
}
