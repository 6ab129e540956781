package interfaces

import (
	"io"
	"strings"
)

// RegisterPath is the route the provisioning script calls back.
const RegisterPath = "/installer/register"

// ScriptParams are the values bound into a provisioning script.
type ScriptParams struct {
	GitURL       string
	EntityHash   string
	InstallHash  string
	InstallToken string
	// BaseURL is the externally reachable origin of this service.
	BaseURL string
}

// RegisterURL is the absolute registration callback target.
func (p ScriptParams) RegisterURL() string {
	return strings.TrimRight(p.BaseURL, "/") + RegisterPath
}

// ScriptSynthesizer renders provisioning scripts and stages them for delivery.
type ScriptSynthesizer interface {
	// Render returns the script bytes. Failures wrap ErrRender.
	Render(params ScriptParams) ([]byte, error)

	// Stage writes script to a private executable file. Failures wrap ErrScriptWrite.
	Stage(script []byte) (StagedScript, error)
}

// StagedScript is a rendered script written out for one request.
type StagedScript interface {
	// Open returns a reader over the staged file. Failures wrap ErrScriptStream.
	Open() (io.ReadCloser, error)

	// Size is the file size in bytes.
	Size() int64

	// Remove deletes the staged file.
	Remove() error
}
