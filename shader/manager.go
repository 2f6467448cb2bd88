package shader

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/richinsley/gooverlay/gles"
)

// ErrNoProgram is returned by SwapFragment before anything was installed.
var ErrNoProgram = errors.New("shader: no program installed")

// Manager owns the installed program and replaces it without ever leaving
// the caller with nothing to draw with.
type Manager struct {
	api        gles.API
	translator Translator
	required   Requirements
	program    *Program
}

// NewManager returns a manager with no program installed.
func NewManager(api gles.API, tr Translator, req Requirements) *Manager {
	return &Manager{api: api, translator: tr, required: req}
}

// Program returns the installed program, or nil before the first Install.
func (m *Manager) Program() *Program {
	return m.program
}

// Install builds a program from both stages and installs it. The incumbent,
// if any, is destroyed only after the replacement is fully resolved; on error
// it stays installed.
func (m *Manager) Install(vertexSource, fragmentSource string) error {
	p, err := NewProgram(m.api, m.translator, m.required, vertexSource, fragmentSource)
	if err != nil {
		return err
	}
	if m.program != nil {
		m.program.Destroy(m.api)
	}
	m.program = p
	log.Debugf("installed shader program %d", p.Handle)
	return nil
}

// SwapFragment rebuilds the installed program with a new fragment stage and
// the current vertex stage.
func (m *Manager) SwapFragment(fragmentSource string) error {
	if m.program == nil {
		return ErrNoProgram
	}
	if err := m.Install(m.program.VertexSource, fragmentSource); err != nil {
		var glErr *gles.Error
		if !errors.As(err, &glErr) {
			log.Warn("fragment shader replacement rejected, keeping previous program", "err", err)
		}
		return err
	}
	return nil
}

// Destroy deletes the installed program.
func (m *Manager) Destroy() {
	if m.program != nil {
		m.program.Destroy(m.api)
		m.program = nil
	}
}
