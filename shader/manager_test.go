package shader_test

import (
	"strings"
	"testing"

	"github.com/richinsley/gooverlay/gles/glfake"
	"github.com/richinsley/gooverlay/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstalled(t *testing.T) (*glfake.GL, *shader.Manager) {
	t.Helper()
	api := glfake.New()
	m := shader.NewManager(api, nil, shader.Required())
	d := shader.DialectGLES2
	require.NoError(t, m.Install(d.VertexSource(), d.FragmentSource()))
	return api, m
}

func TestSwapFragmentReplacesProgram(t *testing.T) {
	api, m := newInstalled(t)
	old := m.Program().Handle

	// same bindings, straight pass-through of the overlay
	src := strings.Replace(shader.DialectGLES2.FragmentSource(), "alpha = 1.0 - colorSample2.a;", "alpha = 0.0;", 1)
	require.NoError(t, m.SwapFragment(src))

	assert.NotEqual(t, old, m.Program().Handle)
	assert.Equal(t, src, m.Program().FragmentSource)
	assert.Equal(t, 1, api.LivePrograms())
}

func TestSwapFragmentRollsBackOnCompileError(t *testing.T) {
	api, m := newInstalled(t)
	before := m.Program()

	err := m.SwapFragment("void main() {")
	var ce *shader.CompileError
	require.ErrorAs(t, err, &ce)

	assert.Same(t, before, m.Program())
	assert.NotZero(t, m.Program().Handle)
	assert.Equal(t, 1, api.LivePrograms())
}

func TestSwapFragmentRollsBackOnMissingSampler(t *testing.T) {
	_, m := newInstalled(t)
	before := m.Program().Handle

	src := "precision mediump float;\nvarying vec2 vTextureCoord;\nvoid main() {\n  gl_FragColor = vec4(vTextureCoord, 0.0, 1.0);\n}\n"
	err := m.SwapFragment(src)
	var re *shader.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, before, m.Program().Handle)
}

func TestSwapBeforeInstall(t *testing.T) {
	m := shader.NewManager(glfake.New(), nil, shader.Required())
	assert.ErrorIs(t, m.SwapFragment(shader.DialectGLES2.FragmentSource()), shader.ErrNoProgram)
}

func TestDestroy(t *testing.T) {
	api, m := newInstalled(t)
	m.Destroy()
	assert.Nil(t, m.Program())
	assert.Equal(t, 0, api.LivePrograms())
}
