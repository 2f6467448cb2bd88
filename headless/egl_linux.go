//go:build linux

package headless

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/richinsley/gooverlay/graphics"
)

/*
#cgo LDFLAGS: -lEGL -lGLESv2
#include <EGL/egl.h>
#include <EGL/eglext.h>

static PFNEGLQUERYDEVICESEXTPROC queryDevices;
static PFNEGLGETPLATFORMDISPLAYEXTPROC platformDisplay;

static void load_device_ext(void) {
    queryDevices = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    platformDisplay = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
}

static EGLint device_count(EGLDeviceEXT *devices, EGLint max) {
    EGLint n = 0;
    if (!queryDevices || !queryDevices(max, devices, &n)) {
        return 0;
    }
    return n;
}

static EGLDisplay device_display(EGLDeviceEXT device) {
    if (!platformDisplay) {
        return EGL_NO_DISPLAY;
    }
    return platformDisplay(EGL_PLATFORM_DEVICE_EXT, device, NULL);
}
*/
import "C"

const maxDevices = 8

// Context is an OpenGL ES 3 context on a pbuffer surface. Nothing is ever
// shown; output is read back from an offscreen target.
type Context struct {
	display C.EGLDisplay
	context C.EGLContext
	surface C.EGLSurface
	width   int
	height  int
	start   time.Time
}

var _ graphics.Context = (*Context)(nil)

// openDisplay picks the first GPU device with a display, which works without
// an X server, and falls back to the default display.
func openDisplay() (C.EGLDisplay, error) {
	C.load_device_ext()

	var devices [maxDevices]C.EGLDeviceEXT
	n := int(C.device_count(&devices[0], maxDevices))
	log.Debug("EGL devices", "count", n)
	for i := 0; i < n; i++ {
		if d := C.device_display(devices[i]); d != C.EGLDisplay(C.EGL_NO_DISPLAY) {
			log.Debug("using EGL device display", "device", i)
			return d, nil
		}
	}

	log.Warn("no EGL device display, using EGL_DEFAULT_DISPLAY")
	d := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
	if d == C.EGLDisplay(C.EGL_NO_DISPLAY) {
		return d, errors.New("no EGL display available")
	}
	return d, nil
}

var configAttribs = []C.EGLint{
	C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
	C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_ES3_BIT,
	C.EGL_RED_SIZE, 8,
	C.EGL_GREEN_SIZE, 8,
	C.EGL_BLUE_SIZE, 8,
	C.EGL_ALPHA_SIZE, 8,
	C.EGL_DEPTH_SIZE, 24,
	C.EGL_NONE,
}

// New creates a width x height pbuffer context and makes it current on the
// calling thread.
func New(width, height int) (_ *Context, err error) {
	h := &Context{width: width, height: height}
	if h.display, err = openDisplay(); err != nil {
		return nil, err
	}
	var major, minor C.EGLint
	if C.eglInitialize(h.display, &major, &minor) == C.EGL_FALSE {
		return nil, errors.New("eglInitialize failed")
	}
	defer func() {
		if err != nil {
			h.Shutdown()
		}
	}()

	var config C.EGLConfig
	var n C.EGLint
	if C.eglChooseConfig(h.display, &configAttribs[0], &config, 1, &n) == C.EGL_FALSE || n == 0 {
		return nil, errors.New("no RGBA8 pbuffer config with GLES 3 support")
	}

	surfaceAttribs := []C.EGLint{C.EGL_WIDTH, C.EGLint(width), C.EGL_HEIGHT, C.EGLint(height), C.EGL_NONE}
	if h.surface = C.eglCreatePbufferSurface(h.display, config, &surfaceAttribs[0]); h.surface == C.EGLSurface(C.EGL_NO_SURFACE) {
		return nil, fmt.Errorf("eglCreatePbufferSurface %dx%d failed", width, height)
	}

	contextAttribs := []C.EGLint{C.EGL_CONTEXT_CLIENT_VERSION, 3, C.EGL_NONE}
	if h.context = C.eglCreateContext(h.display, config, C.EGLContext(C.EGL_NO_CONTEXT), &contextAttribs[0]); h.context == C.EGLContext(C.EGL_NO_CONTEXT) {
		return nil, errors.New("eglCreateContext failed")
	}
	if C.eglMakeCurrent(h.display, h.surface, h.surface, h.context) == C.EGL_FALSE {
		return nil, errors.New("eglMakeCurrent failed")
	}

	h.start = time.Now()
	log.Info("EGL context ready", "version", fmt.Sprintf("%d.%d", major, minor), "width", width, "height", height)
	return h, nil
}

func (h *Context) MakeCurrent() {
	C.eglMakeCurrent(h.display, h.surface, h.surface, h.context)
}

// Shutdown releases the context, the surface and the display connection.
func (h *Context) Shutdown() {
	if h.display == C.EGLDisplay(C.EGL_NO_DISPLAY) {
		return
	}
	none := C.EGLSurface(C.EGL_NO_SURFACE)
	C.eglMakeCurrent(h.display, none, none, C.EGLContext(C.EGL_NO_CONTEXT))
	if h.context != C.EGLContext(C.EGL_NO_CONTEXT) {
		C.eglDestroyContext(h.display, h.context)
	}
	if h.surface != none {
		C.eglDestroySurface(h.display, h.surface)
	}
	C.eglTerminate(h.display)
	h.display = C.EGLDisplay(C.EGL_NO_DISPLAY)
}

// ShouldClose is always false; the render loop ends with its input.
func (h *Context) ShouldClose() bool {
	return false
}

func (h *Context) EndFrame() {
	C.eglSwapBuffers(h.display, h.surface)
}

func (h *Context) GetFramebufferSize() (int, int) {
	return h.width, h.height
}

func (h *Context) Time() float64 {
	return time.Since(h.start).Seconds()
}
