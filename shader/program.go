package shader

import (
	"fmt"

	"github.com/richinsley/gooverlay/gles"
)

// Translator rewrites a stage's source for the running context and reports
// the name each original identifier was mapped to.
type Translator interface {
	Translate(source string, stage Stage) (code string, names map[string]string, err error)
}

// Locations maps required names to their resolved slots.
type Locations struct {
	Attributes map[string]uint32
	Uniforms   map[string]int32
}

// Program is a linked program whose every required binding has been found.
// A Program value is never handed out half-built.
type Program struct {
	VertexSource   string
	FragmentSource string
	Handle         uint32
	Locations
}

// Attrib returns the resolved slot of a required attribute.
func (p *Program) Attrib(name string) uint32 {
	return p.Attributes[name]
}

// Uniform returns the resolved location of a required uniform.
func (p *Program) Uniform(name string) int32 {
	loc, ok := p.Uniforms[name]
	if !ok {
		return -1
	}
	return loc
}

// Destroy deletes the GL program object.
func (p *Program) Destroy(api gles.API) {
	if p.Handle != 0 {
		api.DeleteProgram(p.Handle)
		p.Handle = 0
	}
}

// Compile compiles one stage. On failure the shader object is deleted and a
// *CompileError carrying the compiler log is returned.
func Compile(api gles.API, stage Stage, source string) (uint32, error) {
	sh := api.CreateShader(uint32(stage))
	if err := gles.Check(api, fmt.Sprintf("glCreateShader type=%s", stage)); err != nil {
		if sh != 0 {
			api.DeleteShader(sh)
		}
		return 0, err
	}
	if sh == 0 {
		return 0, &CompileError{Stage: stage, Log: "glCreateShader returned 0"}
	}
	api.ShaderSource(sh, source)
	api.CompileShader(sh)

	if api.GetShaderiv(sh, gles.COMPILE_STATUS) == gles.FALSE {
		log := api.GetShaderInfoLog(sh)
		api.DeleteShader(sh)
		return 0, &CompileError{Stage: stage, Log: log}
	}
	return sh, nil
}

// Link links two compiled stages. Both shader objects are released whether
// or not linking succeeds.
func Link(api gles.API, vertexShader, fragmentShader uint32) (uint32, error) {
	defer api.DeleteShader(fragmentShader)
	defer api.DeleteShader(vertexShader)

	program := api.CreateProgram()
	if err := gles.Check(api, "glCreateProgram"); err != nil {
		if program != 0 {
			api.DeleteProgram(program)
		}
		return 0, err
	}
	if program == 0 {
		return 0, &LinkError{Log: "glCreateProgram returned 0"}
	}

	api.AttachShader(program, vertexShader)
	if err := gles.Check(api, "glAttachShader"); err != nil {
		api.DeleteProgram(program)
		return 0, err
	}
	api.AttachShader(program, fragmentShader)
	if err := gles.Check(api, "glAttachShader"); err != nil {
		api.DeleteProgram(program)
		return 0, err
	}
	api.LinkProgram(program)

	if api.GetProgramiv(program, gles.LINK_STATUS) != gles.TRUE {
		log := api.GetProgramInfoLog(program)
		api.DeleteProgram(program)
		return 0, &LinkError{Log: log}
	}
	return program, nil
}

// ResolveLocations looks up every required name. names maps an original
// identifier to the name it carries in the compiled source; identifiers
// missing from names are looked up unchanged. Any name the program does not
// expose is a *ResolutionError.
func ResolveLocations(api gles.API, program uint32, req Requirements, names map[string]string) (Locations, error) {
	mapped := func(name string) string {
		if m, ok := names[name]; ok && m != "" {
			return m
		}
		return name
	}

	locs := Locations{
		Attributes: make(map[string]uint32, len(req.Attributes)),
		Uniforms:   make(map[string]int32, len(req.Uniforms)),
	}
	for _, name := range req.Attributes {
		loc := api.GetAttribLocation(program, mapped(name))
		if err := gles.Check(api, "glGetAttribLocation "+name); err != nil {
			return Locations{}, err
		}
		if loc < 0 {
			return Locations{}, &ResolutionError{Kind: "attribute", Name: name}
		}
		locs.Attributes[name] = uint32(loc)
	}
	for _, name := range req.Uniforms {
		loc := api.GetUniformLocation(program, mapped(name))
		if err := gles.Check(api, "glGetUniformLocation "+name); err != nil {
			return Locations{}, err
		}
		if loc < 0 {
			return Locations{}, &ResolutionError{Kind: "uniform", Name: name}
		}
		locs.Uniforms[name] = loc
	}
	return locs, nil
}

// NewProgram compiles, links and resolves a program in one step. Either a
// fully resolved Program is returned or nothing is left allocated.
func NewProgram(api gles.API, tr Translator, req Requirements, vertexSource, fragmentSource string) (*Program, error) {
	vsCode, fsCode := vertexSource, fragmentSource
	names := map[string]string{}
	if tr != nil {
		var err error
		var vsNames, fsNames map[string]string
		if vsCode, vsNames, err = tr.Translate(vertexSource, StageVertex); err != nil {
			return nil, &CompileError{Stage: StageVertex, Log: err.Error()}
		}
		if fsCode, fsNames, err = tr.Translate(fragmentSource, StageFragment); err != nil {
			return nil, &CompileError{Stage: StageFragment, Log: err.Error()}
		}
		for k, v := range vsNames {
			names[k] = v
		}
		for k, v := range fsNames {
			names[k] = v
		}
	}

	vs, err := Compile(api, StageVertex, vsCode)
	if err != nil {
		return nil, err
	}
	fs, err := Compile(api, StageFragment, fsCode)
	if err != nil {
		api.DeleteShader(vs)
		return nil, err
	}
	handle, err := Link(api, vs, fs)
	if err != nil {
		return nil, err
	}
	locs, err := ResolveLocations(api, handle, req, names)
	if err != nil {
		api.DeleteProgram(handle)
		return nil, err
	}

	return &Program{
		VertexSource:   vertexSource,
		FragmentSource: fragmentSource,
		Handle:         handle,
		Locations:      locs,
	}, nil
}
