package shader

import "fmt"

// Stage identifies a programmable pipeline stage.
type Stage uint32

const (
	StageVertex   Stage = Stage(0x8B31)
	StageFragment Stage = Stage(0x8B30)
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return fmt.Sprintf("stage(%#x)", uint32(s))
}

// CompileError reports a stage whose source was rejected.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}

// LinkError reports two valid stages that could not be linked together.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link program: %s", e.Log)
}

// ResolutionError reports a required attribute or uniform that the linked
// program does not expose.
type ResolutionError struct {
	Kind string // "attribute" or "uniform"
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not get %s location for %s", e.Kind, e.Name)
}
