package gles

import "fmt"

// Error is a GL error code observed after a state-mutating call. These are
// programming or environment faults and are never retried.
type Error struct {
	Op   string
	Code uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: glError %d", e.Op, e.Code)
}

// Check drains the GL error queue and reports the first code found against op.
func Check(api API, op string) error {
	var first uint32
	for code := api.GetError(); code != NO_ERROR; code = api.GetError() {
		if first == NO_ERROR {
			first = code
		}
	}
	if first != NO_ERROR {
		return &Error{Op: op, Code: first}
	}
	return nil
}
