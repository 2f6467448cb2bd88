// Package translator rewrites WebGL2 shader stages for the running context
// through ANGLE (goshadertranslator).
package translator

import (
	"context"
	"fmt"
	"sync"

	"github.com/richinsley/gooverlay/shader"
	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the process-wide ANGLE instance, creating it on first
// use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}

// Translator implements shader.Translator. The zero value targets a GL 4.1
// core context; ES selects ESSL output instead.
type Translator struct {
	ES bool
}

func stageName(stage shader.Stage) (string, error) {
	switch stage {
	case shader.StageVertex:
		return "vertex", nil
	case shader.StageFragment:
		return "fragment", nil
	}
	return "", fmt.Errorf("unsupported shader stage %s", stage)
}

// Translate returns the translated source and the name ANGLE gave each
// declared variable.
func (t *Translator) Translate(source string, stage shader.Stage) (string, map[string]string, error) {
	name, err := stageName(stage)
	if err != nil {
		return "", nil, err
	}
	tr, err := GetTranslator()
	if err != nil {
		return "", nil, fmt.Errorf("failed to create shader translator: %w", err)
	}
	format := gst.OutputFormatGLSL410
	if t.ES {
		format = gst.OutputFormatESSL
	}
	out, err := tr.TranslateShader(source, name, gst.ShaderSpecWebGL2, format)
	if err != nil {
		return "", nil, fmt.Errorf("%s shader translation failed: %w", name, err)
	}
	names := make(map[string]string, len(out.Variables))
	for k, v := range out.Variables {
		names[k] = v.MappedName
	}
	return out.Code, names, nil
}

var _ shader.Translator = (*Translator)(nil)
