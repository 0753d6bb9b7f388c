//go:build !android

package game

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func initWindow() (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	window, err := glfw.CreateWindow(WindowWidth, WindowHeight, WindowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	return window, nil
}

// monitorDPI derives pixels per inch from the primary monitor's physical
// size, or returns 0 when it is unknown.
func monitorDPI() float64 {
	m := glfw.GetPrimaryMonitor()
	if m == nil {
		return 0
	}
	mm, _ := m.GetPhysicalSize()
	mode := m.GetVideoMode()
	if mm <= 0 || mode == nil {
		return 0
	}
	return float64(mode.Width) / (float64(mm) / 25.4)
}
