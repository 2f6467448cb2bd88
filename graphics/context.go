package graphics

// Context is the window-system side of a GL context that the render loop
// drives. The compositor itself never sees it.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
}
