package shader

// OverlayForFrame returns the overlay slot the fragment stage samples for a
// float-encoded selection value, or -1 when no branch matches.
func OverlayForFrame(frame float32) int {
	for i := 0; i < OverlayCount; i++ {
		if frame == float32(i) {
			return i
		}
	}
	return -1
}

// CompositePixel is the fragment stage's blend for one pixel. The overlay's
// colour is added unweighted and the video is attenuated by the overlay's
// alpha; output alpha is always 1.
func CompositePixel(stream, overlay [4]float32) [4]float32 {
	alpha := 1 - overlay[3]
	return [4]float32{
		stream[0]*alpha + overlay[0],
		stream[1]*alpha + overlay[1],
		stream[2]*alpha + overlay[2],
		1,
	}
}
