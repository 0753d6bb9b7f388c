package game

// Window defaults.
const (
	WindowWidth  = 960
	WindowHeight = 640
	WindowTitle  = "Locomotion"
)

// Ground square drawn under the entity, in world units.
const GroundHalfSize = 120.0

// Desktop mouse emulation of a touch screen.
const (
	// DesktopDPI is used when the monitor does not report a physical size.
	DesktopDPI = 96.0
	// TwoFingerSpread is the pixel offset of each synthetic finger from the
	// cursor while the right button is held.
	TwoFingerSpread = 60.0
)

// Marker point sprites are capped so a runaway buffer cannot stall upload.
const MaxMarkers = 64
