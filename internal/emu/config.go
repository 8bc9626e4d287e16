package emu

import "github.com/sirupsen/logrus"

// Config contains settings that affect emulation behavior.
type Config struct {
	// Trace, LimitFPS and UseFetcherBG are stored but not read by Machine:
	// no CPU trace is logged, frames are not throttled, and the PPU picks its
	// BG renderer from CGB mode alone.
	Trace        bool
	LimitFPS     bool
	UseFetcherBG bool

	// CGBPreferred requests GBC mode when the cartridge supports it (header
	// byte 0x0143 is 0x80 or 0xC0). Cartridges without CGB support always
	// run in DMG mode regardless of this setting.
	CGBPreferred bool

	// Logger receives structured emulation events (cartridge load, including
	// the reload done by Reset, and DMG compatibility-palette selection).
	// A nil Logger falls back to a
	// standard logrus.Logger at its default level.
	Logger *logrus.Logger
}
