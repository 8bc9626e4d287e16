package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/corwinvale/gbcore/internal/bus"
	"github.com/corwinvale/gbcore/internal/cart"
	"github.com/corwinvale/gbcore/internal/cpu"
)

// cyclesPerFrame is the DMG/GBC T-cycle count for one ~59.73 Hz frame
// (154 scanlines * 456 dots). Double-speed mode runs the CPU twice as fast
// against the same PPU dot budget, so the frame still takes this many PPU
// dots but twice as many CPU Step() calls worth of machine cycles.
const cyclesPerFrame = 154 * 456

// Buttons represents the instantaneous state of the eight joypad inputs.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Right {
		m |= bus.JoypRight
	}
	return m
}

// Machine wires together the CPU, Bus (MMU + PPU), and cartridge into a
// runnable Game Boy / Game Boy Color system.
type Machine struct {
	cfg Config
	log *logrus.Logger

	bus *bus.Bus
	cpu *cpu.CPU

	romPath string
	bootROM []byte
	cgb     bool

	fb []byte // RGBA 160x144x4, refreshed once per StepFrame
}

// New constructs a Machine with no cartridge loaded; call LoadCartridge or
// LoadROMFromFile before stepping frames.
func New(cfg Config) *Machine {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	m := &Machine{cfg: cfg, log: log, fb: make([]byte, 160*144*4)}
	m.bus = bus.New(nil)
	m.cpu = cpu.New(m.bus)
	return m
}

// LoadCartridge wires a cartridge image (and optional boot ROM) into a fresh
// Bus/CPU pair, auto-detecting GBC mode from the header when CGBPreferred is set.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	if len(rom) < 0x150 {
		return fmt.Errorf("emu: ROM too small (%d bytes): %w", len(rom), cart.ErrInvalidROM)
	}
	h, err := cart.ParseHeader(rom)
	if err != nil {
		return fmt.Errorf("emu: parse header: %w", err)
	}

	m.bus = bus.New(rom)
	m.cpu = cpu.New(m.bus)
	m.cgb = m.cfg.CGBPreferred && (h.CGBFlag == 0x80 || h.CGBFlag == 0xC0)
	m.bus.SetCGBEnabled(m.cgb)

	if pal, ok := autoCompatPaletteFromHeader(h); ok && !m.cgb {
		m.log.WithFields(logrus.Fields{"title": h.Title, "palette": pal}).Debug("selected DMG compatibility palette")
	}

	if len(boot) >= 0x100 {
		m.bootROM = boot
		m.bus.SetBootROM(boot)
		m.cpu.SetPC(0x0000)
	} else {
		m.cpu.ResetNoBoot()
		m.cpu.SetPC(0x0100)
	}

	m.log.WithFields(logrus.Fields{
		"title": h.Title, "type": h.CartTypeStr, "romBanks": h.ROMBanks,
		"ramBytes": h.RAMSizeBytes, "cgb": m.cgb,
	}).Info("cartridge loaded")
	return nil
}

// LoadROMFromFile reads a ROM image from disk and loads it, replacing the Bus.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("emu: read ROM: %w", err)
	}
	if err := m.LoadCartridge(data, m.bootROM); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the path of the most recently loaded ROM file, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// SetBootROM maps a boot ROM into the current Bus at once (without moving the
// PC) and keeps it for later LoadROMFromFile calls, which start at 0x0000.
func (m *Machine) SetBootROM(data []byte) {
	m.bootROM = data
	m.bus.SetBootROM(data)
}

// SetSerialWriter routes the link-cable serial port's output byte stream
// (used for blargg-style test ROMs that print results over serial).
func (m *Machine) SetSerialWriter(w io.Writer) { m.bus.SetSerialWriter(w) }

// SetButtons updates the joypad state for the next frame(s).
func (m *Machine) SetButtons(b Buttons) { m.bus.SetJoypadState(b.mask()) }

// Reset restarts the currently loaded cartridge from its initial CPU state.
func (m *Machine) Reset() {
	if m.romPath != "" {
		_ = m.LoadROMFromFile(m.romPath)
		return
	}
	m.cpu.ResetNoBoot()
	m.cpu.SetPC(0x0100)
}

// stepFrameCycles runs exactly one frame's worth of PPU dots, accounting for
// CPU double-speed mode (each CPU Step consumes machine cycles at 2x rate
// relative to PPU/timer dots while doubleSpeed is active).
func (m *Machine) stepFrameCycles() {
	target := cyclesPerFrame
	consumed := 0
	for consumed < target {
		cycles := m.cpu.Step()
		if m.bus.DoubleSpeed() {
			cycles /= 2
		}
		consumed += cycles
	}
}

// StepFrame advances emulation by one frame and refreshes the RGBA framebuffer.
func (m *Machine) StepFrame() {
	m.stepFrameCycles()
	m.blitFramebuffer()
}

// StepFrameNoRender advances emulation by one frame without touching the
// framebuffer, for headless test-ROM runners that only care about serial output.
func (m *Machine) StepFrameNoRender() {
	m.stepFrameCycles()
}

// blitFramebuffer converts the PPU's packed RGB frame into the RGBA buffer
// exposed via Framebuffer().
func (m *Machine) blitFramebuffer() {
	rgb := m.bus.PPU().Framebuffer()
	for i := 0; i < 160*144; i++ {
		m.fb[i*4+0] = rgb[i*3+0]
		m.fb[i*4+1] = rgb[i*3+1]
		m.fb[i*4+2] = rgb[i*3+2]
		m.fb[i*4+3] = 0xFF
	}
}

// Framebuffer returns the current RGBA frame (160x144x4 bytes).
func (m *Machine) Framebuffer() []byte { return m.fb }

// ReadMemory exposes a read-only CPU-address-space peek for debug tooling.
func (m *Machine) ReadMemory(addr uint16) byte { return m.bus.Read(addr) }

// CPUState is a read-only snapshot of the register file, for debug tooling
// and the read-only AI-agent observation interface (neither can reach
// A/F/PC/SP/IME through ReadMemory, since they are not memory-mapped).
type CPUState struct {
	A, F        byte
	B, C        byte
	D, E        byte
	H, L        byte
	SP, PC      uint16
	IME         bool
	Halted      bool
	DoubleSpeed bool
}

// CPUState returns a snapshot of the current CPU register file.
func (m *Machine) CPUState() CPUState {
	c := m.cpu
	return CPUState{
		A: c.A, F: c.F,
		B: c.B, C: c.C,
		D: c.D, E: c.E,
		H: c.H, L: c.L,
		SP: c.SP, PC: c.PC,
		IME:         c.IME,
		Halted:      c.Halted(),
		DoubleSpeed: m.bus.DoubleSpeed(),
	}
}

// PPUState is a read-only snapshot of the PPU's scanline position and
// display-control registers, for debug tooling and the read-only AI-agent
// observation interface.
type PPUState struct {
	LY, LYC          byte
	LCDC, STAT       byte
	SCX, SCY, WX, WY byte
	BGP, OBP0, OBP1  byte
}

// PPUState returns a snapshot of the current PPU register state.
func (m *Machine) PPUState() PPUState {
	p := m.bus.PPU()
	return PPUState{
		LY:   p.LY(),
		LYC:  p.ReadLYC(),
		LCDC: p.LCDC(),
		STAT: p.ReadSTAT(),
		SCX:  p.SCX(),
		SCY:  p.SCY(),
		WX:   p.WX(),
		WY:   p.WY(),
		BGP:  p.BGP(),
		OBP0: p.OBP0(),
		OBP1: p.OBP1(),
	}
}

// LoadBattery restores cartridge RAM (and MBC3 RTC state) from a save file's
// contents. Returns false if the cartridge has no battery-backed storage.
func (m *Machine) LoadBattery(data []byte) bool {
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// SaveBattery returns the cartridge's persisted RAM (and RTC state), if any.
func (m *Machine) SaveBattery() ([]byte, bool) {
	bb, ok := m.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	return bb.SaveRAM(), true
}
