package emu

import "testing"

func makeTestROM(cgbFlag byte) []byte {
	rom := make([]byte, 0x8000)
	rom[0x0143] = cgbFlag
	rom[0x0147] = 0x00 // ROM ONLY
	rom[0x0148] = 0x01 // 64KB / 4 banks
	return rom
}

func TestMachine_LoadCartridge_DMGByDefault(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(makeTestROM(0x80), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if m.cgb {
		t.Fatalf("CGB mode should stay off unless CGBPreferred is set")
	}
}

func TestMachine_LoadCartridge_CGBWhenPreferredAndSupported(t *testing.T) {
	m := New(Config{CGBPreferred: true})
	if err := m.LoadCartridge(makeTestROM(0xC0), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if !m.cgb {
		t.Fatalf("CGB mode should engage for a CGB-flagged cartridge when preferred")
	}
	if m.bus.DoubleSpeed() {
		t.Fatalf("CGB mode alone should not start in double speed")
	}
}

func TestMachine_LoadCartridge_DMGOnlyCartStaysCGBOff(t *testing.T) {
	m := New(Config{CGBPreferred: true})
	if err := m.LoadCartridge(makeTestROM(0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if m.cgb {
		t.Fatalf("a cartridge without CGB support must never run in CGB mode")
	}
}

func TestMachine_StepFrame_ProducesFramebuffer(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(makeTestROM(0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.StepFrame()
	fb := m.Framebuffer()
	if len(fb) != 160*144*4 {
		t.Fatalf("framebuffer size got %d want %d", len(fb), 160*144*4)
	}
	for i := 3; i < len(fb); i += 4 {
		if fb[i] != 0xFF {
			t.Fatalf("alpha channel at pixel %d got %02X want FF", i/4, fb[i])
		}
	}
}

func TestMachine_CPUState_ReflectsRegisters(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(makeTestROM(0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	st := m.CPUState()
	if st.PC != 0x0100 {
		t.Fatalf("PC got %#04x want 0100 (no boot ROM)", st.PC)
	}
	if st.SP != 0xFFFE {
		t.Fatalf("SP got %#04x want FFFE", st.SP)
	}
	if st.Halted {
		t.Fatalf("freshly loaded CPU should not be halted")
	}
}

func TestMachine_PPUState_ReflectsLY(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(makeTestROM(0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.StepFrameNoRender()
	st := m.PPUState()
	if st.LY != 0 {
		t.Fatalf("LY after a full frame should wrap back to 0, got %d", st.LY)
	}
}

func TestMachine_BatteryRoundTrip_NoBatteryCart(t *testing.T) {
	m := New(Config{})
	if err := m.LoadCartridge(makeTestROM(0x00), nil); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	// ROM-only carts have no external RAM and do not implement BatteryBacked.
	if _, ok := m.SaveBattery(); ok {
		t.Fatalf("SaveBattery should report no battery for a ROM-only cart")
	}
	if ok := m.LoadBattery([]byte{1, 2, 3}); ok {
		t.Fatalf("LoadBattery should report no battery for a ROM-only cart")
	}
}
