package cpu

import "testing"

func TestCPU_HALT_Normal_SleepsUntilInterrupt(t *testing.T) {
	c := newCPUWithROM([]byte{0x76, 0x00}) // HALT; NOP
	c.IME = true
	c.Step()
	if !c.halted {
		t.Fatalf("HALT should sleep the CPU when no interrupt is pending")
	}
}

func TestCPU_HALT_Bug_FallsThroughWhenIMEClearAndInterruptPending(t *testing.T) {
	c := newCPUWithROM([]byte{0x76, 0x3E, 0x99}) // HALT; LD A,0x99
	c.IME = false
	c.bus.Write(0xFFFF, 0x01) // IE: VBlank
	c.bus.Write(0xFF0F, 0x01) // IF: VBlank pending

	c.Step() // HALT
	if c.halted {
		t.Fatalf("HALT bug: CPU must not actually halt when IME=0 and an interrupt is already pending")
	}
	if c.PC != 1 {
		t.Fatalf("HALT should still advance PC normally, got %#04x", c.PC)
	}

	c.Step() // LD A,0x99 should execute immediately after
	if c.A != 0x99 {
		t.Fatalf("next instruction after HALT bug should execute normally, A=%02x", c.A)
	}
}

func TestCPU_STOP_TogglesDoubleSpeedWhenArmed(t *testing.T) {
	c := newCPUWithROM([]byte{0x10, 0x00}) // STOP, padding 0x00
	c.bus.SetCGBEnabled(true)
	c.bus.Write(0xFF4D, 0x01) // arm speed switch

	c.Step()
	if !c.bus.DoubleSpeed() {
		t.Fatalf("STOP with armed KEY1 should toggle double speed")
	}
	if c.bus.SpeedSwitchArmed() {
		t.Fatalf("speed switch armed flag should clear after STOP")
	}
	if c.halted {
		t.Fatalf("a speed-switch STOP should not leave the CPU halted")
	}
}

func TestCPU_STOP_HaltsWhenNotArmed(t *testing.T) {
	c := newCPUWithROM([]byte{0x10, 0x00})
	c.Step()
	if !c.halted {
		t.Fatalf("STOP without an armed speed switch should halt the CPU")
	}
}
