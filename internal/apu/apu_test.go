package apu

import "testing"

func TestNew_PowerOnDefaults(t *testing.T) {
	a := New()
	if got := a.CPURead(0xFF24); got != 0x77 {
		t.Fatalf("NR50 got %02X want 77", got)
	}
	if got := a.CPURead(0xFF25); got != 0xF3 {
		t.Fatalf("NR51 got %02X want F3", got)
	}
	if got := a.CPURead(0xFF26); got&0x80 == 0 {
		t.Fatalf("NR52 power bit not set on fresh APU: %02X", got)
	}
}

func TestNR10_ReadMasksUnusedBits(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF10, 0x2A) // sweep period 2, negate, shift 2
	if got := a.CPURead(0xFF10); got != 0xAA {
		t.Fatalf("NR10 got %02X want AA", got)
	}
}

func TestCh1_TriggerRequiresDACOn(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF12, 0x00) // vol=0, dir=0 -> DAC off
	a.CPUWrite(0xFF14, 0x80) // trigger
	if a.ch1.enabled {
		t.Fatalf("channel 1 should not enable with DAC off")
	}

	a.CPUWrite(0xFF12, 0xF0) // vol=15 -> DAC on
	a.CPUWrite(0xFF14, 0x80) // trigger
	if !a.ch1.enabled {
		t.Fatalf("channel 1 should enable once DAC is on and triggered")
	}
	if got := a.CPURead(0xFF26); got&0x01 == 0 {
		t.Fatalf("NR52 bit0 should reflect channel 1 enabled: %02X", got)
	}
}

func TestLengthCounter_DisablesChannelAtExpiry(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF12, 0xF0)            // CH1 DAC on
	a.CPUWrite(0xFF11, 0x3F)            // length = 64 - 63 = 1
	a.CPUWrite(0xFF14, 0x80|(1<<6))     // trigger + length enable
	if !a.ch1.enabled {
		t.Fatalf("channel 1 should be enabled after trigger")
	}
	a.Tick(cpuHz/256 + 1) // one 256 Hz length clock
	if a.ch1.enabled {
		t.Fatalf("channel 1 should disable once its 1-step length counter expires")
	}
}

func TestWaveRAM_ReadWritePassthrough(t *testing.T) {
	a := New()
	for i := 0; i < 16; i++ {
		a.CPUWrite(0xFF30+uint16(i), byte(i*0x11))
	}
	for i := 0; i < 16; i++ {
		if got := a.CPURead(0xFF30 + uint16(i)); got != byte(i*0x11) {
			t.Fatalf("wave RAM byte %d got %02X want %02X", i, got, byte(i*0x11))
		}
	}
}

func TestPowerOff_ClearsRegistersButNotWaveRAM(t *testing.T) {
	a := New()
	a.CPUWrite(0xFF30, 0xAB)
	a.CPUWrite(0xFF12, 0xF0)
	a.CPUWrite(0xFF14, 0x80)
	a.CPUWrite(0xFF26, 0x00) // power off
	if a.ch1.enabled {
		t.Fatalf("power-off should disable all channels")
	}
	if got := a.CPURead(0xFF24); got != 0 {
		t.Fatalf("NR50 should clear on power-off, got %02X", got)
	}
	if got := a.CPURead(0xFF30); got != 0xAB {
		t.Fatalf("wave RAM must survive power-off, got %02X", got)
	}
	// Register writes are ignored while powered off.
	a.CPUWrite(0xFF24, 0x77)
	if got := a.CPURead(0xFF24); got != 0 {
		t.Fatalf("NR50 write should be ignored while powered off, got %02X", got)
	}
}
