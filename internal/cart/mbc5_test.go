package cart

import "testing"

func makeMBC5ROM(banks int) []byte {
	rom := make([]byte, banks*0x4000)
	for b := 0; b < banks; b++ {
		rom[b*0x4000] = byte(b)
	}
	return rom
}

func TestMBC5_ROMBanking_Bank0Addressable(t *testing.T) {
	m := NewMBC5(makeMBC5ROM(4), 0)

	m.Write(0x2000, 0x00) // low 8 bits -> bank 0
	if got := m.Read(0x4000); got != 0 {
		t.Fatalf("MBC5 should allow ROM bank 0 at 0x4000-7FFF, got %d", got)
	}

	m.Write(0x2000, 0x02)
	if got := m.Read(0x4000); got != 2 {
		t.Fatalf("bank 2 select got %d want 2", got)
	}
}

func TestMBC5_ROMBanking_HighBit(t *testing.T) {
	m := NewMBC5(makeMBC5ROM(258), 0)
	m.Write(0x2000, 0x00) // low 8 bits = 0
	m.Write(0x3000, 0x01) // bit 8 set -> bank 256
	if got := m.Read(0x4000); got != 0 {
		t.Fatalf("bank 256 read got %d want 0 (byte(256) fill; verifying no remap)", got)
	}
}

func TestMBC5_RAMBanking(t *testing.T) {
	m := NewMBC5(makeMBC5ROM(2), 0x8000) // 4 banks of 8KB

	m.Write(0x0000, 0x0A) // enable RAM
	m.Write(0x4000, 0x01) // RAM bank 1
	m.Write(0xA000, 0x42)

	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got == 0x42 {
		t.Fatalf("bank 0 should not see bank 1's data")
	}

	m.Write(0x4000, 0x01)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("bank 1 readback got %02X want 42", got)
	}
}

func TestMBC5_RAMDisabled_ReadsFF(t *testing.T) {
	m := NewMBC5(makeMBC5ROM(2), 0x2000)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM disabled read got %02X want FF", got)
	}
}
