package cart

import (
	"encoding/binary"
	"time"
)

// nowUnix is overridable in tests to control RTC wall-clock advancement.
var nowUnix = func() int64 { return time.Now().Unix() }

// MBC3 implements ROM/RAM banking plus the MBC3 real-time clock.
// Banking behavior:
// - 0000-1FFF: RAM/RTC enable (0x0A in low nibble)
// - 2000-3FFF: ROM bank low 7 bits (0 maps to 1)
// - 4000-5FFF: RAM bank (0-3) or RTC register select (08-0C)
// - 6000-7FFF: latch clock data on a 0x00 -> 0x01 write transition
// - A000-BFFF: external RAM, or the latched RTC register when 08-0C selected
// ROM: bank 0 fixed at 0000-3FFF; switchable 4000-7FFF uses bank (1..127)
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled    bool
	romBank       byte // 7 bits (1..127)
	ramBank       byte // 0..3 (others select an RTC register instead)
	ramRTCSelect  byte // raw value last written to 4000-5FFF
	latchPrev     byte // last byte written to the latch port

	// Live RTC registers.
	rtcSec, rtcMin, rtcHour byte
	rtcDay                  uint16 // 9 bits
	rtcHalt, rtcCarry       bool
	lastRTCWallSec          int64

	// Latched snapshot, indexed 0:sec 1:min 2:hour 3:day-lo 4:day-hi-flags.
	rtcLatched [5]byte
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBank = 1
	m.lastRTCWallSec = nowUnix()
	return m
}

// advanceRTC folds elapsed wall-clock seconds into the live RTC registers.
// Called lazily on every access, matching the teacher's lazy-update test
// fixture (nowUnix mocked, advance observed as a side effect of Read/Write).
func (m *MBC3) advanceRTC() {
	now := nowUnix()
	elapsed := now - m.lastRTCWallSec
	m.lastRTCWallSec = now
	if elapsed <= 0 || m.rtcHalt {
		return
	}
	totalSec := int(m.rtcSec) + int(elapsed)
	m.rtcSec = byte(totalSec % 60)
	totalMin := int(m.rtcMin) + totalSec/60
	m.rtcMin = byte(totalMin % 60)
	totalHour := int(m.rtcHour) + totalMin/60
	m.rtcHour = byte(totalHour % 24)
	totalDay := int(m.rtcDay) + totalHour/24
	if totalDay >= 512 {
		m.rtcCarry = true
	}
	m.rtcDay = uint16(totalDay % 512)
}

func (m *MBC3) latchSnapshot() {
	m.rtcLatched[0] = m.rtcSec
	m.rtcLatched[1] = m.rtcMin
	m.rtcLatched[2] = m.rtcHour
	m.rtcLatched[3] = byte(m.rtcDay & 0xFF)
	var hi byte
	if m.rtcDay&0x100 != 0 {
		hi |= 0x01
	}
	if m.rtcHalt {
		hi |= 0x40
	}
	if m.rtcCarry {
		hi |= 0x80
	}
	m.rtcLatched[4] = hi
}

func (m *MBC3) rtcSelected() bool {
	return m.ramRTCSelect >= 0x08 && m.ramRTCSelect <= 0x0C
}

func (m *MBC3) Read(addr uint16) byte {
	m.advanceRTC()
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.rtcSelected() {
			return m.rtcLatched[m.ramRTCSelect-0x08]
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	m.advanceRTC()
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		m.ramRTCSelect = value
		if value <= 0x03 {
			m.ramBank = value
		}
	case addr < 0x8000:
		if m.latchPrev == 0x00 && value == 0x01 {
			m.latchSnapshot()
		}
		m.latchPrev = value
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.rtcSelected() {
			reg := m.ramRTCSelect - 0x08
			switch reg {
			case 0:
				m.rtcSec = value % 60
			case 1:
				m.rtcMin = value % 60
			case 2:
				m.rtcHour = value % 24
			case 3:
				m.rtcDay = (m.rtcDay &^ 0xFF) | uint16(value)
			case 4:
				m.rtcDay = (m.rtcDay & 0xFF) | (uint16(value&0x01) << 8)
				m.rtcHalt = value&0x40 != 0
				m.rtcCarry = value&0x80 != 0
			}
			return
		}
		if len(m.ram) == 0 {
			return
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// BatteryBacked implementation: RAM bytes followed by a fixed RTC trailer
// (sec, min, hour, day-lo, day-hi-flags, lastRTCWallSec as 8 LE bytes).
func (m *MBC3) SaveRAM() []byte {
	m.advanceRTC()
	out := make([]byte, len(m.ram)+13)
	copy(out, m.ram)
	n := len(m.ram)
	out[n+0] = m.rtcSec
	out[n+1] = m.rtcMin
	out[n+2] = m.rtcHour
	out[n+3] = byte(m.rtcDay & 0xFF)
	var hi byte
	if m.rtcDay&0x100 != 0 {
		hi |= 0x01
	}
	if m.rtcHalt {
		hi |= 0x40
	}
	if m.rtcCarry {
		hi |= 0x80
	}
	out[n+4] = hi
	binary.LittleEndian.PutUint64(out[n+5:n+13], uint64(m.lastRTCWallSec))
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	if len(data) == 0 {
		return
	}
	n := len(m.ram)
	if len(data) < n {
		copy(m.ram, data)
		return
	}
	copy(m.ram, data[:n])
	if len(data) >= n+13 {
		m.rtcSec = data[n+0]
		m.rtcMin = data[n+1]
		m.rtcHour = data[n+2]
		hi := data[n+4]
		m.rtcDay = uint16(data[n+3]) | (uint16(hi&0x01) << 8)
		m.rtcHalt = hi&0x40 != 0
		m.rtcCarry = hi&0x80 != 0
		m.lastRTCWallSec = int64(binary.LittleEndian.Uint64(data[n+5 : n+13]))
	}
}
