package ppu

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT, etc.).
type InterruptRequester func(bit int)

// LineRegs snapshots the registers that affect rendering as they stood when
// a scanline entered Transfer (mode 3), plus the window's own line counter.
// Exposed for debug tooling and window-timing tests.
type LineRegs struct {
	WinLine            byte
	LCDC, STAT         byte
	SCX, SCY, WX, WY   byte
	BGP, OBP0, OBP1    byte
}

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, CGB palettes/VRAM banking,
// and scanline-granularity rendering into an RGB framebuffer.
type PPU struct {
	// memory
	vram [2][0x2000]byte // 0x8000-0x9FFF, bank 0 and bank 1 (GBC)
	oam  [0xA0]byte      // 0xFE00-0xFE9F

	// regs
	lcdc byte
	stat byte
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	dot int

	req InterruptRequester

	// GBC extensions
	cgbEnabled bool
	vbk        byte // FF4F bit0: active VRAM bank

	bcps    byte // FF68
	ocps    byte // FF6A
	bgPal   [64]byte
	objPal  [64]byte

	winLineCounter int // -1 means "not yet activated this frame"

	lineHistory [144]LineRegs

	// framebuffer: 160x144 RGB triples
	framebuffer [160 * 144 * 3]byte
}

func New(req InterruptRequester) *PPU {
	return &PPU{req: req, winLineCounter: -1}
}

// SetCGBEnabled toggles GBC-only register behavior (VBK, BCPS/OCPS, second
// VRAM bank). DMG mode ignores these registers entirely.
func (p *PPU) SetCGBEnabled(v bool) { p.cgbEnabled = v }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[p.activeBank()][addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	case addr == 0xFF4F:
		if !p.cgbEnabled {
			return 0xFF
		}
		return 0xFE | (p.vbk & 0x01)
	case addr == 0xFF68:
		if !p.cgbEnabled {
			return 0xFF
		}
		return p.bcps | 0x40
	case addr == 0xFF69:
		if !p.cgbEnabled {
			return 0xFF
		}
		return p.bgPal[p.bcps&0x3F]
	case addr == 0xFF6A:
		if !p.cgbEnabled {
			return 0xFF
		}
		return p.ocps | 0x40
	case addr == 0xFF6B:
		if !p.cgbEnabled {
			return 0xFF
		}
		return p.objPal[p.ocps&0x3F]
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[p.activeBank()][addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			p.ly = 0
			p.dot = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			p.ly = 0
			p.dot = 0
			p.winLineCounter = -1
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	case addr == 0xFF4F:
		if p.cgbEnabled {
			p.vbk = value & 0x01
		}
	case addr == 0xFF68:
		if p.cgbEnabled {
			p.bcps = value & 0xBF
		}
	case addr == 0xFF69:
		if p.cgbEnabled {
			p.bgPal[p.bcps&0x3F] = value
			if p.bcps&0x80 != 0 {
				p.bcps = (p.bcps & 0x80) | ((p.bcps + 1) & 0x3F)
			}
		}
	case addr == 0xFF6A:
		if p.cgbEnabled {
			p.ocps = value & 0xBF
		}
	case addr == 0xFF6B:
		if p.cgbEnabled {
			p.objPal[p.ocps&0x3F] = value
			if p.ocps&0x80 != 0 {
				p.ocps = (p.ocps & 0x80) | ((p.ocps + 1) & 0x3F)
			}
		}
	}
}

func (p *PPU) activeBank() int {
	if p.cgbEnabled && p.vbk&0x01 != 0 {
		return 1
	}
	return 0
}

// Read implements VRAMReader against the currently-selected VRAM bank.
func (p *PPU) Read(addr uint16) byte { return p.ReadBank(p.activeBank(), addr) }

// ReadBank implements VRAMReaderBank, reading VRAM directly (bypassing mode
// access restrictions, as used by scanline rendering and the debug images).
func (p *PPU) ReadBank(bank int, addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	if bank != 0 {
		bank = 1
	}
	return p.vram[bank][addr-0x8000]
}

// Tick advances PPU state by the given number of dots (CPU cycles).
// It returns true if HBlank (mode 0) was entered at least once during this
// call, so callers can drive HBlank-mode HDMA transfers.
func (p *PPU) Tick(cycles int) bool {
	if cycles <= 0 {
		return false
	}
	enteredHBlank := false
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 {
			continue
		}
		p.dot++
		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+172:
				mode = 3
			default:
				mode = 0
			}
		}
		if mode == 0 && (p.stat&0x03) != 0 {
			enteredHBlank = true
			p.renderScanline()
		}
		p.setMode(mode)

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				if p.req != nil {
					p.req(0)
				}
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				}
			} else if p.ly > 153 {
				p.ly = 0
				p.winLineCounter = -1
			}
			p.updateLYC()
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
	return enteredHBlank
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0:
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2:
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 3:
		p.onEnterMode3()
	}
}

// onEnterMode3 captures per-line registers (including the window line
// counter) at the moment a scanline begins pixel transfer.
func (p *PPU) onEnterMode3() {
	windowVisible := (p.lcdc&0x20) != 0 && p.wy <= p.ly && int(p.wx)-7 < 160
	if windowVisible {
		p.winLineCounter++
	}
	wl := byte(0)
	if p.winLineCounter >= 0 {
		wl = byte(p.winLineCounter)
	}
	if int(p.ly) < len(p.lineHistory) {
		p.lineHistory[p.ly] = LineRegs{
			WinLine: wl,
			LCDC:    p.lcdc, STAT: p.stat,
			SCX: p.scx, SCY: p.scy, WX: p.wx, WY: p.wy,
			BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		}
	}
}

// LineRegs returns the registers captured when scanline ly entered Transfer.
func (p *PPU) LineRegs(ly int) LineRegs {
	if ly < 0 || ly >= len(p.lineHistory) {
		return LineRegs{}
	}
	return p.lineHistory[ly]
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// renderScanline composes BG, window, and sprites for the just-finished line
// (p.ly, still valid since LY increments only after this call) into the
// framebuffer, in the teacher's "render at HBlank entry" style.
func (p *PPU) renderScanline() {
	ly := p.ly
	if ly >= 144 {
		return
	}
	lr := p.lineHistory[ly]

	var bgCI, winCI [160]byte
	var bgPal, winPal [160]byte
	var bgPri, winPri [160]bool

	bgMapBase := uint16(0x9800)
	if lr.LCDC&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	tileData8000 := lr.LCDC&0x10 != 0

	if p.cgbEnabled {
		bgCI, bgPal, bgPri = RenderBGScanlineCGB(p, bgMapBase, bgMapBase, tileData8000, lr.SCX, lr.SCY, ly)
	} else if lr.LCDC&0x01 != 0 {
		bgCI = RenderBGScanlineUsingFetcher(p, bgMapBase, tileData8000, lr.SCX, lr.SCY, ly)
	}

	winMapBase := uint16(0x9800)
	if lr.LCDC&0x40 != 0 {
		winMapBase = 0x9C00
	}
	wxStart := int(lr.WX) - 7
	windowOn := lr.LCDC&0x20 != 0 && lr.WY <= ly && wxStart < 160
	if windowOn {
		if p.cgbEnabled {
			winCI, winPal, winPri = RenderWindowScanlineCGB(p, winMapBase, winMapBase, tileData8000, wxStart, lr.WinLine)
		} else if lr.LCDC&0x01 != 0 {
			winCI = RenderWindowScanlineUsingFetcher(p, winMapBase, tileData8000, wxStart, lr.WinLine)
		}
	}

	var lineCI [160]byte
	var linePal [160]byte
	var linePri [160]bool
	for x := 0; x < 160; x++ {
		if windowOn && x >= wxStart {
			lineCI[x] = winCI[x]
			linePal[x] = winPal[x]
			linePri[x] = winPri[x]
		} else {
			lineCI[x] = bgCI[x]
			linePal[x] = bgPal[x]
			linePri[x] = bgPri[x]
		}
	}

	// On GBC, LCDC bit 0 is BG/window master priority: when clear, sprites
	// always win regardless of the BG tile attribute or OBJ attribute
	// priority bits. In DMG mode LCDC bit 0 only enables/disables BG/window
	// rendering and has no bearing on sprite priority.
	bgMasterPriority := !p.cgbEnabled || lr.LCDC&0x01 != 0

	var sprLine [160]byte
	if lr.LCDC&0x02 != 0 {
		sprites := p.scanOAMForLine(int(ly))
		sprLine = ComposeSpriteLine(p, sprites, int(ly), lineCI, p.cgbEnabled, bgMasterPriority)
	}

	for x := 0; x < 160; x++ {
		var r, g, b byte
		bgWins := bgMasterPriority && linePri[x] && lineCI[x] != 0
		if sprLine[x] != 0 && !bgWins {
			pal := sprLine[x] >> 2
			ci := sprLine[x] & 0x03
			r, g, b = p.spriteColor(pal, ci)
		} else {
			r, g, b = p.bgColor(linePal[x], lineCI[x])
		}
		off := (int(ly)*160 + x) * 3
		p.framebuffer[off+0] = r
		p.framebuffer[off+1] = g
		p.framebuffer[off+2] = b
	}
}

// scanOAMForLine selects up to 10 sprites intersecting scanline ly, in OAM order.
func (p *PPU) scanOAMForLine(ly int) []Sprite {
	tall := p.lcdc&0x04 != 0
	height := 8
	if tall {
		height = 16
	}
	var out []Sprite
	for i := 0; i < 40 && len(out) < 10; i++ {
		base := i * 4
		y := int(p.oam[base+0]) - 16
		x := int(p.oam[base+1]) - 8
		tile := p.oam[base+2]
		attr := p.oam[base+3]
		if ly < y || ly >= y+height {
			continue
		}
		out = append(out, Sprite{X: x, Y: y, Tile: tile, Attr: attr, OAMIndex: i, Height: height})
	}
	return out
}

func (p *PPU) bgColor(pal, ci byte) (byte, byte, byte) {
	if p.cgbEnabled {
		return rgb555(p.bgPal, pal, ci)
	}
	shade := dmgShade(p.bgp, ci)
	return shade, shade, shade
}

func (p *PPU) spriteColor(pal, ci byte) (byte, byte, byte) {
	if p.cgbEnabled {
		return rgb555(p.objPal, pal, ci)
	}
	reg := p.obp0
	if pal != 0 {
		reg = p.obp1
	}
	shade := dmgShade(reg, ci)
	return shade, shade, shade
}

// dmgShade maps a 2-bit color index through a DMG palette register to a
// 0/85/170/255 grayscale level (white->black).
func dmgShade(palReg, ci byte) byte {
	shade := (palReg >> (ci * 2)) & 0x03
	switch shade {
	case 0:
		return 255
	case 1:
		return 170
	case 2:
		return 85
	default:
		return 0
	}
}

// rgb555 converts a CGB palette-RAM entry (15-bit BGR555, little-endian) to 8-bit RGB.
func rgb555(palRAM [64]byte, pal, ci byte) (byte, byte, byte) {
	idx := int(pal&0x07)*8 + int(ci&0x03)*2
	lo := palRAM[idx]
	hi := palRAM[idx+1]
	word := uint16(lo) | uint16(hi)<<8
	r5 := byte(word & 0x1F)
	g5 := byte((word >> 5) & 0x1F)
	b5 := byte((word >> 10) & 0x1F)
	scale := func(v byte) byte { return (v << 3) | (v >> 2) }
	return scale(r5), scale(g5), scale(b5)
}

// Framebuffer returns the most recently rendered 160x144 RGB frame.
func (p *PPU) Framebuffer() []byte { return p.framebuffer[:] }

// TilemapImage renders one of the two 32x32-tile background maps (0 or 1)
// into a 256x256 RGB debug image, for tooling that wants to visualize VRAM
// without stepping the renderer.
func (p *PPU) TilemapImage(mapSelect int) []byte {
	mapBase := uint16(0x9800)
	if mapSelect != 0 {
		mapBase = 0x9C00
	}
	tileData8000 := p.lcdc&0x10 != 0
	out := make([]byte, 256*256*3)
	for ty := 0; ty < 32; ty++ {
		for tx := 0; tx < 32; tx++ {
			tileNum := p.ReadBank(0, mapBase+uint16(ty*32+tx))
			for row := 0; row < 8; row++ {
				var base uint16
				if tileData8000 {
					base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
				} else {
					base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
				}
				lo := p.ReadBank(0, base)
				hi := p.ReadBank(0, base+1)
				for col := 0; col < 8; col++ {
					bit := byte(7 - col)
					ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
					shade := dmgShade(p.bgp, ci)
					px := ty*8 + row
					py := tx*8 + col
					off := (px*256 + py) * 3
					out[off], out[off+1], out[off+2] = shade, shade, shade
				}
			}
		}
	}
	return out
}

// TilesImage renders the 384 8x8 tiles in VRAM bank 0 as a 128x192 RGB grid
// (16 tiles wide, 24 tall), for debug viewers.
func (p *PPU) TilesImage() []byte {
	const cols, rows = 16, 24
	out := make([]byte, cols*8*rows*8*3)
	for t := 0; t < cols*rows; t++ {
		tileX := t % cols
		tileY := t / cols
		base := uint16(0x8000 + t*16)
		for row := 0; row < 8; row++ {
			lo := p.ReadBank(0, base+uint16(row)*2)
			hi := p.ReadBank(0, base+uint16(row)*2+1)
			for col := 0; col < 8; col++ {
				bit := byte(7 - col)
				ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
				shade := dmgShade(p.bgp, ci)
				px := tileX*8 + col
				py := tileY*8 + row
				off := (py*cols*8 + px) * 3
				out[off], out[off+1], out[off+2] = shade, shade, shade
			}
		}
	}
	return out
}

// Expose palettes and scroll for renderer convenience (optional helpers)
func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }

// LY returns the current scanline counter (0-153), the same value visible at
// the memory-mapped FF44 register.
func (p *PPU) LY() byte { return p.ly }

// ReadLYC returns the LY-compare register (FF45).
func (p *PPU) ReadLYC() byte { return p.lyc }

// ReadSTAT returns the STAT register (FF41), including the current mode bits.
func (p *PPU) ReadSTAT() byte { return p.stat }
