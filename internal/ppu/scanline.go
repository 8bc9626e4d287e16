package ppu

// RenderBGScanlineUsingFetcher renders 160 BG pixels for the given LY using the isolated fetcher.
// Inputs:
// - mem: VRAM reader
// - mapBase: 0x9800 or 0x9C00
// - tileData8000: true -> 0x8000 addressing; false -> 0x8800 signed addressing
// - scx, scy: scroll registers
// - ly: current scanline (0..143)
// Output: 160 color indices (0..3)
func RenderBGScanlineUsingFetcher(mem VRAMReader, mapBase uint16, tileData8000 bool, scx, scy, ly byte) [160]byte {
	var out [160]byte

	// Compute BG coordinates.
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31 // 0..31 rows

	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	// Map index address for the first tile column.
	tileIndexAddr := mapBase + mapY*32 + tileX

	var q fifo
	f := newBGFetcher(mem, &q)
	f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
	f.Fetch()
	// Discard scx fractional pixels.
	for i := 0; i < fineX; i++ {
		_, _ = q.Pop()
	}

	// Produce 160 pixels, fetching new tiles as the FIFO empties.
	for x := 0; x < 160; x++ {
		if q.Len() == 0 {
			// Advance to next tile in map row (wrap at 32 tiles).
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
			f.Fetch()
		}
		px, _ := q.Pop()
		out[x] = px
	}
	return out
}

// VRAMReaderBank extends VRAMReader with explicit bank selection, used by the
// GBC-aware scanline renderers to pull tile data from either VRAM bank.
type VRAMReaderBank interface {
	VRAMReader
	ReadBank(bank int, addr uint16) byte
}

// cgbFetchRow returns the (lo, hi) tile-row bytes for a CGB tile, honoring
// the attribute byte's bank selection and vertical flip.
func cgbFetchRow(mem VRAMReaderBank, tileData8000 bool, tileNum byte, bank int, fineY byte, yFlip bool) (byte, byte) {
	row := fineY & 7
	if yFlip {
		row = 7 - row
	}
	var base uint16
	if tileData8000 {
		base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
	} else {
		base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
	}
	return mem.ReadBank(bank, base), mem.ReadBank(bank, base+1)
}

// cgbRowPixels expands one fetched tile row into 8 color indices, honoring xFlip.
func cgbRowPixels(lo, hi byte, xFlip bool) [8]byte {
	var out [8]byte
	for px := 0; px < 8; px++ {
		bit := byte(7 - px)
		if xFlip {
			bit = byte(px)
		}
		out[px] = ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
	}
	return out
}

// RenderBGScanlineCGB renders 160 BG pixels plus their per-pixel CGB
// attributes (palette 0-7, BG-priority-over-sprite flag) for scanline ly.
// mapBase/attrBase point at the same tilemap slot pair: the tile index lives
// in VRAM bank 0 at mapBase, its attribute byte in bank 1 at attrBase.
func RenderBGScanlineCGB(mem VRAMReaderBank, mapBase, attrBase uint16, tileData8000 bool, scx, scy, ly byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31

	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	x := 0
	first := true
	for x < 160 {
		entryAddr := mapBase + mapY*32 + tileX
		attrAddr := attrBase + mapY*32 + tileX
		tileNum := mem.ReadBank(0, entryAddr)
		attr := mem.ReadBank(1, attrAddr)
		// Bit 3 selects VRAM bank 1 for the tile data.
		bank := 0
		if attr&0x08 != 0 {
			bank = 1
		}
		xFlip := attr&0x20 != 0
		yFlip := attr&0x40 != 0
		p := attr & 0x07
		bgPriority := attr&0x80 != 0

		lo, hi := cgbFetchRow(mem, tileData8000, tileNum, bank, fineY, yFlip)
		row := cgbRowPixels(lo, hi, xFlip)

		start := 0
		if first {
			start = fineX
			first = false
		}
		for i := start; i < 8 && x < 160; i++ {
			ci[x] = row[i]
			pal[x] = p
			pri[x] = bgPriority
			x++
		}
		tileX = (tileX + 1) & 31
	}
	return
}

// RenderWindowScanlineCGB renders the window layer with CGB attributes for a
// scanline, filling pixels from wxStart onward using winLine as the window's
// own vertical line counter.
func RenderWindowScanlineCGB(mem VRAMReaderBank, mapBase, attrBase uint16, tileData8000 bool, wxStart int, winLine byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	if wxStart >= 160 {
		return
	}
	if wxStart < 0 {
		wxStart = 0
	}
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	tileX := uint16(0)

	x := wxStart
	for x < 160 {
		entryAddr := mapBase + mapY*32 + tileX
		attrAddr := attrBase + mapY*32 + tileX
		tileNum := mem.ReadBank(0, entryAddr)
		attr := mem.ReadBank(1, attrAddr)
		// Bit 3 selects VRAM bank 1 for the tile data.
		bank := 0
		if attr&0x08 != 0 {
			bank = 1
		}
		xFlip := attr&0x20 != 0
		yFlip := attr&0x40 != 0
		p := attr & 0x07
		bgPriority := attr&0x80 != 0

		lo, hi := cgbFetchRow(mem, tileData8000, tileNum, bank, fineY, yFlip)
		row := cgbRowPixels(lo, hi, xFlip)

		for i := 0; i < 8 && x < 160; i++ {
			ci[x] = row[i]
			pal[x] = p
			pri[x] = bgPriority
			x++
		}
		tileX++
	}
	return
}

// RenderWindowScanlineUsingFetcher renders the window layer for a scanline using the fetcher.
// It fills pixels starting at wxStart (WX-7) using winLine as the vertical line within the window.
// Pixels before wxStart are left as 0 (BG color index 0) so callers can blend.
func RenderWindowScanlineUsingFetcher(mem VRAMReader, mapBase uint16, tileData8000 bool, wxStart int, winLine byte) [160]byte {
	var out [160]byte
	if wxStart >= 160 {
		return out
	}
	if wxStart < 0 {
		wxStart = 0
	}
	// Compute window tile row and fineY
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	tileX := uint16(0)
	tileIndexAddr := mapBase + mapY*32 + tileX
	var q fifo
	f := newBGFetcher(mem, &q)
	f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
	f.Fetch()
	for x := wxStart; x < 160; x++ {
		if q.Len() == 0 {
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, tileData8000, tileIndexAddr, fineY)
			f.Fetch()
		}
		px, _ := q.Pop()
		out[x] = px
	}
	return out
}
