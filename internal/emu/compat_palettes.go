package emu

// cgbCompatSetNames labels the curated DMG compatibility-mode palettes a GBC
// applies to non-color cartridges, selected automatically via
// autoCompatPaletteFromHeader (mirroring the real console's boot-ROM title
// lookup). Index order matches cgbCompatSets.
var cgbCompatSetNames = []string{
	"Green",  // 0: original DMG-style green monochrome
	"Sepia",  // 1
	"Blue",   // 2
	"Red",    // 3
	"Pastel", // 4
	"Gray",   // 5
}

// compatPalette holds the three 4-shade RGB555 palettes (BG, OBJ0, OBJ1) a
// DMG-compatibility preset applies; each shade is packed 0BBBBBGG GGGRRRRR
// to match the PPU's native CGB palette RAM format so callers can load them
// directly via Bus.Write to 0xFF68-0xFF6B during compat-palette setup.
type compatPalette struct {
	BG, OBJ0, OBJ1 [4]uint16
}

// cgbCompatSets is indexed by the palette IDs used in compatTitleExact and
// compatTitleContains, plus the checksum-modulo fallback in
// autoCompatPaletteFromHeader (mod 6 to stay in range).
var cgbCompatSets = []compatPalette{
	{ // 0: Green
		BG:   [4]uint16{0x7FFF, 0x56B5, 0x294A, 0x0000},
		OBJ0: [4]uint16{0x7FFF, 0x56B5, 0x294A, 0x0000},
		OBJ1: [4]uint16{0x7FFF, 0x56B5, 0x294A, 0x0000},
	},
	{ // 1: Sepia
		BG:   [4]uint16{0x67FF, 0x4FF6, 0x2CC3, 0x0861},
		OBJ0: [4]uint16{0x67FF, 0x4FF6, 0x2CC3, 0x0861},
		OBJ1: [4]uint16{0x67FF, 0x4FF6, 0x2CC3, 0x0861},
	},
	{ // 2: Blue
		BG:   [4]uint16{0x7FFF, 0x6B40, 0x3180, 0x0000},
		OBJ0: [4]uint16{0x7FFF, 0x2B59, 0x0011, 0x0000},
		OBJ1: [4]uint16{0x7FFF, 0x7E60, 0x4900, 0x0000},
	},
	{ // 3: Red
		BG:   [4]uint16{0x7FFF, 0x3FFF, 0x000F, 0x0000},
		OBJ0: [4]uint16{0x7FFF, 0x7EAC, 0x0015, 0x0000},
		OBJ1: [4]uint16{0x7FFF, 0x36F7, 0x0212, 0x0000},
	},
	{ // 4: Pastel
		BG:   [4]uint16{0x7FFF, 0x7E8C, 0x6180, 0x5000},
		OBJ0: [4]uint16{0x7FFF, 0x7C1F, 0x4014, 0x2008},
		OBJ1: [4]uint16{0x7FFF, 0x3FEF, 0x2010, 0x1005},
	},
	{ // 5: Gray
		BG:   [4]uint16{0x7FFF, 0x5294, 0x294A, 0x0000},
		OBJ0: [4]uint16{0x7FFF, 0x5294, 0x294A, 0x0000},
		OBJ1: [4]uint16{0x7FFF, 0x5294, 0x294A, 0x0000},
	},
}
