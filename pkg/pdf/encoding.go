package pdf

import (
	"strconv"
	"strings"
)

var latin1Names = strings.Fields(`nbspace exclamdown cent sterling currency yen brokenbar section
dieresis copyright ordfeminine guillemotleft logicalnot sfthyphen registered macron
degree plusminus twosuperior threesuperior acute mu paragraph periodcentered
cedilla onesuperior ordmasculine guillemotright onequarter onehalf threequarters questiondown
Agrave Aacute Acircumflex Atilde Adieresis Aring AE Ccedilla
Egrave Eacute Ecircumflex Edieresis Igrave Iacute Icircumflex Idieresis
Eth Ntilde Ograve Oacute Ocircumflex Otilde Odieresis multiply
Oslash Ugrave Uacute Ucircumflex Udieresis Yacute Thorn germandbls
agrave aacute acircumflex atilde adieresis aring ae ccedilla
egrave eacute ecircumflex edieresis igrave iacute icircumflex idieresis
eth ntilde ograve oacute ocircumflex otilde odieresis divide
oslash ugrave uacute ucircumflex udieresis yacute thorn ydieresis`)

var asciiNames = strings.Fields(`space exclam quotedbl numbersign dollar percent ampersand quotesingle
parenleft parenright asterisk plus comma hyphen period slash
zero one two three four five six seven eight nine colon semicolon less equal greater question
at A B C D E F G H I J K L M N O P Q R S T U V W X Y Z
bracketleft backslash bracketright asciicircum underscore grave
a b c d e f g h i j k l m n o p q r s t u v w x y z
braceleft bar braceright asciitilde`)

var glyphNames = map[string]rune{
	"quoteright":       0x2019,
	"quoteleft":        0x2018,
	"Euro":             0x20AC,
	"quotesinglbase":   0x201A,
	"florin":           0x0192,
	"quotedblbase":     0x201E,
	"ellipsis":         0x2026,
	"dagger":           0x2020,
	"daggerdbl":        0x2021,
	"circumflex":       0x02C6,
	"perthousand":      0x2030,
	"Scaron":           0x0160,
	"guilsinglleft":    0x2039,
	"OE":               0x0152,
	"Zcaron":           0x017D,
	"quotedblleft":     0x201C,
	"quotedblright":    0x201D,
	"bullet":           0x2022,
	"endash":           0x2013,
	"emdash":           0x2014,
	"tilde":            0x02DC,
	"trademark":        0x2122,
	"scaron":           0x0161,
	"guilsinglright":   0x203A,
	"oe":               0x0153,
	"zcaron":           0x017E,
	"Ydieresis":        0x0178,
	"fi":               0xFB01,
	"fl":               0xFB02,
	"dotlessi":         0x0131,
	"fraction":         0x2044,
	"minus":            0x2212,
	"Lslash":           0x0141,
	"lslash":           0x0142,
	"ring":             0x02DA,
	"breve":            0x02D8,
	"dotaccent":        0x02D9,
	"hungarumlaut":     0x02DD,
	"ogonek":           0x02DB,
	"caron":            0x02C7,
	"space":            ' ',
	"nonbreakingspace": 0x00A0,
	"overscore":        0x00AF,
	"middot":           0x00B7,
}

func init() {
	for i, name := range asciiNames {
		glyphNames[name] = rune(0x20 + i)
	}
	for i, name := range latin1Names {
		if _, ok := glyphNames[name]; !ok {
			glyphNames[name] = rune(0xA0 + i)
		}
	}
	standardEncoding = buildEncoding(standardHigh)
	standardEncoding['\''] = 0x2019
	standardEncoding['`'] = 0x2018

	for i, r := range winAnsiHigh {
		winAnsiEncoding[0x80+i] = r
	}
	for c := 0x20; c < 0x7F; c++ {
		winAnsiEncoding[c] = rune(c)
		macRomanEncoding[c] = rune(c)
	}
	for c := 0xA0; c <= 0xFF; c++ {
		winAnsiEncoding[c] = rune(c)
	}
	for i, r := range macRomanHigh {
		macRomanEncoding[0x80+i] = r
	}
}

var (
	standardEncoding [256]rune
	winAnsiEncoding  [256]rune
	macRomanEncoding [256]rune
)

var standardHigh = map[byte]string{
	0xA1: "exclamdown", 0xA2: "cent", 0xA3: "sterling", 0xA4: "fraction", 0xA5: "yen",
	0xA6: "florin", 0xA7: "section", 0xA8: "currency", 0xA9: "quotesingle", 0xAA: "quotedblleft",
	0xAB: "guillemotleft", 0xAC: "guilsinglleft", 0xAD: "guilsinglright", 0xAE: "fi", 0xAF: "fl",
	0xB1: "endash", 0xB2: "dagger", 0xB3: "daggerdbl", 0xB4: "periodcentered", 0xB6: "paragraph",
	0xB7: "bullet", 0xB8: "quotesinglbase", 0xB9: "quotedblbase", 0xBA: "quotedblright",
	0xBB: "guillemotright", 0xBC: "ellipsis", 0xBD: "perthousand", 0xBF: "questiondown",
	0xC1: "grave", 0xC2: "acute", 0xC3: "circumflex", 0xC4: "tilde", 0xC5: "macron",
	0xC6: "breve", 0xC7: "dotaccent", 0xC8: "dieresis", 0xCA: "ring", 0xCB: "cedilla",
	0xCD: "hungarumlaut", 0xCE: "ogonek", 0xCF: "caron", 0xD0: "emdash", 0xE1: "AE",
	0xE3: "ordfeminine", 0xE8: "Lslash", 0xE9: "Oslash", 0xEA: "OE", 0xEB: "ordmasculine",
	0xF1: "ae", 0xF5: "dotlessi", 0xF8: "lslash", 0xF9: "oslash", 0xFA: "oe", 0xFB: "germandbls",
}

var winAnsiHigh = [32]rune{
	0x20AC, 0x2022, 0x201A, 0x0192, 0x201E, 0x2026, 0x2020, 0x2021,
	0x02C6, 0x2030, 0x0160, 0x2039, 0x0152, 0x2022, 0x017D, 0x2022,
	0x2022, 0x2018, 0x2019, 0x201C, 0x201D, 0x2022, 0x2013, 0x2014,
	0x02DC, 0x2122, 0x0161, 0x203A, 0x0153, 0x2022, 0x017E, 0x0178,
}

var macRomanHigh = [128]rune{
	0x00C4, 0x00C5, 0x00C7, 0x00C9, 0x00D1, 0x00D6, 0x00DC, 0x00E1,
	0x00E0, 0x00E2, 0x00E4, 0x00E3, 0x00E5, 0x00E7, 0x00E9, 0x00E8,
	0x00EA, 0x00EB, 0x00ED, 0x00EC, 0x00EE, 0x00EF, 0x00F1, 0x00F3,
	0x00F2, 0x00F4, 0x00F6, 0x00F5, 0x00FA, 0x00F9, 0x00FB, 0x00FC,
	0x2020, 0x00B0, 0x00A2, 0x00A3, 0x00A7, 0x2022, 0x00B6, 0x00DF,
	0x00AE, 0x00A9, 0x2122, 0x00B4, 0x00A8, 0x2260, 0x00C6, 0x00D8,
	0x221E, 0x00B1, 0x2264, 0x2265, 0x00A5, 0x00B5, 0x2202, 0x2211,
	0x220F, 0x03C0, 0x222B, 0x00AA, 0x00BA, 0x03A9, 0x00E6, 0x00F8,
	0x00BF, 0x00A1, 0x00AC, 0x221A, 0x0192, 0x2248, 0x2206, 0x00AB,
	0x00BB, 0x2026, 0x00A0, 0x00C0, 0x00C3, 0x00D5, 0x0152, 0x0153,
	0x2013, 0x2014, 0x201C, 0x201D, 0x2018, 0x2019, 0x00F7, 0x25CA,
	0x00FF, 0x0178, 0x2044, 0x20AC, 0x2039, 0x203A, 0xFB01, 0xFB02,
	0x2021, 0x00B7, 0x201A, 0x201E, 0x2030, 0x00C2, 0x00CA, 0x00C1,
	0x00CB, 0x00C8, 0x00CD, 0x00CE, 0x00CF, 0x00CC, 0x00D3, 0x00D4,
	0xF8FF, 0x00D2, 0x00DA, 0x00DB, 0x00D9, 0x0131, 0x02C6, 0x02DC,
	0x00AF, 0x02D8, 0x02D9, 0x02DA, 0x00B8, 0x02DD, 0x02DB, 0x02C7,
}

func buildEncoding(high map[byte]string) [256]rune {
	var enc [256]rune
	for c := 0x20; c < 0x7F; c++ {
		enc[c] = rune(c)
	}
	for c, name := range high {
		enc[c] = glyphRune(name)
	}
	return enc
}

// baseEncoding returns the named simple font encoding
func baseEncoding(name Name) ([256]rune, bool) {
	switch name {
	case "WinAnsiEncoding":
		return winAnsiEncoding, true
	case "MacRomanEncoding", "MacExpertEncoding":
		return macRomanEncoding, true
	case "StandardEncoding":
		return standardEncoding, true
	}
	return [256]rune{}, false
}

// glyphRune maps a glyph name to a Unicode code point, or 0 if unknown
func glyphRune(name string) rune {
	if r, ok := glyphNames[name]; ok {
		return r
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		return glyphRune(name[:i])
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v)
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil {
			return rune(v)
		}
	}
	return 0
}
