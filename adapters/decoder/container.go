package decoder

import (
	"bytes"
	"encoding/binary"

	"github.com/Skryldev/photo-quality/core"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// EXIFBlock returns the part of raw that ReadEXIF should parse, or nil when
// format carries no EXIF.  JPEG and TIFF are parsed whole; PNG keeps EXIF in
// an eXIf chunk and WebP in an EXIF chunk of its RIFF container.
func EXIFBlock(format core.Format, raw []byte) []byte {
	switch format {
	case core.FormatJPEG, core.FormatTIFF:
		return raw
	case core.FormatPNG:
		return pngEXIF(raw)
	case core.FormatWebP:
		return webpEXIF(raw)
	}
	return nil
}

// pngEXIF walks the PNG chunk list up to IEND.
func pngEXIF(raw []byte) []byte {
	if !bytes.HasPrefix(raw, pngSignature) {
		return nil
	}
	for p := len(pngSignature); p+8 <= len(raw); {
		n := int(binary.BigEndian.Uint32(raw[p:]))
		typ := string(raw[p+4 : p+8])
		start := p + 8
		if n < 0 || start+n > len(raw) {
			return nil
		}
		switch typ {
		case "eXIf":
			return raw[start : start+n]
		case "IEND":
			return nil
		}
		p = start + n + 4 // skip CRC
	}
	return nil
}

// webpEXIF walks the chunks of a RIFF/WEBP container.
func webpEXIF(raw []byte) []byte {
	if len(raw) < 12 || string(raw[:4]) != "RIFF" || string(raw[8:12]) != "WEBP" {
		return nil
	}
	for p := 12; p+8 <= len(raw); {
		n := int(binary.LittleEndian.Uint32(raw[p+4:]))
		start := p + 8
		if n < 0 || start+n > len(raw) {
			return nil
		}
		if string(raw[p:p+4]) == "EXIF" {
			return raw[start : start+n]
		}
		p = start + n + n&1 // chunks are padded to even length
	}
	return nil
}
