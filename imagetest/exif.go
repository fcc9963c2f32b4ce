package imagetest

import (
	"encoding/binary"
	"math"
	"sort"
)

// EXIF describes the camera tags written into a test JPEG.  Zero-valued
// fields are omitted from the encoded block.
type EXIF struct {
	Make         string
	Model        string
	Orientation  uint16
	DateTime     string // "2006:01:02 15:04:05"
	ISO          uint16
	ExposureTime [2]uint32 // numerator, denominator
	FNumber      [2]uint32
	GPS          *LatLon
}

// LatLon is a coordinate in decimal degrees.
type LatLon struct {
	Lat, Lon float64
}

// FullEXIF populates every field the metadata check requires.
func FullEXIF() *EXIF {
	return &EXIF{
		Make:         "Acme",
		Model:        "Pocket 12",
		Orientation:  1,
		DateTime:     "2024:05:17 09:30:00",
		ISO:          200,
		ExposureTime: [2]uint32{1, 125},
		FNumber:      [2]uint32{28, 10},
	}
}

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5

	tagMake             = 0x010F
	tagModel            = 0x0110
	tagOrientation      = 0x0112
	tagDateTime         = 0x0132
	tagExifIFD          = 0x8769
	tagGPSIFD           = 0x8825
	tagExposureTime     = 0x829A
	tagFNumber          = 0x829D
	tagISO              = 0x8827
	tagDateTimeOriginal = 0x9003
	tagGPSLatRef        = 0x0001
	tagGPSLat           = 0x0002
	tagGPSLonRef        = 0x0003
	tagGPSLon           = 0x0004
)

var be = binary.BigEndian

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func ascii(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag, typeASCII, uint32(len(b)), b}
}

func short(tag, v uint16) entry {
	b := make([]byte, 2)
	be.PutUint16(b, v)
	return entry{tag, typeShort, 1, b}
}

func long(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	be.PutUint32(b, v)
	return entry{tag, typeLong, 1, b}
}

func rational(tag uint16, pairs ...[2]uint32) entry {
	b := make([]byte, 8*len(pairs))
	for i, p := range pairs {
		be.PutUint32(b[8*i:], p[0])
		be.PutUint32(b[8*i+4:], p[1])
	}
	return entry{tag, typeRational, uint32(len(pairs)), b}
}

// degrees encodes |v| as degrees/minutes/seconds rationals.
func degrees(v float64) [][2]uint32 {
	v = math.Abs(v)
	d := math.Floor(v)
	m := math.Floor((v - d) * 60)
	s := ((v-d)*60 - m) * 60
	return [][2]uint32{{uint32(d), 1}, {uint32(m), 1}, {uint32(math.Round(s * 1000)), 1000}}
}

// TIFF returns the big-endian TIFF structure holding the tags.
func (e *EXIF) TIFF() []byte {
	var ifd0, exif, gps []entry
	if e.Make != "" {
		ifd0 = append(ifd0, ascii(tagMake, e.Make))
	}
	if e.Model != "" {
		ifd0 = append(ifd0, ascii(tagModel, e.Model))
	}
	if e.Orientation != 0 {
		ifd0 = append(ifd0, short(tagOrientation, e.Orientation))
	}
	if e.DateTime != "" {
		ifd0 = append(ifd0, ascii(tagDateTime, e.DateTime))
		exif = append(exif, ascii(tagDateTimeOriginal, e.DateTime))
	}
	if e.ExposureTime[1] != 0 {
		exif = append(exif, rational(tagExposureTime, e.ExposureTime))
	}
	if e.FNumber[1] != 0 {
		exif = append(exif, rational(tagFNumber, e.FNumber))
	}
	if e.ISO != 0 {
		exif = append(exif, short(tagISO, e.ISO))
	}
	if e.GPS != nil {
		latRef, lonRef := "N", "E"
		if e.GPS.Lat < 0 {
			latRef = "S"
		}
		if e.GPS.Lon < 0 {
			lonRef = "W"
		}
		gps = append(gps,
			ascii(tagGPSLatRef, latRef),
			rational(tagGPSLat, degrees(e.GPS.Lat)...),
			ascii(tagGPSLonRef, lonRef),
			rational(tagGPSLon, degrees(e.GPS.Lon)...),
		)
	}
	if len(exif) > 0 {
		ifd0 = append(ifd0, long(tagExifIFD, 0))
	}
	if len(gps) > 0 {
		ifd0 = append(ifd0, long(tagGPSIFD, 0))
	}

	off0 := 8
	offExif := off0 + ifdLen(ifd0)
	offGPS := offExif + ifdLen(exif)
	for i := range ifd0 {
		switch ifd0[i].tag {
		case tagExifIFD:
			be.PutUint32(ifd0[i].data, uint32(offExif))
		case tagGPSIFD:
			be.PutUint32(ifd0[i].data, uint32(offGPS))
		}
	}

	out := make([]byte, offGPS+ifdLen(gps))
	copy(out, []byte{'M', 'M', 0x00, 0x2A})
	be.PutUint32(out[4:], uint32(off0))
	putIFD(out, off0, ifd0)
	if len(exif) > 0 {
		putIFD(out, offExif, exif)
	}
	if len(gps) > 0 {
		putIFD(out, offGPS, gps)
	}
	return out
}

// APP1 wraps the TIFF block in a JPEG APP1 "Exif" segment.
func (e *EXIF) APP1() []byte {
	tiff := e.TIFF()
	seg := make([]byte, 4, 10+len(tiff))
	seg[0], seg[1] = 0xFF, 0xE1
	be.PutUint16(seg[2:], uint16(2+6+len(tiff)))
	seg = append(seg, 'E', 'x', 'i', 'f', 0, 0)
	return append(seg, tiff...)
}

func ifdLen(es []entry) int {
	if len(es) == 0 {
		return 0
	}
	n := 2 + 12*len(es) + 4
	for _, e := range es {
		if len(e.data) > 4 {
			n += len(e.data) + len(e.data)%2
		}
	}
	return n
}

func putIFD(out []byte, off int, es []entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].tag < es[j].tag })
	be.PutUint16(out[off:], uint16(len(es)))
	p := off + 2
	data := off + 2 + 12*len(es) + 4
	for _, e := range es {
		be.PutUint16(out[p:], e.tag)
		be.PutUint16(out[p+2:], e.typ)
		be.PutUint32(out[p+4:], e.count)
		if len(e.data) <= 4 {
			copy(out[p+8:p+12], e.data)
		} else {
			be.PutUint32(out[p+8:], uint32(data))
			copy(out[data:], e.data)
			data += len(e.data) + len(e.data)%2
		}
		p += 12
	}
	be.PutUint32(out[p:], 0)
}
