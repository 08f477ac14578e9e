package store

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"doorsign-go/errcode"
	"doorsign-go/types"
)

const (
	recordMagic   = 0xD5
	recordVersion = 1
	// MaxRecordLen is the largest encoding: header, weather, uvarint, crc.
	MaxRecordLen = 3 + 9 + binary.MaxVarintLen64 + 4
)

// Record is the state that survives power loss.
type Record struct {
	Weather *types.WeatherSnapshot // nil: no cached weather
	Image   int
}

// Encode writes r into buf and returns the encoded length. A buf too small
// for the record yields errcode.Overflow and n == 0.
//
//	magic u8 | version u8 | weather flag u8
//	[temperature f32 LE | code u8 | humidity f32 LE]
//	image uvarint | crc32(IEEE) LE over all preceding bytes
func Encode(r Record, buf []byte) (int, error) {
	var tmp [MaxRecordLen]byte
	n := 0
	tmp[n] = recordMagic
	tmp[n+1] = recordVersion
	n += 2
	if w := r.Weather; w != nil {
		tmp[n] = 1
		n++
		binary.LittleEndian.PutUint32(tmp[n:], math.Float32bits(w.Temperature))
		tmp[n+4] = w.WeatherCode
		binary.LittleEndian.PutUint32(tmp[n+5:], math.Float32bits(w.RelativeHumidity))
		n += 9
	} else {
		tmp[n] = 0
		n++
	}
	if r.Image < 0 {
		return 0, errcode.New(errcode.InvalidParams, "store.encode", "negative image index")
	}
	n += binary.PutUvarint(tmp[n:], uint64(r.Image))
	binary.LittleEndian.PutUint32(tmp[n:], crc32.ChecksumIEEE(tmp[:n]))
	n += 4

	if n > len(buf) {
		return 0, errcode.New(errcode.Overflow, "store.encode", "record exceeds scratch buffer")
	}
	return copy(buf, tmp[:n]), nil
}

// Decode parses a record from the front of buf. Trailing bytes (the erased
// remainder of the block) are ignored.
func Decode(buf []byte) (Record, error) {
	var r Record
	fail := func(msg string) (Record, error) {
		return Record{}, errcode.New(errcode.Decode, "store.decode", msg)
	}
	if len(buf) < 3 {
		return fail("short record")
	}
	if buf[0] != recordMagic {
		return fail("bad magic")
	}
	if buf[1] != recordVersion {
		return fail("unsupported version")
	}
	n := 3
	switch buf[2] {
	case 0:
	case 1:
		if len(buf) < n+9 {
			return fail("short weather")
		}
		r.Weather = &types.WeatherSnapshot{
			Temperature:      math.Float32frombits(binary.LittleEndian.Uint32(buf[n:])),
			WeatherCode:      buf[n+4],
			RelativeHumidity: math.Float32frombits(binary.LittleEndian.Uint32(buf[n+5:])),
		}
		n += 9
	default:
		return fail("bad weather flag")
	}
	img, k := binary.Uvarint(buf[n:])
	if k <= 0 || img > math.MaxInt32 {
		return fail("bad image index")
	}
	n += k
	if len(buf) < n+4 {
		return fail("short checksum")
	}
	if binary.LittleEndian.Uint32(buf[n:]) != crc32.ChecksumIEEE(buf[:n]) {
		return fail("checksum mismatch")
	}
	r.Image = int(img)
	return r, nil
}
