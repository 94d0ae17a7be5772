package biff

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const biff8 = 0x0600

// Record types.
const (
	recFormula    = 0x0006
	recEOF        = 0x000A
	recDateMode   = 0x0022
	recContinue   = 0x003C
	recBoundSheet = 0x0085
	recMulRK      = 0x00BD
	recSST        = 0x00FC
	recLabelSST   = 0x00FD
	recNumber     = 0x0203
	recLabel      = 0x0204
	recBoolErr    = 0x0205
	recString     = 0x0207
	recRK         = 0x027E
	recBOF        = 0x0809
)

const sheetWorksheet = 0x00

type record struct {
	typ  uint16
	data []byte
}

// readRecord returns the record at off and the offset of the next one.
func readRecord(stream []byte, off int) (record, int, error) {
	if off < 0 || off+4 > len(stream) {
		return record{}, off, ErrTruncated
	}
	typ := le16(stream[off:])
	end := off + 4 + int(le16(stream[off+2:]))
	if end > len(stream) {
		return record{}, off, ErrTruncated
	}
	return record{typ: typ, data: stream[off+4 : end]}, end, nil
}

func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func le64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

// decodeChars reads n characters stored either as UTF-16LE or as compressed
// single bytes, returning the bytes consumed.
func decodeChars(b []byte, n int, high bool) (string, int, error) {
	if !high {
		if len(b) < n {
			return "", 0, ErrTruncated
		}
		r := make([]rune, n)
		for i := 0; i < n; i++ {
			r[i] = rune(b[i])
		}
		return string(r), n, nil
	}
	if len(b) < 2*n {
		return "", 0, ErrTruncated
	}
	u := make([]uint16, n)
	for i := range u {
		u[i] = le16(b[2*i:])
	}
	return string(utf16.Decode(u)), 2 * n, nil
}

// decodeString16 reads a string with a 16-bit length and an option byte, as used
// by LABEL and STRING records.
func decodeString16(b []byte) (string, int, error) {
	if len(b) < 3 {
		return "", 0, ErrTruncated
	}
	s, n, err := decodeChars(b[3:], int(le16(b)), b[2]&0x01 != 0)
	return s, 3 + n, err
}

// segmentReader walks an SST record and its CONTINUE records as one stream.
// Character data split across records restarts with a fresh option byte.
type segmentReader struct {
	segments [][]byte
	seg, pos int
}

func (r *segmentReader) bytes(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for n > 0 {
		if r.pos >= len(r.segments[r.seg]) {
			if r.seg+1 >= len(r.segments) {
				return nil, ErrTruncated
			}
			r.seg++
			r.pos = 0
			continue
		}
		cur := r.segments[r.seg]
		k := min(n, len(cur)-r.pos)
		out = append(out, cur[r.pos:r.pos+k]...)
		r.pos += k
		n -= k
	}
	return out, nil
}

func (r *segmentReader) skip(n int) error {
	for n > 0 {
		if r.pos >= len(r.segments[r.seg]) {
			if r.seg+1 >= len(r.segments) {
				return ErrTruncated
			}
			r.seg++
			r.pos = 0
			continue
		}
		k := min(n, len(r.segments[r.seg])-r.pos)
		r.pos += k
		n -= k
	}
	return nil
}

func (r *segmentReader) chars(n int, high bool) (string, error) {
	var out []rune
	for n > 0 {
		if r.pos >= len(r.segments[r.seg]) {
			if r.seg+1 >= len(r.segments) || len(r.segments[r.seg+1]) == 0 {
				return "", ErrTruncated
			}
			r.seg++
			high = r.segments[r.seg][0]&0x01 != 0
			r.pos = 1
			continue
		}
		cur := r.segments[r.seg][r.pos:]
		width := 1
		if high {
			width = 2
		}
		k := min(n, len(cur)/width)
		if k == 0 {
			return "", ErrTruncated
		}
		s, used, err := decodeChars(cur, k, high)
		if err != nil {
			return "", err
		}
		out = append(out, []rune(s)...)
		r.pos += used
		n -= k
	}
	return string(out), nil
}

// parseSST reads the shared string table.
func parseSST(segments [][]byte) ([]string, error) {
	r := &segmentReader{segments: segments}
	head, err := r.bytes(8)
	if err != nil {
		return nil, err
	}
	unique := int(le32(head[4:]))
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	// every entry takes at least three bytes
	if unique > total/3 {
		return nil, fmt.Errorf("implausible shared string count %d", unique)
	}

	out := make([]string, 0, unique)
	for i := 0; i < unique; i++ {
		h, err := r.bytes(3)
		if err != nil {
			return nil, err
		}
		n, flags := int(le16(h)), h[2]
		var runs, ext int
		if flags&0x08 != 0 {
			b, err := r.bytes(2)
			if err != nil {
				return nil, err
			}
			runs = int(le16(b))
		}
		if flags&0x04 != 0 {
			b, err := r.bytes(4)
			if err != nil {
				return nil, err
			}
			ext = int(le32(b))
		}
		s, err := r.chars(n, flags&0x01 != 0)
		if err != nil {
			return nil, err
		}
		if err := r.skip(4*runs + ext); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
