// SPDX-License-Identifier: Unlicense OR MIT

package wire

import (
	"encoding/binary"
	"math"
)

// Binary layout constants: a 16-byte header followed by one 28-byte
// record per glyph, all in the host's chosen byte order.
const (
	headerSize    = 16
	glyphRecord   = 28
	uploadHdrSize = 4
	uploadHdr2    = 16 // i32 x, y, w, h per upload, following the count
)

// Sentinel return codes for EncodeBinary's direct-buffer fast path.
const (
	ErrGeneric    = -1
	ErrBufferSize = -2
)

// EncodeBinary packs r into dst in the fixed direct-buffer layout, using
// order for every multi-byte field (the host picks native or a fixed
// endianness; this package has no opinion of its own). atlasW and atlasH
// are the atlas texture's pixel dimensions (engine.GetAtlasSize), needed
// to normalize each glyph's atlas rect into [0,1]. It returns the glyph
// count on success, ErrBufferSize if dst is too small to hold the header
// and every glyph record, or ErrGeneric if r is internally inconsistent
// (its parallel slices disagree in length).
func EncodeBinary(dst []byte, r Result, atlasW, atlasH int, order binary.ByteOrder) int {
	n := len(r.GlyphIDs)
	if len(r.Positions) != 2*n || len(r.AtlasRects) != 4*n ||
		len(r.GlyphOffsets) != 2*n || len(r.FontIndices) != n {
		return ErrGeneric
	}
	need := headerSize + n*glyphRecord
	if len(dst) < need {
		return ErrBufferSize
	}

	order.PutUint32(dst[0:4], uint32(n))
	putFloat32(dst[4:8], r.TotalWidth, order)
	putFloat32(dst[8:12], r.Ascent, order)
	putFloat32(dst[12:16], r.Descent, order)

	for i := 0; i < n; i++ {
		off := headerSize + i*glyphRecord
		order.PutUint16(dst[off:off+2], r.GlyphIDs[i])
		order.PutUint16(dst[off+2:off+4], 0) // reserved

		rx, ry, rw, rh := r.AtlasRects[4*i], r.AtlasRects[4*i+1], r.AtlasRects[4*i+2], r.AtlasRects[4*i+3]
		ux, uy, uw, uh := normalizeRect(rx, ry, rw, rh, float32(atlasW), float32(atlasH))

		putFloat32(dst[off+4:off+8], r.Positions[2*i], order)
		putFloat32(dst[off+8:off+12], r.Positions[2*i+1], order)
		putFloat32(dst[off+12:off+16], ux, order)
		putFloat32(dst[off+16:off+20], uy, order)
		putFloat32(dst[off+20:off+24], uw, order)
		putFloat32(dst[off+24:off+28], uh, order)
	}
	return n
}

// DecodeBinary is EncodeBinary's inverse. It does not recover
// FontIndices or GlyphOffsets (the 28-byte record has no field for them:
// FontIndices comes back nil and GlyphOffsets zero-filled), atlas pixel
// rects (only their normalized form survives the round trip), or
// TotalHeight (the header does not carry it; it is set to
// Ascent + Descent). Callers needing those must use the JSON encoding
// instead.
func DecodeBinary(src []byte, order binary.ByteOrder) (Result, bool) {
	if len(src) < headerSize {
		return Result{}, false
	}
	n := int(order.Uint32(src[0:4]))
	if n < 0 || len(src) < headerSize+n*glyphRecord {
		return Result{}, false
	}

	r := Result{
		GlyphIDs:     make([]uint16, n),
		Positions:    make([]float32, 2*n),
		GlyphOffsets: make([]float32, 2*n),
		AtlasRects:   make([]float32, 4*n),
		TotalWidth:   getFloat32(src[4:8], order),
		Ascent:       getFloat32(src[8:12], order),
		Descent:      getFloat32(src[12:16], order),
	}
	r.TotalHeight = r.Ascent + r.Descent

	for i := 0; i < n; i++ {
		off := headerSize + i*glyphRecord
		r.GlyphIDs[i] = order.Uint16(src[off : off+2])
		r.Positions[2*i] = getFloat32(src[off+4:off+8], order)
		r.Positions[2*i+1] = getFloat32(src[off+8:off+12], order)

		ux := getFloat32(src[off+12:off+16], order)
		uy := getFloat32(src[off+16:off+20], order)
		uw := getFloat32(src[off+20:off+24], order)
		uh := getFloat32(src[off+24:off+28], order)
		r.AtlasRects[4*i] = ux
		r.AtlasRects[4*i+1] = uy
		r.AtlasRects[4*i+2] = uw
		r.AtlasRects[4*i+3] = uh
	}
	return r, true
}

// Upload is the wire package's counterpart to engine.PendingUpload, kept
// independent of the engine package for the same reason Result is.
type Upload struct {
	X, Y, W, H int
	Data       []byte
}

// EncodeUploads packs a batch of pending uploads: an i32 count header,
// then per upload four i32 coordinates followed by its raw RGBA bytes.
func EncodeUploads(uploads []Upload, order binary.ByteOrder) []byte {
	size := uploadHdrSize
	for _, u := range uploads {
		size += uploadHdr2 + len(u.Data)
	}
	out := make([]byte, size)
	order.PutUint32(out[0:4], uint32(len(uploads)))
	off := uploadHdrSize
	for _, u := range uploads {
		order.PutUint32(out[off:off+4], uint32(u.X))
		order.PutUint32(out[off+4:off+8], uint32(u.Y))
		order.PutUint32(out[off+8:off+12], uint32(u.W))
		order.PutUint32(out[off+12:off+16], uint32(u.H))
		off += uploadHdr2
		copy(out[off:off+len(u.Data)], u.Data)
		off += len(u.Data)
	}
	return out
}

// DecodeUploads is EncodeUploads's inverse.
func DecodeUploads(src []byte, order binary.ByteOrder) ([]Upload, bool) {
	if len(src) < uploadHdrSize {
		return nil, false
	}
	count := int(order.Uint32(src[0:4]))
	if count < 0 {
		return nil, false
	}
	uploads := make([]Upload, 0, count)
	off := uploadHdrSize
	for i := 0; i < count; i++ {
		if len(src) < off+uploadHdr2 {
			return nil, false
		}
		x := int(int32(order.Uint32(src[off : off+4])))
		y := int(int32(order.Uint32(src[off+4 : off+8])))
		w := int(int32(order.Uint32(src[off+8 : off+12])))
		h := int(int32(order.Uint32(src[off+12 : off+16])))
		off += uploadHdr2

		n := 4 * w * h
		if w < 0 || h < 0 || len(src) < off+n {
			return nil, false
		}
		data := make([]byte, n)
		copy(data, src[off:off+n])
		off += n

		uploads = append(uploads, Upload{X: x, Y: y, W: w, H: h, Data: data})
	}
	return uploads, true
}

// normalizeRect converts an atlas pixel rect to the [0,1]-normalized
// ux,uy,uw,uh the binary layout stores. Callers on the JSON path keep
// the pixel-space AtlasRects untouched; only the binary fast path
// normalizes, against the atlas's own pixel dimensions.
func normalizeRect(x, y, w, h, atlasW, atlasH float32) (ux, uy, uw, uh float32) {
	if atlasW == 0 || atlasH == 0 {
		return 0, 0, 0, 0
	}
	return x / atlasW, y / atlasH, w / atlasW, h / atlasH
}

func putFloat32(b []byte, f float32, order binary.ByteOrder) {
	order.PutUint32(b, math.Float32bits(f))
}

func getFloat32(b []byte, order binary.ByteOrder) float32 {
	return math.Float32frombits(order.Uint32(b))
}
