// Package pmtiles writes single-directory PMTiles v3 archives.
//
// Only what marker archives need is implemented: gzip-compressed MVT
// tiles, a root directory without leaf directories, and JSON metadata.
// Format: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Compression is the compression applied to tiles and directories.
type Compression uint8

const (
	NoCompression Compression = 1
	Gzip          Compression = 2
)

// TileType is the format of the tile contents.
type TileType uint8

// Mvt is the Mapbox vector tile type.
const Mvt TileType = 1

// HeaderLen is the fixed size of the binary header.
const HeaderLen = 127

var magic = []byte("PMTiles")

// ErrNoTiles is returned when an archive has nothing to write.
var ErrNoTiles = errors.New("pmtiles: no tiles")

// Header is the decoded archive header. Bounds and Center are in degrees.
type Header struct {
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTiles      uint64
	TileEntries         uint64
	TileContents        uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	Bounds              orb.Bound
	CenterZoom          uint8
	Center              orb.Point
}

type entry struct {
	tileID uint64
	offset uint64
	length uint32
}

// Archive is an in-memory set of encoded tiles.
type Archive struct {
	// Tiles holds uncompressed MVT bytes per tile; they are gzipped on write.
	Tiles      map[maptile.Tile][]byte
	Metadata   map[string]any
	MinZoom    uint8
	MaxZoom    uint8
	Bounds     orb.Bound
	Center     orb.Point
	CenterZoom uint8
}

// WriteTo writes the archive: header, root directory, metadata, tile data.
func (a Archive) WriteTo(w io.Writer) (int64, error) {
	if len(a.Tiles) == 0 {
		return 0, ErrNoTiles
	}

	tiles := make([]maptile.Tile, 0, len(a.Tiles))
	for t := range a.Tiles {
		tiles = append(tiles, t)
	}
	sort.Slice(tiles, func(i, j int) bool {
		return ZxyToID(tiles[i]) < ZxyToID(tiles[j])
	})

	var data bytes.Buffer
	entries := make([]entry, 0, len(tiles))
	for _, t := range tiles {
		gz, err := gzipBytes(a.Tiles[t])
		if err != nil {
			return 0, fmt.Errorf("compress tile %v: %w", t, err)
		}
		entries = append(entries, entry{tileID: ZxyToID(t), offset: uint64(data.Len()), length: uint32(len(gz))})
		data.Write(gz)
	}

	rootDir, err := serializeEntries(entries)
	if err != nil {
		return 0, err
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}
	meta, err = gzipBytes(meta)
	if err != nil {
		return 0, err
	}

	h := Header{
		RootOffset:          HeaderLen,
		RootLength:          uint64(len(rootDir)),
		MetadataOffset:      HeaderLen + uint64(len(rootDir)),
		MetadataLength:      uint64(len(meta)),
		TileDataOffset:      HeaderLen + uint64(len(rootDir)) + uint64(len(meta)),
		TileDataLength:      uint64(data.Len()),
		AddressedTiles:      uint64(len(entries)),
		TileEntries:         uint64(len(entries)),
		TileContents:        uint64(len(entries)),
		Clustered:           true,
		InternalCompression: Gzip,
		TileCompression:     Gzip,
		TileType:            Mvt,
		MinZoom:             a.MinZoom,
		MaxZoom:             a.MaxZoom,
		Bounds:              a.Bounds,
		CenterZoom:          a.CenterZoom,
		Center:              a.Center,
	}

	var n int64
	for _, part := range [][]byte{h.marshal(), rootDir, meta, data.Bytes()} {
		m, err := w.Write(part)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ZxyToID returns the Hilbert tile ID of t.
func ZxyToID(t maptile.Tile) uint64 {
	z := uint8(t.Z)
	x, y := t.X, t.Y
	acc := (uint64(1)<<(z*2) - 1) / 3
	for s := uint32(1) << z >> 1; s > 0; s >>= 1 {
		rx := s & x
		ry := s & y
		if rx > 0 {
			rx = 1
		}
		if ry > 0 {
			ry = 1
		}
		acc += uint64(s) * uint64(s) * uint64((3*rx)^ry)
		x, y = rotate(s, x, y, rx, ry)
	}
	return acc
}

func rotate(n, x, y, rx, ry uint32) (uint32, uint32) {
	if ry == 0 {
		if rx == 1 {
			x = n - 1 - x
			y = n - 1 - y
		}
		return y, x
	}
	return x, y
}

func (h Header) marshal() []byte {
	b := make([]byte, HeaderLen)
	copy(b[0:7], magic)
	b[7] = 3

	le := binary.LittleEndian
	for i, v := range []uint64{
		h.RootOffset, h.RootLength, h.MetadataOffset, h.MetadataLength,
		0, 0, // no leaf directories
		h.TileDataOffset, h.TileDataLength,
		h.AddressedTiles, h.TileEntries, h.TileContents,
	} {
		le.PutUint64(b[8+8*i:], v)
	}
	if h.Clustered {
		b[96] = 1
	}
	b[97] = uint8(h.InternalCompression)
	b[98] = uint8(h.TileCompression)
	b[99] = uint8(h.TileType)
	b[100] = h.MinZoom
	b[101] = h.MaxZoom
	le.PutUint32(b[102:], uint32(e7(h.Bounds.Min.Lon())))
	le.PutUint32(b[106:], uint32(e7(h.Bounds.Min.Lat())))
	le.PutUint32(b[110:], uint32(e7(h.Bounds.Max.Lon())))
	le.PutUint32(b[114:], uint32(e7(h.Bounds.Max.Lat())))
	b[118] = h.CenterZoom
	le.PutUint32(b[119:], uint32(e7(h.Center.Lon())))
	le.PutUint32(b[123:], uint32(e7(h.Center.Lat())))
	return b
}

// ReadHeader decodes the header at the start of r.
func ReadHeader(r io.Reader) (Header, error) {
	b := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r, b); err != nil {
		return Header{}, fmt.Errorf("pmtiles: read header: %w", err)
	}
	if !bytes.Equal(b[0:7], magic) || b[7] != 3 {
		return Header{}, errors.New("pmtiles: not a v3 archive")
	}

	le := binary.LittleEndian
	u := func(i int) uint64 { return le.Uint64(b[8+8*i:]) }
	deg := func(off int) float64 { return float64(int32(le.Uint32(b[off:]))) / 1e7 }

	return Header{
		RootOffset:          u(0),
		RootLength:          u(1),
		MetadataOffset:      u(2),
		MetadataLength:      u(3),
		TileDataOffset:      u(6),
		TileDataLength:      u(7),
		AddressedTiles:      u(8),
		TileEntries:         u(9),
		TileContents:        u(10),
		Clustered:           b[96] == 1,
		InternalCompression: Compression(b[97]),
		TileCompression:     Compression(b[98]),
		TileType:            TileType(b[99]),
		MinZoom:             b[100],
		MaxZoom:             b[101],
		Bounds:              orb.Bound{Min: orb.Point{deg(102), deg(106)}, Max: orb.Point{deg(110), deg(114)}},
		CenterZoom:          b[118],
		Center:              orb.Point{deg(119), deg(123)},
	}, nil
}

// serializeEntries encodes the directory column by column: IDs as deltas,
// run lengths, lengths, then offsets (0 when contiguous with the previous
// entry, offset+1 otherwise).
func serializeEntries(entries []entry) ([]byte, error) {
	var raw bytes.Buffer
	tmp := make([]byte, binary.MaxVarintLen64)
	put := func(v uint64) {
		n := binary.PutUvarint(tmp, v)
		raw.Write(tmp[:n])
	}

	put(uint64(len(entries)))
	var last uint64
	for _, e := range entries {
		put(e.tileID - last)
		last = e.tileID
	}
	for range entries {
		put(1)
	}
	for _, e := range entries {
		put(uint64(e.length))
	}
	for i, e := range entries {
		if i > 0 && e.offset == entries[i-1].offset+uint64(entries[i-1].length) {
			put(0)
		} else {
			put(e.offset + 1)
		}
	}
	return gzipBytes(raw.Bytes())
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func e7(deg float64) int32 {
	return int32(math.Round(deg * 1e7))
}
