package tiles

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/protomaps/go-pmtiles/pmtiles"
)

// PMTiles v3 header and directory decoding. go-pmtiles exports the
// header/entry types but keeps its codec unexported, so the wire format
// is decoded here.

const headerMagic = "PMTiles"

// parseHeader decodes the fixed 127-byte archive header.
func parseHeader(data []byte) (pmtiles.HeaderV3, error) {
	var h pmtiles.HeaderV3
	if len(data) < pmtiles.HeaderV3LenBytes {
		return h, fmt.Errorf("header too short: %d bytes", len(data))
	}
	if string(data[0:7]) != headerMagic {
		return h, fmt.Errorf("bad magic %q", data[0:7])
	}
	if data[7] != 3 {
		return h, fmt.Errorf("unsupported spec version %d", data[7])
	}

	h.SpecVersion = data[7]
	h.RootOffset = binary.LittleEndian.Uint64(data[8:16])
	h.RootLength = binary.LittleEndian.Uint64(data[16:24])
	h.MetadataOffset = binary.LittleEndian.Uint64(data[24:32])
	h.MetadataLength = binary.LittleEndian.Uint64(data[32:40])
	h.LeafDirectoryOffset = binary.LittleEndian.Uint64(data[40:48])
	h.LeafDirectoryLength = binary.LittleEndian.Uint64(data[48:56])
	h.TileDataOffset = binary.LittleEndian.Uint64(data[56:64])
	h.TileDataLength = binary.LittleEndian.Uint64(data[64:72])
	h.AddressedTilesCount = binary.LittleEndian.Uint64(data[72:80])
	h.TileEntriesCount = binary.LittleEndian.Uint64(data[80:88])
	h.TileContentsCount = binary.LittleEndian.Uint64(data[88:96])
	h.Clustered = data[96] == 1
	h.InternalCompression = pmtiles.Compression(data[97])
	h.TileCompression = pmtiles.Compression(data[98])
	h.TileType = pmtiles.TileType(data[99])
	h.MinZoom = data[100]
	h.MaxZoom = data[101]
	h.MinLonE7 = int32(binary.LittleEndian.Uint32(data[102:106]))
	h.MinLatE7 = int32(binary.LittleEndian.Uint32(data[106:110]))
	h.MaxLonE7 = int32(binary.LittleEndian.Uint32(data[110:114]))
	h.MaxLatE7 = int32(binary.LittleEndian.Uint32(data[114:118]))
	h.CenterZoom = data[118]
	h.CenterLonE7 = int32(binary.LittleEndian.Uint32(data[119:123]))
	h.CenterLatE7 = int32(binary.LittleEndian.Uint32(data[123:127]))

	return h, nil
}

// parseDirectory decodes an uncompressed directory section: an entry
// count, then per-column varints (delta tile ids, run lengths, lengths,
// offsets with 0 meaning "previous offset + previous length").
func parseDirectory(data []byte) ([]pmtiles.EntryV3, error) {
	r := bytes.NewReader(data)

	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("directory entry count: %w", err)
	}
	entries := make([]pmtiles.EntryV3, count)

	var lastID uint64
	for i := range entries {
		delta, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("directory tile id %d: %w", i, err)
		}
		lastID += delta
		entries[i].TileID = lastID
	}
	for i := range entries {
		runLength, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("directory run length %d: %w", i, err)
		}
		entries[i].RunLength = uint32(runLength)
	}
	for i := range entries {
		length, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("directory length %d: %w", i, err)
		}
		entries[i].Length = uint32(length)
	}
	for i := range entries {
		offset, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("directory offset %d: %w", i, err)
		}
		switch {
		case offset == 0 && i > 0:
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		case offset == 0:
			return nil, fmt.Errorf("directory offset %d: zero with no predecessor", i)
		default:
			entries[i].Offset = offset - 1
		}
	}

	return entries, nil
}

// findTileEntry binary-searches a directory for a tile id. A run-length
// entry matches every id in [TileId, TileId+RunLength); a run length of
// zero marks a leaf directory pointer, which matches any id at or after
// its own so the walk can descend.
func findTileEntry(entries []pmtiles.EntryV3, tileID uint64) (pmtiles.EntryV3, bool) {
	m := 0
	n := len(entries) - 1
	for m <= n {
		k := (m + n) >> 1
		switch {
		case tileID > entries[k].TileID:
			m = k + 1
		case tileID < entries[k].TileID:
			n = k - 1
		default:
			return entries[k], true
		}
	}

	if n >= 0 {
		if entries[n].RunLength == 0 {
			return entries[n], true
		}
		if tileID-entries[n].TileID < uint64(entries[n].RunLength) {
			return entries[n], true
		}
	}
	return pmtiles.EntryV3{}, false
}
