package tiles

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/protomaps/go-pmtiles/pmtiles"
)

// maxDirectoryDepth bounds root-to-leaf directory traversal, per the
// PMTiles spec.
const maxDirectoryDepth = 4

// ArchiveSource serves MVT features from a PMTiles v3 archive. Decoded
// tiles are cached for the session.
type ArchiveSource struct {
	r      io.ReaderAt
	closer io.Closer
	header pmtiles.HeaderV3
	root   []pmtiles.EntryV3

	mu    sync.Mutex
	cache map[maptile.Tile]mvt.Layers
}

// OpenArchive opens a PMTiles archive from the local filesystem.
func OpenArchive(path string) (*ArchiveSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewArchiveSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewArchiveSource reads the archive header and root directory from r.
func NewArchiveSource(r io.ReaderAt) (*ArchiveSource, error) {
	headerBytes := make([]byte, pmtiles.HeaderV3LenBytes)
	if _, err := r.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("pmtiles header: %w", err)
	}
	header, err := parseHeader(headerBytes)
	if err != nil {
		return nil, fmt.Errorf("pmtiles header: %w", err)
	}
	if header.TileType != pmtiles.Mvt {
		return nil, fmt.Errorf("pmtiles: unsupported tile type %d", header.TileType)
	}

	src := &ArchiveSource{
		r:      r,
		header: header,
		cache:  make(map[maptile.Tile]mvt.Layers),
	}

	src.root, err = src.readDirectory(header.RootOffset, header.RootLength)
	if err != nil {
		return nil, fmt.Errorf("pmtiles root directory: %w", err)
	}
	return src, nil
}

// Features returns the named layer's features for the tile.
func (as *ArchiveSource) Features(tile maptile.Tile, layer string) ([]*geojson.Feature, error) {
	layers, err := as.tileLayers(tile)
	if err != nil {
		return nil, err
	}
	for _, l := range layers {
		if l.Name == layer {
			return l.Features, nil
		}
	}
	return nil, nil
}

// tileLayers decodes (or returns the cached) layers of one tile.
func (as *ArchiveSource) tileLayers(tile maptile.Tile) (mvt.Layers, error) {
	as.mu.Lock()
	if layers, ok := as.cache[tile]; ok {
		as.mu.Unlock()
		return layers, nil
	}
	as.mu.Unlock()

	data, err := as.tileData(tile)
	if err != nil {
		return nil, err
	}

	var layers mvt.Layers
	if len(data) > 0 {
		layers, err = mvt.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("tile %v: %w", tile, err)
		}
		layers.ProjectToWGS84(tile)
	}

	as.mu.Lock()
	as.cache[tile] = layers
	as.mu.Unlock()
	return layers, nil
}

// tileData walks the directory tree to the tile's bytes. A missing tile
// yields nil data, not an error.
func (as *ArchiveSource) tileData(tile maptile.Tile) ([]byte, error) {
	if uint8(tile.Z) < as.header.MinZoom || uint8(tile.Z) > as.header.MaxZoom {
		return nil, nil
	}

	id := pmtiles.ZxyToID(uint8(tile.Z), tile.X, tile.Y)
	entries := as.root
	for depth := 0; depth < maxDirectoryDepth; depth++ {
		entry, ok := findTileEntry(entries, id)
		if !ok {
			return nil, nil
		}
		if entry.RunLength > 0 {
			raw, err := as.readAt(as.header.TileDataOffset+entry.Offset, uint64(entry.Length))
			if err != nil {
				return nil, err
			}
			return decompress(raw, as.header.TileCompression)
		}
		// RunLength zero marks a leaf directory pointer.
		var err error
		entries, err = as.readDirectory(as.header.LeafDirectoryOffset+entry.Offset, uint64(entry.Length))
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("pmtiles: directory nesting exceeds %d levels", maxDirectoryDepth)
}

func (as *ArchiveSource) readDirectory(offset, length uint64) ([]pmtiles.EntryV3, error) {
	raw, err := as.readAt(offset, length)
	if err != nil {
		return nil, err
	}
	data, err := decompress(raw, as.header.InternalCompression)
	if err != nil {
		return nil, err
	}
	return parseDirectory(data)
}

func (as *ArchiveSource) readAt(offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := as.r.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// decompress undoes the archive's per-section compression. The
// generator only ever writes gzip or none.
func decompress(data []byte, compression pmtiles.Compression) ([]byte, error) {
	switch compression {
	case pmtiles.NoCompression, pmtiles.UnknownCompression:
		return data, nil
	case pmtiles.Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("pmtiles: unsupported compression %d", compression)
	}
}

// Bounds returns the archive's stated extent.
func (as *ArchiveSource) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(as.header.MinLonE7) / 1e7, float64(as.header.MinLatE7) / 1e7},
		Max: orb.Point{float64(as.header.MaxLonE7) / 1e7, float64(as.header.MaxLatE7) / 1e7},
	}
}

func (as *ArchiveSource) MinZoom() maptile.Zoom { return maptile.Zoom(as.header.MinZoom) }

func (as *ArchiveSource) MaxZoom() maptile.Zoom { return maptile.Zoom(as.header.MaxZoom) }

func (as *ArchiveSource) Close() error {
	if as.closer != nil {
		return as.closer.Close()
	}
	return nil
}
