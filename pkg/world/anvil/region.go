// Package anvil exports an in-memory world as Anvil region files and a
// level.dat.
package anvil

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/Tnze/go-mc/save/region"
	"github.com/klauspost/compress/zlib"

	"github.com/OCharnyshevich/citycraft/pkg/world"
)

const compressionZlib = 2

// RegionPos identifies a 32×32-chunk region file.
type RegionPos struct{ X, Z int }

// RegionOf returns the region containing chunk c.
func RegionOf(c world.ChunkPos) RegionPos {
	rx, rz := region.At(c.X, c.Z)
	return RegionPos{X: rx, Z: rz}
}

// RegionFile returns the file name of region r.
func RegionFile(r RegionPos) string {
	return fmt.Sprintf("r.%d.%d.mca", r.X, r.Z)
}

type sector struct {
	x, z    int // position inside the region
	payload []byte
}

// SaveRegion writes all provided chunks to dir/r.<rx>.<rz>.mca.
// chunks maps chunk positions to their uncompressed NBT data.
func SaveRegion(dir string, r RegionPos, chunks map[world.ChunkPos][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create region dir: %w", err)
	}

	sectors := make([]sector, 0, len(chunks))
	for pos, nbtData := range chunks {
		if RegionOf(pos) != r {
			return fmt.Errorf("chunk (%d,%d) is outside region (%d,%d)", pos.X, pos.Z, r.X, r.Z)
		}
		var buf bytes.Buffer
		buf.WriteByte(compressionZlib)
		zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("create zlib writer: %w", err)
		}
		if _, err := zw.Write(nbtData); err != nil {
			return fmt.Errorf("compress chunk (%d,%d): %w", pos.X, pos.Z, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zlib writer: %w", err)
		}
		x, z := region.In(pos.X, pos.Z)
		sectors = append(sectors, sector{x: x, z: z, payload: buf.Bytes()})
	}
	// Stable sector layout for identical input.
	sort.Slice(sectors, func(i, j int) bool {
		if sectors[i].z != sectors[j].z {
			return sectors[i].z < sectors[j].z
		}
		return sectors[i].x < sectors[j].x
	})

	path := filepath.Join(dir, RegionFile(r))
	return replaceFile(path, func(tmp string) error {
		return writeSectors(tmp, sectors)
	})
}

func writeSectors(path string, sectors []sector) (err error) {
	mca, err := region.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := mca.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()

	for _, s := range sectors {
		if err := mca.WriteSector(s.x, s.z, s.payload); err != nil {
			return fmt.Errorf("write chunk (%d,%d): %w", s.x, s.z, err)
		}
	}
	return mca.PadToFullSector()
}

// replaceFile has write produce a temp file next to path, then renames
// it over path. The temp file never outlives the call.
func replaceFile(path string, write func(tmp string) error) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale %s: %w", filepath.Base(tmp), err)
	}
	defer os.Remove(tmp)

	if err := write(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
