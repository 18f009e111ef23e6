package motifdb

import (
	"archive/tar"
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	path "path/filepath"
	"sync"

	"github.com/TuftsBCB/motif/descriptor"
)

// Open reads an index from disk. All buckets are loaded into memory.
func Open(fpath string) (*DB, error) {
	dbf, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer dbf.Close()

	db := &DB{
		Name:   path.Base(fpath),
		lock:   new(sync.Mutex),
		closed: true,
	}
	tr := tar.NewReader(dbf)

	if _, err := tr.Next(); err != nil { // the dir header, skip it
		return nil, err
	}
	if _, err := tr.Next(); err != nil { // the structures header
		return nil, err
	}
	if err := json.NewDecoder(tr).Decode(&db.meta); err != nil {
		return nil, fmt.Errorf("Could not read structures of '%s': %s",
			fpath, err)
	}
	db.ids = make(map[string]int, len(db.meta.Structures))
	for i, entry := range db.meta.Structures {
		db.ids[entry.Id] = i
	}
	db.opIds = make(map[string]uint8, len(db.meta.OperatorId))
	for i, op := range db.meta.OperatorId {
		db.opIds[op] = uint8(i)
	}

	hdr, err := tr.Next() // the index header
	if err != nil {
		return nil, err
	}
	r := &itemReader{buf: bufio.NewReaderSize(tr, 1<<20), remaining: hdr.Size}
	db.buckets = make(map[descriptor.Descriptor]*bucket, 1<<16)
	for {
		key, b, err := db.readBucket(r)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("Could not read index '%s': %s", fpath, err)
		}
		db.buckets[key] = b
	}
	return db, nil
}

// readBucket reads a single bucket item. Its layout is the key, the number
// of structures and for each structure its index, the number of occurrences
// and the occurrences themselves (two residue indices and two operator
// bytes each). All integers are big endian and 4 bytes wide.
func (db *DB) readBucket(r *itemReader) (descriptor.Descriptor, *bucket, error) {
	if err := r.readItem(); err != nil {
		return 0, nil, err
	}
	buf := r.item
	corrupt := func() error {
		return fmt.Errorf("Corrupt bucket item of length %d.", len(r.item))
	}
	u32 := func() (uint32, bool) {
		if len(buf) < 4 {
			return 0, false
		}
		v := binary.BigEndian.Uint32(buf)
		buf = buf[4:]
		return v, true
	}

	key, ok1 := u32()
	ngroups, ok2 := u32()
	if !ok1 || !ok2 || uint64(ngroups)*8 > uint64(len(buf)) {
		return 0, nil, corrupt()
	}
	b := &bucket{
		structs: make([]int32, 0, ngroups),
		offsets: make([]int32, 0, ngroups+1),
	}
	for g := uint32(0); g < ngroups; g++ {
		structIdx, ok1 := u32()
		nocc, ok2 := u32()
		if !ok1 || !ok2 || int(structIdx) >= len(db.meta.Structures) ||
			uint64(nocc)*10 > uint64(len(buf)) {
			return 0, nil, corrupt()
		}
		b.structs = append(b.structs, int32(structIdx))
		b.offsets = append(b.offsets, int32(len(b.pairs)/2))
		for k := uint32(0); k < nocc; k++ {
			i, ok1 := u32()
			j, ok2 := u32()
			if !ok1 || !ok2 || len(buf) < 2 {
				return 0, nil, corrupt()
			}
			opi, opj := buf[0], buf[1]
			buf = buf[2:]
			if int(opi) >= len(db.meta.OperatorId) ||
				int(opj) >= len(db.meta.OperatorId) {
				return 0, nil, corrupt()
			}
			b.pairs = append(b.pairs, int32(i), int32(j))
			b.ops = append(b.ops, opi, opj)
		}
	}
	if len(buf) != 0 {
		return 0, nil, corrupt()
	}
	b.offsets = append(b.offsets, int32(len(b.pairs)/2))
	return descriptor.Descriptor(key), b, nil
}

func (db *DB) writeBucket(
	saveBuf *bytes.Buffer,
	key descriptor.Descriptor,
	b *bucket,
) error {
	if err := binw(db.writeBuf, uint32(key)); err != nil {
		return fmt.Errorf("Error writing bucket '%s': %s", key, err)
	}
	if err := binw(db.writeBuf, uint32(len(b.structs))); err != nil {
		return fmt.Errorf("Error writing bucket '%s': %s", key, err)
	}
	for g, structIdx := range b.structs {
		start, end := b.offsets[g], b.offsets[g+1]
		if err := binw(db.writeBuf, uint32(structIdx)); err != nil {
			return fmt.Errorf("Error writing bucket '%s': %s", key, err)
		}
		if err := binw(db.writeBuf, uint32(end-start)); err != nil {
			return fmt.Errorf("Error writing bucket '%s': %s", key, err)
		}
		for k := start; k < end; k++ {
			occ := []uint32{uint32(b.pairs[2*k]), uint32(b.pairs[2*k+1])}
			if err := binw(db.writeBuf, occ); err != nil {
				return fmt.Errorf("Error writing bucket '%s': %s", key, err)
			}
			db.writeBuf.Write(b.ops[2*k : 2*k+2])
		}
	}
	return writeItem(saveBuf, db.writeBuf)
}

// writeItem writes the contents of item to w prefixed by its length, and
// resets item.
func writeItem(w *bytes.Buffer, item *bytes.Buffer) error {
	itemLen := uint32(item.Len())
	if err := binw(w, itemLen); err != nil {
		return fmt.Errorf("Could not write item size: %s", err)
	}
	if _, err := w.Write(item.Bytes()); err != nil {
		return fmt.Errorf("Could not write item: %s", err)
	}
	item.Reset()
	return nil
}

// itemReader reads length-prefixed items out of remaining bytes.
type itemReader struct {
	buf       *bufio.Reader
	item      []byte
	remaining int64
}

func (r *itemReader) readItem() error {
	if r.remaining == 0 {
		return io.EOF
	}
	if err := r.readNBytes(4); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	r.remaining -= 4
	itemLen := binary.BigEndian.Uint32(r.item)
	if int64(itemLen) > r.remaining {
		return fmt.Errorf("Item of length %d is longer than the %d bytes "+
			"left in the index.", itemLen, r.remaining)
	}
	r.remaining -= int64(itemLen)

	if err := r.readNBytes(int(itemLen)); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

func (r *itemReader) readNBytes(n int) error {
	if r.item == nil || n > cap(r.item) {
		r.item = make([]byte, n)
	}
	r.item = r.item[0:n]

	nread := 0
	for nread < n {
		if thisn, err := r.buf.Read(r.item[nread:]); err != nil {
			if err == io.EOF && nread == 0 {
				return io.EOF
			}
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return fmt.Errorf("Error reading item: %s", err)
		} else if thisn == 0 {
			return fmt.Errorf("Expected item with length %d, but got %d",
				n, nread)
		} else {
			nread += thisn
		}
	}
	return nil
}

func binw(w io.Writer, v interface{}) error {
	return binary.Write(w, binary.BigEndian, v)
}
