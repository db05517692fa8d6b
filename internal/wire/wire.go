// Package wire implements the deterministic little-endian, length-prefixed
// framing primitives that transaction ids, block hashes and the block-log
// disk format are all built from (spec §4.2, §4.7). Every multi-byte
// integer is little-endian; every variable-length field is written as a
// u32 length prefix followed by its raw bytes.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteU32 writes a uint32 in little-endian order.
func WriteU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteI32 writes an int32 in little-endian order.
func WriteI32(w io.Writer, v int32) error {
	return WriteU32(w, uint32(v))
}

// WriteU64 writes a uint64 in little-endian order.
func WriteU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteI64 writes an int64 in little-endian order.
func WriteI64(w io.Writer, v int64) error {
	return WriteU64(w, uint64(v))
}

// WriteBytesLP writes a u32 length prefix followed by data.
func WriteBytesLP(w io.Writer, data []byte) error {
	if err := WriteU32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// WriteStringLP writes a u32 length prefix followed by the string's bytes.
func WriteStringLP(w io.Writer, s string) error {
	return WriteBytesLP(w, []byte(s))
}

// ReadU32 reads a little-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadI32 reads a little-endian int32.
func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

// ReadU64 reads a little-endian uint64.
func ReadU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadI64 reads a little-endian int64.
func ReadI64(r io.Reader) (int64, error) {
	v, err := ReadU64(r)
	return int64(v), err
}

// maxLPSize bounds a single length-prefixed field so a corrupted or
// truncated log can't trigger a multi-gigabyte allocation.
const maxLPSize = 64 << 20

// ReadBytesLP reads a u32 length prefix followed by that many bytes.
func ReadBytesLP(r io.Reader) ([]byte, error) {
	n, err := ReadU32(r)
	if err != nil {
		return nil, err
	}
	if n > maxLPSize {
		return nil, fmt.Errorf("wire: length-prefixed field too large (%d bytes)", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadStringLP reads a length-prefixed field and returns it as a string.
func ReadStringLP(r io.Reader) (string, error) {
	b, err := ReadBytesLP(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
