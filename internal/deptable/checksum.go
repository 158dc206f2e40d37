package deptable

import (
	"encoding/binary"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
)

// Checksum returns a 64-bit content fingerprint of the file at path.
func Checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := sha3.NewShake128()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := h.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// checksum treats unreadable files as not yet fingerprinted.
func (t *Table) checksum(path string) uint64 {
	sum, err := Checksum(path)
	if err != nil {
		t.logger.Printf("deptable: checksum %s: %v", path, err)
		return 0
	}
	return sum
}
