// Package internal holds helpers shared by the blob store backends.
package internal

import (
	"io"
	"os"
)

// SizeOf returns the number of bytes r will yield, or -1 when that cannot
// be known without reading it.
func SizeOf(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len())
	case interface{ Size() int64 }:
		return v.Size()
	case *os.File:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		pos, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		return info.Size() - pos
	default:
		return -1
	}
}
