// Package pdftest builds small PDF files for tests.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Builder assembles a PDF from object bodies
type Builder struct {
	objects map[int]string
	next    int
	// Version is written in the header, "1.7" by default
	Version string
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{objects: make(map[int]string), next: 1, Version: "1.7"}
}

// Reserve allocates an object number to be filled with Set
func (b *Builder) Reserve() int {
	n := b.next
	b.next++
	return n
}

// Set stores the body of object num
func (b *Builder) Set(num int, body string) {
	b.objects[num] = body
	if num >= b.next {
		b.next = num + 1
	}
}

// Add stores a new object and returns its number
func (b *Builder) Add(body string) int {
	n := b.Reserve()
	b.objects[n] = body
	return n
}

// StreamBody formats a stream object body. entries are dictionary entries
// without the enclosing << >>; /Length is appended.
func StreamBody(entries string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", entries, len(data), data)
}

// AddStream stores an unfiltered stream
func (b *Builder) AddStream(entries string, data []byte) int {
	return b.Add(StreamBody(entries, data))
}

// AddFlateStream compresses data and stores it with /Filter /FlateDecode
func (b *Builder) AddFlateStream(entries string, data []byte) int {
	return b.AddStream(strings.TrimSpace(entries+" /Filter /FlateDecode"), Deflate(data))
}

// Deflate zlib-compresses data
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func (b *Builder) writeObjects(buf *bytes.Buffer) (map[int]int, int) {
	fmt.Fprintf(buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.Version)
	nums := make([]int, 0, len(b.objects))
	for n := range b.objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	offsets := make(map[int]int, len(nums))
	maxNum := 0
	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", n, b.objects[n])
		if n > maxNum {
			maxNum = n
		}
	}
	return offsets, maxNum
}

// Bytes writes the file with a classic xref table. trailer holds extra
// trailer entries such as "/Root 1 0 R"; /Size is added.
func (b *Builder) Bytes(trailer string) []byte {
	var buf bytes.Buffer
	offsets, maxNum := b.writeObjects(&buf)

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for n := 1; n <= maxNum; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
		} else {
			buf.WriteString("0000000000 00000 f\r\n")
		}
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", maxNum+1, trailer, xrefOffset)
	return buf.Bytes()
}

// BytesXRefStream writes the file with a cross-reference stream instead of
// a table
func (b *Builder) BytesXRefStream(trailer string) []byte {
	var buf bytes.Buffer
	offsets, maxNum := b.writeObjects(&buf)

	xrefNum := maxNum + 1
	xrefOffset := buf.Len()
	offsets[xrefNum] = xrefOffset

	var rows bytes.Buffer
	for n := 0; n <= xrefNum; n++ {
		off, ok := offsets[n]
		if !ok {
			rows.Write([]byte{0, 0, 0, 0, 0, 0xFF, 0xFF})
			continue
		}
		rows.WriteByte(1)
		binary.Write(&rows, binary.BigEndian, uint32(off))
		rows.Write([]byte{0, 0})
	}
	entries := fmt.Sprintf("/Type /XRef /Size %d /W [1 4 2] %s", xrefNum+1, trailer)
	fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", xrefNum, StreamBody(entries, rows.Bytes()))
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

// WriteFile writes data into dir and returns the path
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
