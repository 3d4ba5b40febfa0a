// Package chunkqueue implements a FIFO byte queue over mixed in-memory
// and on-disk chunks, with zero-copy transfer between queues. It backs
// both directions of AJP13 body streaming: GET_BODY_CHUNK/FORWARD_REQUEST
// DATA framing on the way out, SEND_BODY_CHUNK payload assembly on the
// way in.
package chunkqueue

import (
	"fmt"
	"io"
	"os"

	"github.com/tevino/abool"
)

type kind int

const (
	kindBuffer kind = iota
	kindFile
)

type fileRef struct {
	path   string
	offset int64
	length int64

	// isTemp marks the single chunk, among possibly several slices of
	// the same backing file, responsible for releasing it once
	// consumed. Ownership moves from a source queue's last remaining
	// slice of a file to the destination's last slice on a zero-copy
	// steal, so a file is released exactly once regardless of how many
	// packets its bytes were split across.
	isTemp   bool
	release  func() error
	released *abool.AtomicBool
}

type entry struct {
	kind kind
	buf  []byte // kindBuffer: off..len(buf) is unread
	off  int
	file *fileRef // kindFile
}

func (e *entry) remaining() int64 {
	if e.kind == kindBuffer {
		return int64(len(e.buf) - e.off)
	}
	return e.file.length
}

// Queue is a FIFO sequence of buffer and file chunks. Construct with New:
// the zero value has no closed flag, so Close and IsClosed panic on it.
type Queue struct {
	entries  []*entry
	bytesIn  int64
	bytesOut int64
	closed   *abool.AtomicBool
}

func New() *Queue {
	return &Queue{closed: abool.New()}
}

// Len reports the number of unread bytes across all chunks.
func (q *Queue) Len() int {
	var n int64
	for _, e := range q.entries {
		n += e.remaining()
	}
	return int(n)
}

func (q *Queue) Empty() bool { return q.Len() == 0 }

// AppendBuffer enqueues an in-memory chunk. The slice is taken as-is,
// not copied; callers must not mutate it afterward.
func (q *Queue) AppendBuffer(b []byte) {
	if len(b) == 0 {
		return
	}
	q.entries = append(q.entries, &entry{kind: kindBuffer, buf: b})
	q.bytesIn += int64(len(b))
}

// AppendFile enqueues a slice of an on-disk file. When isTemp is set and
// release is non-nil, release is invoked exactly once, when the LAST
// chunk referencing this file (across every queue it is stolen into) is
// fully consumed; without isTemp it is never invoked.
func (q *Queue) AppendFile(path string, offset, length int64, isTemp bool, release func() error) {
	if length == 0 {
		return
	}
	q.entries = append(q.entries, &entry{
		kind: kindFile,
		file: &fileRef{
			path: path, offset: offset, length: length,
			isTemp: isTemp, release: release, released: abool.New(),
		},
	})
	q.bytesIn += length
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// StealInto moves up to n bytes from the front of q into dst, without
// copying file-backed bytes and without copying a buffer chunk that
// moves across whole. Returns the number of bytes actually moved, which
// is less than n only when q ran dry.
func (q *Queue) StealInto(dst *Queue, n int) (int, error) {
	moved := 0
	for moved < n && len(q.entries) > 0 {
		e := q.entries[0]
		want := int64(n - moved)

		switch e.kind {
		case kindBuffer:
			avail := int64(len(e.buf) - e.off)
			take := min64(avail, want)
			if take == avail {
				dst.AppendBuffer(e.buf[e.off:])
				q.entries = q.entries[1:]
			} else {
				cp := make([]byte, take)
				copy(cp, e.buf[e.off:e.off+int(take)])
				dst.AppendBuffer(cp)
				e.off += int(take)
			}
			moved += int(take)
			q.bytesOut += take

		case kindFile:
			take := min64(e.file.length, want)
			dst.entries = append(dst.entries, &entry{
				kind: kindFile,
				file: &fileRef{path: e.file.path, offset: e.file.offset, length: take, released: abool.New()},
			})
			dst.bytesIn += take
			e.file.offset += take
			e.file.length -= take
			if e.file.length == 0 {
				if e.file.isTemp {
					last := dst.entries[len(dst.entries)-1].file
					last.isTemp = true
					last.release = e.file.release
					last.released = e.file.released
					e.file.isTemp = false
				}
				q.entries = q.entries[1:]
			}
			moved += int(take)
			q.bytesOut += take
		}
	}
	return moved, nil
}

// StealBytes copies up to len(dst) bytes from the front of q into dst,
// reading file-backed chunks from disk. Used to assemble header and
// payload scratch space, which callers need as a contiguous slice
// regardless of how the source chunks are laid out.
func (q *Queue) StealBytes(dst []byte) (int, error) {
	copied := 0
	for copied < len(dst) && len(q.entries) > 0 {
		e := q.entries[0]
		want := len(dst) - copied

		switch e.kind {
		case kindBuffer:
			avail := len(e.buf) - e.off
			take := avail
			if take > want {
				take = want
			}
			copy(dst[copied:copied+take], e.buf[e.off:e.off+take])
			e.off += take
			copied += take
			q.bytesOut += int64(take)
			if e.off == len(e.buf) {
				q.entries = q.entries[1:]
			}

		case kindFile:
			take := int64(want)
			if take > e.file.length {
				take = e.file.length
			}
			n, err := readFileAt(e.file.path, e.file.offset, dst[copied:copied+int(take)])
			if err != nil {
				return copied, fmt.Errorf("chunkqueue: read file chunk: %w", err)
			}
			e.file.offset += int64(n)
			e.file.length -= int64(n)
			copied += n
			q.bytesOut += int64(n)
			if e.file.length == 0 {
				if e.file.isTemp {
					releaseFile(e.file)
				}
				q.entries = q.entries[1:]
			}
			if n < int(take) {
				return copied, io.ErrUnexpectedEOF
			}
		}
	}
	return copied, nil
}

// Skip discards up to n bytes from the front of q without delivering
// them anywhere, used to drop SEND_BODY_CHUNK's trailing pad byte.
func (q *Queue) Skip(n int) (int, error) {
	sink := New()
	moved, err := q.StealInto(sink, n)
	// sink's file chunks, if any, still own temp-file release
	// responsibility; drop them by releasing eagerly since nothing will
	// ever read them.
	for _, e := range sink.entries {
		if e.kind == kindFile && e.file.isTemp {
			releaseFile(e.file)
		}
	}
	return moved, err
}

func readFileAt(path string, offset int64, dst []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.ReadAt(dst, offset)
}

func releaseFile(fr *fileRef) {
	if fr.release == nil {
		return
	}
	if fr.released.SetToIf(false, true) {
		_ = fr.release()
	}
}

// Close marks the queue closed. It does not release file chunks that
// are still unread; callers drain with Skip first if that's needed.
func (q *Queue) Close() {
	q.closed.Set()
}

func (q *Queue) IsClosed() bool { return q.closed.IsSet() }

func (q *Queue) BytesIn() int64  { return q.bytesIn }
func (q *Queue) BytesOut() int64 { return q.bytesOut }
