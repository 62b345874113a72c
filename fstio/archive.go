package fstio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/katalvlaran/decipherfst/wfst"
)

// Archive is a sequential keyed collection of Fsts, the Go counterpart of
// Kaldi's ark table format (TableWriter<VectorFstHolder>/
// SequentialTableReader<VectorFstHolder> in transcripts-to-fsts.cc and
// fsts-rescore.cc) without the scp/ark specifier-string mini-language: a
// single file holding length-prefixed (key, gob payload) records, read back
// in the order they were written.
//
// Record layout: uint32 key length, key bytes, uint64 payload length,
// payload bytes.

// ArchiveWriter appends Fst records to a file sequentially.
type ArchiveWriter struct {
	f *os.File
	w *bufio.Writer
}

// CreateArchive opens path for writing, truncating any existing contents.
func CreateArchive(path string) (*ArchiveWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("fstio: create archive: %w", err)
	}

	return &ArchiveWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one (key, fst) record.
func (aw *ArchiveWriter) Write(key string, f *wfst.Fst) error {
	payload, err := Encode(f)
	if err != nil {
		return err
	}

	var keyLen [4]byte
	binary.BigEndian.PutUint32(keyLen[:], uint32(len(key)))
	if _, err := aw.w.Write(keyLen[:]); err != nil {
		return err
	}
	if _, err := aw.w.WriteString(key); err != nil {
		return err
	}

	var payloadLen [8]byte
	binary.BigEndian.PutUint64(payloadLen[:], uint64(len(payload)))
	if _, err := aw.w.Write(payloadLen[:]); err != nil {
		return err
	}
	_, err = aw.w.Write(payload)

	return err
}

// Close flushes buffered writes and closes the underlying file.
func (aw *ArchiveWriter) Close() error {
	if err := aw.w.Flush(); err != nil {
		return err
	}

	return aw.f.Close()
}

// ArchiveReader reads an Archive's records back in the order they were
// written, mirroring Kaldi's SequentialTableReader iteration idiom
// (Done/Key/Value/Next) rather than Go's usual single-call Decode.
type ArchiveReader struct {
	f       *os.File
	r       *bufio.Reader
	key     string
	fst     *wfst.Fst
	done    bool
	lastErr error
}

// OpenArchive opens path for sequential reading.
func OpenArchive(path string) (*ArchiveReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fstio: open archive: %w", err)
	}
	ar := &ArchiveReader{f: f, r: bufio.NewReader(f)}
	ar.Next()

	return ar, nil
}

// Done reports whether iteration has consumed every record.
func (ar *ArchiveReader) Done() bool { return ar.done }

// Err returns the first non-EOF error encountered, if any.
func (ar *ArchiveReader) Err() error { return ar.lastErr }

// Key returns the current record's key. Undefined once Done.
func (ar *ArchiveReader) Key() string { return ar.key }

// Value returns the current record's Fst. Undefined once Done.
func (ar *ArchiveReader) Value() *wfst.Fst { return ar.fst }

// Next advances to the next record.
func (ar *ArchiveReader) Next() {
	var keyLen [4]byte
	if _, err := io.ReadFull(ar.r, keyLen[:]); err != nil {
		ar.done = true
		if err != io.EOF {
			ar.lastErr = err
		}
		return
	}
	keyBuf := make([]byte, binary.BigEndian.Uint32(keyLen[:]))
	if _, err := io.ReadFull(ar.r, keyBuf); err != nil {
		ar.done = true
		ar.lastErr = err
		return
	}

	var payloadLen [8]byte
	if _, err := io.ReadFull(ar.r, payloadLen[:]); err != nil {
		ar.done = true
		ar.lastErr = err
		return
	}
	payload := make([]byte, binary.BigEndian.Uint64(payloadLen[:]))
	if _, err := io.ReadFull(ar.r, payload); err != nil {
		ar.done = true
		ar.lastErr = err
		return
	}

	f, err := Decode(payload)
	if err != nil {
		ar.done = true
		ar.lastErr = err
		return
	}

	ar.key = string(keyBuf)
	ar.fst = f
}

// Close closes the underlying file.
func (ar *ArchiveReader) Close() error { return ar.f.Close() }

// WriteFst writes a single Fst to path.
func WriteFst(path string, f *wfst.Fst) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadFst reads a single Fst previously written by WriteFst.
func ReadFst(path string) (*wfst.Fst, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fstio: read fst: %w", err)
	}

	return Decode(data)
}
