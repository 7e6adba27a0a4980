package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protowire"
)

// MaxSize bounds the length prefix accepted by ReadDelimited.
const MaxSize = 4 << 20

var (
	// ErrTruncated is returned when a stream ends inside a record.
	ErrTruncated = errors.New("truncated record")

	// ErrTooLarge is returned when a length prefix exceeds MaxSize.
	ErrTooLarge = errors.New("record too large")
)

// Reader is what ReadDelimited needs from its source. *bufio.Reader
// satisfies it.
type Reader interface {
	io.Reader
	io.ByteReader
}

// WriteDelimited writes r to w prefixed by its varint-encoded length.
func WriteDelimited(w io.Writer, r *Record) error {
	msg := r.Marshal()
	b := protowire.AppendVarint(make([]byte, 0, protowire.SizeVarint(uint64(len(msg)))+len(msg)), uint64(len(msg)))
	b = append(b, msg...)
	if _, err := w.Write(b); err != nil {
		return pkgerrors.Wrap(err, "failed to write record")
	}
	return nil
}

// ReadDelimited reads one length-prefixed record. It returns io.EOF only when
// the stream ends cleanly between records.
func ReadDelimited(r Reader) (*Record, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, pkgerrors.Wrap(ErrTruncated, "stream ended inside length prefix")
		}
		return nil, pkgerrors.Wrap(err, "failed to read length prefix")
	}
	if size > MaxSize {
		return nil, pkgerrors.Wrapf(ErrTooLarge, "length prefix %d exceeds %d", size, MaxSize)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, pkgerrors.Wrapf(ErrTruncated, "expected %d bytes", size)
		}
		return nil, pkgerrors.Wrap(err, "failed to read record")
	}

	return Unmarshal(buf)
}

// ReadAll reads records until the end of the stream.
func ReadAll(r io.Reader) ([]*Record, error) {
	br, ok := r.(Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var out []*Record
	for {
		rec, err := ReadDelimited(br)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, pkgerrors.Wrapf(err, "failed to read record %d", len(out))
		}
		out = append(out, rec)
	}
}

// AppendFile appends r to the record stream at path, creating it if needed.
func AppendFile(path string, r *Record) error {
	fp, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	return WriteDelimited(fp, r)
}

// ReadFile reads every record in the stream at path.
func ReadFile(path string) ([]*Record, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", path)
		}
	}(fp)

	return ReadAll(bufio.NewReader(fp))
}
