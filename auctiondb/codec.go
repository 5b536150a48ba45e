package auctiondb

import (
	"fmt"
	"io"
	"math"

	"github.com/celiakwan/cw20-bid/auction"
	"github.com/celiakwan/cw20-bid/event"
)

// WriteElements writes each element in the elements slice to the passed
// io.Writer using WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteElement is a one-stop shop to write the big endian representation of
// any element which is to be serialized. The passed io.Writer should be
// backed by an appropriately sized byte slice, or be able to dynamically
// expand to accommodate additional data.
func WriteElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case bool:
		var b [1]byte
		if e {
			b[0] = 1
		}
		_, err := w.Write(b[:])
		return err

	case uint8:
		_, err := w.Write([]byte{e})
		return err

	case uint32:
		var b [4]byte
		byteOrder.PutUint32(b[:], e)
		_, err := w.Write(b[:])
		return err

	case uint64:
		var b [8]byte
		byteOrder.PutUint64(b[:], e)
		_, err := w.Write(b[:])
		return err

	case auction.Amount:
		return WriteElement(w, uint64(e))

	case auction.Identity:
		return WriteElement(w, string(e))

	case event.Type:
		return WriteElement(w, uint8(e))

	case string:
		if len(e) > math.MaxUint32 {
			return fmt.Errorf("string too long to serialize")
		}
		if err := WriteElement(w, uint32(len(e))); err != nil {
			return err
		}
		_, err := w.Write([]byte(e))
		return err

	default:
		return fmt.Errorf("unhandled element type: %T", element)
	}
}

// ReadElements deserializes a variable number of elements from the passed
// io.Reader, with each element being deserialized according to the
// ReadElement function.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement is a one-stop utility function to deserialize any data
// structure.
func ReadElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0

	case *uint8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0]

	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = byteOrder.Uint32(b[:])

	case *uint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = byteOrder.Uint64(b[:])

	case *auction.Amount:
		var v uint64
		if err := ReadElement(r, &v); err != nil {
			return err
		}
		*e = auction.Amount(v)

	case *auction.Identity:
		var s string
		if err := ReadElement(r, &s); err != nil {
			return err
		}
		*e = auction.Identity(s)

	case *event.Type:
		var t uint8
		if err := ReadElement(r, &t); err != nil {
			return err
		}
		*e = event.Type(t)

	case *string:
		var length uint32
		if err := ReadElement(r, &length); err != nil {
			return err
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		*e = string(buf)

	default:
		return fmt.Errorf("unhandled element type: %T", element)
	}

	return nil
}
