package licfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
	"time"
)

// payloadMagic and payloadVersion pin the canonical encoding. Any future
// layout change bumps the version so old signatures keep verifying against
// the encoding they were produced with.
const (
	payloadMagic   = "LICP"
	payloadVersion = byte(1)
)

// dateLayout is the wire form of date-granular fields.
const dateLayout = "2006-01-02"

// Fields are the semantic license fields covered by the signature.
type Fields struct {
	AppID        string
	CustomerName string
	ValidFrom    time.Time
	ValidTo      time.Time
	Features     []string
	SigningKeyID string
}

// EncodePayload builds the version 1 canonical payload: a magic tag and
// version byte, each string field length-prefixed (uint16 big-endian), dates
// normalized to UTC and rendered as YYYY-MM-DD, and features sorted and
// deduplicated. Semantically identical inputs always produce identical
// bytes.
func EncodePayload(f Fields) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(payloadMagic)
	buf.WriteByte(payloadVersion)

	if err := writeString(&buf, f.AppID); err != nil {
		return nil, err
	}
	if err := writeString(&buf, f.CustomerName); err != nil {
		return nil, err
	}
	if err := writeString(&buf, f.ValidFrom.UTC().Format(dateLayout)); err != nil {
		return nil, err
	}
	if err := writeString(&buf, f.ValidTo.UTC().Format(dateLayout)); err != nil {
		return nil, err
	}

	features := NormalizeFeatures(f.Features)
	if len(features) > 0xFFFF {
		return nil, fmt.Errorf("licfile: too many features (%d)", len(features))
	}
	var count [2]byte
	binary.BigEndian.PutUint16(count[:], uint16(len(features)))
	buf.Write(count[:])
	for _, feature := range features {
		if err := writeString(&buf, feature); err != nil {
			return nil, err
		}
	}

	if err := writeString(&buf, f.SigningKeyID); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// NormalizeFeatures returns the features sorted and deduplicated, which is
// the form both signing and verification operate on.
func NormalizeFeatures(features []string) []string {
	out := slices.Clone(features)
	slices.Sort(out)
	return slices.Compact(out)
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("licfile: field too long (%d bytes)", len(s))
	}
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(s)))
	buf.Write(length[:])
	buf.WriteString(s)
	return nil
}
