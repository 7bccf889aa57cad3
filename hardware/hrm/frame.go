package hrm

import (
	"encoding/hex"
	"strings"

	"github.com/juju/errors"
)

// FrameFromHex accepts "104b", "10 4b", "0x104b", "10:4b".
func FrameFromHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Annotatef(err, "frame hex=%q", s)
	}
	return b, nil
}

func MustFrameFromHex(s string) []byte {
	b, err := FrameFromHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// FormatFrame renders bytes as hex groups of 4 bytes for logs.
func FormatFrame(b []byte) string {
	h := hex.EncodeToString(b)
	hlen := len(h)
	ss := make([]string, 0, hlen/8+1)
	for lo := 0; lo < hlen; lo += 8 {
		hi := lo + 8
		if hi > hlen {
			hi = hlen
		}
		ss = append(ss, h[lo:hi])
	}
	return strings.Join(ss, " ")
}
