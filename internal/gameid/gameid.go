// Package gameid generates the identifiers used across the server:
// sortable 26-character game ids and short join codes for rooms.
package gameid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// alphabet is Crockford's base32, lowercase.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate returns a new game id: a UUIDv7 encoded as 26 characters of
// base32. Ids created later sort later, which keeps game listings and
// hand archives in creation order.
func Generate() string {
	var uuid [16]byte

	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if _, err := rand.Read(uuid[6:]); err != nil {
		panic("gameid: " + err.Error())
	}

	uuid[6] = (uuid[6] & 0x0f) | 0x70 // version 7
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // variant 10

	return encodeBase32(uuid)
}

// encodeBase32 packs 128 bits into 26 base32 characters, 5 bits each,
// most significant first. The final character carries 2 padding bits.
func encodeBase32(data [16]byte) string {
	out := make([]byte, 26)
	for i := range out {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if bitIndex <= 3 {
			value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
		} else {
			value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
			if byteIndex+1 < 16 {
				value |= data[byteIndex+1] >> (11 - bitIndex)
			}
		}
		out[i] = alphabet[value]
	}
	return string(out)
}

// Validate checks the shape of a game id.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game id must be 26 characters, got %d", len(id))
	}
	// 26 characters hold 130 bits; the first must not overflow 128.
	if id[0] > '7' {
		return fmt.Errorf("game id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		found := false
		for j := 0; j < len(alphabet); j++ {
			if id[i] == alphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
