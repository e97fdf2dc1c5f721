package gameid

import rand "math/rand/v2"

// roomAlphabet is uppercase alphanumerics without the easily confused
// 0/O and 1/I.
const roomAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// RoomCodeLength is the fixed length of a room code.
const RoomCodeLength = 6

// NewRoomCode generates a 6-character room code from the provided
// RNG. Codes are not guaranteed unique; callers retry on collision
// against the store.
func NewRoomCode(rng *rand.Rand) string {
	buf := make([]byte, RoomCodeLength)
	for i := range buf {
		buf[i] = roomAlphabet[rng.IntN(len(roomAlphabet))]
	}
	return string(buf)
}

// ValidateRoomCode checks the shape of a room code.
func ValidateRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		found := false
		for j := 0; j < len(roomAlphabet); j++ {
			if code[i] == roomAlphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
