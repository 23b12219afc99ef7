package common

// WipeByteArray zeroes the buffer in place so secrets like PINs do not
// linger in memory longer than needed. Safe to call with nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
