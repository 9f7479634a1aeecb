package http1

// maxFrameHeader is the largest server-side frame header: 2 bytes plus an
// 8-byte extended length.
const maxFrameHeader = 10

// appendTextFrame appends one server-to-client websocket text frame:
// FIN set, opcode 0x1, no mask (RFC 6455 frames from the server side are
// never masked).
func appendTextFrame(dst []byte, text string) []byte {
	dst = append(dst, 0x81)
	switch n := len(text); {
	case n < 126:
		dst = append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 126, byte(n>>8), byte(n))
	default:
		dst = append(dst, 127,
			byte(uint64(n)>>56), byte(uint64(n)>>48),
			byte(uint64(n)>>40), byte(uint64(n)>>32),
			byte(uint64(n)>>24), byte(uint64(n)>>16),
			byte(uint64(n)>>8), byte(uint64(n)))
	}
	return append(dst, text...)
}
