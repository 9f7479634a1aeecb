package http1

import (
	"strconv"
)

// appendStatusLine appends "HTTP/1.1 <code> <reason>\r\n".
func appendStatusLine(dst []byte, code int, reason string) []byte {
	if reason == "" {
		reason = defaultReason(code)
	}
	dst = append(dst, "HTTP/1.1 "...)
	dst = strconv.AppendInt(dst, int64(code), 10)
	dst = append(dst, ' ')
	dst = append(dst, reason...)
	return append(dst, '\r', '\n')
}

// appendHeaders appends the header block and the terminating empty line.
// A user-supplied Connection field is skipped; the field is derived from
// keepAlive. When chunked, Transfer-Encoding is emitted and any
// Content-Length dropped.
func appendHeaders(dst []byte, hdr Header, chunked, keepAlive bool) []byte {
	if chunked {
		hdr.Del("Content-Length")
		dst = append(dst, "Transfer-Encoding: chunked\r\n"...)
	}
	for k, vv := range hdr {
		if k == "Connection" {
			continue
		}
		for _, v := range vv {
			dst = append(dst, k...)
			dst = append(dst, ':', ' ')
			dst = appendSanitized(dst, v)
			dst = append(dst, '\r', '\n')
		}
	}
	if keepAlive {
		dst = append(dst, "Connection: keep-alive\r\n"...)
	} else {
		dst = append(dst, "Connection: close\r\n"...)
	}
	return append(dst, '\r', '\n')
}

// appendChunk appends one chunked-transfer chunk. Empty payloads append
// nothing: a zero-size chunk would terminate the body.
func appendChunk(dst, p []byte) []byte {
	if len(p) == 0 {
		return dst
	}
	dst = strconv.AppendInt(dst, int64(len(p)), 16)
	dst = append(dst, '\r', '\n')
	dst = append(dst, p...)
	return append(dst, '\r', '\n')
}

// appendFinalChunk appends the terminating zero-length chunk.
func appendFinalChunk(dst []byte) []byte {
	return append(dst, "0\r\n\r\n"...)
}

// appendSanitized appends v with CR/LF and control chars (except HTAB)
// removed.
func appendSanitized(dst []byte, v string) []byte {
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		dst = append(dst, c)
	}
	return dst
}

func defaultReason(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 101:
		return "Switching Protocols"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return ""
	}
}
