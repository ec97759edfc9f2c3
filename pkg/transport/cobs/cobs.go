// Package cobs implements Consistent Overhead Byte Stuffing framing for
// byte-stream transports (serial, TCP), as required by spec.md 6: "Byte
// stream transports (serial, TCP): COBS-encoded with a terminating 0x00."
// No COBS library appears anywhere in the retrieved example pack, so this
// is a from-scratch stdlib implementation (see DESIGN.md).
package cobs

// Encode returns the COBS encoding of data, without the terminating zero
// byte (callers append 0x00 themselves when writing to the stream, since
// Accumulator expects to see it as the frame delimiter).
func Encode(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/254+2)
	codeIdx := 0
	out = append(out, 0) // placeholder
	code := byte(1)

	for _, b := range data {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// Decode reverses Encode. It returns an error if data is not a
// well-formed COBS block (truncated code run).
func Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		code := data[i]
		if code == 0 {
			return nil, errZeroCode
		}
		i++
		run := int(code) - 1
		if i+run > len(data) {
			return nil, errTruncated
		}
		out = append(out, data[i:i+run]...)
		i += run
		if code != 0xFF && i < len(data) {
			out = append(out, 0)
		}
	}
	return out, nil
}
