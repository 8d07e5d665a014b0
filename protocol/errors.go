package protocol

import "fmt"

// ErrorKind is the three-way wire error taxonomy of spec §7.
type ErrorKind int32

const (
	ErrorParse ErrorKind = iota
	ErrorParams
	ErrorInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorParse:
		return "PARSE"
	case ErrorParams:
		return "PARAMS"
	case ErrorInternal:
		return "INTERNAL"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int32(k))
	}
}

// NoRequestID is the sentinel id ("errorId" in the glossary) marking an
// Error frame not attributable to any specific outstanding request.
const NoRequestID uint32 = 0xFFFFFFFF

// ProtocolError is the wire shape of the Error outbound variant.
type ProtocolError struct {
	ID      uint32
	Type    ErrorKind
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}
