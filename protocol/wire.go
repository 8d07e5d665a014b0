package protocol

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// This file hand-encodes the protobuf wire format for the message set in
// messages.go using protowire's field-level primitives directly, rather
// than generating full protoreflect descriptors (see DESIGN.md's
// "Standard-library justifications" for why: there is no .proto file to run
// protoc against in this exercise, and protowire already speaks the
// identical wire format the generated code would).
//
// Field numbers below are local to this implementation; they are not
// required to match any other implementation of the Embedded Sass
// protocol, only to round-trip with themselves.

////////////////////////////////////////////////////////////////////////////
// Generic append/consume helpers
////////////////////////////////////////////////////////////////////////////

func appendUint32(b []byte, n protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBool(b []byte, n protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendVarintEnum(b []byte, n protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendString(b []byte, n protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendDouble(b []byte, n protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, n protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

// fieldFunc is invoked once per field encountered while consuming a
// message; it returns the number of bytes consumed for that field's value
// (not including the tag), or -1 with a nil error for a field it does not
// recognize, which consumeMessage then skips. Errors are reported through
// the error result.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeMessage(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return protowire.ParseError(tagLen)
		}
		b = b[tagLen:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			// Unknown field; skip it generically.
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}

func consumeUint32(b []byte) (uint32, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return uint32(v), n, nil
}

func consumeBool(b []byte) (bool, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return false, 0, protowire.ParseError(n)
	}
	return v != 0, n, nil
}

func consumeString(b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeDouble(b []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

func consumeSubMessage(b []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

////////////////////////////////////////////////////////////////////////////
// Field numbers
////////////////////////////////////////////////////////////////////////////

const (
	fInboundCompileRequest       protowire.Number = 1
	fInboundVersionRequest       protowire.Number = 2
	fInboundCanonicalizeResponse protowire.Number = 3
	fInboundImportResponse       protowire.Number = 4
	fInboundFileImportResponse   protowire.Number = 5
	fInboundFunctionCallResponse protowire.Number = 6

	fOutboundCompileResponse     protowire.Number = 1
	fOutboundVersionResponse     protowire.Number = 2
	fOutboundLogEvent            protowire.Number = 3
	fOutboundCanonicalizeRequest protowire.Number = 4
	fOutboundImportRequest       protowire.Number = 5
	fOutboundFunctionCallRequest protowire.Number = 6
	fOutboundFileImportRequest   protowire.Number = 7
	fOutboundError               protowire.Number = 8
)

////////////////////////////////////////////////////////////////////////////
// InboundMessage
////////////////////////////////////////////////////////////////////////////

// MarshalInbound encodes m as a protobuf InboundMessage.
func MarshalInbound(m *InboundMessage) ([]byte, error) {
	switch WhichInbound(m) {
	case InboundCompileRequest:
		sub, err := marshalCompileRequest(m.CompileRequest)
		if err != nil {
			return nil, err
		}
		return appendMessage(nil, fInboundCompileRequest, sub), nil
	case InboundVersionRequest:
		sub := appendUint32(nil, 1, m.VersionRequest.ID)
		return appendMessage(nil, fInboundVersionRequest, sub), nil
	case InboundCanonicalizeResponse:
		return appendMessage(nil, fInboundCanonicalizeResponse, marshalCanonicalizeResponse(m.CanonicalizeResponse)), nil
	case InboundImportResponse:
		return appendMessage(nil, fInboundImportResponse, marshalImportResponse(m.ImportResponse)), nil
	case InboundFileImportResponse:
		return appendMessage(nil, fInboundFileImportResponse, marshalFileImportResponse(m.FileImportResponse)), nil
	case InboundFunctionCallResponse:
		sub, err := marshalFunctionCallResponse(m.FunctionCallResponse)
		if err != nil {
			return nil, err
		}
		return appendMessage(nil, fInboundFunctionCallResponse, sub), nil
	default:
		return nil, fmt.Errorf("protocol: cannot marshal an empty InboundMessage")
	}
}

// UnmarshalInbound decodes a protobuf InboundMessage.
func UnmarshalInbound(b []byte) (*InboundMessage, error) {
	m := &InboundMessage{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fInboundCompileRequest:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			req, err := unmarshalCompileRequest(sub)
			if err != nil {
				return -1, err
			}
			m.CompileRequest = req
			return n, nil
		case fInboundVersionRequest:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			req := &VersionRequest{}
			err = consumeMessage(sub, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if num == 1 {
					v, n, err := consumeUint32(b)
					req.ID = v
					return n, err
				}
				return -1, nil
			})
			if err != nil {
				return -1, err
			}
			m.VersionRequest = req
			return n, nil
		case fInboundCanonicalizeResponse:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			r, err := unmarshalCanonicalizeResponse(sub)
			if err != nil {
				return -1, err
			}
			m.CanonicalizeResponse = r
			return n, nil
		case fInboundImportResponse:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			r, err := unmarshalImportResponse(sub)
			if err != nil {
				return -1, err
			}
			m.ImportResponse = r
			return n, nil
		case fInboundFileImportResponse:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			r, err := unmarshalFileImportResponse(sub)
			if err != nil {
				return -1, err
			}
			m.FileImportResponse = r
			return n, nil
		case fInboundFunctionCallResponse:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			r, err := unmarshalFunctionCallResponse(sub)
			if err != nil {
				return -1, err
			}
			m.FunctionCallResponse = r
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

////////////////////////////////////////////////////////////////////////////
// OutboundMessage
////////////////////////////////////////////////////////////////////////////

// MarshalOutbound encodes m as a protobuf OutboundMessage.
func MarshalOutbound(m *OutboundMessage) ([]byte, error) {
	switch WhichOutbound(m) {
	case OutboundCompileResponse:
		sub, err := marshalCompileResponse(m.CompileResponse)
		if err != nil {
			return nil, err
		}
		return appendMessage(nil, fOutboundCompileResponse, sub), nil
	case OutboundVersionResponse:
		return appendMessage(nil, fOutboundVersionResponse, marshalVersionResponse(m.VersionResponse)), nil
	case OutboundLogEvent:
		return appendMessage(nil, fOutboundLogEvent, marshalLogEvent(m.LogEvent)), nil
	case OutboundCanonicalizeRequest:
		return appendMessage(nil, fOutboundCanonicalizeRequest, marshalCanonicalizeRequest(m.CanonicalizeRequest)), nil
	case OutboundImportRequest:
		return appendMessage(nil, fOutboundImportRequest, marshalImportRequest(m.ImportRequest)), nil
	case OutboundFunctionCallRequest:
		sub, err := marshalFunctionCallRequest(m.FunctionCallRequest)
		if err != nil {
			return nil, err
		}
		return appendMessage(nil, fOutboundFunctionCallRequest, sub), nil
	case OutboundFileImportRequest:
		return appendMessage(nil, fOutboundFileImportRequest, marshalFileImportRequest(m.FileImportRequest)), nil
	case OutboundError:
		return appendMessage(nil, fOutboundError, marshalProtocolError(m.Error)), nil
	default:
		return nil, fmt.Errorf("protocol: cannot marshal an empty OutboundMessage")
	}
}

// UnmarshalOutbound decodes a protobuf OutboundMessage.
func UnmarshalOutbound(b []byte) (*OutboundMessage, error) {
	m := &OutboundMessage{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fOutboundCompileResponse:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			r, err := unmarshalCompileResponse(sub)
			if err != nil {
				return -1, err
			}
			m.CompileResponse = r
			return n, nil
		case fOutboundVersionResponse:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.VersionResponse, err = unmarshalVersionResponse(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		case fOutboundLogEvent:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.LogEvent, err = unmarshalLogEvent(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		case fOutboundCanonicalizeRequest:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.CanonicalizeRequest, err = unmarshalCanonicalizeRequest(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		case fOutboundImportRequest:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.ImportRequest, err = unmarshalImportRequest(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		case fOutboundFunctionCallRequest:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.FunctionCallRequest, err = unmarshalFunctionCallRequest(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		case fOutboundFileImportRequest:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.FileImportRequest, err = unmarshalFileImportRequest(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		case fOutboundError:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			m.Error, err = unmarshalProtocolError(sub)
			if err != nil {
				return -1, err
			}
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
