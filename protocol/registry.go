package protocol

import "fmt"

// InboundTag discriminates the variant held by an InboundMessage.
type InboundTag int

const (
	InboundNotSet InboundTag = iota
	InboundCompileRequest
	InboundVersionRequest
	InboundCanonicalizeResponse
	InboundImportResponse
	InboundFileImportResponse
	InboundFunctionCallResponse
)

// OutboundTag discriminates the variant held by an OutboundMessage.
type OutboundTag int

const (
	OutboundNotSet OutboundTag = iota
	OutboundCompileResponse
	OutboundVersionResponse
	OutboundLogEvent
	OutboundCanonicalizeRequest
	OutboundImportRequest
	OutboundFunctionCallRequest
	OutboundFileImportRequest
	OutboundError
)

// WhichInbound reports which variant of the inbound union is populated.
func WhichInbound(m *InboundMessage) InboundTag {
	switch {
	case m.CompileRequest != nil:
		return InboundCompileRequest
	case m.VersionRequest != nil:
		return InboundVersionRequest
	case m.CanonicalizeResponse != nil:
		return InboundCanonicalizeResponse
	case m.ImportResponse != nil:
		return InboundImportResponse
	case m.FileImportResponse != nil:
		return InboundFileImportResponse
	case m.FunctionCallResponse != nil:
		return InboundFunctionCallResponse
	default:
		return InboundNotSet
	}
}

// WhichOutbound reports which variant of the outbound union is populated.
func WhichOutbound(m *OutboundMessage) OutboundTag {
	switch {
	case m.CompileResponse != nil:
		return OutboundCompileResponse
	case m.VersionResponse != nil:
		return OutboundVersionResponse
	case m.LogEvent != nil:
		return OutboundLogEvent
	case m.CanonicalizeRequest != nil:
		return OutboundCanonicalizeRequest
	case m.ImportRequest != nil:
		return OutboundImportRequest
	case m.FunctionCallRequest != nil:
		return OutboundFunctionCallRequest
	case m.FileImportRequest != nil:
		return OutboundFileImportRequest
	case m.Error != nil:
		return OutboundError
	default:
		return OutboundNotSet
	}
}

// errNotSet and errUnknownTag format the two PARSE messages spec §4.B specifies
// verbatim.
func errNotSet(which string) error {
	return fmt.Errorf("%sMessage.message is not set.", which)
}

func errUnknownTag(which string, tag int) error {
	return fmt.Errorf("Unknown message type: %d", tag)
}

// InboundID returns the id carried by m's populated variant. Every inbound
// variant carries one, so the only error case is an unset or unrecognized
// union.
func InboundID(m *InboundMessage) (uint32, error) {
	switch WhichInbound(m) {
	case InboundCompileRequest:
		return m.CompileRequest.ID, nil
	case InboundVersionRequest:
		return m.VersionRequest.ID, nil
	case InboundCanonicalizeResponse:
		return m.CanonicalizeResponse.ID, nil
	case InboundImportResponse:
		return m.ImportResponse.ID, nil
	case InboundFileImportResponse:
		return m.FileImportResponse.ID, nil
	case InboundFunctionCallResponse:
		return m.FunctionCallResponse.ID, nil
	default:
		return 0, errNotSet("Inbound")
	}
}

// OutboundID returns the id carried by m's populated variant. LogEvent and
// Error have no registry-assigned id field (callers supply one explicitly
// when they need it), so those two report an error, matching spec §4.B's
// definition of the id accessor.
func OutboundID(m *OutboundMessage) (uint32, error) {
	switch WhichOutbound(m) {
	case OutboundCompileResponse:
		return m.CompileResponse.ID, nil
	case OutboundVersionResponse:
		return m.VersionResponse.ID, nil
	case OutboundCanonicalizeRequest:
		return m.CanonicalizeRequest.ID, nil
	case OutboundImportRequest:
		return m.ImportRequest.ID, nil
	case OutboundFunctionCallRequest:
		return m.FunctionCallRequest.ID, nil
	case OutboundFileImportRequest:
		return m.FileImportRequest.ID, nil
	case OutboundLogEvent, OutboundError:
		return 0, fmt.Errorf("protocol: id is not defined for this outbound variant; callers must supply it explicitly")
	default:
		return 0, errNotSet("Outbound")
	}
}

// SetOutboundID overwrites the id field of m's populated variant. It is used
// by the root dispatcher to assign a fresh outbound request id (spec §4.D).
// It also accepts CompileResponse and VersionResponse, though the
// dispatcher sets a CompileResponse's id directly.
func SetOutboundID(m *OutboundMessage, id uint32) error {
	switch WhichOutbound(m) {
	case OutboundCompileResponse:
		m.CompileResponse.ID = id
	case OutboundVersionResponse:
		m.VersionResponse.ID = id
	case OutboundCanonicalizeRequest:
		m.CanonicalizeRequest.ID = id
	case OutboundImportRequest:
		m.ImportRequest.ID = id
	case OutboundFunctionCallRequest:
		m.FunctionCallRequest.ID = id
	case OutboundFileImportRequest:
		m.FileImportRequest.ID = id
	case OutboundLogEvent, OutboundError:
		return fmt.Errorf("protocol: id is not settable for this outbound variant")
	default:
		return errNotSet("Outbound")
	}
	return nil
}
