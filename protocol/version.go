package protocol

import (
	"encoding/json"
	"strconv"
)

// Build-time version constants (spec §6.3). These are fixed for a given
// build of the host; nothing in the process mutates them.
const (
	ProtocolVersion       = "2.6.1"
	CompilerVersion       = "0.1.0"
	ImplementationVersion = "0.1.0"
	ImplementationName    = "arith-sass-embedded"
)

// NewVersionResponse builds the VersionResponse for the given request id
// from the build-time constants above (spec §4.D step "VersionRequest").
func NewVersionResponse(id uint32) *VersionResponse {
	return &VersionResponse{
		ID:                    id,
		ProtocolVersion:       ProtocolVersion,
		CompilerVersion:       CompilerVersion,
		ImplementationVersion: ImplementationVersion,
		ImplementationName:    ImplementationName,
	}
}

// versionResponseJSON mirrors the proto3 JSON mapping of VersionResponse:
// lowerCamelCase field names, no generated descriptor required since this
// is the only message the process ever renders as JSON (spec §6.3's
// --version flag).
type versionResponseJSON struct {
	ID                    string `json:"id"`
	ProtocolVersion       string `json:"protocolVersion"`
	CompilerVersion       string `json:"compilerVersion"`
	ImplementationVersion string `json:"implementationVersion"`
	ImplementationName    string `json:"implementationName"`
}

// MarshalVersionJSON renders v as pretty-printed proto3-JSON, the format
// spec §6.3 requires of `--version`. Proto3 JSON renders uint64/uint32
// fields that round-trip through JSON number precision loss as strings;
// id is small enough to never need that in practice, but the mapping is
// followed here for fidelity.
func MarshalVersionJSON(v *VersionResponse) ([]byte, error) {
	doc := versionResponseJSON{
		ID:                    strconv.FormatUint(uint64(v.ID), 10),
		ProtocolVersion:       v.ProtocolVersion,
		CompilerVersion:       v.CompilerVersion,
		ImplementationVersion: v.ImplementationVersion,
		ImplementationName:    v.ImplementationName,
	}
	return json.MarshalIndent(doc, "", "  ")
}
