package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

////////////////////////////////////////////////////////////////////////////
// Importer (fields: 1 path, 2 importer_id, 3 file_importer_id)
////////////////////////////////////////////////////////////////////////////

func marshalImporter(im *Importer) []byte {
	var b []byte
	// The oneof case is encoded even when its value is the zero value, so
	// that an importer id of 0 still names an importer after a round trip.
	switch {
	case im.Path != nil:
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, *im.Path)
	case im.ImporterID != nil:
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*im.ImporterID))
	case im.FileImporterID != nil:
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*im.FileImporterID))
	}
	return b
}

func unmarshalImporter(b []byte) (*Importer, error) {
	im := &Importer{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			im.Path = &v
			return n, nil
		case 2:
			v, n, err := consumeUint32(b)
			if err != nil {
				return -1, err
			}
			im.ImporterID = &v
			return n, nil
		case 3:
			v, n, err := consumeUint32(b)
			if err != nil {
				return -1, err
			}
			im.FileImporterID = &v
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return im, nil
}

////////////////////////////////////////////////////////////////////////////
// CompileRequest
//
// Fields: 1 id, 2 importers (repeated), 3 style, 4 string input,
// 5 path input, 6 global_functions (repeated string), 7 alert_color,
// 8 alert_ascii, 9 quiet_deps, 10 verbose, 11 source_map,
// 12 source_map_include_sources, 13 charset.
////////////////////////////////////////////////////////////////////////////

func marshalCompileRequest(r *CompileRequest) ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	for _, im := range r.Importers {
		b = appendMessage(b, 2, marshalImporter(im))
	}
	b = appendVarintEnum(b, 3, int32(r.Style))
	switch {
	case r.Input.String != nil:
		b = appendMessage(b, 4, marshalStringInput(r.Input.String))
	case r.Input.Path != nil:
		b = appendMessage(b, 5, appendString(nil, 1, r.Input.Path.Path))
	default:
		return nil, fmt.Errorf("protocol: CompileRequest.input is not set")
	}
	for _, f := range r.GlobalFunctions {
		b = appendString(b, 6, string(f))
	}
	b = appendBool(b, 7, r.AlertColor)
	b = appendBool(b, 8, r.AlertAscii)
	b = appendBool(b, 9, r.QuietDeps)
	b = appendBool(b, 10, r.Verbose)
	b = appendBool(b, 11, r.SourceMap)
	b = appendBool(b, 12, r.SourceMapIncludeSources)
	b = appendBool(b, 13, r.Charset)
	return b, nil
}

func marshalStringInput(s *StringInput) []byte {
	var b []byte
	b = appendString(b, 1, s.Source)
	b = appendVarintEnum(b, 2, int32(s.Syntax))
	b = appendString(b, 3, s.URL)
	if s.Importer != nil {
		b = appendMessage(b, 4, marshalImporter(s.Importer))
	}
	return b
}

func unmarshalCompileRequest(b []byte) (*CompileRequest, error) {
	r := &CompileRequest{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			im, err := unmarshalImporter(sub)
			if err != nil {
				return -1, err
			}
			r.Importers = append(r.Importers, im)
			return n, nil
		case 3:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, protowire.ParseError(n)
			}
			r.Style = OutputStyle(v)
			return n, nil
		case 4:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			s, err := unmarshalStringInput(sub)
			if err != nil {
				return -1, err
			}
			r.Input.String = s
			return n, nil
		case 5:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			var path string
			err = consumeMessage(sub, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if num == 1 {
					v, n, err := consumeString(b)
					path = v
					return n, err
				}
				return -1, nil
			})
			if err != nil {
				return -1, err
			}
			r.Input.Path = &PathInput{Path: path}
			return n, nil
		case 6:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.GlobalFunctions = append(r.GlobalFunctions, GlobalFunction(v))
			return n, nil
		case 7:
			v, n, err := consumeBool(b)
			r.AlertColor = v
			return n, err
		case 8:
			v, n, err := consumeBool(b)
			r.AlertAscii = v
			return n, err
		case 9:
			v, n, err := consumeBool(b)
			r.QuietDeps = v
			return n, err
		case 10:
			v, n, err := consumeBool(b)
			r.Verbose = v
			return n, err
		case 11:
			v, n, err := consumeBool(b)
			r.SourceMap = v
			return n, err
		case 12:
			v, n, err := consumeBool(b)
			r.SourceMapIncludeSources = v
			return n, err
		case 13:
			v, n, err := consumeBool(b)
			r.Charset = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	if r.Input.String == nil && r.Input.Path == nil {
		return nil, fmt.Errorf("protocol: CompileRequest.input is not set")
	}
	return r, nil
}

func unmarshalStringInput(b []byte) (*StringInput, error) {
	s := &StringInput{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(b)
			s.Source = v
			return n, err
		case 2:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, protowire.ParseError(n)
			}
			s.Syntax = Syntax(v)
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			s.URL = v
			return n, err
		case 4:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			im, err := unmarshalImporter(sub)
			if err != nil {
				return -1, err
			}
			s.Importer = im
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

////////////////////////////////////////////////////////////////////////////
// CanonicalizeResponse / ImportResponse / FileImportResponse / FunctionCallResponse
////////////////////////////////////////////////////////////////////////////

func marshalCanonicalizeResponse(r *CanonicalizeResponse) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	if r.URL != nil {
		b = appendString(b, 2, *r.URL)
	}
	if r.Error != nil {
		b = appendString(b, 3, *r.Error)
	}
	return b
}

func unmarshalCanonicalizeResponse(b []byte) (*CanonicalizeResponse, error) {
	r := &CanonicalizeResponse{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.URL = &v
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.Error = &v
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func marshalImportResponse(r *ImportResponse) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	if r.Success != nil {
		var sub []byte
		sub = appendString(sub, 1, r.Success.Contents)
		sub = appendVarintEnum(sub, 2, int32(r.Success.Syntax))
		sub = appendString(sub, 3, r.Success.SourceMapURL)
		b = appendMessage(b, 2, sub)
	}
	if r.Error != nil {
		b = appendString(b, 3, *r.Error)
	}
	return b
}

func unmarshalImportResponse(b []byte) (*ImportResponse, error) {
	r := &ImportResponse{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			s := &ImportSuccess{}
			err = consumeMessage(sub, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1:
					v, n, err := consumeString(b)
					s.Contents = v
					return n, err
				case 2:
					v, n := protowire.ConsumeVarint(b)
					if n < 0 {
						return -1, protowire.ParseError(n)
					}
					s.Syntax = Syntax(v)
					return n, nil
				case 3:
					v, n, err := consumeString(b)
					s.SourceMapURL = v
					return n, err
				}
				return -1, nil
			})
			if err != nil {
				return -1, err
			}
			r.Success = s
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.Error = &v
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func marshalFileImportResponse(r *FileImportResponse) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	if r.FileURL != nil {
		b = appendString(b, 2, *r.FileURL)
	}
	if r.Error != nil {
		b = appendString(b, 3, *r.Error)
	}
	return b
}

func unmarshalFileImportResponse(b []byte) (*FileImportResponse, error) {
	r := &FileImportResponse{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.FileURL = &v
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.Error = &v
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func marshalFunctionCallResponse(r *FunctionCallResponse) ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	if r.Success != nil {
		sub, err := marshalValue(r.Success)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 2, sub)
	}
	if r.Error != nil {
		b = appendString(b, 3, *r.Error)
	}
	return b, nil
}

func unmarshalFunctionCallResponse(b []byte) (*FunctionCallResponse, error) {
	r := &FunctionCallResponse{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			v, err := unmarshalValue(sub)
			if err != nil {
				return -1, err
			}
			r.Success = v
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.Error = &v
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

////////////////////////////////////////////////////////////////////////////
// Value (fields: 1 string, 2 number, 3 bool, 4 null)
////////////////////////////////////////////////////////////////////////////

func marshalValue(v *Value) ([]byte, error) {
	var b []byte
	switch {
	case v.String != nil:
		b = appendString(b, 1, *v.String)
	case v.Number != nil:
		var sub []byte
		sub = appendDouble(sub, 1, v.Number.Value)
		sub = appendString(sub, 2, v.Number.Unit)
		b = appendMessage(b, 2, sub)
	case v.IsBool:
		// appendBool omits false values (proto3 default-value elision), which
		// would make a false boolean indistinguishable from an unset Value.
		// Encode the field directly so presence always survives the round trip.
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		if v.Bool {
			b = protowire.AppendVarint(b, 1)
		} else {
			b = protowire.AppendVarint(b, 0)
		}
	case v.IsNull:
		b = appendBool(b, 4, true)
	default:
		return nil, fmt.Errorf("protocol: Value has no kind set")
	}
	return b, nil
}

func unmarshalValue(b []byte) (*Value, error) {
	v := &Value{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			s, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			v.String = &s
			return n, nil
		case 2:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			nv := &NumberValue{}
			err = consumeMessage(sub, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1:
					d, n, err := consumeDouble(b)
					nv.Value = d
					return n, err
				case 2:
					s, n, err := consumeString(b)
					nv.Unit = s
					return n, err
				}
				return -1, nil
			})
			if err != nil {
				return -1, err
			}
			v.Number = nv
			return n, nil
		case 3:
			b2, n, err := consumeBool(b)
			if err != nil {
				return -1, err
			}
			v.IsBool = true
			v.Bool = b2
			return n, nil
		case 4:
			_, n, err := consumeBool(b)
			if err != nil {
				return -1, err
			}
			v.IsNull = true
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

////////////////////////////////////////////////////////////////////////////
// SourceSpan
////////////////////////////////////////////////////////////////////////////

func marshalSourceSpan(s *SourceSpan) []byte {
	var b []byte
	b = appendString(b, 1, s.Text)
	b = appendUint32(b, 2, s.StartLine)
	b = appendUint32(b, 3, s.StartColumn)
	b = appendUint32(b, 4, s.StartOffset)
	b = appendUint32(b, 5, s.EndLine)
	b = appendUint32(b, 6, s.EndColumn)
	b = appendUint32(b, 7, s.EndOffset)
	b = appendString(b, 8, s.URL)
	b = appendString(b, 9, s.Context)
	return b
}

func unmarshalSourceSpan(b []byte) (*SourceSpan, error) {
	s := &SourceSpan{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(b)
			s.Text = v
			return n, err
		case 2:
			v, n, err := consumeUint32(b)
			s.StartLine = v
			return n, err
		case 3:
			v, n, err := consumeUint32(b)
			s.StartColumn = v
			return n, err
		case 4:
			v, n, err := consumeUint32(b)
			s.StartOffset = v
			return n, err
		case 5:
			v, n, err := consumeUint32(b)
			s.EndLine = v
			return n, err
		case 6:
			v, n, err := consumeUint32(b)
			s.EndColumn = v
			return n, err
		case 7:
			v, n, err := consumeUint32(b)
			s.EndOffset = v
			return n, err
		case 8:
			v, n, err := consumeString(b)
			s.URL = v
			return n, err
		case 9:
			v, n, err := consumeString(b)
			s.Context = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

////////////////////////////////////////////////////////////////////////////
// CompileResponse
////////////////////////////////////////////////////////////////////////////

func marshalCompileResponse(r *CompileResponse) ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	switch {
	case r.Success != nil:
		var sub []byte
		sub = appendString(sub, 1, r.Success.CSS)
		sub = appendString(sub, 2, r.Success.SourceMap)
		for _, u := range r.Success.LoadedURLs {
			sub = appendString(sub, 3, u)
		}
		b = appendMessage(b, 2, sub)
	case r.Failure != nil:
		var sub []byte
		sub = appendString(sub, 1, r.Failure.Message)
		if r.Failure.Span != nil {
			sub = appendMessage(sub, 2, marshalSourceSpan(r.Failure.Span))
		}
		sub = appendString(sub, 3, r.Failure.StackTrace)
		sub = appendString(sub, 4, r.Failure.Formatted)
		b = appendMessage(b, 3, sub)
	default:
		return nil, fmt.Errorf("protocol: CompileResponse has neither success nor failure")
	}
	return b, nil
}

func unmarshalCompileResponse(b []byte) (*CompileResponse, error) {
	r := &CompileResponse{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			s := &CompileSuccess{}
			err = consumeMessage(sub, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1:
					v, n, err := consumeString(b)
					s.CSS = v
					return n, err
				case 2:
					v, n, err := consumeString(b)
					s.SourceMap = v
					return n, err
				case 3:
					v, n, err := consumeString(b)
					if err != nil {
						return -1, err
					}
					s.LoadedURLs = append(s.LoadedURLs, v)
					return n, nil
				}
				return -1, nil
			})
			if err != nil {
				return -1, err
			}
			r.Success = s
			return n, nil
		case 3:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			f := &CompileFailure{}
			err = consumeMessage(sub, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch num {
				case 1:
					v, n, err := consumeString(b)
					f.Message = v
					return n, err
				case 2:
					s2, n, err := consumeSubMessage(b)
					if err != nil {
						return -1, err
					}
					span, err := unmarshalSourceSpan(s2)
					if err != nil {
						return -1, err
					}
					f.Span = span
					return n, nil
				case 3:
					v, n, err := consumeString(b)
					f.StackTrace = v
					return n, err
				case 4:
					v, n, err := consumeString(b)
					f.Formatted = v
					return n, err
				}
				return -1, nil
			})
			if err != nil {
				return -1, err
			}
			r.Failure = f
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

////////////////////////////////////////////////////////////////////////////
// VersionResponse
////////////////////////////////////////////////////////////////////////////

func marshalVersionResponse(r *VersionResponse) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	b = appendString(b, 2, r.ProtocolVersion)
	b = appendString(b, 3, r.CompilerVersion)
	b = appendString(b, 4, r.ImplementationVersion)
	b = appendString(b, 5, r.ImplementationName)
	return b
}

func unmarshalVersionResponse(b []byte) (*VersionResponse, error) {
	r := &VersionResponse{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeString(b)
			r.ProtocolVersion = v
			return n, err
		case 3:
			v, n, err := consumeString(b)
			r.CompilerVersion = v
			return n, err
		case 4:
			v, n, err := consumeString(b)
			r.ImplementationVersion = v
			return n, err
		case 5:
			v, n, err := consumeString(b)
			r.ImplementationName = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

////////////////////////////////////////////////////////////////////////////
// LogEvent
////////////////////////////////////////////////////////////////////////////

func marshalLogEvent(e *LogEvent) []byte {
	var b []byte
	b = appendUint32(b, 1, e.CompilationID)
	b = appendVarintEnum(b, 2, int32(e.Type))
	b = appendString(b, 3, e.Message)
	b = appendString(b, 4, e.Formatted)
	if e.Span != nil {
		b = appendMessage(b, 5, marshalSourceSpan(e.Span))
	}
	return b
}

func unmarshalLogEvent(b []byte) (*LogEvent, error) {
	e := &LogEvent{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			e.CompilationID = v
			return n, err
		case 2:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, protowire.ParseError(n)
			}
			e.Type = LogEventType(v)
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			e.Message = v
			return n, err
		case 4:
			v, n, err := consumeString(b)
			e.Formatted = v
			return n, err
		case 5:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			span, err := unmarshalSourceSpan(sub)
			if err != nil {
				return -1, err
			}
			e.Span = span
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

////////////////////////////////////////////////////////////////////////////
// CanonicalizeRequest / ImportRequest / FileImportRequest
////////////////////////////////////////////////////////////////////////////

func marshalCanonicalizeRequest(r *CanonicalizeRequest) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	b = appendUint32(b, 2, r.CompilationID)
	b = appendUint32(b, 3, r.ImporterID)
	b = appendString(b, 4, r.URL)
	b = appendBool(b, 5, r.FromImport)
	return b
}

func unmarshalCanonicalizeRequest(b []byte) (*CanonicalizeRequest, error) {
	r := &CanonicalizeRequest{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeUint32(b)
			r.CompilationID = v
			return n, err
		case 3:
			v, n, err := consumeUint32(b)
			r.ImporterID = v
			return n, err
		case 4:
			v, n, err := consumeString(b)
			r.URL = v
			return n, err
		case 5:
			v, n, err := consumeBool(b)
			r.FromImport = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func marshalImportRequest(r *ImportRequest) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	b = appendUint32(b, 2, r.CompilationID)
	b = appendUint32(b, 3, r.ImporterID)
	b = appendString(b, 4, r.URL)
	return b
}

func unmarshalImportRequest(b []byte) (*ImportRequest, error) {
	r := &ImportRequest{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeUint32(b)
			r.CompilationID = v
			return n, err
		case 3:
			v, n, err := consumeUint32(b)
			r.ImporterID = v
			return n, err
		case 4:
			v, n, err := consumeString(b)
			r.URL = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func marshalFileImportRequest(r *FileImportRequest) []byte {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	b = appendUint32(b, 2, r.CompilationID)
	b = appendUint32(b, 3, r.ImporterID)
	b = appendString(b, 4, r.URL)
	b = appendBool(b, 5, r.FromImport)
	return b
}

func unmarshalFileImportRequest(b []byte) (*FileImportRequest, error) {
	r := &FileImportRequest{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeUint32(b)
			r.CompilationID = v
			return n, err
		case 3:
			v, n, err := consumeUint32(b)
			r.ImporterID = v
			return n, err
		case 4:
			v, n, err := consumeString(b)
			r.URL = v
			return n, err
		case 5:
			v, n, err := consumeBool(b)
			r.FromImport = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func marshalFunctionCallRequest(r *FunctionCallRequest) ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, r.ID)
	b = appendUint32(b, 2, r.CompilationID)
	switch {
	case r.Name != nil:
		b = appendString(b, 3, *r.Name)
	case r.FunctionID != nil:
		// Encoded even when 0, so the identifier survives a round trip.
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*r.FunctionID))
	default:
		return nil, fmt.Errorf("protocol: FunctionCallRequest identifier is not set")
	}
	for _, a := range r.Arguments {
		sub, err := marshalValue(a)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 5, sub)
	}
	return b, nil
}

func unmarshalFunctionCallRequest(b []byte) (*FunctionCallRequest, error) {
	r := &FunctionCallRequest{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			r.ID = v
			return n, err
		case 2:
			v, n, err := consumeUint32(b)
			r.CompilationID = v
			return n, err
		case 3:
			v, n, err := consumeString(b)
			if err != nil {
				return -1, err
			}
			r.Name = &v
			return n, nil
		case 4:
			v, n, err := consumeUint32(b)
			if err != nil {
				return -1, err
			}
			r.FunctionID = &v
			return n, nil
		case 5:
			sub, n, err := consumeSubMessage(b)
			if err != nil {
				return -1, err
			}
			v, err := unmarshalValue(sub)
			if err != nil {
				return -1, err
			}
			r.Arguments = append(r.Arguments, v)
			return n, nil
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

////////////////////////////////////////////////////////////////////////////
// ProtocolError
////////////////////////////////////////////////////////////////////////////

func marshalProtocolError(e *ProtocolError) []byte {
	var b []byte
	b = appendUint32(b, 1, e.ID)
	b = appendVarintEnum(b, 2, int32(e.Type))
	b = appendString(b, 3, e.Message)
	return b
}

func unmarshalProtocolError(b []byte) (*ProtocolError, error) {
	e := &ProtocolError{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeUint32(b)
			e.ID = v
			return n, err
		case 2:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, protowire.ParseError(n)
			}
			e.Type = ErrorKind(v)
			return n, nil
		case 3:
			v, n, err := consumeString(b)
			e.Message = v
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
