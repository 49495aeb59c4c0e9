package grpcsink

import (
	"encoding/base64"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"xdao.co/logship/digest"
	"xdao.co/logship/frame"
)

// Wire field names for a frame Struct. Payload is carried as standard
// base64 (structpb has no bytes kind); the digest uses digest.String's
// "alg:base64" form.
const (
	fieldSeq     = "seq"
	fieldFinal   = "final"
	fieldPayload = "payload"
	fieldDigest  = "digest"
)

func frameToStruct(f frame.Frame) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldSeq:     structpb.NewNumberValue(float64(f.SequenceIndex)),
		fieldFinal:   structpb.NewBoolValue(f.Final),
		fieldPayload: structpb.NewStringValue(base64.StdEncoding.EncodeToString(f.Payload)),
	}
	if f.Digest != nil {
		fields[fieldDigest] = structpb.NewStringValue(f.Digest.String())
	}
	return &structpb.Struct{Fields: fields}
}

func frameFromStruct(s *structpb.Struct) (frame.Frame, error) {
	var f frame.Frame
	if s == nil {
		return f, fmt.Errorf("grpcsink: nil frame message")
	}
	seq, ok := numberField(s, fieldSeq)
	if !ok || seq != math.Trunc(seq) || seq < 0 {
		return f, fmt.Errorf("grpcsink: missing or invalid %q", fieldSeq)
	}
	f.SequenceIndex = int(seq)

	fv, ok := s.Fields[fieldFinal]
	if !ok {
		return f, fmt.Errorf("grpcsink: missing %q", fieldFinal)
	}
	b, ok := fv.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return f, fmt.Errorf("grpcsink: invalid %q", fieldFinal)
	}
	f.Final = b.BoolValue

	pv, ok := s.Fields[fieldPayload]
	if !ok {
		return f, fmt.Errorf("grpcsink: missing %q", fieldPayload)
	}
	enc, ok := pv.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return f, fmt.Errorf("grpcsink: invalid %q", fieldPayload)
	}
	payload, err := base64.StdEncoding.DecodeString(enc.StringValue)
	if err != nil {
		return f, fmt.Errorf("grpcsink: invalid %q base64: %w", fieldPayload, err)
	}
	f.Payload = payload

	if dv, ok := s.Fields[fieldDigest]; ok {
		ds, ok := dv.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return f, fmt.Errorf("grpcsink: invalid %q", fieldDigest)
		}
		d, err := digest.Decode(ds.StringValue)
		if err != nil {
			return f, fmt.Errorf("grpcsink: invalid %q: %w", fieldDigest, err)
		}
		f.Digest = &d
	}
	return f, nil
}

func numberField(s *structpb.Struct, name string) (float64, bool) {
	v, ok := s.Fields[name]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return n.NumberValue, true
}
