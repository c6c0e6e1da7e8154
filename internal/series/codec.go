package series

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Encode serializes a payload into the tagged cache envelope.
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, errNilPayload
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.Kind(), err)
	}
	return json.Marshal(envelope{Kind: p.Kind(), Data: data})
}

// Decode parses a cache envelope and validates the payload shape. Any
// failure is a *ParseError.
func Decode(b []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, &ParseError{What: "cache envelope", Err: err}
	}
	if len(env.Data) == 0 {
		return nil, &ParseError{What: "cache envelope", Err: fmt.Errorf("missing data")}
	}

	var p Payload
	switch env.Kind {
	case KindRaw:
		s := &RawSeries{}
		if err := json.Unmarshal(env.Data, s); err != nil {
			return nil, asParseError("raw series", err)
		}
		p = s
	case KindDerived:
		s := &DerivedSeries{}
		if err := json.Unmarshal(env.Data, s); err != nil {
			return nil, asParseError("derived series", err)
		}
		p = s
	default:
		return nil, &ParseError{What: "cache envelope", Err: fmt.Errorf("unknown kind %q", env.Kind)}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func asParseError(what string, err error) error {
	if IsParseError(err) {
		return err
	}
	return &ParseError{What: what, Err: err}
}
