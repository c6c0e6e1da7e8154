package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Column names of the analytics result document. The analytics endpoint
// names the price column "prices" while the live feed says "price"; both
// decode to the "price" value.
const (
	columnDates  = "dates"
	columnSignal = "signal"
	columnPrices = "prices"

	fieldDate   = "date"
	fieldSignal = "signal"
	fieldPrice  = "price"
)

func normalizeField(name string) string {
	if name == columnPrices {
		return fieldPrice
	}
	return name
}

// MarshalJSON encodes the bars as the bare array served by /history.
func (s *RawSeries) MarshalJSON() ([]byte, error) {
	if s.Bars == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Bars)
}

func (s *RawSeries) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return &ParseError{What: "raw series", Err: errNilPayload}
	}
	var bars []Bar
	if err := json.Unmarshal(b, &bars); err != nil {
		return &ParseError{What: "raw series", Err: err}
	}
	s.Bars = bars
	return nil
}

type derivedDocument struct {
	Symbol    string                     `json:"symbol"`
	Strategy  string                     `json:"strategy"`
	Timestamp string                     `json:"timestamp"`
	Result    map[string]json.RawMessage `json:"result"`
}

// MarshalJSON encodes the series in the columnar analytics layout:
// {symbol, strategy, timestamp, result: {dates, prices, ..., signal}}.
// Values missing from a point are written as null.
func (s *DerivedSeries) MarshalJSON() ([]byte, error) {
	names := map[string]struct{}{}
	for _, p := range s.Points {
		for name := range p.Values {
			names[name] = struct{}{}
		}
	}

	dates := make([]string, len(s.Points))
	signals := make([]string, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
		signals[i] = p.Signal
	}

	result := make(map[string]any, len(names)+2)
	result[columnDates] = dates
	result[columnSignal] = signals
	for name := range names {
		col := make([]*float64, len(s.Points))
		for i, p := range s.Points {
			if v, ok := p.Values[name]; ok {
				col[i] = &v
			}
		}
		key := name
		if name == fieldPrice {
			key = columnPrices
		}
		result[key] = col
	}

	return json.Marshal(struct {
		Symbol    string         `json:"symbol"`
		Strategy  string         `json:"strategy"`
		Timestamp string         `json:"timestamp"`
		Result    map[string]any `json:"result"`
	}{s.Symbol, s.Strategy, s.GeneratedAt, result})
}

func (s *DerivedSeries) UnmarshalJSON(b []byte) error {
	var doc derivedDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return &ParseError{What: "derived series", Err: err}
	}
	if doc.Result == nil {
		return &ParseError{What: "derived series", Err: fmt.Errorf("missing result")}
	}

	var dates []string
	if raw, ok := doc.Result[columnDates]; ok {
		if err := json.Unmarshal(raw, &dates); err != nil {
			return &ParseError{What: "derived series", Err: fmt.Errorf("dates: %w", err)}
		}
	} else {
		return &ParseError{What: "derived series", Err: fmt.Errorf("missing dates column")}
	}

	points := make([]Point, len(dates))
	for i, d := range dates {
		points[i] = Point{Date: d, Values: map[string]float64{}}
	}

	// Deterministic column order keeps error messages stable.
	cols := make([]string, 0, len(doc.Result))
	for name := range doc.Result {
		if name != columnDates {
			cols = append(cols, name)
		}
	}
	sort.Strings(cols)

	for _, name := range cols {
		raw := doc.Result[name]
		if name == columnSignal {
			var signals []string
			if err := json.Unmarshal(raw, &signals); err != nil {
				return &ParseError{What: "derived series", Err: fmt.Errorf("signal: %w", err)}
			}
			if len(signals) != len(points) {
				return &ParseError{What: "derived series", Err: fmt.Errorf("signal has %d values, want %d", len(signals), len(points))}
			}
			for i, sig := range signals {
				points[i].Signal = sig
			}
			continue
		}

		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			return &ParseError{What: "derived series", Err: fmt.Errorf("%s: %w", name, err)}
		}
		if len(values) != len(points) {
			return &ParseError{What: "derived series", Err: fmt.Errorf("%s has %d values, want %d", name, len(values), len(points))}
		}
		field := normalizeField(name)
		for i, v := range values {
			if v != nil {
				points[i].Values[field] = *v
			}
		}
	}

	*s = DerivedSeries{
		Symbol:      doc.Symbol,
		Strategy:    doc.Strategy,
		GeneratedAt: doc.Timestamp,
		Points:      points,
	}
	return nil
}

type liveDocument struct {
	Symbol    string                     `json:"symbol"`
	Strategy  string                     `json:"strategy"`
	Timestamp string                     `json:"timestamp"`
	Result    map[string]json.RawMessage `json:"result"`
}

// ParseLiveObservation decodes one streaming frame:
// {symbol, strategy, timestamp, result: {date, price, sma, ..., signal}}.
func ParseLiveObservation(b []byte) (*LiveObservation, error) {
	var doc liveDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, &ParseError{What: "live frame", Err: err}
	}
	if doc.Result == nil {
		return nil, &ParseError{What: "live frame", Err: fmt.Errorf("missing result")}
	}

	p := Point{Values: map[string]float64{}}
	for name, raw := range doc.Result {
		switch name {
		case fieldDate:
			if err := json.Unmarshal(raw, &p.Date); err != nil {
				return nil, &ParseError{What: "live frame", Err: fmt.Errorf("date: %w", err)}
			}
		case fieldSignal:
			if err := json.Unmarshal(raw, &p.Signal); err != nil {
				return nil, &ParseError{What: "live frame", Err: fmt.Errorf("signal: %w", err)}
			}
		default:
			var v *float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, &ParseError{What: "live frame", Err: fmt.Errorf("%s: %w", name, err)}
			}
			if v != nil {
				p.Values[normalizeField(name)] = *v
			}
		}
	}
	if p.Date == "" {
		return nil, &ParseError{What: "live frame", Err: fmt.Errorf("missing date")}
	}

	return &LiveObservation{
		Symbol:    doc.Symbol,
		Strategy:  doc.Strategy,
		Timestamp: doc.Timestamp,
		Point:     p,
	}, nil
}

// MarshalJSON writes the observation in the streaming frame shape accepted
// by ParseLiveObservation.
func (o *LiveObservation) MarshalJSON() ([]byte, error) {
	result := make(map[string]any, len(o.Point.Values)+2)
	for name, v := range o.Point.Values {
		result[name] = v
	}
	result[fieldDate] = o.Point.Date
	if o.Point.Signal != "" {
		result[fieldSignal] = o.Point.Signal
	}
	return json.Marshal(struct {
		Symbol    string         `json:"symbol"`
		Strategy  string         `json:"strategy"`
		Timestamp string         `json:"timestamp,omitempty"`
		Result    map[string]any `json:"result"`
	}{o.Symbol, o.Strategy, o.Timestamp, result})
}
