package series

import (
	"fmt"
	"maps"
)

// Kind tags the payload variant stored under a cache key.
type Kind string

const (
	KindRaw     Kind = "raw"
	KindDerived Kind = "derived"
)

// Payload is a materialized series. Values are never mutated once built;
// every transformation returns a new one.
type Payload interface {
	Kind() Kind
	Len() int
	Validate() error
}

// Bar is one daily OHLC bar as served by the history endpoint.
type Bar struct {
	Date     string  `json:"Date"`
	Open     float64 `json:"Open"`
	High     float64 `json:"High"`
	Low      float64 `json:"Low"`
	Close    float64 `json:"Close"`
	AdjClose float64 `json:"Adj Close"`
	Volume   float64 `json:"Volume"`
}

// RawSeries is the daily bar history of a symbol, ascending by date.
type RawSeries struct {
	Bars []Bar
}

func (s *RawSeries) Kind() Kind { return KindRaw }

func (s *RawSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar.
func (s *RawSeries) Last() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

func (s *RawSeries) Validate() error {
	if s == nil {
		return &ParseError{What: "raw series", Err: errNilPayload}
	}
	for i, b := range s.Bars {
		if b.Date == "" {
			return &ParseError{What: "raw series", Err: fmt.Errorf("bar %d: empty date", i)}
		}
		if i > 0 && b.Date <= s.Bars[i-1].Date {
			return &ParseError{What: "raw series", Err: fmt.Errorf("bar %d: date %s not after %s", i, b.Date, s.Bars[i-1].Date)}
		}
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with s.
func (s *RawSeries) Clone() *RawSeries {
	if s == nil {
		return nil
	}
	bars := make([]Bar, len(s.Bars), len(s.Bars)+1)
	copy(bars, s.Bars)
	return &RawSeries{Bars: bars}
}

// Point is one element of a derived series. Values holds the
// strategy-specific numeric fields (e.g. "price", "sma", "upper_band").
type Point struct {
	Date   string
	Values map[string]float64
	Signal string
}

// Value returns the named field and whether it is present.
func (p Point) Value(name string) (float64, bool) {
	v, ok := p.Values[name]
	return v, ok
}

func (p Point) clone() Point {
	cp := p
	if p.Values != nil {
		cp.Values = maps.Clone(p.Values)
	}
	return cp
}

// DerivedSeries is an indicator series computed by a strategy for a symbol.
type DerivedSeries struct {
	Symbol      string
	Strategy    string
	GeneratedAt string
	Points      []Point
}

func (s *DerivedSeries) Kind() Kind { return KindDerived }

func (s *DerivedSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Last returns the most recent point.
func (s *DerivedSeries) Last() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

func (s *DerivedSeries) Validate() error {
	if s == nil {
		return &ParseError{What: "derived series", Err: errNilPayload}
	}
	if s.Strategy == "" {
		return &ParseError{What: "derived series", Err: fmt.Errorf("missing strategy")}
	}
	for i, p := range s.Points {
		if p.Date == "" {
			return &ParseError{What: "derived series", Err: fmt.Errorf("point %d: empty date", i)}
		}
		if i > 0 && p.Date <= s.Points[i-1].Date {
			return &ParseError{What: "derived series", Err: fmt.Errorf("point %d: date %s not after %s", i, p.Date, s.Points[i-1].Date)}
		}
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with s.
func (s *DerivedSeries) Clone() *DerivedSeries {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Points = make([]Point, len(s.Points), len(s.Points)+1)
	for i, p := range s.Points {
		cp.Points[i] = p.clone()
	}
	return &cp
}

// LiveObservation is a single streamed point tagged with the identity it
// belongs to. It is consumed by the merge and never cached on its own.
type LiveObservation struct {
	Symbol    string
	Strategy  string
	Timestamp string
	Point     Point
}
