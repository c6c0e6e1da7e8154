package series

import (
	"reflect"
	"testing"
)

// go test -v --run TestCodecRoundTrip
func TestCodecRoundTrip(t *testing.T) {
	payloads := []Payload{fiveBars(), smaSeries(), &RawSeries{Bars: []Bar{}}}
	for _, p := range payloads {
		b, err := Encode(p)
		if err != nil {
			t.Fatalf("encode %s: %v", p.Kind(), err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("decode %s: %v", p.Kind(), err)
		}
		if got.Kind() != p.Kind() {
			t.Errorf("kind = %s, want %s", got.Kind(), p.Kind())
		}
		if !reflect.DeepEqual(got, p) {
			t.Errorf("decoded payload differs:\n got %+v\nwant %+v", got, p)
		}
	}
}

// go test -v --run TestDecodeRejectsMalformed
func TestDecodeRejectsMalformed(t *testing.T) {
	blobs := []string{
		``,
		`{"kind":"raw"}`,
		`{"kind":"candles","data":[]}`,
		`{"kind":"raw","data":{"strategy":"sma"}}`,
		`{"kind":"derived","data":[]}`,
		`{"kind":"derived","data":{"symbol":"AAPL","result":{"dates":["2024-06-01"]}}}`,
		`{"kind":"raw","data":[{"Date":"2024-06-02"},{"Date":"2024-06-01"}]}`,
		`{"kind":"raw","data":[{"Date":"2024-06-01"},{"Date":"2024-06-01"}]}`,
	}
	for _, b := range blobs {
		if _, err := Decode([]byte(b)); !IsParseError(err) {
			t.Errorf("blob %q: expected ParseError, got %v", b, err)
		}
	}
}

// go test -v --run TestKeys
func TestKeys(t *testing.T) {
	if RawKey("AAPL") != "AAPL" {
		t.Errorf("raw key = %q", RawKey("AAPL"))
	}
	if DerivedKey("AAPL", "sma") != "AAPL:sma" {
		t.Errorf("derived key = %q", DerivedKey("AAPL", "sma"))
	}
	if RawKey("AAPL:sma") == DerivedKey("AAPL", "sma") {
		t.Error("raw and derived keys collide")
	}
	if DerivedKey("A:B", "c") == DerivedKey("A", "B:c") {
		t.Error("derived keys collide")
	}
}
