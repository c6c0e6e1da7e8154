package series

import "strings"

// Key identifies one logical series in the cache.
type Key string

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// RawKey is the cache key of a symbol's bar history: the bare symbol.
func RawKey(symbol string) Key {
	return Key(keyEscaper.Replace(symbol))
}

// DerivedKey is the cache key of a strategy series: "<symbol>:<strategy>".
// Components are escaped so a raw key never contains an unescaped ':'.
func DerivedKey(symbol, strategy string) Key {
	return Key(keyEscaper.Replace(symbol) + ":" + keyEscaper.Replace(strategy))
}

func (k Key) String() string { return string(k) }
