package layout

import (
	"strconv"
	"strings"

	"github.com/petiaccja/sorbit/errors"
)

// Options form a closed set of tagged variants, one per recognized
// annotation key. Parsing merges them into FieldSpec/BitFieldGroup so
// that lowering and codegen never look at raw key/value pairs.
type option interface {
	isOption()
}

type byteOrderOpt struct{ order ByteOrder }
type bitFieldOpt struct{ name string }
type reprOpt struct{ kind Kind }
type numberingOpt struct{ numbering BitNumbering }
type bitsOpt struct{ r BitRange }
type defaultOpt struct{ value uint64 }
type offsetOpt struct{ n int }
type alignOpt struct{ n int }
type lenOpt struct{ n int }
type roundOpt struct{ n int }
type discriminantOpt struct{ value uint64 }

func (byteOrderOpt) isOption()    {}
func (bitFieldOpt) isOption()     {}
func (reprOpt) isOption()         {}
func (numberingOpt) isOption()    {}
func (bitsOpt) isOption()         {}
func (defaultOpt) isOption()      {}
func (offsetOpt) isOption()       {}
func (alignOpt) isOption()        {}
func (lenOpt) isOption()          {}
func (roundOpt) isOption()        {}
func (discriminantOpt) isOption() {}

// parseOptions splits a comma-separated key=value list into typed
// options, in source order. Later occurrences of a key are kept so the
// caller's merge can let them override earlier ones.
func parseOptions(path []string, s string) ([]option, error) {
	var opts []option
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return nil, errors.InvalidAttributeValue(path, key, item, "key=value")
		}
		opt, err := parseOption(path, key, value)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func parseOption(path []string, key, value string) (option, error) {
	switch key {
	case "byte_order":
		switch value {
		case "big_endian":
			return byteOrderOpt{BigEndian}, nil
		case "little_endian":
			return byteOrderOpt{LittleEndian}, nil
		}
		return nil, errors.InvalidAttributeValue(path, key, value, "big_endian or little_endian")

	case "bit_field":
		return bitFieldOpt{value}, nil

	case "repr":
		k := KindOf(value)
		if !k.IsUnsigned() {
			return nil, errors.InvalidAttributeValue(path, key, value, "uint8, uint16, uint32 or uint64")
		}
		return reprOpt{k}, nil

	case "bit_numbering":
		switch value {
		case "LSB0", "lsb0":
			return numberingOpt{LSB0}, nil
		case "MSB0", "msb0":
			return numberingOpt{MSB0}, nil
		}
		return nil, errors.InvalidAttributeValue(path, key, value, "LSB0 or MSB0")

	case "bits":
		r, err := parseBits(path, value)
		if err != nil {
			return nil, err
		}
		return bitsOpt{r}, nil

	case "default":
		v, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return nil, errors.InvalidAttributeValue(path, key, value, "an unsigned integer")
		}
		return defaultOpt{v}, nil

	case "offset":
		n, err := parseByteCount(value)
		if err != nil {
			return nil, errors.InvalidAttributeValue(path, key, value, "a byte count")
		}
		return offsetOpt{n}, nil

	case "align":
		n, err := parseByteCount(value)
		if err != nil || n == 0 {
			return nil, errors.InvalidAttributeValue(path, key, value, "a positive byte count")
		}
		return alignOpt{n}, nil

	case "len":
		n, err := parseByteCount(value)
		if err != nil {
			return nil, errors.InvalidAttributeValue(path, key, value, "a byte count")
		}
		return lenOpt{n}, nil

	case "round":
		n, err := parseByteCount(value)
		if err != nil || n == 0 {
			return nil, errors.InvalidAttributeValue(path, key, value, "a positive byte count")
		}
		return roundOpt{n}, nil

	case "discriminant":
		v, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return nil, errors.InvalidAttributeValue(path, key, value, "an unsigned integer")
		}
		return discriminantOpt{v}, nil
	}
	return nil, errors.UnknownAttribute(path, key)
}

func parseByteCount(value string) (int, error) {
	n, err := strconv.ParseUint(value, 0, 31)
	return int(n), err
}

// parseBits accepts a single index, an inclusive span lo..=hi, or a
// half-open span lo..hi.
func parseBits(path []string, value string) (BitRange, error) {
	if lo, hi, ok := strings.Cut(value, ".."); ok {
		inclusive := strings.HasPrefix(hi, "=")
		hi = strings.TrimPrefix(hi, "=")

		loN, errLo := strconv.ParseUint(strings.TrimSpace(lo), 0, 16)
		hiN, errHi := strconv.ParseUint(strings.TrimSpace(hi), 0, 16)
		if errLo != nil || errHi != nil {
			return BitRange{}, errors.InvalidAttributeValue(path, "bits", value, "an index, lo..=hi or lo..hi")
		}
		if !inclusive {
			if hiN <= loN {
				return BitRange{}, errors.InvalidAttributeValue(path, "bits", value, "a non-empty half-open span")
			}
			hiN--
		}
		if hiN < loN {
			return BitRange{}, errors.InvalidAttributeValue(path, "bits", value, "lo not greater than hi")
		}
		return BitRange{Lo: uint(loN), Hi: uint(hiN)}, nil
	}

	n, err := strconv.ParseUint(strings.TrimSpace(value), 0, 16)
	if err != nil {
		return BitRange{}, errors.InvalidAttributeValue(path, "bits", value, "an index, lo..=hi or lo..hi")
	}
	return BitRange{Lo: uint(n), Hi: uint(n)}, nil
}
