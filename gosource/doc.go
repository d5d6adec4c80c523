// Package gosource extracts annotated type definitions from Go source.
//
// A type opts in with a directive comment:
//
//	//sorbit:struct byte_order=little_endian
//	type Header struct {
//		Version uint8 `sorbit:"bit_field=hdr, repr=uint8, bits=0..=3"`
//		Urgent  bool  `sorbit:"bit_field=hdr, bits=7"`
//		Length  uint16
//	}
//
// Enums are interfaces with one struct per variant:
//
//	//sorbit:enum repr=uint8
//	type Frame interface{ ... }
//
//	//sorbit:variant Frame discriminant=1
//	type FramePing struct{ Seq uint16 }
//
// Field options live in the sorbit struct tag. Extract returns raw
// structural descriptions; all option parsing and layout validation
// happens in the layout package.
package gosource
