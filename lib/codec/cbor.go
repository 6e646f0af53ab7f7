// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2). Same logical data always produces
// identical bytes.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Unknown fields are silently ignored.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// time.Time values (sale timestamps) encode as RFC 3339 text so
	// that JSON and CBOR clients see the same representation.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Requests are decoded into map[string]any. The CBOR default
		// for any-typed maps is map[any]any, which the request
		// accessors cannot index by field name.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// A request object is small; anything deeply nested is not a
		// request.
		MaxNestedLevels: 16,
		// Duplicate keys would make "which value wins" ambiguous for
		// quantity and price fields.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for data.
// The socket server logs it for CBOR requests it cannot decode.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
