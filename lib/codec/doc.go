// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the box office wire codecs and the shared
// CBOR encoding configuration.
//
// Requests and responses on the point-of-sale socket are single
// self-delimiting objects with string keys. Two encodings are
// supported, selected per listener by [Format]:
//
//   - JSON (the default), which terminal clients speak. Numbers are
//     decoded as json.Number so that integer fields keep their exact
//     value instead of passing through float64.
//   - CBOR, for clients that prefer a compact binary encoding. Encoding
//     uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
//     keys, smallest integer encoding, no indefinite-length items.
//
// Both implementations of [MessageCodec] reject anything that is not a
// single object: arrays, scalars, null, and trailing bytes after the
// first value are all decode errors.
//
// The package-level [Marshal] exposes the deterministic CBOR mode for
// non-wire uses such as fingerprinting sale events, where the same
// logical data must always produce identical bytes. [Diagnose] renders
// undecodable CBOR requests for debug logs.
//
// # Struct Tag Rules
//
// Types shared between JSON and CBOR carry only `json` tags.
// fxamacker/cbor v2 reads `json` tags as fallback when `cbor` tags are
// absent, so a single tag controls field naming and omitempty for both
// formats. Never use both tags on the same field.
package codec
