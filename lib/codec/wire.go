// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Format names a wire encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ErrNotObject is returned when a message decodes to something other
// than a single object (array, scalar, or null).
var ErrNotObject = errors.New("message is not an object")

// ErrTrailingData is returned when bytes remain after the first value.
var ErrTrailingData = errors.New("unexpected data after message")

// MessageCodec converts between wire bytes and request/response
// objects. Implementations are safe for concurrent use.
type MessageCodec interface {
	// Decode parses exactly one object from data.
	Decode(data []byte) (map[string]any, error)

	// Encode serializes message as one object.
	Encode(message map[string]any) ([]byte, error)

	// Format reports which encoding this codec speaks.
	Format() Format
}

// ParseFormat parses a format name as it appears in configuration.
// The empty string selects JSON.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("codec: unknown wire format %q (want %q or %q)", name, FormatJSON, FormatCBOR)
	}
}

// ForFormat returns the codec for format.
func ForFormat(format Format) (MessageCodec, error) {
	switch format {
	case "", FormatJSON:
		return JSON{}, nil
	case FormatCBOR:
		return CBOR{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown wire format %q", format)
	}
}

// JSON is the JSON wire codec. Numbers decode as json.Number.
type JSON struct{}

// Decode implements MessageCodec.
func (JSON) Decode(data []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty message: %w", io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	message, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return message, nil
}

// Encode implements MessageCodec.
func (JSON) Encode(message map[string]any) ([]byte, error) {
	return json.Marshal(message)
}

// Format implements MessageCodec.
func (JSON) Format() Format { return FormatJSON }

// CBOR is the CBOR wire codec. Unsigned integers decode as uint64,
// negative integers as int64, and floating-point values as float64.
type CBOR struct{}

// Decode implements MessageCodec.
func (CBOR) Decode(data []byte) (map[string]any, error) {
	var value any
	if err := decMode.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	message, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return message, nil
}

// Encode implements MessageCodec.
func (CBOR) Encode(message map[string]any) ([]byte, error) {
	return encMode.Marshal(message)
}

// Format implements MessageCodec.
func (CBOR) Format() Format { return FormatCBOR }

// StreamDecoder reads consecutive messages from a byte stream. Clients
// use it to read responses, which are not bounded by the server's
// request buffer.
type StreamDecoder interface {
	Decode() (map[string]any, error)
}

// NewStreamDecoder returns a StreamDecoder for format reading from r.
func NewStreamDecoder(format Format, r io.Reader) StreamDecoder {
	if format == FormatCBOR {
		return &cborStreamDecoder{decoder: decMode.NewDecoder(r)}
	}
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	return &jsonStreamDecoder{decoder: decoder}
}

type jsonStreamDecoder struct {
	decoder *json.Decoder
}

func (d *jsonStreamDecoder) Decode() (map[string]any, error) {
	var message map[string]any
	if err := d.decoder.Decode(&message); err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrNotObject
	}
	return message, nil
}

type cborStreamDecoder struct {
	decoder *cbor.Decoder
}

func (d *cborStreamDecoder) Decode() (map[string]any, error) {
	var message map[string]any
	if err := d.decoder.Decode(&message); err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrNotObject
	}
	return message, nil
}
