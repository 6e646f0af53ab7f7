// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{" CBOR ", FormatCBOR, false},
		{"xml", "", true},
	}
	for _, test := range tests {
		got, err := ParseFormat(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatCBOR} {
		messageCodec, err := ForFormat(format)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", format, err)
		}
		if messageCodec.Format() != format {
			t.Errorf("ForFormat(%q).Format() = %q", format, messageCodec.Format())
		}
	}
	if _, err := ForFormat("yaml"); err == nil {
		t.Error("ForFormat(yaml) should fail")
	}
}

func TestJSONDecodeKeepsIntegerPrecision(t *testing.T) {
	message, err := JSON{}.Decode([]byte(`{"action":"sell_ticket","movie_id":9007199254740993,"tickets":30}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	number, ok := message["movie_id"].(json.Number)
	if !ok {
		t.Fatalf("movie_id has type %T, want json.Number", message["movie_id"])
	}
	if number.String() != "9007199254740993" {
		t.Errorf("movie_id = %s, want 9007199254740993", number)
	}
	if message["action"] != "sell_ticket" {
		t.Errorf("action = %v", message["action"])
	}
}

func TestJSONDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", ``, nil},
		{"truncated", `{"action":`, nil},
		{"array", `[1,2,3]`, ErrNotObject},
		{"scalar", `"get_movies"`, ErrNotObject},
		{"null", `null`, ErrNotObject},
		{"two objects", `{"action":"a"}{"action":"b"}`, ErrTrailingData},
		{"trailing garbage", `{"action":"a"} x`, ErrTrailingData},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := JSON{}.Decode([]byte(test.input))
			if err == nil {
				t.Fatal("Decode should fail")
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Errorf("Decode error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestJSONDecodeAllowsTrailingWhitespace(t *testing.T) {
	if _, err := (JSON{}).Decode([]byte("{\"action\":\"get_movies\"}\r\n")); err != nil {
		t.Errorf("Decode: %v", err)
	}
}

func TestCBORWireRoundtrip(t *testing.T) {
	request := map[string]any{
		"action":   "sell_ticket",
		"movie_id": int64(3),
		"tickets":  int64(2),
	}
	data, err := CBOR{}.Encode(request)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := CBOR{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded["action"] != "sell_ticket" {
		t.Errorf("action = %v", decoded["action"])
	}
	if decoded["movie_id"] != uint64(3) {
		t.Errorf("movie_id = %v (%T), want uint64(3)", decoded["movie_id"], decoded["movie_id"])
	}
}

func TestCBORDecodeRejects(t *testing.T) {
	array, err := Marshal([]int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (CBOR{}).Decode(array); !errors.Is(err, ErrNotObject) {
		t.Errorf("array: error = %v, want ErrNotObject", err)
	}

	object, err := Marshal(map[string]any{"action": "status"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (CBOR{}).Decode(append(object, object...)); err == nil {
		t.Error("two concatenated objects should fail")
	}

	if _, err := (CBOR{}).Decode(nil); err == nil {
		t.Error("empty input should fail")
	}
}

func TestStreamDecoderReadsConsecutiveMessages(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			messageCodec, err := ForFormat(format)
			if err != nil {
				t.Fatal(err)
			}
			var stream bytes.Buffer
			for _, status := range []string{"success", "error"} {
				data, err := messageCodec.Encode(map[string]any{"status": status})
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				stream.Write(data)
			}

			decoder := NewStreamDecoder(format, &stream)
			for _, want := range []string{"success", "error"} {
				message, err := decoder.Decode()
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if message["status"] != want {
					t.Errorf("status = %v, want %q", message["status"], want)
				}
			}
			if _, err := decoder.Decode(); !errors.Is(err, io.EOF) {
				t.Errorf("Decode at end of stream: %v, want io.EOF", err)
			}
		})
	}
}
