// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// sampleEvent uses json struct tags, the convention for types that
// serve both JSON and CBOR.
type sampleEvent struct {
	SaleID   int64  `json:"sale_id"`
	Customer string `json:"customer_name,omitempty"`
	Tickets  int64  `json:"tickets"`
}

func TestMarshalDecodeRoundtrip(t *testing.T) {
	original := sampleEvent{SaleID: 7, Customer: "Alice", Tickets: 30}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleEvent
	if err := decMode.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	// Map iteration order is random; deterministic encoding sorts keys.
	message := map[string]any{
		"status":  "success",
		"total":   3600.0,
		"sale_id": int64(1),
		"id":      int64(2),
	}

	first, err := Marshal(message)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 20 {
		again, err := Marshal(message)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	withCustomer, err := Marshal(sampleEvent{SaleID: 1, Customer: "x", Tickets: 1})
	if err != nil {
		t.Fatal(err)
	}
	withoutCustomer, err := Marshal(sampleEvent{SaleID: 1, Tickets: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(withoutCustomer) >= len(withCustomer) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(withoutCustomer), len(withCustomer))
	}
}

func TestTimeEncodesAsText(t *testing.T) {
	soldAt := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	data, err := Marshal(map[string]any{"sold_at": soldAt})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"2026-03-01T18:30:00Z"`) {
		t.Errorf("notation %q does not contain RFC 3339 text", notation)
	}
}

func TestDecodeInvalidCBOR(t *testing.T) {
	var event sampleEvent
	if err := decMode.Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &event); err == nil {
		t.Error("decoder should reject invalid CBOR")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"action": "get_movies"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"action"`) || !strings.Contains(notation, `"get_movies"`) {
		t.Errorf("notation %q missing expected text", notation)
	}
}

func BenchmarkMarshal(b *testing.B) {
	event := sampleEvent{SaleID: 42, Customer: "Alice", Tickets: 3}
	b.ReportAllocs()
	for b.Loop() {
		Marshal(event)
	}
}
