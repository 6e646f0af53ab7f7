// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package salefeed

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/boxoffice-pos/boxoffice/lib/codec"
	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
)

// Fingerprint identifies an event by content: the hex BLAKE3-256 of
// its deterministic CBOR encoding. Equal events always hash equally.
func Fingerprint(event cinema.SaleEvent) (string, error) {
	encoded, err := codec.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("salefeed: encoding event for fingerprint: %w", err)
	}
	digest := blake3.Sum256(encoded)
	return hex.EncodeToString(digest[:]), nil
}
