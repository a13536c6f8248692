// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"crypto/sha256"
	"fmt"
)

// Action payloads are stored in the blob store keyed by their content hash,
// with only the hash recorded in the metadata row. An empty payload hashes
// like any other content, so zero-length payloads round-trip too.

func payloadKey(hash []byte) []byte {
	return append([]byte("payload_"), hash...)
}

// HashPayload returns the content-address hash for a payload
func HashPayload(payload []byte) []byte {
	hash := sha256.Sum256(payload)
	return hash[:]
}

// SetPayload stores an action payload and returns its content hash
func (d *Database) SetPayload(payload []byte) ([]byte, error) {
	hash := HashPayload(payload)
	if err := d.blob.Set(payloadKey(hash), payload); err != nil {
		return nil, fmt.Errorf("failed to set payload: %w", err)
	}
	return hash, nil
}

// GetPayload retrieves an action payload by its content hash
func (d *Database) GetPayload(hash []byte) ([]byte, error) {
	payload, err := d.blob.Get(payloadKey(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to get payload: %w", err)
	}
	return payload, nil
}
