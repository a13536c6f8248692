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

package metadata

import (
	"errors"

	"github.com/blinklabs-io/agora/database/models"
	"gorm.io/gorm"
)

// GetDelegationEdge retrieves the delegation edge between two accounts.
// Returns nil if no delegation exists.
func (d *MetadataStoreSqlite) GetDelegationEdge(
	delegator string,
	delegate string,
	txn *gorm.DB,
) (*models.DelegationEdge, error) {
	var edge models.DelegationEdge
	db := d.resolveDB(txn)
	if result := db.Where(
		"delegator = ? AND delegate = ?",
		delegator,
		delegate,
	).First(&edge); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &edge, nil
}

// GetDelegationEdgesFrom retrieves all active delegation edges out of an account.
func (d *MetadataStoreSqlite) GetDelegationEdgesFrom(
	delegator string,
	txn *gorm.DB,
) ([]*models.DelegationEdge, error) {
	var edges []*models.DelegationEdge
	db := d.resolveDB(txn)
	if result := db.Where(
		"delegator = ?",
		delegator,
	).Find(&edges); result.Error != nil {
		return nil, result.Error
	}
	return edges, nil
}

// GetDelegationEdgesTo retrieves all active delegation edges into an account.
func (d *MetadataStoreSqlite) GetDelegationEdgesTo(
	delegate string,
	txn *gorm.DB,
) ([]*models.DelegationEdge, error) {
	var edges []*models.DelegationEdge
	db := d.resolveDB(txn)
	if result := db.Where(
		"delegate = ?",
		delegate,
	).Find(&edges); result.Error != nil {
		return nil, result.Error
	}
	return edges, nil
}

// SetDelegationEdge creates or updates a delegation edge.
func (d *MetadataStoreSqlite) SetDelegationEdge(
	edge *models.DelegationEdge,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(edge); result.Error != nil {
		return result.Error
	}
	return nil
}

// DeleteDelegationEdge removes a fully revoked delegation edge.
func (d *MetadataStoreSqlite) DeleteDelegationEdge(
	edge *models.DelegationEdge,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Delete(edge); result.Error != nil {
		return result.Error
	}
	return nil
}

// AddDelegationCheckpoint appends an entry to an account's checkpoint log.
func (d *MetadataStoreSqlite) AddDelegationCheckpoint(
	checkpoint *models.DelegationCheckpoint,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Create(checkpoint); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetDelegationCheckpointAt retrieves the latest checkpoint for an account
// at or before the given time. The (account, at) index makes this the
// point-in-time lookup used for snapshot voting power. Returns nil if the
// account had no delegation activity by that time.
func (d *MetadataStoreSqlite) GetDelegationCheckpointAt(
	account string,
	at uint64,
	txn *gorm.DB,
) (*models.DelegationCheckpoint, error) {
	var checkpoint models.DelegationCheckpoint
	db := d.resolveDB(txn)
	if result := db.Where(
		"account = ? AND at <= ?",
		account,
		at,
	).Order("at DESC").Order("id DESC").
		First(&checkpoint); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &checkpoint, nil
}
