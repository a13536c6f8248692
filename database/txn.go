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
	"sync"

	"gorm.io/gorm"
)

// Txn wraps a metadata transaction. Accessor methods on Database accept a
// nil *Txn and run against their own short-lived transaction in that case;
// callers that need multiple operations to commit atomically pass the same
// handle to each.
type Txn struct {
	db       *Database
	metadata *gorm.DB
	lock     sync.Mutex
	finished bool
}

func NewTxn(db *Database) *Txn {
	return &Txn{
		db:       db,
		metadata: db.Metadata().Transaction(),
	}
}

// txnMetadata returns the metadata handle for an optional transaction
func txnMetadata(txn *Txn) *gorm.DB {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// DB returns the parent database instance
func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the underlying metadata transaction handle
func (t *Txn) Metadata() *gorm.DB {
	return t.metadata
}

// Commit commits the wrapped transaction. Calling Commit or Rollback on an
// already finished transaction is a no-op.
func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	if result := t.metadata.Commit(); result.Error != nil {
		return result.Error
	}
	return nil
}

// Rollback aborts the wrapped transaction
func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	if result := t.metadata.Rollback(); result.Error != nil {
		return result.Error
	}
	return nil
}
