// Copyright 2025 Sidekick Labs
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


package badger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close is a no-op; the shared backend is closed separately.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// DocumentID derives the content-based ID a document gets from its user and
// title. Re-adding a note with the same title replaces the earlier version.
func DocumentID(userID, title string) core.ID {
	return core.IDFromContent(fmt.Sprintf("%s:%s", userID, strings.ToLower(title)))
}

// AddDocuments adds one or more documents to storage, upserting by ID.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc.Id == 0 {
				doc.Id = DocumentID(doc.UserId, doc.Title)
			}

			key := makeDocumentKey(doc.UserId, doc.Id)

			// Upsert: keep InsertedAt and clean stale indices when the
			// document already exists.
			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if old != nil {
				doc.InsertedAt = old.InsertedAt
				doc.UpdatedAt = now
				if err := r.deleteIndices(tx, old); err != nil {
					return err
				}
			} else {
				if doc.InsertedAt.IsZero() {
					doc.InsertedAt = now
				}
				doc.UpdatedAt = doc.InsertedAt
			}

			// A title may only point at one document.
			titleKey := makeDocTitleKey(doc.UserId, doc.Title)
			if err := checkTitleFree(tx, titleKey, doc.Id); err != nil {
				return err
			}

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := r.writeIndices(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.UserId, doc.Id)

			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()

			if err := r.deleteIndices(tx, old); err != nil {
				return err
			}

			titleKey := makeDocTitleKey(doc.UserId, doc.Title)
			if err := checkTitleFree(tx, titleKey, doc.Id); err != nil {
				return err
			}

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := r.writeIndices(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, userID string, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(userID, id)

			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			if err := r.deleteIndices(tx, doc); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, userID string, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(userID, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, userID string, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(userID, id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentByTitle finds a document by its title, case-insensitively.
func (r *DocumentRepository) GetDocumentByTitle(ctx context.Context, userID, title string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocTitleKey(userID, title))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var docID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			docID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readDocument(tx, makeDocumentKey(userID, docID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByDateRange retrieves documents dated within start..end
// inclusive, ordered by date ascending. The index scan stops once limit
// documents have been materialized, so a broad range stays cheap.
func (r *DocumentRepository) GetDocumentsByDateRange(ctx context.Context, userID string, start, end time.Time, limit int) ([]*core.Document, error) {
	if end.Before(start) || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDocDateKey(userID, start)
		// end is inclusive, so the bound is one microsecond past it
		endKey := makePartialDocDateKey(userID, end.Add(time.Microsecond))
		prefix := makeDocDatePrefix(userID)

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}
			if slices.Compare(key, endKey) > 0 {
				break
			}

			// Read the ID from the index
			var docID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				docID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			// Look up the full document
			doc, err := readDocument(tx, makeDocumentKey(userID, docID))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
				if len(results) >= limit {
					break
				}
			}
		}
		return nil
	}, false)

	return results, err
}

// CountDocuments returns the number of documents stored for the user.
func (r *DocumentRepository) CountDocuments(ctx context.Context, userID string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(userID)
		opts.PrefetchValues = false

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// readDocument reads a document from the transaction.
// Returns nil, nil when the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// checkTitleFree returns ErrDuplicateKey when the title key is held by a
// different document.
func checkTitleFree(tx *badger.Txn, titleKey []byte, id core.ID) error {
	item, err := tx.Get(titleKey)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	}
	var holder core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		holder, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return err
	}
	if holder != id {
		return storage.ErrDuplicateKey
	}
	return nil
}

// writeIndices adds the title and date index entries for a document.
func (r *DocumentRepository) writeIndices(tx *badger.Txn, doc *core.Document) error {
	titleKey := makeDocTitleKey(doc.UserId, doc.Title)
	if err := tx.Set(titleKey, storage.MarshalID(doc.Id)); err != nil {
		return err
	}
	if doc.HasDate() {
		dateKey := makeDocDateKey(doc.UserId, doc.Date, doc.Id)
		if err := tx.Set(dateKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndices removes the title and date index entries for a document.
func (r *DocumentRepository) deleteIndices(tx *badger.Txn, doc *core.Document) error {
	titleKey := makeDocTitleKey(doc.UserId, doc.Title)
	if err := tx.Delete(titleKey); err != nil {
		return err
	}
	if doc.HasDate() {
		dateKey := makeDocDateKey(doc.UserId, doc.Date, doc.Id)
		if err := tx.Delete(dateKey); err != nil {
			return err
		}
	}
	return nil
}
