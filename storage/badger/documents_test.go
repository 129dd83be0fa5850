package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepos(t *testing.T) (storage.DocumentRepository, storage.ChunkRepository) {
	t.Helper()
	docs, chunks, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return docs, chunks
}

func testDocument(userID, title, content string, date time.Time) *core.Document {
	doc := &core.Document{
		UserId:  userID,
		Title:   title,
		Content: content,
	}
	if !date.IsZero() {
		doc.Date = date
		doc.DateConfidence = 1.0
		doc.DateSource = core.DateSourceFilename
	}
	return doc
}

func TestDocumentRepository_AddAndGet(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	doc := testDocument("alice", "Meeting Notes", "Discussed roadmap.", time.Time{})
	added, err := docs.AddDocuments(ctx, doc)
	require.NoError(t, err)
	require.Len(t, added, 1)

	assert.Equal(t, DocumentID("alice", "Meeting Notes"), added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())
	assert.False(t, added[0].UpdatedAt.IsZero())

	got, err := docs.GetDocument(ctx, "alice", added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Meeting Notes", got.Title)
	assert.Equal(t, "Discussed roadmap.", got.Content)
}

func TestDocumentRepository_GetMissing(t *testing.T) {
	docs, _ := setupTestRepos(t)

	_, err := docs.GetDocument(context.Background(), "alice", core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_UpsertByTitle(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	first, err := docs.AddDocuments(ctx, testDocument("alice", "Journal", "v1", time.Time{}))
	require.NoError(t, err)
	insertedAt := first[0].InsertedAt

	// Re-adding the same title replaces the content but keeps identity.
	second, err := docs.AddDocuments(ctx, testDocument("alice", "Journal", "v2", time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, first[0].Id, second[0].Id)
	assert.True(t, insertedAt.Equal(second[0].InsertedAt))

	got, err := docs.GetDocument(ctx, "alice", first[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)

	count, err := docs.CountDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentRepository_GetByTitle(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	_, err := docs.AddDocuments(ctx, testDocument("alice", "Project Plan", "scope", time.Time{}))
	require.NoError(t, err)

	got, err := docs.GetDocumentByTitle(ctx, "alice", "project plan")
	require.NoError(t, err)
	assert.Equal(t, "Project Plan", got.Title)

	_, err = docs.GetDocumentByTitle(ctx, "alice", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Other users cannot see it.
	_, err = docs.GetDocumentByTitle(ctx, "bob", "Project Plan")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_DuplicateTitle(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	_, err := docs.AddDocuments(ctx, testDocument("alice", "Shared Title", "one", time.Time{}))
	require.NoError(t, err)

	conflicting := testDocument("alice", "Shared Title", "two", time.Time{})
	conflicting.Id = core.ID(999)
	_, err = docs.AddDocuments(ctx, conflicting)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestDocumentRepository_DateRange(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	d1 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err := docs.AddDocuments(ctx,
		testDocument("alice", "March 10", "a", d1),
		testDocument("alice", "March 15", "b", d2),
		testDocument("alice", "April 1", "c", d3),
		testDocument("alice", "Undated", "d", time.Time{}),
	)
	require.NoError(t, err)

	// Inclusive on both ends, ascending by date, undated excluded.
	results, err := docs.GetDocumentsByDateRange(ctx, "alice",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "March 10", results[0].Title)
	assert.Equal(t, "March 15", results[1].Title)

	// Exact boundary days are included.
	results, err = docs.GetDocumentsByDateRange(ctx, "alice", d2, d2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "March 15", results[0].Title)

	// Inverted ranges are rejected.
	_, err = docs.GetDocumentsByDateRange(ctx, "alice", d3, d1, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	// Missing limit is rejected.
	_, err = docs.GetDocumentsByDateRange(ctx, "alice", d1, d3, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestDocumentRepository_DateRangeLimit(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for day := 1; day <= 8; day++ {
		date := time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC)
		_, err := docs.AddDocuments(ctx, testDocument("alice", fmt.Sprintf("May %d", day), "entry", date))
		require.NoError(t, err)
	}

	// The scan stops at the limit, keeping the earliest dates.
	results, err := docs.GetDocumentsByDateRange(ctx, "alice",
		start, time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "May 1", results[0].Title)
	assert.Equal(t, "May 3", results[2].Title)
}

func TestDocumentRepository_UpdateMovesDateIndex(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	oldDate := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	newDate := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	added, err := docs.AddDocuments(ctx, testDocument("alice", "Moving", "x", oldDate))
	require.NoError(t, err)

	updated := *added[0]
	updated.Date = newDate
	_, err = docs.UpdateDocuments(ctx, &updated)
	require.NoError(t, err)

	results, err := docs.GetDocumentsByDateRange(ctx, "alice", oldDate, oldDate, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = docs.GetDocumentsByDateRange(ctx, "alice", newDate, newDate, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Moving", results[0].Title)
}

func TestDocumentRepository_UpdateMissing(t *testing.T) {
	docs, _ := setupTestRepos(t)

	doc := testDocument("alice", "Ghost", "boo", time.Time{})
	doc.Id = core.ID(42)
	_, err := docs.UpdateDocuments(context.Background(), doc)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_Delete(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	date := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
	added, err := docs.AddDocuments(ctx, testDocument("alice", "Doomed", "gone soon", date))
	require.NoError(t, err)

	require.NoError(t, docs.DeleteDocuments(ctx, "alice", added[0].Id))

	_, err = docs.GetDocument(ctx, "alice", added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = docs.GetDocumentByTitle(ctx, "alice", "Doomed")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	results, err := docs.GetDocumentsByDateRange(ctx, "alice", date, date, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	err = docs.DeleteDocuments(ctx, "alice", added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentRepository_UserIsolation(t *testing.T) {
	docs, _ := setupTestRepos(t)
	ctx := context.Background()

	_, err := docs.AddDocuments(ctx,
		testDocument("alice", "Alice Note", "hers", time.Time{}),
		testDocument("bob", "Bob Note", "his", time.Time{}),
	)
	require.NoError(t, err)

	aliceCount, err := docs.CountDocuments(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, aliceCount)

	bobCount, err := docs.CountDocuments(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bobCount)
}
