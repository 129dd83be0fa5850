package storage

import (
	"testing"
	"time"

	"github.com/sidekick-labs/sidekick/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err, "empty input should fail")
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	doc := &core.Document{
		Id:             core.IDFromContent("alice:Meeting Notes"),
		UserId:         "alice",
		Title:          "Meeting Notes",
		Content:        "Discussed the roadmap.\n\nAction items follow.",
		Date:           core.Day(now),
		DateConfidence: 0.95,
		DateSource:     core.DateSourceFilename,
		InsertedAt:     now,
		UpdatedAt:      now,
	}

	data := MarshalDocument(doc)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, decoded.Id)
	assert.Equal(t, doc.UserId, decoded.UserId)
	assert.Equal(t, doc.Title, decoded.Title)
	assert.Equal(t, doc.Content, decoded.Content)
	assert.True(t, doc.Date.Equal(decoded.Date))
	assert.Equal(t, doc.DateConfidence, decoded.DateConfidence)
	assert.Equal(t, doc.DateSource, decoded.DateSource)
	assert.True(t, doc.InsertedAt.Equal(decoded.InsertedAt))
}

func TestMarshalUnmarshalDocument_NoDate(t *testing.T) {
	doc := &core.Document{
		Id:      core.ID(7),
		UserId:  "bob",
		Title:   "Undated",
		Content: "no temporal anchor here",
	}

	decoded, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.True(t, decoded.Date.IsZero())
	assert.False(t, decoded.HasDate())
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	chunk := &core.Chunk{
		Id:         core.IDFromContent("chunk"),
		DocumentId: core.ID(99),
		Index:      3,
		Text:       "a slice of the document body",
		Embedding:  []float32{0.25, -0.5, 0.125, 1.0},
		InsertedAt: now,
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk.Id, decoded.Id)
	assert.Equal(t, chunk.DocumentId, decoded.DocumentId)
	assert.Equal(t, chunk.Index, decoded.Index)
	assert.Equal(t, chunk.Text, decoded.Text)
	assert.Equal(t, chunk.Embedding, decoded.Embedding)
	assert.True(t, chunk.InsertedAt.Equal(decoded.InsertedAt))
}

func TestMarshalUnmarshalChunk_EmptyEmbedding(t *testing.T) {
	chunk := &core.Chunk{
		Id:         core.ID(1),
		DocumentId: core.ID(2),
		Text:       "not yet embedded",
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Empty(t, decoded.Embedding)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	cp := &core.Checkpoint{
		ProcessorType: "reindex:alice",
		Position:      1500,
		UpdatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(cp))
	require.NoError(t, err)
	assert.Equal(t, cp.ProcessorType, decoded.ProcessorType)
	assert.Equal(t, cp.Position, decoded.Position)
	assert.True(t, cp.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalDocument_Truncated(t *testing.T) {
	doc := &core.Document{
		Id:      core.ID(5),
		UserId:  "alice",
		Title:   "Cut short",
		Content: "this payload will be truncated mid-field",
	}
	data := MarshalDocument(doc)

	_, err := UnmarshalDocument(data[:len(data)/2])
	assert.Error(t, err)
}
