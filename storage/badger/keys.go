package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/sidekick-labs/sidekick/core"
)

// Key prefixes for different data types. Every key carries the user ID so
// one store can hold several users' notes without cross-talk.
const (
	docRecordPrefix   = "docrec"
	docDatePrefix     = "docdat"
	docTitlePrefix    = "doctit"
	chunkRecordPrefix = "churec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(userID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", docRecordPrefix, userID, id))
}

// makeDocumentPrefix generates the key prefix covering all of a user's documents.
func makeDocumentPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", docRecordPrefix, userID))
}

// makeDocDateKey generates a composite key for the date index.
// Format: prefix:user: timestamp id
func makeDocDateKey(userID string, date time.Time, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", docDatePrefix, userID))
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocDateKey generates a partial key for date range queries.
// Format: prefix:user: timestamp
func makePartialDocDateKey(userID string, date time.Time) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", docDatePrefix, userID))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(date.UnixMicro()))
	return buf
}

// makeDocDatePrefix generates the key prefix covering a user's date index.
func makeDocDatePrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", docDatePrefix, userID))
}

// makeDocTitleKey generates a key for title lookup. Titles are folded to
// lower case so lookups are case-insensitive.
func makeDocTitleKey(userID, title string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", docTitlePrefix, userID, strings.ToLower(title)))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:user: docID index
// Chunks sort by document then index, which gives FetchEmbeddingsPage a
// stable scan order.
func makeChunkKey(userID string, docID core.ID, index int) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, userID))
	buf := make([]byte, len(prefix)+12) // 8 bytes for docID + 4 bytes for index
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// makeChunkPrefix generates the key prefix covering all of a user's chunks.
func makeChunkPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, userID))
}

// makeDocChunkPrefix generates the key prefix covering one document's chunks.
func makeDocChunkPrefix(userID string, docID core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, userID))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}
