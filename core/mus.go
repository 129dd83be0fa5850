package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the entities badger stores as values.
// Field order is part of the on-disk format and must not change.

type idMUS struct{}

// IDMUS serializes IDs.
var IDMUS = idMUS{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type timeMUS struct{}

// TimeMUS serializes timestamps at microsecond precision.
var TimeMUS = timeMUS{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micros == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

type vectorMUS struct{}

// VectorMUS serializes embedding vectors as a length-prefixed fixed-width
// float32 sequence.
var VectorMUS = vectorMUS{}

func (vectorMUS) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		f, fn, err := raw.Float32.Unmarshal(bs[n:])
		n += fn
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type documentMUS struct{}

// DocumentMUS serializes Documents.
var DocumentMUS = documentMUS{}

func (documentMUS) Marshal(d Document, bs []byte) int {
	n := IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.UserId, bs[n:])
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	n += TimeMUS.Marshal(d.Date, bs[n:])
	n += raw.Float32.Marshal(d.DateConfidence, bs[n:])
	n += varint.Int.Marshal(int(d.DateSource), bs[n:])
	n += TimeMUS.Marshal(d.InsertedAt, bs[n:])
	n += TimeMUS.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (Document, int, error) {
	var d Document
	id, n, err := IDMUS.Unmarshal(bs)
	if err != nil {
		return d, n, err
	}
	d.Id = id
	var fn int
	if d.UserId, fn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	if d.Title, fn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	if d.Content, fn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	if d.Date, fn, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	if d.DateConfidence, fn, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	source, fn, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return d, n + fn, err
	}
	d.DateSource = DateSource(source)
	n += fn
	if d.InsertedAt, fn, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	if d.UpdatedAt, fn, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return d, n + fn, err
	}
	n += fn
	return d, n, nil
}

func (documentMUS) Size(d Document) int {
	return IDMUS.Size(d.Id) +
		ord.String.Size(d.UserId) +
		ord.String.Size(d.Title) +
		ord.String.Size(d.Content) +
		TimeMUS.Size(d.Date) +
		raw.Float32.Size(d.DateConfidence) +
		varint.Int.Size(int(d.DateSource)) +
		TimeMUS.Size(d.InsertedAt) +
		TimeMUS.Size(d.UpdatedAt)
}

type chunkMUS struct{}

// ChunkMUS serializes Chunks.
var ChunkMUS = chunkMUS{}

func (chunkMUS) Marshal(c Chunk, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.DocumentId, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += VectorMUS.Marshal(c.Embedding, bs[n:])
	n += TimeMUS.Marshal(c.InsertedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (Chunk, int, error) {
	var c Chunk
	id, n, err := IDMUS.Unmarshal(bs)
	if err != nil {
		return c, n, err
	}
	c.Id = id
	var fn int
	if c.DocumentId, fn, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	if c.Index, fn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	if c.Text, fn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	if c.Embedding, fn, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	if c.InsertedAt, fn, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.DocumentId) +
		varint.Int.Size(c.Index) +
		ord.String.Size(c.Text) +
		VectorMUS.Size(c.Embedding) +
		TimeMUS.Size(c.InsertedAt)
}

type checkpointMUS struct{}

// CheckpointMUS serializes Checkpoints.
var CheckpointMUS = checkpointMUS{}

func (checkpointMUS) Marshal(c Checkpoint, bs []byte) int {
	n := ord.String.Marshal(c.ProcessorType, bs)
	n += varint.Int.Marshal(c.Position, bs[n:])
	n += TimeMUS.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (checkpointMUS) Unmarshal(bs []byte) (Checkpoint, int, error) {
	var c Checkpoint
	pt, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return c, n, err
	}
	c.ProcessorType = pt
	var fn int
	if c.Position, fn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	if c.UpdatedAt, fn, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + fn, err
	}
	n += fn
	return c, n, nil
}

func (checkpointMUS) Size(c Checkpoint) int {
	return ord.String.Size(c.ProcessorType) +
		varint.Int.Size(c.Position) +
		TimeMUS.Size(c.UpdatedAt)
}
