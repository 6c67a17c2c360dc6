package snapshot

import (
	"bytes"

	"github.com/cespare/xxhash"
)

// BlobKey addresses one stored content. Seq tells apart distinct contents
// that share a hash.
type BlobKey struct {
	Hash uint64
	Seq  uint32
}

type blob struct {
	data []byte
	refs int
}

// BlobStore keeps file contents once no matter how many snapshots hold them.
// Contents are reference counted and dropped when the last holder releases.
type BlobStore struct {
	blobs map[BlobKey]*blob
	seq   map[uint64]uint32
	size  int
}

func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[BlobKey]*blob),
		seq:   make(map[uint64]uint32),
	}
}

// Put stores data (or bumps the count of an identical blob) and returns its key.
func (s *BlobStore) Put(data []byte) BlobKey {
	h := xxhash.Sum64(data)
	for seq := uint32(0); seq < s.seq[h]; seq++ {
		k := BlobKey{Hash: h, Seq: seq}
		if b, ok := s.blobs[k]; ok && bytes.Equal(b.data, data) {
			b.refs++
			return k
		}
	}

	k := BlobKey{Hash: h, Seq: s.seq[h]}
	s.seq[h]++
	s.blobs[k] = &blob{data: append([]byte(nil), data...), refs: 1}
	s.size += len(data)
	return k
}

// Get returns the stored bytes. Callers must not modify them.
func (s *BlobStore) Get(k BlobKey) ([]byte, bool) {
	b, ok := s.blobs[k]
	if !ok {
		return nil, false
	}
	return b.data, true
}

func (s *BlobStore) Release(k BlobKey) {
	b, ok := s.blobs[k]
	if !ok {
		return
	}
	b.refs--
	if b.refs > 0 {
		return
	}
	delete(s.blobs, k)
	s.size -= len(b.data)
}

// Len is the number of distinct contents held.
func (s *BlobStore) Len() int { return len(s.blobs) }

// Size is the total byte size of distinct contents held.
func (s *BlobStore) Size() int { return s.size }
