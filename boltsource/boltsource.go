// Package boltsource adapts a BoltDB bucket into a datapipe Source.
//
// The bucket values are yielded in key order.
// Every traversal opens a fresh read-only transaction,
// which gives the Source the fresh-sequence-per-run behaviour a Pipeline expects.
package boltsource

import (
	"encoding/json"

	"github.com/boltdb/bolt"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/iterkit"

	"go.llib.dev/datapipe"
)

// ErrBucketNotFound is yielded when the configured bucket is absent from the database.
const ErrBucketNotFound errorkit.Error = "boltsource: bucket not found"

// New returns a Source that yields the values of the named bucket,
// decoded with the given decode function.
func New[T any](db *bolt.DB, bucket []byte, decode func([]byte) (T, error)) datapipe.Source[T] {
	return Source[T]{DB: db, Bucket: bucket, Decode: decode}
}

type Source[T any] struct {
	DB     *bolt.DB
	Bucket []byte
	Decode func([]byte) (T, error)
}

func (s Source[T]) Items() iterkit.ErrSeq[T] {
	return func(yield func(T, error) bool) {
		var zero T
		tx, err := s.DB.Begin(false)
		if err != nil {
			yield(zero, err)
			return
		}
		defer func() { _ = tx.Rollback() }()
		bucket := tx.Bucket(s.Bucket)
		if bucket == nil {
			yield(zero, ErrBucketNotFound.F("%q", string(s.Bucket)))
			return
		}
		cur := bucket.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			item, err := s.Decode(v)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// JSON returns a decode function that unmarshals the bucket values as JSON.
func JSON[T any]() func([]byte) (T, error) {
	return func(data []byte) (T, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	}
}
