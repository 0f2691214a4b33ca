// Package storage keeps the level chain of every asset in a prefixed
// key-value database. The following prefixes are used:
//   - 'a/' for assets, keyed by asset id, holding the entry record
//   - 'l/' for levels, keyed by the hashed asset id and the level index
//
// The chain is append-only and only grows through verified hops: a level
// is never rewritten except to record, exactly once, the witness point the
// hop extending it carries.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/logical-mechanism/peace-protocol/crypto/ecc/bls12381"
	"github.com/logical-mechanism/peace-protocol/level"
	"github.com/logical-mechanism/peace-protocol/log"
	"github.com/logical-mechanism/peace-protocol/reencrypt"
	"github.com/logical-mechanism/peace-protocol/register"
	"github.com/logical-mechanism/peace-protocol/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	assetPrefix = []byte("a/")
	levelPrefix = []byte("l/")
)

const (
	// maxKeySize is the size of the hashed asset id that prefixes its
	// level keys.
	maxKeySize = 12
	indexSize  = 4
)

// Asset is the stored record of an asset: its entry and the number of
// levels appended so far, the entry level included.
type Asset struct {
	Entry  *reencrypt.Entry `cbor:"0,keyasint"`
	Levels uint32           `cbor:"1,keyasint"`
}

// Level is one stored level of an asset chain. R5 is nil until the next
// hop completes the level. Hop is nil for the entry level.
type Level struct {
	Index     uint32            `cbor:"0,keyasint"`
	Kind      level.Kind        `cbor:"1,keyasint"`
	Level     level.HalfLevel   `cbor:"2,keyasint"`
	Recipient register.Register `cbor:"3,keyasint"`
	R5        *bls12381.G2      `cbor:"4,keyasint,omitempty"`
	Hop       *reencrypt.Hop    `cbor:"5,keyasint,omitempty"`
}

// Complete reports whether the level carries its witness point.
func (l *Level) Complete() bool {
	return l.R5 != nil
}

// Full returns the completed form of the level.
func (l *Level) Full() (level.FullLevel, error) {
	if l.R5 == nil {
		return level.FullLevel{}, types.ErrInvalidArgument.Withf("level %d is not complete", l.Index)
	}
	return l.Level.Complete(*l.R5), nil
}

// Storage wraps the database. Writes that read and then modify the chain
// are serialized by globalLock.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance.
func New(db db.Database) *Storage {
	return &Storage{db: db}
}

// Close closes the storage.
func (s *Storage) Close() {
	s.db.Close()
}

func levelKey(assetID []byte, index uint32) []byte {
	key := make([]byte, 0, maxKeySize+indexSize)
	key = append(key, hashKey(assetID)...)
	return binary.BigEndian.AppendUint32(key, index)
}

// SetAsset stores a new asset together with its entry level. An asset id
// can only be stored once.
func (s *Storage) SetAsset(e *reencrypt.Entry) error {
	if e == nil || len(e.AssetID) == 0 {
		return types.ErrInvalidArgument.With("entry with an asset id is required")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	if _, err := s.asset(e.AssetID); err == nil {
		return types.ErrInvalidArgument.Withf("asset %x already exists", []byte(e.AssetID))
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}
	entry := &Level{
		Index:     0,
		Kind:      level.Entry,
		Level:     e.Level,
		Recipient: e.Owner,
	}
	if err := s.write(func(tx db.WriteTx) error {
		if err := setArtifact(tx, levelPrefix, levelKey(e.AssetID, 0), entry); err != nil {
			return err
		}
		return setArtifact(tx, assetPrefix, e.AssetID, &Asset{Entry: e, Levels: 1})
	}); err != nil {
		return err
	}
	log.Debugw("asset stored", "asset", types.HexBytes(e.AssetID).String())
	return nil
}

// Asset returns the stored asset or ErrNotFound.
func (s *Storage) Asset(assetID []byte) (*Asset, error) {
	return s.asset(assetID)
}

func (s *Storage) asset(assetID []byte) (*Asset, error) {
	a := &Asset{}
	if err := s.getArtifact(assetPrefix, assetID, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssets returns the ids of every stored asset in key order.
func (s *Storage) ListAssets() ([][]byte, error) {
	return s.listArtifacts(assetPrefix)
}

// AppendHop stores a verified hop: it completes the newest level with the
// hop witness and appends the new level in a single transaction.
func (s *Storage) AppendHop(h *reencrypt.Hop) (uint32, error) {
	if h == nil {
		return 0, types.ErrInvalidArgument.With("nil hop")
	}
	if err := reencrypt.VerifyHop(h); err != nil {
		return 0, err
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	a, err := s.asset(h.AssetID)
	if err != nil {
		return 0, err
	}
	last, err := s.level(h.AssetID, a.Levels-1)
	if err != nil {
		return 0, err
	}
	if last.Complete() {
		return 0, types.ErrInvalidArgument.Withf("level %d is already complete", last.Index)
	}
	if last.Kind != h.PreviousKind || !last.Level.R1.Equal(h.Previous.R1) ||
		!last.Level.R2.Equal(h.Previous.R2G1) || !last.Level.R4.Equal(h.Previous.R4) {
		return 0, types.ErrProofVerification.With("hop does not extend the newest level")
	}
	if !last.Recipient.Public.Equal(h.Delegator.Public) {
		return 0, types.ErrProofVerification.With("hop delegator does not hold the newest level")
	}
	r5 := h.Witness.R5
	last.R5 = &r5
	next := &Level{
		Index:     a.Levels,
		Kind:      level.Hop,
		Level:     h.Level,
		Recipient: h.Recipient,
		Hop:       h,
	}
	a.Levels++
	if err := s.write(func(tx db.WriteTx) error {
		if err := setArtifact(tx, levelPrefix, levelKey(h.AssetID, last.Index), last); err != nil {
			return err
		}
		if err := setArtifact(tx, levelPrefix, levelKey(h.AssetID, next.Index), next); err != nil {
			return err
		}
		return setArtifact(tx, assetPrefix, h.AssetID, a)
	}); err != nil {
		return 0, err
	}
	log.Debugw("hop stored", "asset", types.HexBytes(h.AssetID).String(), "level", next.Index)
	return next.Index, nil
}

// Level returns one level of an asset chain.
func (s *Storage) Level(assetID []byte, index uint32) (*Level, error) {
	return s.level(assetID, index)
}

func (s *Storage) level(assetID []byte, index uint32) (*Level, error) {
	l := &Level{}
	if err := s.getArtifact(levelPrefix, levelKey(assetID, index), l); err != nil {
		return nil, err
	}
	return l, nil
}

// Levels returns the chain of an asset, entry level first.
func (s *Storage) Levels(assetID []byte) ([]*Level, error) {
	a, err := s.asset(assetID)
	if err != nil {
		return nil, err
	}
	levels := make([]*Level, 0, a.Levels)
	pr := prefixeddb.NewPrefixedReader(s.db, levelPrefix)
	var decodeErr error
	if err := pr.Iterate(hashKey(assetID), func(_, v []byte) bool {
		l := &Level{}
		if decodeErr = decodeArtifact(v, l); decodeErr != nil {
			return false
		}
		levels = append(levels, l)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate levels: %w", err)
	}
	if decodeErr != nil {
		return nil, types.ErrMalformedEncoding.WithErr(decodeErr)
	}
	if uint32(len(levels)) != a.Levels {
		return nil, types.ErrMalformedEncoding.Withf("asset has %d levels, found %d", a.Levels, len(levels))
	}
	return levels, nil
}

// Chain returns the newest level and the completed levels before it,
// newest first, in the form reencrypt.RecursiveDecrypt takes.
func (s *Storage) Chain(assetID []byte) (level.HalfLevel, []level.FullLevel, error) {
	levels, err := s.Levels(assetID)
	if err != nil {
		return level.HalfLevel{}, nil, err
	}
	latest := levels[len(levels)-1]
	history := make([]level.FullLevel, 0, len(levels)-1)
	for i := len(levels) - 2; i >= 0; i-- {
		f, err := levels[i].Full()
		if err != nil {
			return level.HalfLevel{}, nil, err
		}
		history = append(history, f)
	}
	return latest.Level, history, nil
}
