package store

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/log"
)

// Key layout. Claim records are one 32-byte big-endian amount per
// account; root and holder live under fixed meta keys.
var (
	keyRoot     = []byte("meta:root")
	keyHolder   = []byte("meta:holder")
	claimPrefix = []byte("claim:")
)

// Store wraps LevelDB for distributor state persistence.
// Thread-safe: LevelDB handles its own synchronization.
type Store struct {
	db *leveldb.DB
}

// NewStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewStore(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewMemoryStore creates an in-memory Store for testing.
func NewMemoryStore() (*Store, error) {
	return NewStore("")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func claimKey(account common.Address) []byte {
	return append(append([]byte{}, claimPrefix...), account.Bytes()...)
}

// GetRoot returns the persisted merkle root, if any.
func (s *Store) GetRoot() (common.Hash, bool, error) {
	data, err := s.db.Get(keyRoot, nil)
	if err == leveldb.ErrNotFound {
		return common.ZeroHash, false, nil
	}
	if err != nil {
		return common.ZeroHash, false, fmt.Errorf("get root: %w", err)
	}
	if len(data) != 32 {
		return common.ZeroHash, false, fmt.Errorf("root record has %d bytes: %w", len(data), droperrors.ErrSStoreCorrupt)
	}
	return common.BytesToHash(data), true, nil
}

// GetHolder returns the persisted reward holder, if any.
func (s *Store) GetHolder() (common.Address, bool, error) {
	data, err := s.db.Get(keyHolder, nil)
	if err == leveldb.ErrNotFound {
		return common.ZeroAddress, false, nil
	}
	if err != nil {
		return common.ZeroAddress, false, fmt.Errorf("get holder: %w", err)
	}
	if len(data) != 20 {
		return common.ZeroAddress, false, fmt.Errorf("holder record has %d bytes: %w", len(data), droperrors.ErrSStoreCorrupt)
	}
	return common.BytesToAddress(data), true, nil
}

// GetClaimed returns the persisted cumulative claimed amount for an
// account, if any.
func (s *Store) GetClaimed(account common.Address) (*uint256.Int, bool, error) {
	data, err := s.db.Get(claimKey(account), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get claimed %s: %w", account.Hex(), err)
	}
	amount, err := decodeAmount(data)
	if err != nil {
		return nil, false, fmt.Errorf("claim record %s: %w", account.Hex(), err)
	}
	return amount, true, nil
}

// LoadClaims reads every persisted claim record.
func (s *Store) LoadClaims() (map[common.Address]*uint256.Int, error) {
	claims := make(map[common.Address]*uint256.Int)
	iter := s.db.NewIterator(util.BytesPrefix(claimPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		account := common.BytesToAddress(key[len(claimPrefix):])
		amount, err := decodeAmount(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("claim record %s: %w", account.Hex(), err)
		}
		claims[account] = amount
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}
	log.Debug(log.StoreMonitoring, "loaded claim records", "count", len(claims))
	return claims, nil
}

func decodeAmount(data []byte) (*uint256.Int, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("amount has %d bytes: %w", len(data), droperrors.ErrSStoreCorrupt)
	}
	amount := new(uint256.Int)
	amount.SetBytes(data)
	return amount, nil
}

// Batch accumulates writes and commits them atomically, so a batch of
// claims either lands as a whole or not at all.
type Batch struct {
	s *Store
	b *leveldb.Batch
}

func (s *Store) NewBatch() *Batch {
	return &Batch{s: s, b: new(leveldb.Batch)}
}

func (b *Batch) SetRoot(root common.Hash) {
	b.b.Put(keyRoot, root.Bytes())
}

func (b *Batch) SetHolder(holder common.Address) {
	b.b.Put(keyHolder, holder.Bytes())
}

func (b *Batch) SetClaimed(account common.Address, amount *uint256.Int) {
	encoded := amount.Bytes32()
	b.b.Put(claimKey(account), encoded[:])
}

func (b *Batch) Write() error {
	if err := b.s.db.Write(b.b, nil); err != nil {
		return fmt.Errorf("batch write: %w", err)
	}
	return nil
}

// SetRoot persists the current root outside a batch.
func (s *Store) SetRoot(root common.Hash) error {
	return s.db.Put(keyRoot, root.Bytes(), nil)
}

// SetHolder persists the reward holder outside a batch.
func (s *Store) SetHolder(holder common.Address) error {
	return s.db.Put(keyHolder, holder.Bytes(), nil)
}
