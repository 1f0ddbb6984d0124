// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store persists reward pools into a kv store.
package store

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/kv"
	"github.com/gysr/ledger/log"
	"github.com/gysr/ledger/rewards"
)

var logger = log.WithContext("pkg", "store")

// ErrNotFound is returned when loading a pool that was never saved.
var ErrNotFound = errors.New("pool not found")

const poolBucket = kv.Bucket("gysr/pool/")

// Store keeps snappy compressed, RLP encoded pool snapshots keyed by pool id.
type Store struct {
	db kv.Store
}

func New(db kv.Store) *Store {
	return &Store{db: poolBucket.NewStore(db)}
}

// Save writes the committed state of pool under id, replacing what was there.
func (s *Store) Save(id string, pool *rewards.Pool) error {
	data, err := marshal(pool)
	if err != nil {
		return err
	}
	if err := s.db.Put([]byte(id), data); err != nil {
		return errors.Wrap(err, "put pool")
	}
	logger.Debug("pool saved", "id", id, "size", len(data))
	return nil
}

// SaveAll writes every pool, keyed by id, in one atomic batch.
func (s *Store) SaveAll(pools map[string]*rewards.Pool) error {
	batch := s.db.Batch()
	for id, pool := range pools {
		data, err := marshal(pool)
		if err != nil {
			return errors.WithMessage(err, id)
		}
		if err := batch.Put([]byte(id), data); err != nil {
			return errors.Wrap(err, "put pool")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write pools")
	}
	logger.Debug("pools saved", "count", batch.Len())
	return nil
}

func marshal(pool *rewards.Pool) ([]byte, error) {
	enc, err := encodePool(pool)
	if err != nil {
		return nil, err
	}
	data, err := rlp.EncodeToBytes(enc)
	if err != nil {
		return nil, errors.Wrap(err, "encode pool")
	}
	return snappy.Encode(nil, data), nil
}

// Load rebuilds the pool saved under id. Policy and normalization come from the saved
// state when cfg leaves the policy unset; otherwise they must agree with it.
func (s *Store) Load(id string, cfg rewards.Config) (*rewards.Pool, error) {
	compressed, err := s.db.Get([]byte(id))
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get pool")
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "decompress pool")
	}

	var dec poolRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, errors.Wrap(err, "decode pool")
	}
	if dec.Version != codecVersion {
		return nil, errors.Errorf("unsupported pool encoding version %d", dec.Version)
	}
	policy, err := dec.Policy.decode()
	if err != nil {
		return nil, err
	}
	if cfg.Policy == nil {
		cfg.Policy = policy
		cfg.Normalization = dec.normalization()
	} else if cfg.Policy.Name() != policy.Name() {
		return nil, errors.Errorf("pool %q was saved with the %s policy", id, policy.Name())
	}
	pool, err := rewards.Restore(cfg, dec.snapshot())
	if err != nil {
		return nil, errors.Wrapf(err, "restore pool %q", id)
	}
	return pool, nil
}

// Delete removes the pool saved under id.
func (s *Store) Delete(id string) error {
	return errors.Wrap(s.db.Delete([]byte(id)), "delete pool")
}

// IDs lists the ids of saved pools in key order.
func (s *Store) IDs() ([]string, error) {
	iter := s.db.Iterate(kv.Range{})
	defer iter.Release()

	var ids []string
	for iter.Next() {
		ids = append(ids, string(iter.Key()))
	}
	return ids, errors.Wrap(iter.Error(), "iterate pools")
}
