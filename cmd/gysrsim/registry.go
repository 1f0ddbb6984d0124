// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/gysr/ledger/rewards"
)

// registry keeps the pools of every simulation that has run.
type registry struct {
	mu    sync.RWMutex
	pools map[string]*rewards.Pool
}

func newRegistry() *registry {
	return &registry{pools: make(map[string]*rewards.Pool)}
}

func (r *registry) add(pool *rewards.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[pool.Name()]; ok {
		return errors.Errorf("duplicate pool name %q", pool.Name())
	}
	r.pools[pool.Name()] = pool
	return nil
}

func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *registry) Pool(name string) (*rewards.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[name]
	return p, ok
}

func (r *registry) all() map[string]*rewards.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make(map[string]*rewards.Pool, len(r.pools))
	for name, p := range r.pools {
		all[name] = p
	}
	return all
}

func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pools {
		p.Close()
	}
}
