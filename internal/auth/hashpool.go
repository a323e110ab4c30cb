// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// HashPool bounds the number of hash and verify calls running at once.
// Hashing is CPU and memory bound; running more calls than cores only adds
// latency to each of them. Callers queue for a slot until their context
// ends, so a request whose deadline passes while waiting fails fast with
// ErrHashing instead of piling up.
type HashPool struct {
	next     PasswordHasher
	sem      *semaphore.Weighted
	size     int
	observer Observer
}

// NewHashPool wraps next with a pool of size slots.
// A size of zero or less uses runtime.NumCPU().
func NewHashPool(next PasswordHasher, size int, observer Observer) *HashPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &HashPool{
		next:     next,
		sem:      semaphore.NewWeighted(int64(size)),
		size:     size,
		observer: observer,
	}
}

// Size returns the number of slots.
func (p *HashPool) Size() int {
	return p.size
}

// Hash runs next.Hash once a slot is free.
func (p *HashPool) Hash(ctx context.Context, password string) (HashRecord, error) {
	if err := p.acquire(ctx); err != nil {
		return HashRecord{}, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	record, err := p.next.Hash(ctx, password)
	if err == nil {
		p.observer.ObserveHash("hash", record.Algorithm, time.Since(start))
	}
	return record, err
}

// Verify runs next.Verify once a slot is free.
func (p *HashPool) Verify(ctx context.Context, password string, record HashRecord) (bool, error) {
	if err := p.acquire(ctx); err != nil {
		return false, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	ok, err := p.next.Verify(ctx, password, record)
	p.observer.ObserveHash("verify", record.Algorithm, time.Since(start))
	return ok, err
}

// NeedsRehash delegates to the wrapped hasher.
func (p *HashPool) NeedsRehash(record HashRecord) bool {
	return p.next.NeedsRehash(record)
}

// DummyRecord delegates to the wrapped hasher when it provides one.
func (p *HashPool) DummyRecord() HashRecord {
	if d, ok := p.next.(dummySource); ok {
		return d.DummyRecord()
	}
	return dummyRecordFor(DefaultHashPolicy())
}

func (p *HashPool) acquire(ctx context.Context) error {
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return hashingFailure("wait for hashing slot", err)
	}
	p.observer.ObservePoolWait(time.Since(start))
	return nil
}

// dummySource is implemented by hashers that can supply a timing-equivalent
// record for unknown accounts.
type dummySource interface {
	DummyRecord() HashRecord
}

// Compile-time interface check.
var _ PasswordHasher = (*HashPool)(nil)
