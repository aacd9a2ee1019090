// Package memory is an in-process OTP store for local runs and tests. Records
// are lost on restart and are not shared between replicas.
package memory

import (
	"context"
	"sync"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
)

type Memory struct {
	mu sync.RWMutex
	m  map[string]entity.OTP
}

func New() *Memory {
	return &Memory{m: make(map[string]entity.OTP)}
}

func (s *Memory) FindByIdentity(_ context.Context, identity string) (*entity.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.m[identity]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (s *Memory) DeleteByIdentity(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, identity)
	return nil
}

// Create stores in, replacing any record the identity already had.
func (s *Memory) Create(ctx context.Context, in entity.OTP) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[in.Identity] = in
	return nil
}

func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
