// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// MockService is a suture.Service whose behavior tests can control.
type MockService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	failCount  atomic.Int32
	maxFails   atomic.Int32
}

func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve fails the first maxFails calls, then runs until ctx is canceled.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	if maxFails := m.maxFails.Load(); maxFails > 0 {
		if m.failCount.Add(1) <= maxFails {
			return errors.New("simulated failure")
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

func (m *MockService) SetFailCount(n int32) { m.maxFails.Store(n) }
func (m *MockService) StartCount() int32    { return m.startCount.Load() }
func (m *MockService) StopCount() int32     { return m.stopCount.Load() }
func (m *MockService) String() string       { return m.name }
