// Package mocks provides test doubles for the source package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// MockSource is a mock type for the Source interface.
type MockSource struct {
	mock.Mock
}

// Fetch provides a mock function with given fields: ctx, queryID
func (_m *MockSource) Fetch(ctx context.Context, queryID string) (*tabular.Table, error) {
	ret := _m.Called(ctx, queryID)

	if len(ret) == 0 {
		panic("no return value specified for Fetch")
	}

	var r0 *tabular.Table
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*tabular.Table, error)); ok {
		return rf(ctx, queryID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *tabular.Table); ok {
		r0 = rf(ctx, queryID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*tabular.Table)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, queryID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSource creates a new instance of MockSource. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSource {
	m := &MockSource{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
