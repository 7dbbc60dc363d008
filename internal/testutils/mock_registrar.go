package testutils

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/mock"
)

// MockRegistrar is a testify mock of gatt.Registrar.
//
//	reg := testutils.NewMockRegistrar()
//	reg.On("RegisterApplication", mock.Anything, dbus.ObjectPath("/app"), mock.Anything).Return(nil)
type MockRegistrar struct {
	mock.Mock
}

func NewMockRegistrar() *MockRegistrar {
	return &MockRegistrar{}
}

// AcceptAll makes every call succeed.
func (m *MockRegistrar) AcceptAll() *MockRegistrar {
	m.On("RegisterApplication", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("UnregisterApplication", mock.Anything, mock.Anything).Return(nil)
	return m
}

func (m *MockRegistrar) RegisterApplication(ctx context.Context, root dbus.ObjectPath, options map[string]dbus.Variant) error {
	args := m.Called(ctx, root, options)
	return args.Error(0)
}

func (m *MockRegistrar) UnregisterApplication(ctx context.Context, root dbus.ObjectPath) error {
	args := m.Called(ctx, root)
	return args.Error(0)
}
