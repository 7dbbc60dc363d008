package gatt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestDBusError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "invalid offset", err: fmt.Errorf("%w: offset 9", ErrInvalidOffset), expected: ErrorNameInvalidOffset},
		{name: "invalid arguments", err: ErrInvalidArguments, expected: ErrorNameInvalidArguments},
		{name: "not supported", err: fmt.Errorf("wrap: %w", ErrNotSupported), expected: ErrorNameNotSupported},
		{name: "unknown property", err: &UnknownPropertyError{Interface: CharacteristicInterface, Property: "Notifying"}, expected: ErrorNameUnknownProperty},
		{name: "lock failure", err: ErrLockFailed, expected: ErrorNameFailed},
		{name: "anything else", err: errors.New("boom"), expected: ErrorNameFailed},
		{name: "bus error passes through", err: fmt.Errorf("ctx: %w", dbus.NewError("org.bluez.Error.AlreadyExists", nil)), expected: "org.bluez.Error.AlreadyExists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DBusError(tt.err)

			if assert.NotNil(t, got) {
				assert.Equal(t, tt.expected, got.Name)
			}
		})
	}

	assert.Nil(t, DBusError(nil))
}

func TestUnknownPropertyError(t *testing.T) {
	err := &UnknownPropertyError{Interface: CharacteristicInterface, Property: "WriteAcquired"}

	assert.Equal(t, "org.bluez.GattCharacteristic1: unused property 'WriteAcquired'", err.Error())
	assert.ErrorIs(t, err, ErrUnknownProperty)
	assert.NotErrorIs(t, err, ErrInvalidArguments)
}

func TestRegistrationError(t *testing.T) {
	cause := fmt.Errorf("%w: x", ErrPathInUse)
	err := &RegistrationError{Step: StepPublish, Path: "/app/service0", Err: cause}

	assert.Equal(t, "registration failed at publish of /app/service0: object path already in use: x", err.Error())
	assert.ErrorIs(t, err, ErrPathInUse)

	var regErr *RegistrationError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &regErr))
	assert.Equal(t, StepPublish, regErr.Step)

	assert.Equal(t, "registration failed at register: boom", (&RegistrationError{Step: StepRegister, Err: errors.New("boom")}).Error())
}
