package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pairchat/internal/protocol"
	"pairchat/internal/service"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) LoginUser(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserDirectory) CheckForUserName(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserDirectory) CheckForEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserDirectory) SignUp(ctx context.Context, info protocol.SignupInfo) (string, error) {
	args := m.Called(ctx, info)
	return args.String(0), args.Error(1)
}

func (m *MockUserDirectory) CheckForUserID(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func TestResolveSignup(t *testing.T) {
	info := protocol.SignupInfo{UserName: "JohnDoe", UserEmail: "user@mail.com"}

	t.Run("Accepted", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("CheckForUserName", mock.Anything, "JohnDoe").Return(false, nil)
		dir.On("CheckForEmail", mock.Anything, "user@mail.com").Return(false, nil)

		outcome, err := service.ResolveSignup(context.Background(), dir, info)
		assert.NoError(t, err)
		assert.Equal(t, service.SignupAccepted, outcome)
		dir.AssertExpectations(t)
	})

	t.Run("NameTakenSkipsEmailCheck", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("CheckForUserName", mock.Anything, "JohnDoe").Return(true, nil)

		outcome, err := service.ResolveSignup(context.Background(), dir, info)
		assert.NoError(t, err)
		assert.Equal(t, service.SignupNameTaken, outcome)
		// Name precedence: the email check must not run when the name is
		// already taken.
		dir.AssertNotCalled(t, "CheckForEmail", mock.Anything, mock.Anything)
	})

	t.Run("NameTakenRegardlessOfEmailState", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("CheckForUserName", mock.Anything, "JohnDoe").Return(true, nil)
		// Even a taken email cannot change the outcome.
		dir.On("CheckForEmail", mock.Anything, "user@mail.com").Return(true, nil).Maybe()

		outcome, err := service.ResolveSignup(context.Background(), dir, info)
		assert.NoError(t, err)
		assert.Equal(t, service.SignupNameTaken, outcome)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		dir := new(MockUserDirectory)
		dir.On("CheckForUserName", mock.Anything, "JohnDoe").Return(false, nil)
		dir.On("CheckForEmail", mock.Anything, "user@mail.com").Return(true, nil)

		outcome, err := service.ResolveSignup(context.Background(), dir, info)
		assert.NoError(t, err)
		assert.Equal(t, service.SignupEmailTaken, outcome)
	})

	t.Run("DirectoryError", func(t *testing.T) {
		dir := new(MockUserDirectory)
		lookupErr := errors.New("connection refused")
		dir.On("CheckForUserName", mock.Anything, "JohnDoe").Return(false, lookupErr)

		_, err := service.ResolveSignup(context.Background(), dir, info)
		assert.ErrorIs(t, err, lookupErr)
	})
}

func TestSignupOutcomeAck(t *testing.T) {
	assert.Equal(t, protocol.AckOK, service.SignupAccepted.Ack())
	assert.Equal(t, protocol.AckUserNameTaken, service.SignupNameTaken.Ack())
	assert.Equal(t, protocol.AckUserEmailTaken, service.SignupEmailTaken.Ack())
}
