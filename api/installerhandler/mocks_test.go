package installerhandler

import (
	"context"
	"io"

	"github.com/ruteri/installer-provisioning-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockTokenStore is a mock implementation of interfaces.TokenStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Create(ctx context.Context, token interfaces.InstallationToken) (interfaces.InstallationToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(interfaces.InstallationToken), args.Error(1)
}

func (m *MockTokenStore) FindByValue(ctx context.Context, value string) (interfaces.InstallationToken, error) {
	args := m.Called(ctx, value)
	return args.Get(0).(interfaces.InstallationToken), args.Error(1)
}

func (m *MockTokenStore) DeleteByValue(ctx context.Context, value string) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

func (m *MockTokenStore) List(ctx context.Context) ([]interfaces.InstallationToken, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.InstallationToken), args.Error(1)
}

// MockRegistry is a mock implementation of interfaces.InstallationRegistry.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) FindEntity(ctx context.Context, id uint) (interfaces.Entity, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.Entity), args.Error(1)
}

func (m *MockRegistry) FindApplication(ctx context.Context, id uint) (interfaces.Application, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(interfaces.Application), args.Error(1)
}

func (m *MockRegistry) RecordInstallation(ctx context.Context, link interfaces.EntityApplication, operationID int) (interfaces.EntityApplication, interfaces.EntityInstallationHistory, error) {
	args := m.Called(ctx, link, operationID)
	return args.Get(0).(interfaces.EntityApplication), args.Get(1).(interfaces.EntityInstallationHistory), args.Error(2)
}

// MockSynthesizer is a mock implementation of interfaces.ScriptSynthesizer.
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Render(params interfaces.ScriptParams) ([]byte, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSynthesizer) Stage(script []byte) (interfaces.StagedScript, error) {
	args := m.Called(script)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.StagedScript), args.Error(1)
}

// MockStagedScript is a mock implementation of interfaces.StagedScript.
type MockStagedScript struct {
	mock.Mock
}

func (m *MockStagedScript) Open() (io.ReadCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStagedScript) Size() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockStagedScript) Remove() error {
	args := m.Called()
	return args.Error(0)
}

// MockStorageBackend is a mock implementation of interfaces.StorageBackend.
type MockStorageBackend struct {
	mock.Mock
}

func (m *MockStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.Called().String(0)
}

func (m *MockStorageBackend) LocationURI() string {
	return m.Called().String(0)
}
