package history

import (
	"time"

	"github.com/AmirTlinov/compas/internal/contract"
	"github.com/AmirTlinov/compas/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordAdapterRun implements the HistoryStore interface.
func (m *MockHistoryStore) RecordAdapterRun(startTime time.Time, result schema.AdapterResult) (int64, error) {
	args := m.Called(startTime, result)
	return args.Get(0).(int64), args.Error(1)
}

// RecordBudgetRun implements the HistoryStore interface.
func (m *MockHistoryStore) RecordBudgetRun(startTime time.Time, pluginID string, report schema.ComparisonReport) (int64, error) {
	args := m.Called(startTime, pluginID, report)
	return args.Get(0).(int64), args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.GateRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.GateRunRecord)
	return runs, args.Error(1)
}

// GetAllFindings implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllFindings() ([]schema.GateFindingRecord, error) {
	args := m.Called()
	findings, _ := args.Get(0).([]schema.GateFindingRecord)
	return findings, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
