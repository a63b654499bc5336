package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"medremind.app/cloud/models"
)

// Storage persists customers, dose logs and notification logs. Lookups that
// find nothing return (nil, nil); errors are reserved for real failures.
type Storage interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	FindCustomerByName(ctx context.Context, name string) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	SetCustomerActive(ctx context.Context, id int64, active bool) error
	ListCustomers(ctx context.Context, includeInactive bool) ([]models.Customer, error)

	CreateDoseLog(ctx context.Context, log *models.DoseLog) error
	GetDoseLog(ctx context.Context, id int64) (*models.DoseLog, error)
	UpdateDoseLog(ctx context.Context, log *models.DoseLog) error
	DeleteDoseLog(ctx context.Context, id int64) error
	ListDoseLogs(ctx context.Context, customerID int64) ([]models.DoseLog, error)

	HasNotification(ctx context.Context, customerID int64, milestone string, dueDate time.Time) (bool, error)
	CreateNotification(ctx context.Context, log *models.NotificationLog) error

	Close() error
}

// MemoryStorage keeps everything in maps. Used in tests and as a reference
// implementation of the Storage contract.
type MemoryStorage struct {
	mu            sync.Mutex
	customers     map[int64]models.Customer
	doseLogs      map[int64]models.DoseLog
	notifications map[int64]models.NotificationLog
	nextID        int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		customers:     make(map[int64]models.Customer),
		doseLogs:      make(map[int64]models.DoseLog),
		notifications: make(map[int64]models.NotificationLog),
	}
}

func (m *MemoryStorage) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	customer.ID = m.nextID
	m.customers[customer.ID] = *customer
	return nil
}

func (m *MemoryStorage) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	customer, exists := m.customers[id]
	if !exists {
		return nil, nil
	}
	return &customer, nil
}

func (m *MemoryStorage) FindCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, customer := range m.customers {
		if customer.Name == name {
			customerCopy := customer
			return &customerCopy, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.customers[customer.ID]; !exists {
		return ErrNotFound
	}
	m.customers[customer.ID] = *customer
	return nil
}

func (m *MemoryStorage) SetCustomerActive(ctx context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	customer, exists := m.customers[id]
	if !exists {
		return ErrNotFound
	}
	customer.Active = active
	m.customers[id] = customer
	return nil
}

func (m *MemoryStorage) ListCustomers(ctx context.Context, includeInactive bool) ([]models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	customers := []models.Customer{}
	for _, customer := range m.customers {
		if !includeInactive && !customer.Active {
			continue
		}
		customers = append(customers, customer)
	}

	sort.Slice(customers, func(i, j int) bool {
		return strings.ToLower(customers[i].Name) < strings.ToLower(customers[j].Name)
	})

	return customers, nil
}

func (m *MemoryStorage) CreateDoseLog(ctx context.Context, log *models.DoseLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.customers[log.CustomerID]; !exists {
		return ErrNotFound
	}

	m.nextID++
	log.ID = m.nextID
	m.doseLogs[log.ID] = *log
	return nil
}

func (m *MemoryStorage) GetDoseLog(ctx context.Context, id int64) (*models.DoseLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, exists := m.doseLogs[id]
	if !exists {
		return nil, nil
	}
	return &log, nil
}

func (m *MemoryStorage) UpdateDoseLog(ctx context.Context, log *models.DoseLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.doseLogs[log.ID]; !exists {
		return ErrNotFound
	}
	m.doseLogs[log.ID] = *log
	return nil
}

func (m *MemoryStorage) DeleteDoseLog(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.doseLogs[id]; !exists {
		return ErrNotFound
	}
	delete(m.doseLogs, id)
	return nil
}

func (m *MemoryStorage) ListDoseLogs(ctx context.Context, customerID int64) ([]models.DoseLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := []models.DoseLog{}
	for _, log := range m.doseLogs {
		if log.CustomerID == customerID {
			logs = append(logs, log)
		}
	}

	// Taken date descending, newest first.
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].TakenDate.After(logs[j].TakenDate)
	})

	return logs, nil
}

func (m *MemoryStorage) HasNotification(ctx context.Context, customerID int64, milestone string, dueDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := dueDate.Format(models.DateFormat)
	for _, n := range m.notifications {
		if n.CustomerID == customerID && n.Milestone == milestone && n.DueDate.Format(models.DateFormat) == due {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStorage) CreateNotification(ctx context.Context, log *models.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	log.ID = m.nextID
	if log.SentAt.IsZero() {
		log.SentAt = time.Now().UTC()
	}
	m.notifications[log.ID] = *log
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
