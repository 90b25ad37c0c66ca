package httpapi

import (
	"sync"
	"time"

	"coinbridge/internal/domain"
)

type Metrics struct {
	mu              sync.RWMutex
	startTime       time.Time
	requests        uint64
	requestErrors   map[domain.ErrorCode]uint64
	lastDuration    time.Duration
	maxDuration     time.Duration
	totalDuration   time.Duration
	auditPublishErr uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime:     time.Now(),
		requestErrors: make(map[domain.ErrorCode]uint64),
	}
}

func (m *Metrics) ObserveRequest(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.lastDuration = elapsed
	m.totalDuration += elapsed
	if elapsed > m.maxDuration {
		m.maxDuration = elapsed
	}
}

func (m *Metrics) ObserveRequestError(code domain.ErrorCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestErrors[code]++
}

func (m *Metrics) IncAuditPublishErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditPublishErr++
}

type Snapshot struct {
	StartTime       time.Time
	Requests        uint64
	RequestErrors   map[domain.ErrorCode]uint64
	LastDuration    time.Duration
	MaxDuration     time.Duration
	TotalDuration   time.Duration
	AuditPublishErr uint64
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	errors := make(map[domain.ErrorCode]uint64, len(m.requestErrors))
	for code, count := range m.requestErrors {
		errors[code] = count
	}
	return Snapshot{
		StartTime:       m.startTime,
		Requests:        m.requests,
		RequestErrors:   errors,
		LastDuration:    m.lastDuration,
		MaxDuration:     m.maxDuration,
		TotalDuration:   m.totalDuration,
		AuditPublishErr: m.auditPublishErr,
	}
}
