// Package telemetry follows the machines collection and keeps running totals
// for the admin dashboard.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/live"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/metrics"
	"ecodefill-backend/internal/repository"
)

var (
	ErrAlreadyStarted = errors.New("telemetry already started")
	ErrClosed         = errors.New("telemetry is closed")
)

type State struct {
	Stats    domain.MachineStats `json:"stats"`
	Loading  bool                `json:"loading"`
	Degraded bool                `json:"degraded"`
	Version  uint64              `json:"version"`
}

type ViewModel struct {
	machines repository.MachineRepository
	metrics  *metrics.Registry
	log      *slog.Logger

	mu        sync.Mutex
	started   bool
	closed    bool
	failed    bool
	sub       repository.Subscription
	stats     domain.MachineStats
	loading   bool
	version   uint64
	publisher *live.Publisher[State]
}

func NewViewModel(machines repository.MachineRepository, m *metrics.Registry) *ViewModel {
	return &ViewModel{
		machines:  machines,
		metrics:   m,
		log:       logger.WithComponent("telemetry"),
		loading:   true,
		publisher: live.NewPublisher[State](),
	}
}

func (vm *ViewModel) Start(ctx context.Context) error {
	vm.mu.Lock()
	switch {
	case vm.closed:
		vm.mu.Unlock()
		return ErrClosed
	case vm.started:
		vm.mu.Unlock()
		return ErrAlreadyStarted
	}
	vm.started = true
	vm.mu.Unlock()

	sub, err := vm.machines.Subscribe(ctx, vm.onMachines)
	if err != nil {
		return fmt.Errorf("failed to subscribe to machines: %w", err)
	}

	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		sub.Unsubscribe()
		return ErrClosed
	}
	vm.sub = sub
	vm.mu.Unlock()
	return nil
}

// Close releases the subscription; no callback runs after it returns.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	sub := vm.sub
	vm.sub = nil
	vm.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	vm.publisher.Reset()
}

func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stateLocked()
}

func (vm *ViewModel) Watch(fn func(State)) (cancel func()) {
	return vm.publisher.Watch(func() (State, uint64) {
		st := vm.State()
		return st, st.Version
	}, fn)
}

func (vm *ViewModel) onMachines(machines []domain.Machine, err error) {
	vm.mu.Lock()
	if vm.closed || vm.failed {
		vm.mu.Unlock()
		return
	}
	vm.loading = false
	if err != nil {
		vm.failed = true
	} else {
		vm.stats = domain.SumMachines(machines)
	}
	vm.version++
	st := vm.stateLocked()
	vm.mu.Unlock()

	if err != nil {
		vm.log.Error("Machine stream failed; totals are frozen", "error", err)
		vm.metrics.StreamErrorsTotal.WithLabelValues("machines").Inc()
	} else {
		vm.metrics.MachinesReporting.Set(float64(st.Stats.Machines))
		logger.StreamEvent("machines", "summed", "machines", st.Stats.Machines, "version", st.Version)
	}
	vm.publisher.Publish(st.Version, st)
}

func (vm *ViewModel) stateLocked() State {
	return State{
		Stats:    vm.stats,
		Loading:  vm.loading,
		Degraded: vm.failed,
		Version:  vm.version,
	}
}
