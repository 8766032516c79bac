/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package stage

import (
	"context"
	"encoding/base64"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/gabikliot/orbit/errors"
	"github.com/gabikliot/orbit/internal/xsync"
	"github.com/gabikliot/orbit/log"
)

const (
	// DefaultMaxQueueSize bounds the pending queue of every execution key.
	DefaultMaxQueueSize = 10000
	// DefaultCleanupInterval is the period of the idle eviction scan.
	DefaultCleanupInterval = 5 * time.Minute
	// DefaultIdleTTL is the idle timeout after which an activation is
	// evictable.
	DefaultIdleTTL = 10 * time.Minute

	messageTimeoutSweepInterval = 5 * time.Second
	schedulerStopTimeout        = 3 * time.Second
	instrumentationName         = "github.com/gabikliot/orbit/stage"
)

// Execution is the runtime of a single node: it owns the activation registry,
// routes inbound wire messages to actors and observers, issues outbound
// invocations and drives the activation lifecycle. It implements Runtime.
type Execution struct {
	logger          log.Logger
	runtimeIdentity string
	clock           Clock

	executor     Executor
	ownsExecutor bool
	serializer   *ExecutionSerializer

	interfaces  *interfaceRegistry
	localActors *xsync.Map[EntryKey, *referenceEntry]
	observers   *observerRegistry

	factories FactoryProvider
	messenger Messenger
	locator   Locator

	providers  []Provider
	lifetime   []LifetimeProvider
	storage    StorageProvider
	finder     ImplementationFinder
	invokeHook InvokeHookProvider
	listeners  []InvokeListenerProvider

	maxQueueSize    int
	cleanupInterval time.Duration
	idleTTL         time.Duration
	traceEnabled    bool

	started         atomic.Bool
	scheduler       quartz.Scheduler
	wheel           *timerWheel
	cleanupInFlight mapset.Set[EntryKey]

	messagesReceived  atomic.Int64
	messagesHandled   atomic.Int64
	refusedExecutions atomic.Int64
	traceCounter      atomic.Int64

	receivedCounter metric.Int64Counter
	handledCounter  metric.Int64Counter
	refusedCounter  metric.Int64Counter
}

// enforce compilation and linter error
var _ Runtime = (*Execution)(nil)

// Stats is a snapshot of the runtime message counters.
type Stats struct {
	MessagesReceived  int64
	MessagesHandled   int64
	RefusedExecutions int64
}

// NewExecution builds a runtime around the given reference factories and
// messenger. The runtime becomes the process default; call Start before
// feeding messages into it.
func NewExecution(factories FactoryProvider, messenger Messenger, opts ...Option) (*Execution, error) {
	if factories == nil {
		return nil, errors.ErrNilFactoryProvider
	}
	if messenger == nil {
		return nil, errors.ErrNilMessenger
	}

	x := &Execution{
		logger:          log.DefaultLogger,
		runtimeIdentity: newRuntimeIdentity(),
		clock:           SystemClock(),
		factories:       factories,
		messenger:       messenger,
		maxQueueSize:    DefaultMaxQueueSize,
		cleanupInterval: DefaultCleanupInterval,
		idleTTL:         DefaultIdleTTL,
		localActors:     xsync.NewMap[EntryKey, *referenceEntry](),
		cleanupInFlight: mapset.NewSet[EntryKey](),
	}

	for _, opt := range opts {
		opt(x)
	}

	x.interfaces = newInterfaceRegistry(factories)
	x.observers = newObserverRegistry(x.logger)

	for _, provider := range x.providers {
		if lifetime, ok := provider.(LifetimeProvider); ok {
			x.lifetime = append(x.lifetime, lifetime)
		}
		if listener, ok := provider.(InvokeListenerProvider); ok {
			x.listeners = append(x.listeners, listener)
		}
		if storage, ok := provider.(StorageProvider); ok && x.storage == nil {
			x.storage = storage
		}
		if finder, ok := provider.(ImplementationFinder); ok && x.finder == nil {
			x.finder = finder
		}
		if hook, ok := provider.(InvokeHookProvider); ok && x.invokeHook == nil {
			x.invokeHook = hook
		}
	}

	meter := otel.Meter(instrumentationName)
	x.receivedCounter, _ = meter.Int64Counter("orbit.messages.received")
	x.handledCounter, _ = meter.Int64Counter("orbit.messages.handled")
	x.refusedCounter, _ = meter.Int64Counter("orbit.executions.refused")

	// the last runtime created is the default.
	setDefaultRuntime(x)
	return x, nil
}

// newRuntimeIdentity returns an identity of the form Orbit[<22 chars>] where
// the payload is the unpadded base64 of 16 random bytes.
func newRuntimeIdentity() string {
	random := uuid.New()
	return "Orbit[" + base64.RawStdEncoding.EncodeToString(random[:]) + "]"
}

// Start brings the runtime up: it builds the executor and serializer, installs
// the hosting facade as an observer, starts the providers and schedules the
// idle-eviction and message-timeout sweeps.
func (x *Execution) Start(ctx context.Context) error {
	if !x.started.CompareAndSwap(false, true) {
		return errors.ErrAlreadyStarted
	}

	if x.executor == nil {
		executor, err := NewExecutorPool(defaultExecutorWidth)
		if err != nil {
			x.started.Store(false)
			return err
		}
		x.executor = executor
		x.ownsExecutor = true
	}
	x.serializer = NewExecutionSerializer(x.executor, x.logger)

	if x.locator != nil {
		// the hosting facade is addressable from other nodes under the empty id.
		if _, err := x.installObserver(0, x.locator, "", true); err != nil {
			x.logger.Debugf("hosting facade not installed as observer: %v", err)
		}
	}

	for _, provider := range x.providers {
		if err := provider.Start(ctx); err != nil {
			x.started.Store(false)
			return err
		}
	}

	x.wheel = newTimerWheel()
	x.wheel.start()

	scheduler, err := quartz.NewStdScheduler(
		quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		x.started.Store(false)
		return err
	}
	x.scheduler = scheduler
	x.scheduler.Start(ctx)

	cleanupJob := job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		x.ActivationCleanup(false)
		return true, nil
	})
	detail := quartz.NewJobDetail(cleanupJob, quartz.NewJobKey("activation-cleanup"))
	if err := x.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(x.cleanupInterval)); err != nil {
		return err
	}

	timeoutJob := job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		x.messenger.TimeoutCleanup()
		return true, nil
	})
	detail = quartz.NewJobDetail(timeoutJob, quartz.NewJobKey("message-timeout-sweep"))
	if err := x.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(messageTimeoutSweepInterval)); err != nil {
		return err
	}

	x.logger.Infof("%s started", x.runtimeIdentity)
	return nil
}

// Stop cancels the periodic sweeps and stops all providers, returning once
// every provider has stopped.
func (x *Execution) Stop(ctx context.Context) error {
	if !x.started.CompareAndSwap(true, false) {
		return nil
	}

	if x.scheduler != nil {
		_ = x.scheduler.Clear()
		x.scheduler.Stop()
		waitCtx, cancel := context.WithTimeout(ctx, schedulerStopTimeout)
		x.scheduler.Wait(waitCtx)
		cancel()
	}
	if x.wheel != nil {
		x.wheel.stop()
	}

	group := new(errgroup.Group)
	for _, provider := range x.providers {
		provider := provider
		group.Go(func() error {
			return provider.Stop(ctx)
		})
	}
	err := group.Wait()

	if x.ownsExecutor {
		x.executor.Release()
	}

	x.logger.Infof("%s stopped", x.runtimeIdentity)
	return err
}

// RuntimeIdentity returns the unique identity string of this runtime.
func (x *Execution) RuntimeIdentity() string {
	return x.runtimeIdentity
}

// Clock returns the time source of this runtime.
func (x *Execution) Clock() Clock {
	return x.clock
}

// Stats returns a snapshot of the message counters.
func (x *Execution) Stats() Stats {
	return Stats{
		MessagesReceived:  x.messagesReceived.Load(),
		MessagesHandled:   x.messagesHandled.Load(),
		RefusedExecutions: x.refusedExecutions.Load(),
	}
}

// GetReference produces an actor reference bound to this runtime. No network
// activity is involved.
func (x *Execution) GetReference(interfaceID int32, id string) (*ActorReference, error) {
	descriptor, err := x.interfaces.descriptorByID(interfaceID)
	if err != nil {
		return nil, err
	}
	reference := descriptor.factory.CreateReference(id)
	reference.runtime = x
	return reference, nil
}

// GetRemoteObserverReference returns a reference to an observer installed on
// another node. It should only be used when the caller knows an observer with
// the given id exists there; intended for provider authors.
func (x *Execution) GetRemoteObserverReference(address NodeAddress, interfaceID int32, id string) (*ActorReference, error) {
	if id == "" {
		return nil, errors.ErrNilID
	}
	descriptor, err := x.interfaces.descriptorByID(interfaceID)
	if err != nil {
		return nil, err
	}
	reference := descriptor.factory.CreateReference(id)
	reference.runtime = x
	reference.address = address
	return reference, nil
}

// CanActivateActor reports whether this node hosts an implementation of the
// given interface. The finder is consulted at most once per descriptor.
func (x *Execution) CanActivateActor(interfaceName string, interfaceID int32) bool {
	descriptor, err := x.interfaces.descriptorByID(interfaceID)
	if err != nil {
		descriptor, err = x.interfaces.descriptorByName(interfaceName)
		if err != nil {
			return false
		}
	}
	return descriptor.canActivate(x.finder)
}

// RegisterFactory pre-registers a reference factory.
//
// TODO: cache dynamically registered factories ahead of the provider lookup.
func (x *Execution) RegisterFactory(ActorFactory) {
}

// Bind makes this runtime the process default.
func (x *Execution) Bind() {
	setDefaultRuntime(x)
}

// BindObject rebinds the given actor reference to this runtime.
func (x *Execution) BindObject(object any) error {
	reference, ok := object.(*ActorReference)
	if !ok {
		return errors.ErrNotReference
	}
	reference.runtime = x
	return nil
}

func (x *Execution) addCounter(ctx context.Context, counter metric.Int64Counter) {
	if counter != nil {
		counter.Add(ctx, 1)
	}
}
