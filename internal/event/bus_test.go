package event

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBus_SubscribeEmitUnsubscribe(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	var got []int
	sub, err := Subscribe(bus, a, func(v int) error {
		got = append(got, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	if err := bus.Emit(a.New(42)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{42}) {
		t.Fatalf("handler saw %v, want [42]", got)
	}

	sub.Unsubscribe()
	if !sub.Closed() {
		t.Error("subscription should be closed")
	}
	if err := bus.Emit(a.New(7)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("handler called after unsubscribe: %v", got)
	}
}

func TestBus_SubscriptionOrder(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[string](t, bus, "A")

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		_, err := SubscribeFunc(bus, a, func(string) {
			order = append(order, name)
		})
		if err != nil {
			t.Fatalf("SubscribeFunc() failed: %v", err)
		}
	}

	if err := bus.Emit(a.New("x")); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestBus_NoReplay(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	if err := bus.Emit(a.New(1)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	var got []int
	_, _ = SubscribeFunc(bus, a, func(v int) { got = append(got, v) })

	if len(got) != 0 {
		t.Fatalf("late subscriber received past events: %v", got)
	}

	_ = bus.Emit(a.New(2))
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("got %v, want [2]", got)
	}
}

func TestBus_TagIsolation(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")
	b := mustDefine[int](t, bus, "B")

	var aCalls, bCalls int
	_, _ = SubscribeFunc(bus, a, func(int) { aCalls++ })
	_, _ = SubscribeFunc(bus, b, func(int) { bCalls++ })

	_ = bus.Emit(b.New(1))
	_ = bus.Emit(b.New(2))

	if aCalls != 0 {
		t.Errorf("A handler called %d times for B events", aCalls)
	}
	if bCalls != 2 {
		t.Errorf("B handler called %d times, want 2", bCalls)
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	if err := bus.Emit(a.New(1)); err != nil {
		t.Errorf("Emit() with no subscribers = %v", err)
	}
	if got := bus.Stats().EventsPublished; got != 1 {
		t.Errorf("EventsPublished = %d, want 1", got)
	}
}

func TestBus_DoubleUnsubscribe(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	sub, _ := SubscribeFunc(bus, a, func(int) {})
	other, _ := SubscribeFunc(bus, a, func(int) {})

	sub.Unsubscribe()
	sub.Unsubscribe()

	if other.Closed() {
		t.Error("unsubscribing one handle must not close another")
	}
	if got := bus.Stats().ActiveSubscribers; got != 1 {
		t.Errorf("ActiveSubscribers = %d, want 1", got)
	}
}

func TestBus_SameHandlerTwice(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	calls := 0
	h := func(int) error {
		calls++
		return nil
	}
	first, _ := Subscribe(bus, a, h)
	_, _ = Subscribe(bus, a, h)

	_ = bus.Emit(a.New(1))
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	first.Unsubscribe()
	_ = bus.Emit(a.New(1))
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBus_HandlerErrorStopsEmission(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	boom := errors.New("boom")
	var ran []string
	_, _ = Subscribe(bus, a, func(int) error {
		ran = append(ran, "ok")
		return nil
	})
	failing, _ := Subscribe(bus, a, func(int) error {
		ran = append(ran, "fail")
		return boom
	})
	_, _ = Subscribe(bus, a, func(int) error {
		ran = append(ran, "after")
		return nil
	})

	err := bus.Emit(a.New(1))
	if !errors.Is(err, boom) {
		t.Fatalf("Emit() = %v, want boom", err)
	}

	var herr *HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *HandlerError, got %T", err)
	}
	if herr.SubscriptionID != failing.ID() || herr.Topic != "A" {
		t.Errorf("unexpected HandlerError %+v", herr)
	}

	want := []string{"ok", "fail"}
	if !reflect.DeepEqual(ran, want) {
		t.Errorf("ran = %v, want %v", ran, want)
	}
}

func TestBus_HandlerPanicPropagates(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	_, _ = SubscribeFunc(bus, a, func(int) { panic("handler exploded") })

	defer func() {
		r := recover()
		if r != "handler exploded" {
			t.Errorf("recovered %v, want handler exploded", r)
		}
	}()
	_ = bus.Emit(a.New(1))
	t.Error("Emit() should have panicked")
}

func TestBus_IsolationCollectsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := newTestBus(t, WithIsolation(true), WithLogger(zap.New(core)))
	a := mustDefine[int](t, bus, "A")

	boom := errors.New("boom")
	var ran []string
	_, _ = Subscribe(bus, a, func(int) error {
		ran = append(ran, "fail")
		return boom
	})
	_, _ = SubscribeFunc(bus, a, func(int) {
		ran = append(ran, "panic")
		panic("kaboom")
	})
	_, _ = SubscribeFunc(bus, a, func(int) {
		ran = append(ran, "ok")
	})

	if !bus.Isolated() {
		t.Fatal("bus should be isolated")
	}

	err := bus.Emit(a.New(1))
	if err == nil {
		t.Fatal("expected combined error")
	}

	want := []string{"fail", "panic", "ok"}
	if !reflect.DeepEqual(ran, want) {
		t.Errorf("ran = %v, want %v", ran, want)
	}

	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("first error = %v, want boom", errs[0])
	}
	var perr *PanicError
	if !errors.As(errs[1], &perr) {
		t.Fatalf("second error is %T, want *PanicError", errs[1])
	}
	if perr.Value != "kaboom" || perr.Stack == "" {
		t.Errorf("unexpected PanicError %+v", perr)
	}
	if !errors.Is(errs[1], ErrHandlerPanic) {
		t.Error("PanicError should match ErrHandlerPanic")
	}

	if logs.FilterMessage("event handler failed").Len() != 1 {
		t.Error("expected the handler error to be logged")
	}
	if logs.FilterMessage("event handler panicked").Len() != 1 {
		t.Error("expected the panic to be logged")
	}

	stats := bus.Stats()
	if stats.HandlerErrors != 1 || stats.HandlerPanics != 1 || stats.EventsDelivered != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestBus_EmitRejectsBadEvents(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	other := NewTypeRegistry()
	unknown, _ := DefineIn[int](other, "unknown")
	wrongPayload, _ := DefineIn[string](other, "A")

	tests := []struct {
		name    string
		event   Eventer
		wantErr error
	}{
		{"nil event", nil, ErrInvalidEvent},
		{"zero event", Event[int]{}, ErrInvalidEvent},
		{"unknown tag", unknown.New(1), ErrUnknownType},
		{"wrong payload", wrongPayload.New("x"), ErrTypeMismatch},
	}

	calls := 0
	_, _ = SubscribeFunc(bus, a, func(int) { calls++ })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := bus.Emit(tt.event); !errors.Is(err, tt.wantErr) {
				t.Errorf("Emit() = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if calls != 0 {
		t.Errorf("rejected events reached a handler %d times", calls)
	}
	if got := bus.Stats().EventsPublished; got != 0 {
		t.Errorf("EventsPublished = %d, want 0", got)
	}
}

func TestBus_SubscribeRejects(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	if _, err := Subscribe[int](bus, a, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler: %v", err)
	}
	if _, err := SubscribeEvent[int](bus, a, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil event handler: %v", err)
	}
	if _, err := SubscribeFunc[int](bus, a, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil func: %v", err)
	}
	if _, err := SubscribeFunc(bus, Type[int]{}, func(int) {}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("zero type: %v", err)
	}

	other := NewTypeRegistry()
	foreign, _ := DefineIn[int](other, "foreign")
	if _, err := SubscribeFunc(bus, foreign, func(int) {}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("foreign type: %v", err)
	}
	if got := bus.Stats().ActiveSubscribers; got != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", got)
	}
}

func TestBus_UnsubscribeDuringEmission(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	var later Subscription
	var ran []string
	_, _ = SubscribeFunc(bus, a, func(int) {
		ran = append(ran, "first")
		later.Unsubscribe()
	})
	later, _ = SubscribeFunc(bus, a, func(int) {
		ran = append(ran, "later")
	})

	_ = bus.Emit(a.New(1))
	if !reflect.DeepEqual(ran, []string{"first"}) {
		t.Errorf("ran = %v, want [first]", ran)
	}
}

func TestBus_SelfUnsubscribeDuringEmission(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	var self Subscription
	var ran []string
	self, _ = SubscribeFunc(bus, a, func(int) {
		ran = append(ran, "self")
		self.Unsubscribe()
	})
	_, _ = SubscribeFunc(bus, a, func(int) {
		ran = append(ran, "next")
	})

	_ = bus.Emit(a.New(1))
	_ = bus.Emit(a.New(2))

	want := []string{"self", "next", "next"}
	if !reflect.DeepEqual(ran, want) {
		t.Errorf("ran = %v, want %v", ran, want)
	}
}

func TestBus_SubscribeDuringEmission(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	var seen []int
	added := false
	_, _ = SubscribeFunc(bus, a, func(int) {
		if added {
			return
		}
		added = true
		_, _ = SubscribeFunc(bus, a, func(v int) { seen = append(seen, v) })
	})

	_ = bus.Emit(a.New(1))
	if len(seen) != 0 {
		t.Fatalf("subscriber added mid-emission saw %v", seen)
	}

	_ = bus.Emit(a.New(2))
	if !reflect.DeepEqual(seen, []int{2}) {
		t.Errorf("seen = %v, want [2]", seen)
	}
}

func TestBus_ReentrantEmit(t *testing.T) {
	bus := newTestBus(t)
	ping := mustDefine[int](t, bus, "ping")
	pong := mustDefine[int](t, bus, "pong")

	var trace []string
	_, _ = Subscribe(bus, ping, func(v int) error {
		trace = append(trace, "ping")
		return bus.Emit(pong.New(v + 1))
	})
	_, _ = SubscribeFunc(bus, pong, func(int) {
		trace = append(trace, "pong")
	})

	if err := bus.Emit(ping.New(1)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if !reflect.DeepEqual(trace, []string{"ping", "pong"}) {
		t.Errorf("trace = %v", trace)
	}
}

func TestBus_SubscribeEventMetadata(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[session](t, bus, "session.started")

	var got Event[session]
	_, _ = SubscribeEvent(bus, a, func(e Event[session]) error {
		got = e
		return nil
	})

	sent := a.NewFrom("auth", session{ID: "s-1"}).WithCorrelation("req-1")
	_ = bus.Emit(sent)

	if got.Topic() != "session.started" || got.Payload().ID != "s-1" {
		t.Errorf("unexpected event %+v", got)
	}
	if got.Metadata() != sent.Metadata() {
		t.Errorf("metadata = %+v, want %+v", got.Metadata(), sent.Metadata())
	}
}

func TestBus_Once(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	calls := 0
	sub, _ := SubscribeFunc(bus, a, func(int) { calls++ }, WithOnce())

	_ = bus.Emit(a.New(1))
	_ = bus.Emit(a.New(2))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !sub.Closed() {
		t.Error("once subscription should close after delivery")
	}
}

func TestBus_OnceKeptAfterFailure(t *testing.T) {
	bus := newTestBus(t, WithIsolation(true))
	a := mustDefine[int](t, bus, "A")

	calls := 0
	sub, _ := Subscribe(bus, a, func(v int) error {
		calls++
		if v == 1 {
			return errors.New("not yet")
		}
		return nil
	}, WithOnce())

	_ = bus.Emit(a.New(1))
	if sub.Closed() {
		t.Fatal("failed delivery must not consume a once subscription")
	}
	_ = bus.Emit(a.New(2))
	_ = bus.Emit(a.New(3))

	if calls != 2 || !sub.Closed() {
		t.Errorf("calls = %d closed = %v", calls, sub.Closed())
	}
}

func TestBus_WithFilter(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	var got []int
	_, _ = SubscribeFunc(bus, a, func(v int) { got = append(got, v) },
		WithFilter(FilterAnd(
			FilterBySource("sensor"),
			FilterPayload(func(v int) bool { return v > 10 }),
		)))

	_ = bus.Emit(a.NewFrom("sensor", 5))
	_ = bus.Emit(a.NewFrom("other", 50))
	_ = bus.Emit(a.NewFrom("sensor", 50))

	if !reflect.DeepEqual(got, []int{50}) {
		t.Errorf("got %v, want [50]", got)
	}
}

func TestBus_InterfacePayload(t *testing.T) {
	bus := newTestBus(t)
	failures := mustDefine[error](t, bus, "failures")

	var got []string
	_, _ = SubscribeFunc(bus, failures, func(err error) {
		got = append(got, err.Error())
	})

	if err := bus.Emit(failures.New(errors.New("disk full"))); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"disk full"}) {
		t.Errorf("got %v", got)
	}
}

func TestBus_Stats(t *testing.T) {
	bus := newTestBus(t)
	a := mustDefine[int](t, bus, "A")

	s1, _ := SubscribeFunc(bus, a, func(int) {})
	_, _ = SubscribeFunc(bus, a, func(int) {})

	_ = bus.Emit(a.New(1))
	_ = bus.Emit(a.New(2))
	s1.Unsubscribe()

	stats := bus.Stats()
	if stats.EventsPublished != 2 {
		t.Errorf("EventsPublished = %d, want 2", stats.EventsPublished)
	}
	if stats.HandlersExecuted != 4 || stats.EventsDelivered != 4 {
		t.Errorf("executed = %d delivered = %d, want 4", stats.HandlersExecuted, stats.EventsDelivered)
	}
	if stats.ActiveSubscribers != 1 {
		t.Errorf("ActiveSubscribers = %d, want 1", stats.ActiveSubscribers)
	}
}

func TestHandlerError_Message(t *testing.T) {
	err := &HandlerError{SubscriptionID: "s1", Topic: "A", Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "s1") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q", err.Error())
	}

	perr := &PanicError{SubscriptionID: "s1", Topic: "A", Value: 42}
	if !strings.Contains(perr.Error(), "42") {
		t.Errorf("Error() = %q", perr.Error())
	}
}
