package core

import (
	"context"
	"errors"
	"testing"
)

type checkoutData struct {
	Items int
}

func TestTransitionContext_Lifecycle(t *testing.T) {
	tc := NewTransitionContext("t-1", StageName("cart"), StageName("payment"), "CHECKOUT", TriggerEvent, checkoutData{Items: 2})

	if tc.ID != "t-1" || tc.From != "cart" || tc.Event != "CHECKOUT" || tc.Trigger != TriggerEvent {
		t.Fatalf("constructor did not retain fields: %+v", tc)
	}
	if tc.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if tc.To() != "payment" || tc.Data().Items != 2 {
		t.Fatalf("unexpected negotiated state: to=%s data=%+v", tc.To(), tc.Data())
	}

	tc.SetTarget("review")
	tc.SetData(checkoutData{Items: 3})
	if tc.To() != "review" || tc.Data().Items != 3 {
		t.Fatalf("rewrites not visible: to=%s data=%+v", tc.To(), tc.Data())
	}

	if tc.Canceled() {
		t.Fatal("fresh context must not be canceled")
	}
	tc.Cancel()
	if !tc.Canceled() {
		t.Fatal("Cancel did not mark the context")
	}
}

func TestMiddlewareFunc_Adapter(t *testing.T) {
	calls := 0
	mw := NewMiddleware("counter", func(ctx context.Context, tc *TransitionContext[checkoutData], next Next) error {
		calls++
		return next(ctx)
	})
	if mw.Name() != "counter" {
		t.Fatalf("unexpected name: %s", mw.Name())
	}

	tc := NewTransitionContext("t-2", StageName("a"), StageName("b"), "", TriggerDirect, checkoutData{})
	nextCalled := false
	err := mw.Execute(context.Background(), tc, func(context.Context) error {
		nextCalled = true
		return nil
	})
	if err != nil || calls != 1 || !nextCalled {
		t.Fatalf("adapter did not delegate: err=%v calls=%d next=%v", err, calls, nextCalled)
	}

	want := errors.New("downstream failure")
	err = mw.Execute(context.Background(), tc, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("adapter swallowed downstream error: %v", err)
	}
}

func TestTrigger_Values(t *testing.T) {
	cases := map[Trigger]string{
		TriggerEvent:  "event",
		TriggerTimer:  "timer",
		TriggerDirect: "direct",
	}
	for trigger, want := range cases {
		if string(trigger) != want {
			t.Errorf("trigger = %q, want %q", trigger, want)
		}
	}

	if StageName("cart").String() != "cart" {
		t.Error("StageName.String mismatch")
	}
}
