package fxscene

import "testing"

func TestSignalOrder(t *testing.T) {
	var sig Signal[int]
	var got []int
	sig.Subscribe(func(v int) { got = append(got, v) })
	sig.Subscribe(func(v int) { got = append(got, v*10) })
	sig.Emit(2)
	if len(got) != 2 || got[0] != 2 || got[1] != 20 {
		t.Errorf("got %v, want [2 20]", got)
	}
}

func TestSignalCloseDuringEmit(t *testing.T) {
	var sig Signal[int]
	var second *Subscription
	calls := 0
	sig.Subscribe(func(int) {
		calls++
		second.Close()
	})
	second = sig.Subscribe(func(int) { t.Error("closed handler called") })
	sig.Emit(1)
	if calls != 1 || sig.Len() != 1 {
		t.Errorf("calls = %d, Len = %d", calls, sig.Len())
	}
}

func TestSignalSelfClose(t *testing.T) {
	var sig Signal[struct{}]
	var sub *Subscription
	calls := 0
	sub = sig.Subscribe(func(struct{}) {
		calls++
		sub.Close()
	})
	sig.Emit(struct{}{})
	sig.Emit(struct{}{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	sub.Close()
	var nilSub *Subscription
	nilSub.Close()
}

func TestSignalSubscribeDuringEmit(t *testing.T) {
	var sig Signal[int]
	late := 0
	sig.Subscribe(func(int) {
		sig.Subscribe(func(int) { late++ })
	})
	sig.Emit(1)
	if late != 0 {
		t.Error("handler added during emission ran in the same emission")
	}
	sig.Emit(2)
	if late != 1 {
		t.Errorf("late = %d, want 1", late)
	}
}

func TestSignalCloseAll(t *testing.T) {
	var sig Signal[int]
	a := sig.Subscribe(func(int) {})
	b := sig.Subscribe(func(int) {})
	if n := sig.closeAll(); n != 2 {
		t.Errorf("closeAll = %d, want 2", n)
	}
	if a.Active() || b.Active() {
		t.Error("subscriptions still active")
	}
	a.Close()
}
