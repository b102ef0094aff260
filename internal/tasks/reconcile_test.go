package tasks

import (
	"reflect"
	"testing"
)

func TestReconcile(t *testing.T) {
	t.Run("disjoint overlap produces additions and deletions", func(t *testing.T) {
		delta := Reconcile([]string{"a", "b", "c"}, []string{"b", "c", "d"})

		if !reflect.DeepEqual(delta.Additions, []string{"a"}) {
			t.Errorf("Additions = %v, want [a]", delta.Additions)
		}
		if !reflect.DeepEqual(delta.Deletions, []string{"d"}) {
			t.Errorf("Deletions = %v, want [d]", delta.Deletions)
		}
	})

	t.Run("empty snapshot removes everything live", func(t *testing.T) {
		delta := Reconcile(nil, []string{"x", "y"})

		if len(delta.Additions) != 0 {
			t.Errorf("Additions = %v, want none", delta.Additions)
		}
		if !reflect.DeepEqual(delta.Deletions, []string{"x", "y"}) {
			t.Errorf("Deletions = %v, want [x y]", delta.Deletions)
		}
	})

	t.Run("empty live adds everything from snapshot", func(t *testing.T) {
		delta := Reconcile([]string{"x", "y"}, nil)

		if !reflect.DeepEqual(delta.Additions, []string{"x", "y"}) {
			t.Errorf("Additions = %v, want [x y]", delta.Additions)
		}
		if len(delta.Deletions) != 0 {
			t.Errorf("Deletions = %v, want none", delta.Deletions)
		}
	})

	t.Run("identical sets yield empty delta", func(t *testing.T) {
		delta := Reconcile([]string{"a", "b"}, []string{"b", "a"})

		if !delta.Empty() {
			t.Errorf("delta = %+v, want empty", delta)
		}
	})

	t.Run("order does not affect membership", func(t *testing.T) {
		first := Reconcile([]string{"a", "b", "c"}, []string{"c", "d"})
		second := Reconcile([]string{"c", "a", "b"}, []string{"d", "c"})

		if !sameMembers(first.Additions, second.Additions) {
			t.Errorf("Additions differ: %v vs %v", first.Additions, second.Additions)
		}
		if !sameMembers(first.Deletions, second.Deletions) {
			t.Errorf("Deletions differ: %v vs %v", first.Deletions, second.Deletions)
		}
	})

	t.Run("duplicates collapse to a single logical entry", func(t *testing.T) {
		delta := Reconcile([]string{"a", "a", "b"}, []string{"b", "c", "c"})

		if !reflect.DeepEqual(delta.Additions, []string{"a"}) {
			t.Errorf("Additions = %v, want [a]", delta.Additions)
		}
		if !reflect.DeepEqual(delta.Deletions, []string{"c"}) {
			t.Errorf("Deletions = %v, want [c]", delta.Deletions)
		}
	})

	t.Run("reconciling snapshot against itself is a fixpoint", func(t *testing.T) {
		snapshot := []string{"a", "b", "c"}
		live := []string{"b", "d"}

		delta := Reconcile(snapshot, live)

		// Simulate applying the delta, then reconcile again.
		applied := applyToSet(live, delta)
		again := Reconcile(snapshot, applied)
		if !again.Empty() {
			t.Errorf("second reconcile = %+v, want empty", again)
		}
	})

	t.Run("both inputs empty", func(t *testing.T) {
		if delta := Reconcile(nil, nil); !delta.Empty() {
			t.Errorf("delta = %+v, want empty", delta)
		}
	})
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

func applyToSet(live []string, delta Delta) []string {
	removed := make(map[string]bool, len(delta.Deletions))
	for _, id := range delta.Deletions {
		removed[id] = true
	}

	var result []string
	for _, id := range live {
		if !removed[id] {
			result = append(result, id)
		}
	}
	return append(result, delta.Additions...)
}

func TestResolveChange(t *testing.T) {
	snapshotTracks := tracks("a", "b", "c")
	liveTracks := tracks("b", "c", "d")

	delta := Reconcile(ids(snapshotTracks), ids(liveTracks))
	change := ResolveChange(delta, snapshotTracks, liveTracks)

	t.Run("additions resolve from snapshot side", func(t *testing.T) {
		if len(change.ToAdd) != 1 || change.ToAdd[0].ID != "a" {
			t.Errorf("ToAdd = %v, want track a", change.ToAdd)
		}
	})

	t.Run("deletions resolve from live side", func(t *testing.T) {
		if len(change.ToRemove) != 1 || change.ToRemove[0].ID != "d" {
			t.Errorf("ToRemove = %v, want track d", change.ToRemove)
		}
	})

	t.Run("unresolvable identifiers are dropped", func(t *testing.T) {
		change := ResolveChange(Delta{Additions: []string{"ghost"}}, snapshotTracks, liveTracks)
		if len(change.ToAdd) != 0 {
			t.Errorf("ToAdd = %v, want none", change.ToAdd)
		}
	})
}
