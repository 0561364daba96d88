package behavior

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milk9111/aibehavior/persist"
)

func openTestSlots(t *testing.T) *persist.SlotStore {
	t.Helper()
	appName := fmt.Sprintf("aibehavior_behavior_test_%d", time.Now().UnixNano())
	store, err := persist.OpenSlots(appName)
	if err != nil {
		t.Skipf("cannot open slot storage here: %v", err)
	}
	t.Cleanup(func() {
		if home, err := os.UserHomeDir(); err == nil {
			_ = os.RemoveAll(filepath.Join(home, ".local", "share", appName))
		}
	})
	return store
}

func TestSaveLoadSlot(t *testing.T) {
	store := openTestSlots(t)
	h := newHarness(t)

	src, _ := NewMulti(h.owner, h.env,
		newChase(t, h, func(c *ChaseConfig) { c.ChasingTime = 4 }),
		newRanged(t, h, nil),
	)
	if err := SaveTo(store, "zombie", src); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := newFakeActor(5, tileCenter(3, 3))
	b, err := LoadFrom(store, "zombie", DefaultFactory(h.env), other)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, ok := b.(*MultiBehavior)
	if !ok || m.Len() != 2 {
		t.Fatalf("loaded %T", b)
	}
	if got := m.Find(KindRangedActor).(*RangedActorBehavior).Config(); got != rangedTestConfig() {
		t.Fatalf("ranged config = %+v", got)
	}

	m.Enter()
	if len(other.effects.auras) == 0 {
		t.Fatal("loaded behavior is not bound to the new owner")
	}

	if _, err := LoadFrom(store, "missing", DefaultFactory(h.env), other); !errors.Is(err, persist.ErrSlotNotFound) {
		t.Fatalf("missing slot err = %v", err)
	}
}

func TestLoadSlotRejectsTrailingBytes(t *testing.T) {
	store := openTestSlots(t)
	h := newHarness(t)

	w := persist.NewWriter()
	if err := WriteTagged(w, newWander(t, h, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.WriteBool(true)
	if err := store.Save("padded", w.Bytes()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := LoadFrom(store, "padded", DefaultFactory(h.env), h.owner); err == nil {
		t.Fatal("trailing bytes accepted")
	}
}
