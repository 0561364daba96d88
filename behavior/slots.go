package behavior

import (
	"fmt"

	"github.com/milk9111/aibehavior/persist"
)

// SaveTo stores b, tagged with its kind, in the given slot.
func SaveTo(store *persist.SlotStore, slot string, b Behavior) error {
	w := persist.NewWriter()
	if err := WriteTagged(w, b); err != nil {
		return err
	}
	return store.Save(slot, w.Bytes())
}

// LoadFrom rebuilds the behavior stored in slot, bound to owner.
func LoadFrom(store *persist.SlotStore, slot string, f *Factory, owner Actor) (Behavior, error) {
	data, err := store.Load(slot)
	if err != nil {
		return nil, err
	}
	r := persist.NewReader(data)
	b, err := ReadTagged(r, f, owner)
	if err != nil {
		return nil, fmt.Errorf("behavior: load slot %s: %w", slot, err)
	}
	if n := r.Remaining(); n != 0 {
		return nil, fmt.Errorf("behavior: load slot %s: %d trailing bytes", slot, n)
	}
	return b, nil
}
