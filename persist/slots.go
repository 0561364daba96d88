package persist

import (
	"errors"
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
)

var ErrSlotNotFound = errors.New("persist: slot not found")

const slotObject = "behavior_slots"

// SlotStore keeps serialized behavior blobs in per-user application storage.
type SlotStore struct {
	manager *gdata.Manager
}

// OpenSlots opens (or creates) the storage area for appName.
func OpenSlots(appName string) (*SlotStore, error) {
	if appName == "" {
		return nil, fmt.Errorf("persist: open slots: empty app name")
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("persist: open slots %s: %w", appName, err)
	}
	return &SlotStore{manager: m}, nil
}

func (s *SlotStore) Exists(slot string) bool {
	return s.manager.ObjectPropExists(slotObject, slot)
}

func (s *SlotStore) Save(slot string, data []byte) error {
	if slot == "" {
		return fmt.Errorf("persist: save: empty slot name")
	}
	if err := s.manager.SaveObjectProp(slotObject, slot, data); err != nil {
		return fmt.Errorf("persist: save slot %s: %w", slot, err)
	}
	log.Printf("persist: saved slot %s (%d bytes)", slot, len(data))
	return nil
}

func (s *SlotStore) Load(slot string) ([]byte, error) {
	if !s.Exists(slot) {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
	}
	data, err := s.manager.LoadObjectProp(slotObject, slot)
	if err != nil {
		return nil, fmt.Errorf("persist: load slot %s: %w", slot, err)
	}
	return data, nil
}

func (s *SlotStore) Delete(slot string) error {
	if !s.Exists(slot) {
		return nil
	}
	if err := s.manager.DeleteObjectProp(slotObject, slot); err != nil {
		return fmt.Errorf("persist: delete slot %s: %w", slot, err)
	}
	return nil
}
