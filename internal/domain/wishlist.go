package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryKey identifies a wishlist row. It is either provisional (minted
// locally while the insert is in flight) or persisted (assigned by the remote
// store). The two variants are distinct by construction so a provisional key
// can never reach a store delete.
type EntryKey struct {
	persisted bool
	id        string
}

// NewProvisionalKey mints a local placeholder key.
func NewProvisionalKey() EntryKey {
	return EntryKey{id: uuid.New().String()}
}

// PersistedKey wraps a server-assigned identifier.
func PersistedKey(id string) EntryKey {
	return EntryKey{persisted: true, id: id}
}

// Provisional reports whether the key has no server-side counterpart yet.
func (k EntryKey) Provisional() bool { return !k.persisted }

// StoreID returns the server-assigned identifier. The second return is false
// for provisional keys, which must never be sent to the store.
func (k EntryKey) StoreID() (string, bool) {
	if !k.persisted {
		return "", false
	}
	return k.id, true
}

func (k EntryKey) String() string {
	if k.persisted {
		return k.id
	}
	return "provisional:" + k.id
}

// WishlistEntry is one saved product. Entries are ordered most recently
// saved first.
type WishlistEntry struct {
	Key        EntryKey
	ProductRef ProductRef
	SavedAt    time.Time
	Product    ProductSnapshot
}
