package domain

// KeyValueStore is the durable client storage every persisted record goes
// through: the auth session record, the cart snapshot and the guest
// identifier. Values are JSON documents. Implementations are synchronous and
// local; a missing key is reported via the ok flag, not an error.
type KeyValueStore interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}
