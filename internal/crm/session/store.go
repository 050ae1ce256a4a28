package session

// Store persists a single session.
//
// Load never fails: missing or malformed state yields nil. Save replaces the
// persisted session as a whole; readers never observe a partial write.
type Store interface {
	Load() *Session
	Save(s *Session) error
	Clear() error
}
