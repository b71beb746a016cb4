package session

import (
	"errors"
	"sync"
	"time"

	"github.com/bowerhall/mediaqa/internal/media"
)

// ErrBusy is returned when an ingestion or query is already running for the
// session.
var ErrBusy = errors.New("session busy: another request is in flight")

// Session is the working set of one conversation: at most one item.
type Session struct {
	mu         sync.Mutex
	item       *media.Item
	lastActive time.Time
	processing sync.Mutex
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}
