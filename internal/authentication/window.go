package authentication

import (
	"sync"
	"time"
)

// replayWindow remembers the nonces accepted within the last 2*MaxClockDrift. A signature whose
// timestamp passes the drift check cannot be older than that, so forgetting older nonces is safe.
type replayWindow struct {
	lock    sync.Mutex
	seen    map[string]time.Time
	pruneAt time.Time
}

func newReplayWindow() *replayWindow {
	return &replayWindow{seen: make(map[string]time.Time)}
}

// accept records the nonce used by keyName and returns false if it was already recorded.
func (w *replayWindow) accept(keyName, nonce string, now time.Time) bool {
	w.lock.Lock()
	defer w.lock.Unlock()

	if now.After(w.pruneAt) {
		for id, expiry := range w.seen {
			if now.After(expiry) {
				delete(w.seen, id)
			}
		}
		w.pruneAt = now.Add(MaxClockDrift)
	}

	id := keyName + ":" + nonce
	if expiry, ok := w.seen[id]; ok && !now.After(expiry) {
		return false
	}
	w.seen[id] = now.Add(2 * MaxClockDrift)
	return true
}
