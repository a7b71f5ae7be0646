package queue

import "sync"

// mapMutex serializes work per key, e.g. the limit check and submission for one build configuration
type mapMutex struct {
	mutex sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	holders int
}

func newMapMutex() *mapMutex {
	return &mapMutex{
		locks: make(map[string]*keyLock),
	}
}

func (m *mapMutex) Lock(key string) {
	m.mutex.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &keyLock{}
		m.locks[key] = lock
	}
	lock.holders++
	m.mutex.Unlock()

	lock.Lock()
}

// Unlock releases the key and forgets it once nobody holds or waits for it
func (m *mapMutex) Unlock(key string) {
	m.mutex.Lock()
	lock, ok := m.locks[key]
	if !ok {
		m.mutex.Unlock()
		return
	}
	lock.holders--
	if lock.holders == 0 {
		delete(m.locks, key)
	}
	m.mutex.Unlock()

	lock.Unlock()
}

func (m *mapMutex) len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.locks)
}
