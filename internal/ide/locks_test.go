package ide

import "testing"

func TestLeaseReleaseOnce(t *testing.T) {
	locks := newLockSet()
	release := locks.lock("/w")
	lease := &Lease{release: release}
	lease.Release()
	lease.Release()

	// The lock must be free again, and not double-unlocked.
	unlock := locks.lock("/w")
	unlock()
}

func TestLockSetSharedReaders(t *testing.T) {
	locks := newLockSet()
	r1 := locks.rlock("/m")
	r2 := locks.rlock("/m")
	r1()
	r2()
	w := locks.lock("/m")
	w()
}
