package counter

import (
	"sort"
	"time"
)

// slidingLog holds request timestamps (unix nanos) in ascending order.
// Eviction reslices the head, so the backing array is released on the next
// growth and memory stays bounded by the live entries.
type slidingLog struct {
	window time.Duration
	stamps []int64
}

func newSlidingLog(window time.Duration) *slidingLog {
	return &slidingLog{window: window}
}

func (l *slidingLog) len() int {
	return len(l.stamps)
}

// evict drops every stamp older than cutoff. A stamp equal to cutoff is
// still inside the closed window [cutoff, now].
func (l *slidingLog) evict(cutoff int64) {
	i := sort.Search(len(l.stamps), func(i int) bool { return l.stamps[i] >= cutoff })
	if i == 0 {
		return
	}
	if i == len(l.stamps) {
		l.stamps = nil
		return
	}
	l.stamps = l.stamps[i:]
}

func (l *slidingLog) insert(ts int64) {
	n := len(l.stamps)
	if n == 0 || l.stamps[n-1] <= ts {
		l.stamps = append(l.stamps, ts)
		return
	}
	i := sort.Search(n, func(i int) bool { return l.stamps[i] > ts })
	l.stamps = append(l.stamps, 0)
	copy(l.stamps[i+1:], l.stamps[i:])
	l.stamps[i] = ts
}

func (l *slidingLog) remove(ts int64) bool {
	i := sort.Search(len(l.stamps), func(i int) bool { return l.stamps[i] >= ts })
	if i >= len(l.stamps) || l.stamps[i] != ts {
		return false
	}
	l.stamps = append(l.stamps[:i], l.stamps[i+1:]...)
	return true
}

func (l *slidingLog) oldest() (int64, bool) {
	if len(l.stamps) == 0 {
		return 0, false
	}
	return l.stamps[0], true
}

func (l *slidingLog) newest() (int64, bool) {
	if len(l.stamps) == 0 {
		return 0, false
	}
	return l.stamps[len(l.stamps)-1], true
}
