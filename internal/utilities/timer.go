package utilities

import (
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-booking/internal/data"
)

type timer struct {
	stopTime  int64
	startTime int64
}

type timers struct {
	sync.RWMutex
	timers map[string][]*timer
}

// Timers measure the elapsed time of groups of operations (e.g. an endpoint)
type Timers interface {
	Start(group string) int
	Stop(group string, index int) int64
	ReadAll() *data.Timers
	Clear()
}

func NewTimers() Timers {
	return &timers{
		timers: make(map[string][]*timer),
	}
}

func (t *timers) Clear() {
	t.Lock()
	defer t.Unlock()

	t.timers = make(map[string][]*timer)
}

func (t *timers) Start(group string) int {
	t.Lock()
	defer t.Unlock()

	t.timers[group] = append(t.timers[group],
		&timer{startTime: time.Now().UnixNano()})
	return len(t.timers[group]) - 1
}

// Stop returns the elapsed time in nanoseconds or -1 if the timer
// doesn't exist (e.g. it was cleared while running)
func (t *timers) Stop(group string, index int) int64 {
	t.Lock()
	defer t.Unlock()

	if index < 0 || index >= len(t.timers[group]) {
		return -1
	}
	timer := t.timers[group][index]
	timer.stopTime = time.Now().UnixNano()
	return timer.stopTime - timer.startTime
}

func (t *timers) ReadAll() *data.Timers {
	t.RLock()
	defer t.RUnlock()

	totals, averages := make(map[string]int64), make(map[string]int64)
	for group := range t.timers {
		var total int64
		var stopped int64

		for _, timer := range t.timers[group] {
			if timer.stopTime <= 0 {
				continue
			}
			total += timer.stopTime - timer.startTime
			stopped++
		}
		totals[group] = total
		if stopped > 0 {
			averages[group] = total / stopped
		}
	}
	return &data.Timers{
		Totals:   totals,
		Averages: averages,
	}
}
