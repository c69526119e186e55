package metrics

import (
	"sync/atomic"
	"time"

	"github.com/diamondburned/shotgun-ai/game"
)

type GameMetric struct {
	Outcome   game.Outcome
	Turns     int
	Illegal   int // turns with an illegal move, 0 or 1
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Collector gathers per match metrics. Matches call it from one goroutine
// but Complete may be read from another.
type Collector interface {
	Start()
	AddTurn()
	AddIllegal()
	Complete(outcome game.Outcome) GameMetric
}

type collector struct {
	startTime time.Time
	turns     atomic.Int32
	illegal   atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() {
	m.startTime = time.Now()
	m.turns.Store(0)
	m.illegal.Store(0)
}

func (m *collector) AddTurn() {
	m.turns.Add(1)
}

func (m *collector) AddIllegal() {
	m.illegal.Add(1)
}

func (m *collector) Complete(outcome game.Outcome) GameMetric {
	end := time.Now()
	return GameMetric{
		Outcome:   outcome,
		Turns:     int(m.turns.Load()),
		Illegal:   int(m.illegal.Load()),
		StartTime: m.startTime,
		EndTime:   end,
		Duration:  end.Sub(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start() {}

func (m *dummyCollector) AddTurn() {}

func (m *dummyCollector) AddIllegal() {}

func (m *dummyCollector) Complete(outcome game.Outcome) GameMetric {
	return GameMetric{Outcome: outcome}
}
