package events

import (
	"container/heap"

	"github.com/napolitain/warren/internal/models"
)

// Type represents the type of domain event
type Type int

const (
	ResourceCredited Type = iota
	BuildingUpgradeStarted
	BuildingUpgradeCompleted
	ResearchCompleted
	TroopTrainingCompleted
	BattleResolved
	HeroLeveled
	QuestCompleted
	QuestClaimed
)

// String returns a string representation of the event type
func (t Type) String() string {
	switch t {
	case ResourceCredited:
		return "ResourceCredited"
	case BuildingUpgradeStarted:
		return "BuildingUpgradeStarted"
	case BuildingUpgradeCompleted:
		return "BuildingUpgradeCompleted"
	case ResearchCompleted:
		return "ResearchCompleted"
	case TroopTrainingCompleted:
		return "TroopTrainingCompleted"
	case BattleResolved:
		return "BattleResolved"
	case HeroLeveled:
		return "HeroLeveled"
	case QuestCompleted:
		return "QuestCompleted"
	case QuestClaimed:
		return "QuestClaimed"
	default:
		return "Unknown"
	}
}

// Priority returns the dispatch priority for this event type.
// Lower priority = dispatched first when events share a timestamp, which
// mirrors the tick order economy -> research -> training -> quests.
func (t Type) Priority() int {
	switch t {
	case ResourceCredited:
		return 0
	case BuildingUpgradeStarted, BuildingUpgradeCompleted:
		return 1
	case ResearchCompleted:
		return 2
	case TroopTrainingCompleted:
		return 3
	case BattleResolved:
		return 4
	case HeroLeveled:
		return 5
	case QuestCompleted, QuestClaimed:
		return 6
	default:
		return 99
	}
}

// Event is one emitted domain event
type Event struct {
	Time     float64 // game seconds
	Type     Type
	Payload  any
	Sequence int64 // insertion order within the queue
}

// Source tells where credited resources came from
type Source string

const (
	SourceProduction Source = "production"
	SourceQuest      Source = "quest"
	SourceBattle     Source = "battle"
)

// Payloads

type ResourceCreditedPayload struct {
	Amount models.Bundle
	Source Source
}

type BuildingUpgradeStartedPayload struct {
	Building    models.BuildingID
	TargetLevel int
	Cost        models.Bundle
	Duration    float64
}

type BuildingUpgradeCompletedPayload struct {
	Building models.BuildingID
	Level    int
	Unlocked []models.BuildingID
}

type ResearchCompletedPayload struct {
	Node models.NodeID
}

type TroopTrainingCompletedPayload struct {
	Troop models.TroopID
	Count int
}

type BattleResolvedPayload struct {
	Stage    models.StageID
	ReportID string
	Victory  bool
	Rounds   int
	Losses   map[models.TroopID]int
}

type HeroLeveledPayload struct {
	Hero      models.HeroID
	FromLevel int
	ToLevel   int
}

type QuestCompletedPayload struct {
	Quest models.QuestID
}

type QuestClaimedPayload struct {
	Quest  models.QuestID
	Reward models.Bundle
}

// eventHeap implements heap.Interface for min-heap of Events
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	if h[i].Type.Priority() != h[j].Type.Priority() {
		return h[i].Type.Priority() < h[j].Type.Priority()
	}
	return h[i].Sequence < h[j].Sequence
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Queue is a priority queue of events sorted by (Time, Priority, Sequence).
// The sequence counter belongs to the queue so two engines never interfere.
type Queue struct {
	h   eventHeap
	seq int64
}

// NewQueue creates a new empty event queue
func NewQueue() *Queue {
	q := &Queue{h: make(eventHeap, 0)}
	heap.Init(&q.h)
	return q
}

// Push adds an event and assigns its sequence number
func (q *Queue) Push(e Event) {
	q.seq++
	e.Sequence = q.seq
	heap.Push(&q.h, e)
}

// Pop removes and returns the minimum event; ok is false when empty
func (q *Queue) Pop() (Event, bool) {
	if len(q.h) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.h).(Event), true
}

// Peek returns the minimum event without removing it
func (q *Queue) Peek() (Event, bool) {
	if len(q.h) == 0 {
		return Event{}, false
	}
	return q.h[0], true
}

// Empty returns true if the queue has no events
func (q *Queue) Empty() bool {
	return len(q.h) == 0
}

// Len returns the number of events in the queue
func (q *Queue) Len() int {
	return len(q.h)
}
