package models

// QuestID identifies a quest
type QuestID string

// QuestKind is the discriminator of a quest objective
type QuestKind string

const (
	QuestBuildingLevel     QuestKind = "building_level"
	QuestResourceCollected QuestKind = "resource_collected"
	QuestTroopsTrained     QuestKind = "troops_trained"
	QuestBattlesWon        QuestKind = "battles_won"
	QuestBuildingComplete  QuestKind = "building_complete"
	QuestResearchComplete  QuestKind = "research_complete"
	QuestArmyPower         QuestKind = "army_power"
)

// Objective is the typed target of a quest. The concrete types below are the
// only implementations.
type Objective interface {
	Kind() QuestKind
	// Goal is the progress value at which the quest completes
	Goal() float64
	isObjective()
}

// BuildingLevelObjective completes when Building reaches Level
type BuildingLevelObjective struct {
	Building BuildingID
	Level    int
}

// ResourceCollectedObjective completes after Amount of Resource was credited
type ResourceCollectedObjective struct {
	Resource ResourceType
	Amount   float64
}

// TroopsTrainedObjective completes after Count units were trained.
// An empty Troop counts every troop type.
type TroopsTrainedObjective struct {
	Troop TroopID
	Count int
}

// BattlesWonObjective completes after Count campaign victories
type BattlesWonObjective struct {
	Count int
}

// BuildingCompleteObjective completes after Count finished upgrades.
// An empty Building counts every building.
type BuildingCompleteObjective struct {
	Building BuildingID
	Count    int
}

// ResearchCompleteObjective completes after Count finished research nodes
type ResearchCompleteObjective struct {
	Count int
}

// ArmyPowerObjective completes when the roster's total power reaches Power
type ArmyPowerObjective struct {
	Power float64
}

func (BuildingLevelObjective) Kind() QuestKind     { return QuestBuildingLevel }
func (ResourceCollectedObjective) Kind() QuestKind { return QuestResourceCollected }
func (TroopsTrainedObjective) Kind() QuestKind     { return QuestTroopsTrained }
func (BattlesWonObjective) Kind() QuestKind        { return QuestBattlesWon }
func (BuildingCompleteObjective) Kind() QuestKind  { return QuestBuildingComplete }
func (ResearchCompleteObjective) Kind() QuestKind  { return QuestResearchComplete }
func (ArmyPowerObjective) Kind() QuestKind         { return QuestArmyPower }

func (o BuildingLevelObjective) Goal() float64     { return float64(o.Level) }
func (o ResourceCollectedObjective) Goal() float64 { return o.Amount }
func (o TroopsTrainedObjective) Goal() float64     { return float64(o.Count) }
func (o BattlesWonObjective) Goal() float64        { return float64(o.Count) }
func (o BuildingCompleteObjective) Goal() float64  { return float64(o.Count) }
func (o ResearchCompleteObjective) Goal() float64  { return float64(o.Count) }
func (o ArmyPowerObjective) Goal() float64         { return o.Power }

func (BuildingLevelObjective) isObjective()     {}
func (ResourceCollectedObjective) isObjective() {}
func (TroopsTrainedObjective) isObjective()     {}
func (BattlesWonObjective) isObjective()        {}
func (BuildingCompleteObjective) isObjective()  {}
func (ResearchCompleteObjective) isObjective()  {}
func (ArmyPowerObjective) isObjective()         {}

// QuestDef is the static definition of a quest
type QuestDef struct {
	ID          QuestID
	Name        string
	Description string
	Category    string // achievement or daily
	Objective   Objective
	Reward      Bundle
	Repeatable  bool
}
