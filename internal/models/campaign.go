package models

// StageID identifies a campaign stage
type StageID string

// StageDef is a campaign stage with a fixed defender roster
type StageDef struct {
	ID        StageID
	Name      string
	Order     int
	Defenders map[TroopID]int
	Reward    Bundle
	HeroXP    int
	Requires  []StageID
}
