package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/napolitain/warren/internal/combat"
	"github.com/napolitain/warren/internal/converter"
	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/storage"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func printHeader(w io.Writer, e *sim.Engine) {
	if quiet {
		return
	}
	titleColor.Fprintln(w, "\n╭───────────────────────────╮")
	titleColor.Fprintln(w, "│  Bunny Lords Warren       │")
	titleColor.Fprintln(w, "╰───────────────────────────╯")
	infoColor.Fprintf(w, "⏱️  Day %d, %s\n\n", int(e.Now()/86400)+1, formatTime(math.Mod(e.Now(), 86400)))
}

func printResources(w io.Writer, e *sim.Engine) {
	balance := e.Balance()
	production := e.Economy().TotalProduction()

	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Resource", "Balance", "Per Minute"}))
	for _, rt := range models.AllResourceTypes() {
		_ = table.Append([]string{
			formatName(string(rt)),
			fmt.Sprintf("%.0f", math.Floor(balance.Get(rt))),
			fmt.Sprintf("%.1f", production.Get(rt)*60),
		})
	}
	_ = table.Render()
}

func printBuildings(w io.Writer, e *sim.Engine) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Building", "Level", "Next Cost", "Build Time", "Status"}),
	)
	for _, b := range converter.Buildings(e) {
		if !b.Available {
			continue
		}
		cost, buildTime := "max", ""
		if b.NextCost != nil {
			cost = ledger.FormatBundle(*b.NextCost)
			buildTime = formatTime(b.BuildTime)
		}
		status := ""
		switch {
		case b.Upgrade != nil:
			status = fmt.Sprintf("🏗️ → %d in %s", b.Upgrade.TargetLevel, formatTime(b.Upgrade.Remaining))
		case b.Clicks != "":
			status = "👆 " + b.Clicks
		}
		_ = table.Append([]string{
			b.Name,
			fmt.Sprintf("%d/%d", b.Level, b.MaxLevel),
			cost,
			buildTime,
			status,
		})
	}
	_ = table.Render()
}

func printTroops(w io.Writer, e *sim.Engine) {
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Troop", "Owned", "Queued", "Cost"}))
	for _, t := range converter.Troops(e) {
		_ = table.Append([]string{
			t.Name,
			fmt.Sprintf("%d", t.Owned),
			fmt.Sprintf("%d", t.Queued),
			ledger.FormatBundle(t.Cost),
		})
	}
	_ = table.Render()
}

func printResearch(w io.Writer, e *sim.Engine) {
	if active := e.Research().Active(); active != nil {
		infoColor.Fprintf(w, "🔬 Researching %s, %s left\n", formatName(string(active.Node)), formatTime(active.Remaining))
	}
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Research", "Cost", "Time", "Status"}))
	for _, r := range converter.Research(e) {
		status := ""
		switch {
		case r.Completed:
			status = "✅"
		case r.Startable:
			status = "ready"
		}
		_ = table.Append([]string{r.Name, ledger.FormatBundle(r.Cost), formatTime(r.Duration), status})
	}
	_ = table.Render()
}

func printHeroes(w io.Writer, e *sim.Engine) {
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Hero", "Level", "XP", "Power", "Gear", "Abilities", "Status"}))
	for _, h := range converter.Heroes(e) {
		status := "available"
		if h.Recruited {
			status = "recruited"
		}
		var gear []string
		for _, slot := range models.AllEquipSlots() {
			if id, ok := h.Equipment[slot]; ok {
				gear = append(gear, formatName(string(id)))
			}
		}
		_ = table.Append([]string{
			h.Name,
			fmt.Sprintf("%d", h.Level),
			fmt.Sprintf("%d/%d", h.XP, h.Threshold),
			fmt.Sprintf("%d", h.Power),
			orDash(strings.Join(gear, ", ")),
			orDash(strings.Join(h.Abilities, ", ")),
			status,
		})
	}
	_ = table.Render()
}

func printInventory(w io.Writer, e *sim.Engine) {
	items := converter.Inventory(e)
	if len(items) == 0 {
		fmt.Fprintln(w, "empty")
		return
	}
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Item", "Slot", "Count", "Bonus"}))
	for _, item := range items {
		_ = table.Append([]string{
			item.Name,
			string(item.Slot),
			fmt.Sprintf("%d", item.Count),
			formatStats(item.Stats),
		})
	}
	_ = table.Render()
}

func formatStats(s models.HeroStats) string {
	var parts []string
	for _, st := range []struct {
		name  string
		value float64
	}{{"atk", s.Attack}, {"def", s.Defense}, {"hp", s.HP}, {"lead", s.Leadership}} {
		if st.value != 0 {
			parts = append(parts, fmt.Sprintf("+%g %s", st.value, st.name))
		}
	}
	return orDash(strings.Join(parts, " "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printQuests(w io.Writer, e *sim.Engine) {
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Quest", "Progress", "Reward", "Status"}))
	for _, q := range converter.Quests(e) {
		status := ""
		switch {
		case q.Claimable:
			status = "🎁 claim"
		case q.Claimed && !q.Repeatable:
			status = "✅"
		case q.Completed:
			status = "cooldown"
		}
		_ = table.Append([]string{
			q.Name,
			fmt.Sprintf("%.0f/%.0f", math.Min(q.Progress, q.Goal), q.Goal),
			ledger.FormatBundle(q.Reward),
			status,
		})
	}
	_ = table.Render()
}

func printStages(w io.Writer, e *sim.Engine) {
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"#", "Stage", "Reward", "Status"}))
	for i, s := range converter.Stages(e) {
		status := "🔒"
		switch {
		case s.Cleared:
			status = "✅"
		case s.Unlocked:
			status = "⚔️"
		}
		_ = table.Append([]string{fmt.Sprintf("%d", i+1), s.Name, ledger.FormatBundle(s.Reward), status})
	}
	_ = table.Render()
}

func printBattle(w io.Writer, out combat.Outcome) {
	if out.Victory {
		successColor.Fprintf(w, "\n✓ Victory at %s", formatName(string(out.Stage)))
		if out.FirstClear {
			successColor.Fprint(w, " (first clear)")
		}
		fmt.Fprintln(w)
	} else {
		errorColor.Fprintf(w, "\n✗ Defeat at %s\n", formatName(string(out.Stage)))
	}
	fmt.Fprintf(w, "   Report %s\n\n", out.ID)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Round", "Dealt", "Taken", "Our HP", "Enemy HP"}),
	)
	for _, r := range out.Rounds {
		_ = table.Append([]string{
			fmt.Sprintf("%d", r.Number),
			fmt.Sprintf("%.0f", r.AttackerDamage),
			fmt.Sprintf("%.0f", r.DefenderDamage),
			fmt.Sprintf("%.0f", r.AttackerHP),
			fmt.Sprintf("%.0f", r.DefenderHP),
		})
	}
	_ = table.Render()

	fmt.Fprintf(w, "\n   Losses: %s\n", formatCounts(out.AttackerLosses))
	fmt.Fprintf(w, "   Enemy losses: %s\n", formatCounts(out.DefenderLosses))
}

func printSaves(w io.Writer, slots []storage.SlotInfo) {
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Slot", "Saved At", "Size"}))
	for _, s := range slots {
		_ = table.Append([]string{s.Slot, s.SavedAt.Format("2006-01-02 15:04:05"), fmt.Sprintf("%d", s.Size)})
	}
	_ = table.Render()
}

// describeEvent renders the events a player cares about, "" for the rest
func describeEvent(ev events.Event) string {
	switch p := ev.Payload.(type) {
	case events.BuildingUpgradeCompletedPayload:
		s := fmt.Sprintf("🏗️  %s reached level %d", formatName(string(p.Building)), p.Level)
		if len(p.Unlocked) > 0 {
			names := make([]string, len(p.Unlocked))
			for i, id := range p.Unlocked {
				names[i] = formatName(string(id))
			}
			s += ", unlocked " + strings.Join(names, ", ")
		}
		return s
	case events.ResearchCompletedPayload:
		return fmt.Sprintf("🔬 Researched %s", formatName(string(p.Node)))
	case events.TroopTrainingCompletedPayload:
		return fmt.Sprintf("⚔️  Trained %d %s", p.Count, formatName(string(p.Troop)))
	case events.HeroLeveledPayload:
		return fmt.Sprintf("⭐ %s reached level %d", formatName(string(p.Hero)), p.ToLevel)
	case events.QuestCompletedPayload:
		return fmt.Sprintf("🎁 Quest %s complete", formatName(string(p.Quest)))
	case events.QuestClaimedPayload:
		return fmt.Sprintf("💰 Claimed %s: %s", formatName(string(p.Quest)), ledger.FormatBundle(p.Reward))
	default:
		return ""
	}
}

func formatTime(seconds float64) string {
	total := int(math.Ceil(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

func formatName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func formatCounts(counts map[models.TroopID]int) string {
	if len(counts) == 0 {
		return "none"
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s×%d", id, counts[models.TroopID(id)])
	}
	return strings.Join(parts, " ")
}
