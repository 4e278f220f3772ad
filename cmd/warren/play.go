package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/napolitain/warren/internal/converter"
	"github.com/napolitain/warren/internal/events"
	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
)

const logLines = 8

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run the live dashboard",
		Long: `Runs the game in real time: the clock advances every frame at the
configured tick rate and the slot is autosaved periodically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.close()
			// the dashboard owns the terminal
			s.engine.SetLogger(zap.NewNop())

			m := newPlayModel(ctx, s)
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return err
			}
			return s.save(ctx)
		},
	}
}

type frameMsg time.Time

// playModel is the dashboard state. The engine is only touched from Update,
// so bubbletea's single update loop serializes every call.
type playModel struct {
	ctx      context.Context
	s        *session
	interval time.Duration
	dt       float64
	autosave *rate.Sometimes

	cursor int
	log    []string
	status string
	failed bool
}

func newPlayModel(ctx context.Context, s *session) *playModel {
	m := &playModel{
		ctx:      ctx,
		s:        s,
		interval: s.cfg.Game.TickInterval(),
		dt:       s.cfg.Game.TickInterval().Seconds() * s.cfg.Game.TimeScale,
	}
	if every := s.cfg.Storage.AutosaveInterval(); every > 0 {
		m.autosave = &rate.Sometimes{Interval: every}
	}
	s.engine.Subscribe(func(ev events.Event) {
		if line := describeEvent(ev); line != "" {
			m.push(fmt.Sprintf("[%s] %s", formatTime(ev.Time), line))
		}
	})
	return m
}

func (m *playModel) push(line string) {
	m.log = append(m.log, line)
	if len(m.log) > logLines {
		m.log = m.log[len(m.log)-logLines:]
	}
}

func (m *playModel) frame() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *playModel) Init() tea.Cmd {
	return m.frame()
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if err := m.s.engine.AdvanceTime(m.dt); err != nil {
			m.report(err)
		}
		if m.autosave != nil {
			m.autosave.Do(func() {
				if err := m.s.save(m.ctx); err != nil {
					m.report(err)
				}
			})
		}
		return m, m.frame()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.buildings())-1 {
				m.cursor++
			}
		case "u":
			if id, ok := m.selected(); ok {
				m.act("upgrade "+formatName(string(id)), m.s.engine.StartUpgrade(id))
			}
		case "c":
			if id, ok := m.selected(); ok {
				m.act("click "+formatName(string(id)), m.s.engine.ClickBuilding(id))
			}
		case "t":
			m.train()
		case "r":
			m.research()
		case "h":
			m.recruit()
		case "enter":
			m.claimAll()
		case "b":
			m.battle()
		case "s":
			m.act("saved to "+m.s.slot, m.s.save(m.ctx))
		}
	}
	return m, nil
}

func (m *playModel) report(err error) {
	m.status = err.Error()
	m.failed = true
}

func (m *playModel) act(what string, err error) {
	if err != nil {
		m.report(err)
		return
	}
	m.status = "✓ " + what
	m.failed = false
}

// buildings are the rows of the building panel
func (m *playModel) buildings() []converter.BuildingView {
	var out []converter.BuildingView
	for _, b := range converter.Buildings(m.s.engine) {
		if b.Available {
			out = append(out, b)
		}
	}
	return out
}

func (m *playModel) selected() (models.BuildingID, bool) {
	list := m.buildings()
	if len(list) == 0 {
		return "", false
	}
	if m.cursor >= len(list) {
		m.cursor = len(list) - 1
	}
	return list[m.cursor].ID, true
}

// train queues five of the first troop type the warren can train
func (m *playModel) train() {
	e := m.s.engine
	var last error
	for _, id := range e.Catalog().TroopIDs() {
		if err := e.EnqueueTraining(id, 5); err != nil {
			last = err
			continue
		}
		m.act("training 5 "+formatName(string(id)), nil)
		return
	}
	if last != nil {
		m.report(last)
	}
}

func (m *playModel) research() {
	e := m.s.engine
	for _, id := range e.Catalog().NodeIDs() {
		if e.Research().CanStart(id) {
			m.act("researching "+formatName(string(id)), e.StartResearch(id))
			return
		}
	}
	m.act("nothing to research", nil)
}

func (m *playModel) recruit() {
	e := m.s.engine
	for _, h := range e.Heroes().Heroes() {
		if !h.Recruited {
			m.act("recruited "+formatName(string(h.ID)), e.RecruitHero(h.ID))
			return
		}
	}
	m.act("every hero is recruited", nil)
}

func (m *playModel) claimAll() {
	e := m.s.engine
	claimed := 0
	for _, q := range e.Quests().List() {
		if q.Ready(e.Now()) {
			if err := e.ClaimQuest(q.ID); err != nil {
				m.report(err)
				return
			}
			claimed++
		}
	}
	m.act(fmt.Sprintf("claimed %d quests", claimed), nil)
}

// battle sends the whole roster and every recruited hero against the first
// stage not yet cleared
func (m *playModel) battle() {
	e := m.s.engine
	var stage models.StageID
	for _, s := range converter.Stages(e) {
		if s.Unlocked && !s.Cleared {
			stage = s.ID
			break
		}
	}
	if stage == "" {
		m.act("no stage to fight", nil)
		return
	}
	var heroIDs []models.HeroID
	for _, h := range e.Heroes().Recruited() {
		heroIDs = append(heroIDs, h.ID)
	}
	out, err := e.ResolveCampaignStage(stage, e.Roster().Counts(), heroIDs)
	if err != nil {
		m.report(err)
		return
	}
	result := "defeat"
	if out.Victory {
		result = "victory"
	}
	m.act(fmt.Sprintf("%s at %s in %d rounds, lost %s", result, formatName(string(stage)), len(out.Rounds), formatCounts(out.AttackerLosses)), nil)
}

func (m *playModel) View() string {
	e := m.s.engine
	now := e.Now()
	title := titleStyle.Render(fmt.Sprintf("🐰 Bunny Lords Warren  Day %d %s", int(now/86400)+1, formatTime(now-float64(int(now/86400))*86400)))

	var res strings.Builder
	balance, production := e.Balance(), e.Economy().TotalProduction()
	for _, rt := range models.AllResourceTypes() {
		fmt.Fprintf(&res, "%-6s %8.0f  %s\n", formatName(string(rt)), balance.Get(rt),
			dimStyle.Render(fmt.Sprintf("+%.1f/min", production.Get(rt)*60)))
	}
	fmt.Fprintf(&res, "\nTroops %d", e.Roster().Total())
	if q := e.Roster().Queue(); len(q) > 0 {
		fmt.Fprintf(&res, "  %s", dimStyle.Render(fmt.Sprintf("(%d batches queued)", len(q))))
	}
	if a := e.Research().Active(); a != nil {
		fmt.Fprintf(&res, "\n🔬 %s %s", formatName(string(a.Node)), formatTime(a.Remaining))
	}

	var blds strings.Builder
	for i, b := range m.buildings() {
		line := fmt.Sprintf("%-14s %2d", b.Name, b.Level)
		switch {
		case b.Upgrade != nil:
			line += " 🏗️ " + formatTime(b.Upgrade.Remaining)
		case b.NextCost != nil:
			line += " " + dimStyle.Render(ledger.FormatBundle(*b.NextCost))
		}
		if b.Clicks != "" {
			line += " 👆" + b.Clicks
		}
		if i == m.cursor {
			line = cursorStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		blds.WriteString(line + "\n")
	}

	var quests strings.Builder
	for _, q := range converter.Quests(e) {
		if q.Claimed && !q.Repeatable {
			continue
		}
		mark := " "
		if q.Claimable {
			mark = "🎁"
		}
		fmt.Fprintf(&quests, "%s %-18s %.0f/%.0f\n", mark, q.Name, min(q.Progress, q.Goal), q.Goal)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(strings.TrimRight(res.String(), "\n")),
		panelStyle.Render(strings.TrimRight(blds.String(), "\n")),
		panelStyle.Render(strings.TrimRight(quests.String(), "\n")),
	)

	status := okStyle.Render(m.status)
	if m.failed {
		status = errStyle.Render(m.status)
	}
	help := dimStyle.Render("↑/↓ select  u upgrade  c click  t train  r research  h recruit  b battle  enter claim  s save  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		top,
		panelStyle.Render(strings.Join(m.log, "\n")),
		status,
		help,
	)
}
