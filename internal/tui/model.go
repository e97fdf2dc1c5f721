// Package tui renders the shared table view of a room in the
// terminal. It is read-only: the model consumes projected game states
// pushed by the server and never issues commands.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/holdemroom/internal/game"
)

// StateMsg delivers one projected transition to the model.
type StateMsg struct {
	View     *game.GameView
	Revision uint64
	Reason   string
}

// ConnectedMsg signals the subscription is live.
type ConnectedMsg struct{}

// DisconnectedMsg signals the stream ended.
type DisconnectedMsg struct {
	Err error
}

// Model is the Bubble Tea model for the table display.
type Model struct {
	roomCode string
	spinner  spinner.Model

	view     *game.GameView
	revision uint64
	reason   string

	connected bool
	err       error
	quitting  bool
	width     int
}

// NewModel creates a table display for the room.
func NewModel(roomCode string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A7A4C"))
	return &Model{roomCode: roomCode, spinner: sp}
}

// Init starts the connect spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case ConnectedMsg:
		m.connected = true
		m.err = nil

	case StateMsg:
		// Revisions arrive in order; stale sends are dropped anyway.
		if msg.Revision >= m.revision {
			m.view = msg.View
			m.revision = msg.Revision
			m.reason = msg.Reason
		}

	case DisconnectedMsg:
		m.connected = false
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the table.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return ErrorStyle.Render("disconnected: "+m.err.Error()) + "\n"
	}
	if !m.connected || m.view == nil {
		return fmt.Sprintf("\n %s connecting to room %s...\n", m.spinner.View(), m.roomCode)
	}

	var b strings.Builder
	v := m.view

	header := fmt.Sprintf("Room %s · hand %d · %s", v.RoomCode, v.HandNumber, v.CurrentRound)
	if v.Status != game.StatusPlaying {
		header = fmt.Sprintf("Room %s · %s", v.RoomCode, v.Status)
	}
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n\n")

	b.WriteString("  Board: ")
	if len(v.CommunityCards) == 0 {
		b.WriteString(InfoStyle.Render("--"))
	} else {
		cards := make([]string, len(v.CommunityCards))
		for i, c := range v.CommunityCards {
			cards[i] = renderCard(c)
		}
		b.WriteString(strings.Join(cards, " "))
	}
	b.WriteString("   ")
	b.WriteString(PotStyle.Render(fmt.Sprintf("Pot %d", v.Pot)))
	if len(v.Pots) > 1 {
		parts := make([]string, len(v.Pots))
		for i, p := range v.Pots {
			parts[i] = fmt.Sprintf("%d", p.Amount)
		}
		b.WriteString(InfoStyle.Render(" (" + strings.Join(parts, " / ") + ")"))
	}
	b.WriteString("\n\n")

	winners := make(map[int]bool, len(v.Winners))
	for _, w := range v.Winners {
		winners[w] = true
	}

	for i := range v.Players {
		b.WriteString(m.renderSeat(&v.Players[i], winners))
		b.WriteString("\n")
	}

	if len(v.Winners) > 0 {
		b.WriteString("\n")
		for _, p := range v.Pots {
			if p.WinningRank != "" {
				b.WriteString(WinnerStyle.Render(fmt.Sprintf("  %d won with %s", p.Amount, p.WinningRank)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  rev %d · %s · q to quit", m.revision, m.reason)))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderSeat(p *game.PlayerView, winners map[int]bool) string {
	badges := ""
	if p.IsDealer {
		badges += " D"
	}
	if p.IsSmallBlind {
		badges += " SB"
	}
	if p.IsBigBlind {
		badges += " BB"
	}

	cards := HiddenCardStyle.Render("[??]")
	if len(p.HoleCards) == 2 {
		cards = renderCard(p.HoleCards[0]) + " " + renderCard(p.HoleCards[1])
	} else if p.Status == game.SeatFolded || p.Status == game.SeatOut {
		cards = InfoStyle.Render("----")
	}

	line := fmt.Sprintf("  %d %-12s %6d chips  bet %4d  %s%s", p.Position, p.Name, p.Chips, p.CurrentBet, cards, badges)
	if p.LastAction != "" {
		line += InfoStyle.Render("  " + string(p.LastAction))
	}

	style := SeatStyle
	turn := m.view.CurrentPlayer != nil && *m.view.CurrentPlayer == p.Position
	switch {
	case winners[p.Position]:
		style = WinnerStyle
	case turn:
		style = TurnStyle
	case p.Status == game.SeatFolded || p.Status == game.SeatOut:
		style = FoldedStyle
	}
	return style.Render(line)
}
