package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SeamusWaldron/cubeturn"
	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/input"
	"github.com/SeamusWaldron/cubeturn/internal/protocol"
)

// frameInterval drives engine ticks, about 60 per second.
const frameInterval = 16 * time.Millisecond

// Screen layout. Every sticker is two cells wide and one row tall; faces are
// separated by one blank column.
const (
	netTop      = 3 // first row of the sticker net
	stickerW    = 2
	faceW       = 3 * stickerW
	faceGap     = 1
	buttonsRow  = netTop + 9 + 1
	buttonsLeft = 0
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	turnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))
)

var stickerColors = map[cube.Color]lipgloss.Color{
	cube.White:  lipgloss.Color("#FFFFFF"),
	cube.Yellow: lipgloss.Color("#FFD500"),
	cube.Green:  lipgloss.Color("#009E60"),
	cube.Blue:   lipgloss.Color("#0051BA"),
	cube.Red:    lipgloss.Color("#C41E3A"),
	cube.Orange: lipgloss.Color("#FF5800"),
}

func renderSticker(c cube.Color) string {
	bg, ok := stickerColors[c]
	if !ok {
		bg = lipgloss.Color("236")
	}
	return lipgloss.NewStyle().Background(bg).Render(strings.Repeat(" ", stickerW))
}

type playKeyMap struct {
	Faces  []key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func (k playKeyMap) ShortHelp() []key.Binding {
	return append(append([]key.Binding{}, k.Faces...), k.Toggle, k.Quit)
}

func (k playKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.Faces, {k.Toggle, k.Quit}}
}

// newPlayKeys builds help bindings from the router's key map so the help
// line always shows the keys actually in effect.
func newPlayKeys(r *input.Router) playKeyMap {
	km := playKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(r.ToggleKey()),
			key.WithHelp(r.ToggleKey(), "view/action"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
	for _, face := range cube.Faces() {
		if k, ok := r.KeyFor(face); ok {
			km.Faces = append(km.Faces, key.NewBinding(
				key.WithKeys(k),
				key.WithHelp(k, strings.ToLower(face.String())),
			))
		}
	}
	return km
}

// Messages
type tickMsg time.Time
type rotationMsg struct{ ev protocol.RotationEvent }
type deviceConnectedMsg struct {
	name    string
	address string
}
type deviceBatteryMsg struct{ level int }
type deviceErrorMsg struct{ err error }

// playModel is the bubbletea model for the play command. It owns the game:
// every game call happens in Update.
type playModel struct {
	game  *cubeturn.Game
	keys  playKeyMap
	help  help.Model
	onDev func(name, address string)

	// Smart cube
	device  string
	battery int

	// Stats
	committed int
	busy      int
	recovered int
	lastTurn  string

	err      error
	quitting bool
}

func newPlayModel() *playModel {
	return &playModel{help: help.New(), battery: -1}
}

// attach binds the model to g. Observe must already be registered with g.
func (m *playModel) attach(g *cubeturn.Game) {
	m.game = g
	m.keys = newPlayKeys(g.Router())
}

// observe counts turn outcomes; pass it to cubeturn.WithTurnObserver.
func (m *playModel) observe(ev engine.TurnEvent) {
	if ev.Source == engine.SourceScramble {
		return
	}
	switch ev.Outcome {
	case engine.Committed:
		m.committed++
		if ev.Recovered {
			m.recovered++
		}
	case engine.Busy:
		m.busy++
	}
}

func (m *playModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m *playModel) tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.game.Tick(time.Time(msg))
		return m, m.tickCmd()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.show(m.game.Key(msg.String()))

	case tea.MouseMsg:
		m.handleMouse(msg)

	case rotationMsg:
		m.show(m.game.SmartCubeRotation(msg.ev))

	case deviceConnectedMsg:
		m.device = msg.name
		if m.onDev != nil {
			m.onDev(msg.name, msg.address)
		}

	case deviceBatteryMsg:
		m.battery = msg.level

	case deviceErrorMsg:
		m.err = msg.err
	}
	return m, nil
}

func (m *playModel) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	var b input.Button
	switch msg.Button {
	case tea.MouseButtonLeft:
		b = input.ButtonPrimary
	case tea.MouseButtonRight:
		b = input.ButtonSecondary
	default:
		return
	}

	if face, ok := buttonAt(msg.X, msg.Y); ok {
		m.show(m.game.Button(face))
		return
	}
	if x, y, ok := frontPointAt(msg.X, msg.Y); ok {
		m.show(m.game.PointerAt(b, x, y))
	}
}

func (m *playModel) show(res input.Result, err error) {
	m.err = err
	if res.Routed {
		m.lastTurn = fmt.Sprintf("%s %s: %s", res.Source, res.Face, res.Outcome)
	}
}

// frontPointAt maps a screen cell on the FACE block of the net to world
// coordinates on the front view, at the center of the sticker.
func frontPointAt(x, y int) (float64, float64, bool) {
	left := faceW + faceGap
	top := netTop + 3
	if x < left || x >= left+faceW || y < top || y >= top+3 {
		return 0, 0, false
	}
	col := (x - left) / stickerW
	row := y - top
	return float64(col - 1), float64(1 - row), true
}

type buttonSpan struct {
	face       cube.Face
	start, end int
}

func buttonText(f cube.Face) string {
	return "[ " + f.String() + " ]"
}

func buttonSpans() []buttonSpan {
	spans := make([]buttonSpan, 0, cube.NumFaces)
	x := buttonsLeft
	for _, f := range cube.Faces() {
		w := len(buttonText(f))
		spans = append(spans, buttonSpan{face: f, start: x, end: x + w})
		x += w + 1
	}
	return spans
}

// buttonAt returns the on-screen face button under a screen cell.
func buttonAt(x, y int) (cube.Face, bool) {
	if y != buttonsRow {
		return 0, false
	}
	for _, s := range buttonSpans() {
		if x >= s.start && x < s.end {
			return s.face, true
		}
	}
	return 0, false
}

func (m *playModel) View() string {
	if m.quitting {
		return ""
	}

	lines := make([]string, 0, 24)
	lines = append(lines,
		titleStyle.Render("cubeturn"),
		labelStyle.Render(m.game.Label()),
		"",
	)
	lines = append(lines, m.renderNet()...)
	lines = append(lines, "", m.renderButtons(), "")

	status := fmt.Sprintf("%s  committed %d  busy %d", m.game.Engine().Phase(), m.committed, m.busy)
	if m.recovered > 0 {
		status += fmt.Sprintf("  recovered %d", m.recovered)
	}
	if m.game.Facelets().IsSolved() {
		status += "  SOLVED"
	}
	lines = append(lines, statusStyle.Render(status))

	if m.lastTurn != "" {
		lines = append(lines, turnStyle.Render(m.lastTurn))
	}
	if m.device != "" {
		dev := "Smart cube: " + m.device
		if m.battery >= 0 {
			dev += fmt.Sprintf(" (battery %d%%)", m.battery)
		}
		lines = append(lines, statusStyle.Render(dev))
	}
	if m.err != nil {
		lines = append(lines, errorStyle.Render("Error: "+m.err.Error()))
	}
	lines = append(lines, "", m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m *playModel) renderNet() []string {
	f := m.game.Facelets()
	blank := strings.Repeat(" ", faceW+faceGap)
	gap := strings.Repeat(" ", faceGap)

	row := func(face cube.Face, r int) string {
		var b strings.Builder
		for c := 0; c < 3; c++ {
			b.WriteString(renderSticker(f[face][r*3+c]))
		}
		return b.String()
	}

	lines := make([]string, 0, 9)
	for r := 0; r < 3; r++ {
		lines = append(lines, blank+row(cube.Top, r))
	}
	for r := 0; r < 3; r++ {
		parts := make([]string, 0, 4)
		for _, face := range []cube.Face{cube.Left, cube.Front, cube.Right, cube.Back} {
			parts = append(parts, row(face, r))
		}
		lines = append(lines, strings.Join(parts, gap))
	}
	for r := 0; r < 3; r++ {
		lines = append(lines, blank+row(cube.Bottom, r))
	}
	return lines
}

func (m *playModel) renderButtons() string {
	parts := make([]string, 0, cube.NumFaces)
	for _, s := range buttonSpans() {
		parts = append(parts, buttonStyle.Render(buttonText(s.face)))
	}
	return strings.Repeat(" ", buttonsLeft) + strings.Join(parts, " ")
}
