package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/explorer"
	"github.com/refgraph/refgraph/pkg/graph"
	"github.com/refgraph/refgraph/pkg/layout"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle        = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	thresholdStep = 0.05
	topNodes      = 8
)

// =============================================================================
// ExploreModel - interactive filter controls
// =============================================================================

type fetchedMsg struct{ err error }

type tickMsg time.Time

// ExploreModel is the bubbletea model for the explore screen. Every control
// change recomputes the render model from the last payload; only a refresh
// goes back to the backend.
type ExploreModel struct {
	ctx      context.Context
	ex       *explorer.Explorer
	query    backend.Query
	keys     []string
	save     func(graph.RenderModel) (string, error)
	cursor   int
	frame    int
	loading  bool
	err      error
	status   string
	snapshot explorer.State
}

// NewExploreModel creates the explore screen for q. save writes the current
// model and returns the path written.
func NewExploreModel(ctx context.Context, ex *explorer.Explorer, q backend.Query, save func(graph.RenderModel) (string, error)) ExploreModel {
	s := ex.Snapshot()
	return ExploreModel{
		ctx:      ctx,
		ex:       ex,
		query:    q,
		keys:     s.Options.ScoreKeys,
		save:     save,
		loading:  true,
		snapshot: s,
	}
}

func (m ExploreModel) fetch(refresh bool) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ex.Fetch(m.ctx, m.query, refresh)
		return fetchedMsg{err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ExploreModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(false), tick())
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if errors.Is(msg.err, errors.ErrCodeSuperseded) {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.snapshot = m.ex.Snapshot()
		return m, nil

	case tickMsg:
		if !m.loading {
			return m, nil
		}
		m.frame++
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m ExploreModel) handleKey(key string) (tea.Model, tea.Cmd) {
	var err error
	m.status = ""
	switch key {
	case "q", "ctrl+c", "esc":
		m.ex.Abort()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case " ", "enter":
		if len(m.keys) > 0 {
			_, err = m.ex.ToggleKey(m.keys[m.cursor])
		}
	case "right", "l", "+":
		err = m.nudge(thresholdStep)
	case "left", "h", "-":
		err = m.nudge(-thresholdStep)
	case "p":
		_, err = m.ex.SetPrune(!m.snapshot.Options.Prune)
	case "L":
		next := layout.KindCluster
		if m.snapshot.Options.Layout == layout.KindCluster {
			next = layout.KindBanded
		}
		_, err = m.ex.SetLayout(next)
	case "m":
		next := degree.PolicyDirect
		if m.snapshot.Options.Metric == degree.PolicyDirect {
			next = degree.PolicyTransitive
		}
		_, err = m.ex.SetMetric(next)
	case "r":
		_, err = m.ex.Reset()
	case "R":
		m.loading = true
		m.snapshot = m.ex.Snapshot()
		return m, tea.Batch(m.fetch(true), tick())
	case "w":
		if m.save != nil {
			path, serr := m.save(m.snapshot.Model)
			if serr != nil {
				err = serr
			} else {
				m.status = "wrote " + path
			}
		}
	default:
		return m, nil
	}
	m.err = err
	m.snapshot = m.ex.Snapshot()
	return m, nil
}

// nudge moves the threshold of the key under the cursor, clamped to [0, 1].
func (m ExploreModel) nudge(delta float64) error {
	if len(m.keys) == 0 {
		return nil
	}
	key := m.keys[m.cursor]
	v := m.snapshot.Options.Filter.Threshold(key) + delta
	v = max(0, min(1, float64(int(v*100+0.5))/100))
	_, err := m.ex.SetThreshold(key, v)
	return err
}

func (m ExploreModel) View() string {
	var b strings.Builder
	s := m.snapshot
	o := s.Options

	b.WriteString(StyleTitle.Render("refgraph explore") + " " + StyleHighlight.Render(m.query.String()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ key  space toggle  ←/→ threshold  p prune  L layout  m metric  r reset  R refetch  w write  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)]) + " " + StyleDim.Render("fetching..."))
	case m.err != nil:
		b.WriteString(errorStyle.Render(iconError + " " + errors.UserMessage(m.err)))
	default:
		c := s.Model.Counts
		b.WriteString(fmt.Sprintf("%s nodes  %s edges  %s connected  max degree %s",
			StyleNumber.Render(strconv.Itoa(c.Nodes)),
			StyleNumber.Render(strconv.Itoa(c.Edges)),
			StyleNumber.Render(strconv.Itoa(c.Connected)),
			StyleNumber.Render(strconv.Itoa(s.Model.MaxDegree))))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("layout %s · metric %s · prune %s", o.Layout, o.Metric, onOff(o.Prune))))
	b.WriteString("\n\n")

	for i, k := range m.keys {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if o.Filter.IsSelected(k) {
			box = "[x]"
		}
		line := fmt.Sprintf("%s%s %-20s ≥ %.2f", cursor, box, k, o.Filter.Threshold(k))
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case o.Filter.IsSelected(k):
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if top := topByDegree(s.Model, topNodes); len(top) > 0 {
		b.WriteString("\n")
		rows := make([][]string, len(top))
		for i, n := range top {
			rows[i] = []string{n.ID, string(n.Category), strconv.Itoa(n.Degree)}
		}
		b.WriteString(table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("Node", "Category", "Degree").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == -1 {
					return styleTableHeader
				}
				if col == 2 {
					return lipgloss.NewStyle().Foreground(colorCyan).Align(lipgloss.Right)
				}
				return lipgloss.NewStyle()
			}).
			Render())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n" + StyleSuccess.Render(iconSuccess+" "+m.status) + "\n")
	}
	return b.String()
}

// topByDegree returns the n highest-degree nodes, ties broken by id.
func topByDegree(m graph.RenderModel, n int) []graph.RenderNode {
	nodes := slices.Clone(m.Nodes)
	slices.SortFunc(nodes, func(a, b graph.RenderNode) int {
		if a.Degree != b.Degree {
			return b.Degree - a.Degree
		}
		return strings.Compare(a.ID, b.ID)
	})
	return nodes[:min(n, len(nodes))]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
