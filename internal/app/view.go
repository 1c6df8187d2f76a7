package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/contextmap/contextmap-go/internal/loader"
	"github.com/contextmap/contextmap-go/internal/scene"
)

// Stage display states
const (
	statusPending = "pending"
	statusLoading = "loading"
	statusDone    = "done"
	statusFailed  = "failed"
)

// View renders the application
func (m *Model) View() string {
	var sb strings.Builder
	now := m.now()

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	mapView := m.renderMap(now)
	var sidebarView string
	switch {
	case m.showHelp:
		sidebarView = m.renderHelpPanel()
	case m.config.Display.ShowLegend:
		sidebarView = m.renderSidebar()
	}

	if sidebarView == "" {
		sb.WriteString(mapView)
		sb.WriteString("\n")
	} else {
		// Side by side layout
		mapLines := strings.Split(mapView, "\n")
		sidebarLines := strings.Split(sidebarView, "\n")
		maxLines := max(len(mapLines), len(sidebarLines))
		mapWidth := lipgloss.Width(mapLines[0])

		for i := 0; i < maxLines; i++ {
			mapLine := strings.Repeat(" ", mapWidth)
			if i < len(mapLines) {
				mapLine = mapLines[i]
			}
			sb.WriteString(mapLine)
			sb.WriteString(" ")
			if i < len(sidebarLines) {
				sb.WriteString(sidebarLines[i])
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.renderStatusBar(now))

	result := sb.String()

	// Store last rendered view for screenshot exports
	m.lastRenderedView = result

	return result
}

func (m *Model) renderHeader() string {
	primaryBright := lipgloss.NewStyle().Foreground(m.theme.PrimaryBright).Bold(true).Reverse(true)
	borderStyle := lipgloss.NewStyle().Foreground(m.theme.Border)
	textDim := lipgloss.NewStyle().Foreground(m.theme.TextDim)
	infoStyle := lipgloss.NewStyle().Foreground(m.theme.Info)

	var sb strings.Builder
	sb.WriteString(textDim.Render("░░ "))
	sb.WriteString(primaryBright.Render("CONTEXTMAP"))
	sb.WriteString(textDim.Render(" ░░ "))
	sb.WriteString(borderStyle.Render("═══"))
	sb.WriteString(infoStyle.Render(" " + strings.ToUpper(m.config.ElementType) + " "))
	sb.WriteString(borderStyle.Render("═══"))
	return sb.String()
}

// renderMap flushes the store onto the canvas, then floats the tooltip over it
func (m *Model) renderMap(now time.Time) string {
	m.canvas.Clear()
	m.canvas.DrawStore(m.session.Store)

	tip := m.session.Hover.Tooltip()
	if tip.Visible(now) {
		text := tip.Content().Text
		if text != "" {
			left, top := tip.Position()
			m.canvas.DrawText(left, top, " "+text+" ", m.tooltipColor(tip.Opacity(now)))
		}
	}

	return m.canvas.Render(fmt.Sprintf("%.0f", m.session.View.Transform().Scale))
}

// tooltipColor steps the tooltip through the theme as it fades
func (m *Model) tooltipColor(opacity float64) lipgloss.Color {
	switch {
	case opacity >= 0.6:
		return m.theme.Tooltip
	case opacity >= 0.3:
		return m.theme.Text
	default:
		return m.theme.TextDim
	}
}

// stageStatus reports how far a stage has got
func (m *Model) stageStatus(s loader.Stage) string {
	p := m.session.Pipeline
	if f := p.Failure(); f != nil && f.Stage == s {
		return statusFailed
	}
	switch {
	case p.Done() || s < p.Stage():
		return statusDone
	case s == p.Stage() && p.Failure() == nil:
		return statusLoading
	}
	return statusPending
}

func (m *Model) renderSidebar() string {
	borderStyle := lipgloss.NewStyle().Foreground(m.theme.Border)
	titleStyle := lipgloss.NewStyle().Foreground(m.theme.PrimaryBright).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(m.theme.Secondary).Bold(true)
	borderDim := lipgloss.NewStyle().Foreground(m.theme.BorderDim)
	textStyle := lipgloss.NewStyle().Foreground(m.theme.Text)
	textDim := lipgloss.NewStyle().Foreground(m.theme.TextDim)
	successStyle := lipgloss.NewStyle().Foreground(m.theme.Success)
	errorStyle := lipgloss.NewStyle().Foreground(m.theme.Error).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(m.theme.Info)

	var sb strings.Builder
	rule := borderDim.Render("  " + strings.Repeat("─", sidebarWidth-4))

	sb.WriteString(borderStyle.Render("╔" + strings.Repeat("═", sidebarWidth-2) + "╗"))
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render("║") + titleStyle.Render(center("LAYERS", sidebarWidth-2)) + borderStyle.Render("║"))
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render("╚" + strings.Repeat("═", sidebarWidth-2) + "╝"))
	sb.WriteString("\n")

	timings := m.session.Pipeline.Timings()
	counts := m.session.Store.Counts()
	stageKinds := map[loader.Stage]scene.Kind{
		loader.StageBoundary: scene.KindBoundary,
		loader.StageRings:    scene.KindRing,
		loader.StageContext:  scene.KindContext,
		loader.StageLines:    scene.KindConnector,
		loader.StageMarkers:  scene.KindMarker,
	}
	for s := loader.StageBoundary; s < loader.StageDone; s++ {
		var mark string
		switch m.stageStatus(s) {
		case statusDone:
			mark = successStyle.Render("✓")
		case statusLoading:
			mark = infoStyle.Render(m.spinners[m.frame%len(m.spinners)])
		case statusFailed:
			mark = errorStyle.Render("✗")
		default:
			mark = textDim.Render("○")
		}
		line := fmt.Sprintf(" %-9s %4d", s.String(), counts[stageKinds[s]])
		if d, ok := timings[s]; ok {
			line += fmt.Sprintf(" %6s", d.Round(time.Millisecond))
		}
		sb.WriteString("  " + mark + textStyle.Render(line))
		sb.WriteString("\n")
	}

	if f := m.session.Pipeline.Failure(); f != nil {
		sb.WriteString(errorStyle.Render("  " + truncate(f.Source, sidebarWidth-4)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(sectionStyle.Render("  VIEW"))
	sb.WriteString("\n")
	sb.WriteString(rule)
	sb.WriteString("\n")
	tr := m.session.View.Transform()
	cfg := m.session.View.Config()
	sb.WriteString(textStyle.Render(fmt.Sprintf("  scale     %.0f", tr.Scale)))
	sb.WriteString(textDim.Render(fmt.Sprintf(" [%.0f-%.0f]", cfg.MinScale, cfg.MaxScale)))
	sb.WriteString("\n")
	sb.WriteString(textStyle.Render(fmt.Sprintf("  translate %.0f, %.0f", tr.TranslateX, tr.TranslateY)))
	sb.WriteString("\n")

	sb.WriteString("\n")
	sb.WriteString(sectionStyle.Render("  HOVER"))
	sb.WriteString("\n")
	sb.WriteString(rule)
	sb.WriteString("\n")
	if h := m.session.Hover.Hovered(); h != nil {
		sb.WriteString(infoStyle.Render("  " + truncate(hoverLabel(h), sidebarWidth-4)))
		if h.Marker != nil && h.Marker.Image != "" {
			sb.WriteString("\n")
			sb.WriteString(textDim.Render("  " + truncate(h.Marker.Image, sidebarWidth-4)))
		}
	} else {
		sb.WriteString(textDim.Render("  -"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(textDim.Render("  [?] Help  [Q] Quit"))

	return sb.String()
}

func hoverLabel(p *scene.Primitive) string {
	switch {
	case p.Marker != nil:
		return p.Marker.Name
	case p.Context != nil:
		return p.Context.Area
	}
	return p.Kind.String()
}

func (m *Model) renderHelpPanel() string {
	borderStyle := lipgloss.NewStyle().Foreground(m.theme.Border)
	titleStyle := lipgloss.NewStyle().Foreground(m.theme.PrimaryBright).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(m.theme.Secondary).Bold(true)
	borderDim := lipgloss.NewStyle().Foreground(m.theme.BorderDim)
	textDim := lipgloss.NewStyle().Foreground(m.theme.TextDim)
	primaryBright := lipgloss.NewStyle().Foreground(m.theme.PrimaryBright)
	textStyle := lipgloss.NewStyle().Foreground(m.theme.Text)

	var sb strings.Builder

	sb.WriteString(borderStyle.Render("╔" + strings.Repeat("═", sidebarWidth-2) + "╗"))
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render("║") + titleStyle.Render(center("CONTEXTMAP HELP", sidebarWidth-2)) + borderStyle.Render("║"))
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render("╚" + strings.Repeat("═", sidebarWidth-2) + "╝"))
	sb.WriteString("\n")

	sections := []struct {
		title string
		items [][]string
	}{
		{"NAVIGATION", [][]string{{"wheel", "Zoom at pointer"}, {"drag", "Pan"}, {"+/-", "Zoom"}, {"arrows", "Pan"}, {"0", "Reset view"}}},
		{"EXPORT", [][]string{{"E", "SVG + HTML"}, {"J", "JSON"}, {"C", "CSV"}, {"P", "Screenshot"}}},
		{"OTHER", [][]string{{"R", "Retry stage"}, {"T", "Theme"}, {"G", "Legend"}, {"Q", "Quit"}}},
	}

	for _, section := range sections {
		sb.WriteString(sectionStyle.Render("  " + section.title))
		sb.WriteString("\n")
		sb.WriteString(borderDim.Render("  " + strings.Repeat("─", sidebarWidth-4)))
		sb.WriteString("\n")
		for _, item := range section.items {
			sb.WriteString("   " + primaryBright.Render(fmt.Sprintf("[%6s]", item[0])) + " " + textStyle.Render(item[1]))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(textDim.Render("  Press any key to close"))

	return sb.String()
}

func (m *Model) renderStatusBar(now time.Time) string {
	borderDim := lipgloss.NewStyle().Foreground(m.theme.BorderDim)
	successStyle := lipgloss.NewStyle().Foreground(m.theme.Success).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(m.theme.Error).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(m.theme.Info)
	primaryBright := lipgloss.NewStyle().Foreground(m.theme.PrimaryBright)
	textDim := lipgloss.NewStyle().Foreground(m.theme.TextDim)

	width := max(m.width, 40)
	var sb strings.Builder
	sb.WriteString(borderDim.Render(strings.Repeat("─", width)))
	sb.WriteString("\n")

	p := m.session.Pipeline
	switch {
	case p.Failure() != nil:
		sb.WriteString(errorStyle.Render(" ✗ FAILED " + p.Failure().Stage.String() + " "))
	case p.Done():
		sb.WriteString(successStyle.Render(" ● READY "))
	default:
		spin := m.spinners[m.frame%len(m.spinners)]
		sb.WriteString(infoStyle.Render(" " + spin + " LOADING " + p.Stage().String() + " "))
	}

	sb.WriteString(borderDim.Render("│"))
	sb.WriteString(primaryBright.Render(fmt.Sprintf(" %d primitives ", m.session.Store.Len())))
	sb.WriteString(borderDim.Render("│"))
	sb.WriteString(textDim.Render(" " + m.theme.Name + " "))
	sb.WriteString(borderDim.Render("│"))
	sb.WriteString(textDim.Render(" " + now.Format("15:04:05") + " "))

	// Notification
	if m.notification != "" && m.notificationTime > 0 {
		sb.WriteString(borderDim.Render("│"))
		sb.WriteString(infoStyle.Bold(true).Render(" " + m.notification + " "))
	}

	return sb.String()
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
