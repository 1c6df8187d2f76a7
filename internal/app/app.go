// Package app provides the Bubble Tea application model for the ContextMap terminal map
package app

import (
	"context"
	"math"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/contextmap/contextmap-go/internal/canvas"
	"github.com/contextmap/contextmap-go/internal/config"
	"github.com/contextmap/contextmap-go/internal/export"
	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/loader"
	"github.com/contextmap/contextmap-go/internal/session"
	"github.com/contextmap/contextmap-go/internal/theme"
	"go.uber.org/zap"
)

// Screen layout around the map, in cells
const (
	headerRows   = 1
	statusRows   = 2
	sidebarWidth = 32
	tickInterval = 50 * time.Millisecond
)

// Model is the main application model
type Model struct {
	session *session.Session
	config  *config.Config
	theme   *theme.Theme
	canvas  *canvas.Canvas
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// Pointer state
	dragging bool
	lastPtr  geo.Point
	hasPtr   bool

	// UI state
	showHelp         bool
	notification     string
	notificationTime float64
	frame            int
	spinners         []string
	width, height    int
	lastRenderedView string

	now func() time.Time
}

// NewModel creates a new application model around a session
func NewModel(s *session.Session) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := s.Config
	t := theme.Get(cfg.Display.Theme)
	return &Model{
		session:  s,
		config:   cfg,
		theme:    t,
		canvas:   canvas.New(60, 25, cfg.Canvas.Width, cfg.Canvas.Height, t),
		log:      s.Log.Named("app"),
		ctx:      ctx,
		cancel:   cancel,
		spinners: []string{"◐", "◓", "◑", "◒"},
		now:      time.Now,
	}
}

// tickMsg is sent on each animation tick
type tickMsg time.Time

// stageFetchedMsg carries one stage's data back to the event loop
type stageFetchedMsg struct {
	payload loader.Payload
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd loads req off the event loop. Rendering happens in Update.
func fetchCmd(ctx context.Context, p *loader.Pipeline, req loader.Request) tea.Cmd {
	return func() tea.Msg {
		return stageFetchedMsg{payload: p.Fetch(ctx, req)}
	}
}

// nextFetch issues the fetch for the pending stage, if there is one
func (m *Model) nextFetch() tea.Cmd {
	req, ok := m.session.Pipeline.Pending()
	if !ok {
		return nil
	}
	m.log.Debug("fetching stage", zap.Stringer("stage", req.Stage), zap.String("source", req.Source))
	return fetchCmd(m.ctx, m.session.Pipeline, req)
}

// Init starts the loading chain and the animation tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.nextFetch())
}

// Update handles messages and updates state
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeCanvas()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tickMsg:
		return m.handleTick()

	case stageFetchedMsg:
		return m, m.handleStage(msg.payload)
	}

	return m, nil
}

func (m *Model) handleStage(pl loader.Payload) tea.Cmd {
	p := m.session.Pipeline
	if err := p.Complete(pl); err != nil {
		m.notify("Load failed: " + pl.Stage.String() + " [R] retry")
		return nil
	}
	if p.Done() {
		m.notify("Map ready")
		m.rehover()
	}
	return m.nextFetch()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "q" || key == "Q" || key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	zoom := m.config.Zoom
	switch key {
	case "+", "=":
		m.zoomCenter(math.Pow(2, zoom.WheelStep))
	case "-", "_":
		m.zoomCenter(math.Pow(2, -zoom.WheelStep))
	case "left":
		m.pan(zoom.PanStep, 0)
	case "right":
		m.pan(-zoom.PanStep, 0)
	case "up":
		m.pan(0, zoom.PanStep)
	case "down":
		m.pan(0, -zoom.PanStep)
	case "0":
		m.session.View.Reset()
		m.rehover()
		m.notify("View reset")
	case "r", "R":
		return m, m.retry()
	case "e", "E":
		m.exportMap()
	case "j", "J":
		m.exportJSON()
	case "c", "C":
		m.exportCSV()
	case "p", "P":
		m.exportScreenshot()
	case "t", "T":
		m.cycleTheme()
	case "g", "G":
		m.config.Display.ShowLegend = !m.config.Display.ShowLegend
		m.resizeCanvas()
	case "?":
		m.showHelp = true
	}
	return m, nil
}

func (m *Model) retry() tea.Cmd {
	req, ok := m.session.Pipeline.Retry()
	if !ok {
		m.notify("Nothing to retry")
		return nil
	}
	m.notify("Retrying " + req.Stage.String())
	return fetchCmd(m.ctx, m.session.Pipeline, req)
}

// handleMouse maps wheel to zoom at the pointer, left-drag to pan and plain
// motion to hover.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	pt, inside := m.pointerAt(msg.X, msg.Y)
	now := m.now()

	switch {
	case msg.Button == tea.MouseButtonWheelUp && inside:
		m.session.View.ZoomAt(pt.X, pt.Y, math.Pow(2, m.config.Zoom.WheelStep))
		m.rehover()
	case msg.Button == tea.MouseButtonWheelDown && inside:
		m.session.View.ZoomAt(pt.X, pt.Y, math.Pow(2, -m.config.Zoom.WheelStep))
		m.rehover()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		m.dragging = true
		m.lastPtr = pt
		m.hasPtr = true
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	case msg.Action == tea.MouseActionMotion:
		if m.dragging {
			m.session.View.Pan(pt.X-m.lastPtr.X, pt.Y-m.lastPtr.Y)
			m.lastPtr = pt
			return
		}
		if !inside {
			m.hasPtr = false
			m.session.Hover.PointerLeft(now)
			return
		}
		m.lastPtr = pt
		m.hasPtr = true
		m.session.Hover.PointerMoved(pt, now)
	}
}

// pointerAt converts a screen cell to a logical point on the map surface
func (m *Model) pointerAt(x, y int) (geo.Point, bool) {
	col := x - 1
	row := y - headerRows - 1
	cols, rows := m.canvas.Size()
	inside := col >= 0 && row >= 0 && col < cols && row < rows
	return m.canvas.ToLogical(col, row), inside
}

func (m *Model) zoomCenter(factor float64) {
	m.session.View.ZoomAt(m.config.Canvas.Width/2, m.config.Canvas.Height/2, factor)
	m.rehover()
}

func (m *Model) pan(dx, dy float64) {
	m.session.View.Pan(dx, dy)
	m.rehover()
}

// rehover repeats the last hit test after primitives moved under a still pointer
func (m *Model) rehover() {
	if m.hasPtr {
		m.session.Hover.PointerMoved(m.lastPtr, m.now())
	}
}

func (m *Model) handleTick() (tea.Model, tea.Cmd) {
	m.frame++

	// Notification timer
	if m.notificationTime > 0 {
		m.notificationTime -= tickInterval.Seconds()
		if m.notificationTime <= 0 {
			m.notification = ""
		}
	}

	return m, tickCmd()
}

// resizeCanvas fits the map into the space left by the header, status bar
// and sidebar, keeping cells roughly twice as tall as they are wide.
func (m *Model) resizeCanvas() {
	availCols := m.width - 2
	if m.config.Display.ShowLegend {
		availCols -= sidebarWidth + 1
	}
	availRows := m.height - headerRows - statusRows - 2
	cols, rows := FitCanvas(availCols, availRows, m.config.Canvas.Width, m.config.Canvas.Height)
	m.canvas.Resize(cols, rows)
}

// FitCanvas returns the largest grid within the available cells whose shape
// matches a width×height surface, assuming cells twice as tall as wide.
func FitCanvas(availCols, availRows int, width, height float64) (int, int) {
	if availCols < 1 || availRows < 1 || width <= 0 || height <= 0 {
		return 1, 1
	}
	// rows = cols * (height/width) / 2
	ratio := height / width / 2
	cols := availCols
	rows := int(math.Round(float64(cols) * ratio))
	if rows > availRows {
		rows = availRows
		cols = int(math.Round(float64(rows) / ratio))
	}
	return max(cols, 1), max(rows, 1)
}

func (m *Model) cycleTheme() {
	names := theme.List()
	next := names[0]
	for i, name := range names {
		if name == m.config.Display.Theme {
			next = names[(i+1)%len(names)]
			break
		}
	}
	m.setTheme(next)
}

func (m *Model) setTheme(name string) {
	m.theme = theme.Get(name)
	m.config.Display.Theme = name
	m.canvas.SetTheme(m.theme)
	m.notify("Theme: " + m.theme.Name)
}

func (m *Model) notify(message string) {
	m.notification = message
	m.notificationTime = 3.0
}

// GetExportDirectory returns the configured export directory or current directory
func (m *Model) GetExportDirectory() string {
	return m.config.Export.Directory
}

// exportMap writes the map as SVG and as a standalone HTML page
func (m *Model) exportMap() {
	if m.session.Store.Len() == 0 {
		m.notify("Nothing to export")
		return
	}
	opts := m.session.ExportOptions()
	svgFile, err := export.ExportSVG(m.session.Store, opts, m.GetExportDirectory())
	if err != nil {
		m.exportFailed(err)
		return
	}
	htmlFile, err := export.ExportHTML(m.session.Store, opts, m.GetExportDirectory())
	if err != nil {
		m.exportFailed(err)
		return
	}
	m.notify("SVG: " + filepath.Base(svgFile) + " HTML: " + filepath.Base(htmlFile))
}

func (m *Model) exportJSON() {
	if m.session.Store.Len() == 0 {
		m.notify("Nothing to export")
		return
	}
	filename, err := export.ExportJSON(m.session.Store, m.session.ExportOptions(), m.GetExportDirectory())
	if err != nil {
		m.exportFailed(err)
		return
	}
	m.notify("JSON: " + filepath.Base(filename))
}

func (m *Model) exportCSV() {
	if m.session.Store.Len() == 0 {
		m.notify("Nothing to export")
		return
	}
	filename, err := export.ExportCSV(m.session.Store, m.GetExportDirectory())
	if err != nil {
		m.exportFailed(err)
		return
	}
	m.notify("CSV: " + filepath.Base(filename))
}

// exportScreenshot saves the last rendered frame as plain text
func (m *Model) exportScreenshot() {
	if m.lastRenderedView == "" {
		m.notify("No view to export")
		return
	}
	filename := export.GenerateFilename("contextmap_screen", "txt", m.GetExportDirectory())
	if _, err := export.SaveAsText(m.lastRenderedView, filename); err != nil {
		m.exportFailed(err)
		return
	}
	m.notify("Screenshot: " + filepath.Base(filename))
}

func (m *Model) exportFailed(err error) {
	m.log.Error("export failed", zap.Error(err))
	m.notify("Export failed: " + err.Error())
}
