package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/savioxavier/termlink"
	"go.uber.org/zap"

	"github.com/overlordtm/aibridge/pkg/client/dto"
	"github.com/overlordtm/aibridge/pkg/llm"
	"github.com/overlordtm/aibridge/pkg/util"
)

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF88")).Background(lipgloss.Color("#444444"))

// Console is an interactive REPL over the bridge: every Enter sends one
// independent completion request, nothing carries over between prompts.
type Console struct {
	viewport       viewport.Model
	messages       []string
	textarea       textarea.Model
	senderStyle    lipgloss.Style
	responseStyle  lipgloss.Style
	errorStyle     lipgloss.Style
	err            error
	client         Client
	ctx            context.Context
	cancel         func()
	cfg            Config
	model          string
	vars           map[string]string
	outDir         string
	loader         spinner.Model
	inProgress     atomic.Bool
	promptHistory  []string
	historyPointer int
	lastResult     *dto.Result
	saved          int
	log            *zap.Logger
}

// NewConsole builds the REPL model. Retry warnings and other log output go to
// a file in the console's temp directory so they do not tear the screen.
func NewConsole(ctx context.Context, cfg Config) (tea.Model, error) {
	provider, err := llm.Get(lo.If(cfg.Provider != "", cfg.Provider).Else(DefaultProvider))
	if err != nil {
		return nil, err
	}
	cfg.Provider = provider.Name()

	outDir, err := os.MkdirTemp(os.TempDir(), "aibridge")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to init temp dir")
	}
	log, err := newFileLogger(filepath.Join(outDir, "aibridge.log"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to init console logger")
	}
	c, err := NewClient(cfg, log)
	if err != nil {
		return nil, err
	}

	ta := textarea.New()
	ta.Placeholder = "Type a prompt... (or press Ctrl^C to exit, use Up and Down to navigate history)"
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 4096

	ta.SetWidth(128)
	ta.SetHeight(6)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false

	vp := viewport.New(160, 30)
	vp.SetContent(fmt.Sprintf("Welcome to the aibridge console! Prompts go to %s; responses land in %s.", provider.Name(), outDir))

	ta.KeyMap.InsertNewline.SetEnabled(false)

	fmt.Printf("Using provider %s...\n", provider.Name())
	loader := spinner.New(
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
		spinner.WithSpinner(spinner.Dot),
	)
	ctx, cancel := context.WithCancel(ctx)
	return &Console{
		ctx:           ctx,
		cancel:        cancel,
		client:        c,
		textarea:      ta,
		messages:      []string{},
		viewport:      vp,
		senderStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		responseStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		errorStyle:    lipgloss.NewStyle().Background(lipgloss.Color("330000")).Foreground(lipgloss.Color("#FF3333")),
		loader:        loader,
		err:           nil,
		cfg:           cfg,
		model:         lo.If(cfg.Model != "", cfg.Model).Else(provider.DefaultModel()),
		vars:          util.SliceToMap(cfg.Vars),
		outDir:        outDir,
		log:           log,
	}, nil
}

func newFileLogger(path string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{path}
	logCfg.ErrorOutputPaths = []string{path}
	return logCfg.Build()
}

func (m *Console) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	if m.ctx.Err() != nil {
		return m, tea.Quit
	}
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancel()
			return m, tea.Quit
		case tea.KeyUp:
			if m.historyPointer < len(m.promptHistory) {
				m.historyPointer++
				m.textarea.SetValue(m.promptHistory[len(m.promptHistory)-m.historyPointer])
			}
		case tea.KeyDown:
			if m.historyPointer > 0 {
				m.historyPointer--
				m.textarea.SetValue(m.promptHistory[len(m.promptHistory)-m.historyPointer-1])
			} else {
				m.textarea.SetValue("")
			}
		case tea.KeyEnter:
			// one request at a time
			if m.inProgress.Load() {
				return m, nil
			}
			currentValue := m.textarea.Value()
			if strings.TrimSpace(currentValue) == "" {
				return m, nil
			}
			m.inProgress.Store(true)
			m.loader.Tick()
			go func() {
				defer m.inProgress.Store(false)
				prompt := util.ExpandVars(currentValue, m.vars)
				if m.cfg.RawJSONOutput {
					raw, err := m.client.CompleteRaw(m.ctx, prompt)
					m.processRaw(raw, err)
				} else {
					res, err := m.client.Complete(m.ctx, prompt)
					m.processResult(res, err)
				}
			}()
			m.displaySpinner()
			m.promptHistory = append(m.promptHistory, currentValue)
			m.historyPointer = 0
			m.messages = append(m.messages, m.senderStyle.Render("You: ")+currentValue)
			m.updateMessages()
		}
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *Console) displaySpinner() {
	go func() {
		for m.inProgress.Load() {
			time.Sleep(50 * time.Millisecond)
			m.Update(m.loader.Tick())
		}
	}()
}

func (m *Console) updateMessages() {
	if len(m.messages) > 10 {
		m.messages = m.messages[1:]
	}
	m.viewport.SetContent(strings.Join(m.messages, "\n"))
	m.textarea.Reset()
	m.viewport.GotoBottom()
}

func (m *Console) processResult(res *dto.Result, err error) {
	defer m.updateMessages()
	if err != nil {
		m.err = err
		m.messages = append(m.messages, m.errorStyle.Render("ERROR: "+err.Error()))
		return
	}
	m.lastResult = res
	m.messages = append(m.messages, m.responseStyle.Render(res.Model+": ")+res.Text)
}

func (m *Console) processRaw(raw map[string]any, err error) {
	defer m.updateMessages()
	if err != nil {
		m.err = err
		m.messages = append(m.messages, m.errorStyle.Render("ERROR: "+err.Error()))
		return
	}
	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		m.err = err
		m.messages = append(m.messages, m.errorStyle.Render("ERROR: "+err.Error()))
		return
	}
	m.saved++
	m.saveFile(fmt.Sprintf("response-%03d.json", m.saved), pretty)
}

func (m *Console) saveFile(name string, data []byte) {
	fileName := filepath.Join(m.outDir, name)
	var message string
	if err := os.WriteFile(fileName, data, 0o644); err != nil {
		m.log.Warn("failed to save response", zap.String("file", fileName), zap.Error(err))
		message = fmt.Sprintf("failed to save response %q to %s: %q", name, fileName, err.Error())
	} else {
		message = fmt.Sprintf("response %q saved to ", name) +
			termlink.ColorLink(name, fmt.Sprintf("file://%s", fileName), "italic green")
	}
	m.messages = append(m.messages, m.responseStyle.Render(m.cfg.Provider+": ")+message)
}

func (m *Console) View() string {
	dialogView := m.textarea.View()
	if m.inProgress.Load() {
		dialogView = m.loader.View()
	}
	header := headerStyle.Render(fmt.Sprintf("provider: %s; model: %s", m.cfg.Provider, m.model))
	if m.lastResult != nil {
		header += headerStyle.Render(fmt.Sprintf("; tokens: %d prompt / %d completion / %d total",
			m.lastResult.Usage.PromptTokens, m.lastResult.Usage.CompletionTokens, m.lastResult.Usage.TotalTokens))
	}
	return header + fmt.Sprintf(
		"\n\n%s\n\n%s",
		m.viewport.View(),
		dialogView,
	) + "\n\n"
}
