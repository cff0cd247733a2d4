package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/averyhale/saga-engine/pkg/chat"
	"github.com/averyhale/saga-engine/pkg/state"
	"github.com/averyhale/saga-engine/pkg/story"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameID       uuid.UUID
	gameState    *state.GameState
	lastTurn     *TurnResponse
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// World selection state
	showWorldModal bool
	worlds         []story.World
	selectedWorld  int
	loadingWorlds  bool
	enteringName   bool

	// A failed roll the player may still upgrade
	burnPending bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type worldsLoadedMsg struct {
	worlds []story.World
	err    error
}

type gameCreatedMsg struct {
	resp *TurnResponse
	err  error
}

type turnResponseMsg struct {
	resp *TurnResponse
	err  error
}

type gameStateMsg struct {
	gameState *state.GameState
	err       error
}

type recapMsg struct {
	text string
	err  error
}

type copiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	strongStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")). // bright green
			Bold(true)

	weakStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	missStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // red
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, resumeID uuid.UUID) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		gameID:         resumeID,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		ready:          false,
		showWorldModal: resumeID == uuid.Nil,
		loadingWorlds:  resumeID == uuid.Nil,
		selectedWorld:  0,
	}
}

func writeMetadata(gs *state.GameState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SAGA ENGINE") + "\n\n")

	content.WriteString(gs.PlayerName + "\n")
	content.WriteString(fmt.Sprintf("Chapter %d, Scene %d\n\n", gs.Chapter, gs.SceneCount))

	if gs.Location != "" {
		content.WriteString(gs.Location + "\n")
	}
	if gs.TimeOfDay != "" {
		content.WriteString(gs.TimeOfDay + "\n")
	}
	content.WriteString("\n")

	content.WriteString(trackMeter("Health", gs.Health))
	content.WriteString(trackMeter("Spirit", gs.Spirit))
	content.WriteString(trackMeter("Supply", gs.Supply))
	content.WriteString(fmt.Sprintf("Momentum %+d\n", gs.Momentum))
	content.WriteString(fmt.Sprintf("Chaos    %d\n", gs.ChaosFactor))
	if gs.CrisisMode {
		content.WriteString(errorStyle.Render("CRISIS") + "\n")
	}
	content.WriteString("\n")

	if active := gs.NPCs.Active(); len(active) > 0 {
		content.WriteString("Cast:\n")
		for _, n := range active {
			content.WriteString(fmt.Sprintf("• %s (%s)\n", n.Name, n.Disposition))
		}
		content.WriteString("\n")
	}

	if len(gs.Clocks) > 0 {
		content.WriteString("Clocks:\n")
		for _, id := range sortedClockIDs(gs.Clocks) {
			c := gs.Clocks[id]
			content.WriteString(fmt.Sprintf("• %s %d/%d\n", c.Name, c.Filled, c.Segments))
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /recap: Recap\n")
	content.WriteString("• /copy: Copy transcript\n")

	return content.String()
}

func trackMeter(name string, value int) string {
	if value < 0 {
		value = 0
	}
	if value > state.TrackMax {
		value = state.TrackMax
	}
	bar := strings.Repeat("█", value) + strings.Repeat("░", state.TrackMax-value)
	return fmt.Sprintf("%-8s %s %d/%d\n", name, bar, value, state.TrackMax)
}

func sortedClockIDs(clocks map[string]*state.Clock) []string {
	ids := make([]string, 0, len(clocks))
	for id := range clocks {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

// writeChatContent builds the chat content from game state for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("SAGA ENGINE") + "\n\n")
	content.WriteString("Describe what you do. The narrator carries the story.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.gameState != nil {
		for _, msg := range m.gameState.Transcript {
			switch msg.Role {
			case chat.ChatRoleAssistant, chat.ChatRoleSystem:
				content.WriteString(formatNarratorResponse(msg.Content, chatWidth) + "\n\n")
			case chat.ChatRoleUser:
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
			}
		}
	}

	if m.lastTurn != nil {
		if banner := formatRollBanner(m.lastTurn, chatWidth); banner != "" {
			content.WriteString(banner + "\n")
		}
		if m.burnPending {
			content.WriteString(loadingStyle.Render(
				fmt.Sprintf("Burn momentum to upgrade this to a %s? (y/n)", strings.ToUpper(m.lastTurn.BurnUpgrade))) + "\n\n")
		}
		if m.lastTurn.GameOver {
			content.WriteString(missStyle.Render("The journey ends here.") + "\n\n")
		} else if m.lastTurn.StoryComplete {
			content.WriteString(strongStyle.Render("The story is complete. /epilogue to close it out.") + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// formatRollBanner renders the mechanical outcome of the last turn:
// dice, consequences, clock completions, and any chaos interrupt.
func formatRollBanner(t *TurnResponse, width int) string {
	var content strings.Builder

	if t.Roll != nil {
		style := missStyle
		switch t.Roll.Result {
		case state.ResultStrongHit:
			style = strongStyle
		case state.ResultWeakHit:
			style = weakStyle
		}
		line := fmt.Sprintf("⚅ %s %d (%d+%d+%d) vs %d | %d — %s",
			titleCase(t.Roll.Stat), t.Roll.ActionScore,
			t.Roll.ActionDie1, t.Roll.ActionDie2, t.Roll.StatValue,
			t.Roll.Challenge1, t.Roll.Challenge2,
			strings.ReplaceAll(strings.ToUpper(t.Roll.Result), "_", " "))
		if t.Roll.Match {
			line += " (match)"
		}
		content.WriteString(style.Render(line) + "\n")
	}

	for _, c := range t.Consequences {
		content.WriteString(promptStyle.Render("  "+consequenceLine(c)) + "\n")
	}
	for _, ev := range t.ClockEvents {
		content.WriteString(weakStyle.Render(fmt.Sprintf("  ⏱ %s: %s", ev.Name, ev.Trigger)) + "\n")
	}
	if t.Interrupt != nil {
		content.WriteString(weakStyle.Render("  ⚡ "+strings.ReplaceAll(t.Interrupt.Type, "_", " ")) + "\n")
	}

	if content.Len() == 0 {
		return ""
	}
	return wordwrap.String(content.String(), width)
}

func consequenceLine(c state.Consequence) string {
	if c.Detail != "" {
		return fmt.Sprintf("%s %+d (%s)", c.Target, c.Delta, c.Detail)
	}
	if c.Target != "" {
		return fmt.Sprintf("%s %+d", c.Target, c.Delta)
	}
	return fmt.Sprintf("%s %+d", c.Kind, c.Delta)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showWorldModal {
		return m.loadWorlds()
	}
	return tea.Batch(m.resumeGame(), textarea.Blink)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle world modal first
	if m.showWorldModal {
		return m.updateWorldModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to all components; each ignores events
		// outside its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(writeMetadata(m.gameState))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if m.burnPending {
				return m.handleBurnAnswer(input)
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			// Echo the player's words immediately; the server adds the
			// authoritative copy to the transcript.
			m.gameState.Transcript = append(m.gameState.Transcript, chat.TranscriptEntry{
				Role:    chat.ChatRoleUser,
				Content: input,
			})
			m.writeChatContent()

			return m, tea.Batch(m.submitTurn(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.err = nil
			m.lastTurn = msg.resp
			m.burnPending = msg.resp.BurnOffered
			if msg.resp.State != nil {
				m.gameState = msg.resp.State
				m.metaViewport.SetContent(writeMetadata(m.gameState))
			}
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, nil

	case gameStateMsg:
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			m.chatViewport.SetContent(currentContent + errorStyle.Render("Error: "+msg.err.Error()) + "\n\n")
			return m, nil
		}
		if msg.gameState != nil {
			m.gameState = msg.gameState
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.gameState))
			// A resumed session opens with its "previously on"
			return m, m.fetchRecap()
		}

	case recapMsg:
		m.loading = false
		currentContent := m.chatViewport.View()
		if msg.err != nil {
			m.chatViewport.SetContent(currentContent + errorStyle.Render("Error: "+msg.err.Error()) + "\n\n")
		} else {
			text := wordwrap.String(msg.text, m.chatViewport.Width-8)
			m.chatViewport.SetContent(currentContent + titleStyle.Render("Previously:") + "\n" + text + "\n\n")
		}
		m.chatViewport.GotoBottom()

	case copiedMsg:
		currentContent := m.chatViewport.View()
		if msg.err != nil {
			m.chatViewport.SetContent(currentContent + errorStyle.Render("Copy failed: "+msg.err.Error()) + "\n\n")
		} else {
			m.chatViewport.SetContent(currentContent + loadingStyle.Render("Transcript copied to clipboard.") + "\n\n")
		}
		m.chatViewport.GotoBottom()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func formatNarratorResponse(response string, width int) string {
	// Check if response already has a speaker prefix
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	// If no prefix, we'll add "Narrator: " so reduce available width
	wrapWidth := width
	if !hasPrefix {
		narratorPrefix := AgentName + ": "
		wrapWidth = width - len(narratorPrefix)
	}

	wrappedResponse := wordwrap.String(response, wrapWidth)
	lines := strings.Split(wrappedResponse, "\n")
	var formattedLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix && !strings.HasPrefix(strings.TrimSpace(result), speakerStyle.Render("")) {
		result = narratorStyle.Render(AgentName+": ") + result
	}

	return result
}

func (m ConsoleUI) handleBurnAnswer(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	switch strings.ToLower(input) {
	case "y", "yes":
		m.burnPending = false
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.submitBurn(), progressTick())
	case "n", "no":
		m.burnPending = false
		m.writeChatContent()
		return m, nil
	default:
		// Anything else falls through as a normal declined offer;
		// the next turn clears it server-side too.
		m.burnPending = false
		m.writeChatContent()
		return m, nil
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /recap - "Previously on" summary
• /chapter - Close this chapter and open the next
• /epilogue - Narrate the closing scene
• /copy - Copy the transcript to the clipboard
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• Risky actions are resolved with dice before narration
• When a failed roll offers a momentum burn, answer y or n
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/recap":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.fetchRecap(), progressTick())

	case "/chapter":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.submitChapter(), progressTick())

	case "/epilogue":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.submitEpilogue(), progressTick())

	case "/copy":
		return m, m.copyTranscript()

	default:
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + promptStyle.Render("Unknown command. /help for the list.") + "\n\n")
		m.chatViewport.GotoBottom()
		return m, nil
	}
}

func (m ConsoleUI) submitTurn(input string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.gameID, input)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) submitBurn() tea.Cmd {
	return func() tea.Msg {
		resp, err := burnMomentum(m.client, m.config.APIBaseURL, m.gameID)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) submitChapter() tea.Cmd {
	return func() tea.Msg {
		resp, err := advanceChapter(m.client, m.config.APIBaseURL, m.gameID)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) submitEpilogue() tea.Cmd {
	return func() tea.Msg {
		resp, err := requestEpilogue(m.client, m.config.APIBaseURL, m.gameID, "")
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) fetchRecap() tea.Cmd {
	return func() tea.Msg {
		text, err := getRecap(m.client, m.config.APIBaseURL, m.gameID)
		return recapMsg{text, err}
	}
}

func (m ConsoleUI) copyTranscript() tea.Cmd {
	gs := m.gameState
	return func() tea.Msg {
		if gs == nil || len(gs.Transcript) == 0 {
			return copiedMsg{fmt.Errorf("nothing to copy yet")}
		}
		var sb strings.Builder
		for _, msg := range gs.Transcript {
			switch msg.Role {
			case chat.ChatRoleUser:
				sb.WriteString("You: " + msg.Content + "\n\n")
			default:
				sb.WriteString(msg.Content + "\n\n")
			}
		}
		return copiedMsg{clipboard.WriteAll(sb.String())}
	}
}

func (m ConsoleUI) resumeGame() tea.Cmd {
	return func() tea.Msg {
		gs, err := getGameState(m.client, m.config.APIBaseURL, m.gameID)
		return gameStateMsg{gs, err}
	}
}

func (m ConsoleUI) loadWorlds() tea.Cmd {
	return func() tea.Msg {
		worlds, err := listWorlds(m.client, m.config.APIBaseURL)
		return worldsLoadedMsg{worlds, err}
	}
}

func (m ConsoleUI) createGameCmd(setup GameSetupRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := createGame(m.client, m.config.APIBaseURL, setup)
		return gameCreatedMsg{resp, err}
	}
}

func (m ConsoleUI) updateWorldModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case worldsLoadedMsg:
		m.loadingWorlds = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.worlds = msg.worlds
		}

	case gameCreatedMsg:
		// Regardless of outcome, we're no longer in the create-game loading phase
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.gameID = msg.resp.GameID
			m.gameState = msg.resp.State
			m.lastTurn = msg.resp
			m.showWorldModal = false
			m.textarea.Reset()
			m.textarea.Placeholder = PlaceHolderText
			m.textarea.SetHeight(3)
			if m.width > 0 && m.height > 0 {
				chatWidth := int(float64(m.width)*0.75) - 4
				metaWidth := m.width - chatWidth - 6
				m.chatViewport.Width = chatWidth - 2
				m.chatViewport.Height = m.height - 7
				m.metaViewport.Width = metaWidth - 2
				m.metaViewport.Height = m.height - 4
				m.textarea.SetWidth(chatWidth - 4)
			}
			m.writeChatContent()
			if m.gameState != nil {
				m.metaViewport.SetContent(writeMetadata(m.gameState))
			}
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingWorlds || m.loading {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				m.showQuitModal = true
				return m, nil
			}
			return m, nil
		}

		if m.enteringName {
			switch msg.Type {
			case tea.KeyCtrlC, tea.KeyEsc:
				m.enteringName = false
				m.textarea.SetHeight(3)
				return m, nil
			case tea.KeyEnter:
				name := strings.TrimSpace(m.textarea.Value())
				if name == "" {
					return m, nil
				}
				m.loading = true
				return m, m.createGameCmd(GameSetupRequest{
					PlayerName: name,
					WorldID:    m.worlds[m.selectedWorld].ID,
				})
			}
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedWorld > 0 {
				m.selectedWorld--
			}
		case tea.KeyDown:
			if m.selectedWorld < len(m.worlds)-1 {
				m.selectedWorld++
			}
		case tea.KeyEnter:
			if len(m.worlds) > 0 {
				m.enteringName = true
				m.textarea.Reset()
				m.textarea.Placeholder = "Your character's name..."
				m.textarea.SetHeight(1)
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	// Keep the textarea's cursor animated while entering a name
	if m.enteringName {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showWorldModal {
					// Still selecting a world, nothing to refocus
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the story?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderWorldModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingWorlds {
		content.WriteString(modalTitleStyle.Render("Loading Worlds..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch available worlds..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to start: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening Scene..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("The narrator is setting the stage..."))
	} else if m.enteringName {
		world := m.worlds[m.selectedWorld]
		content.WriteString(modalTitleStyle.Render(world.Name))
		content.WriteString("\n\n")
		content.WriteString(wordwrap.String(world.Intro, 56))
		content.WriteString("\n\n")
		content.WriteString("Who are you?\n\n")
		content.WriteString(m.textarea.View())
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Enter to begin, Esc to pick another world"))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a World"))
		content.WriteString("\n\n")

		for i, world := range m.worlds {
			label := world.Name
			if world.Tone != "" {
				label = fmt.Sprintf("%s (%s)", world.Name, strings.ReplaceAll(world.Tone, "_", " "))
			}
			if i == m.selectedWorld {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showWorldModal {
		return m.renderWorldModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
