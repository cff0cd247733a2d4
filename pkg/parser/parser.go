// Package parser turns the narrator's free-text responses back into
// typed state mutations and clean prose. The narrator is asked for a
// strict metadata contract but violates it in many ways: wrong
// delimiter styles, omitted tags, malformed JSON, metadata interleaved
// with prose, truncation mid-object. Parsing is a layered best-effort
// pipeline; each layer only sees what earlier layers left behind, and
// metadata that cannot be salvaged is dropped rather than failing the
// turn.
package parser

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/averyhale/saga-engine/pkg/npc"
	"github.com/averyhale/saga-engine/pkg/state"
)

// Placeholder emitted when every layer combined leaves nothing usable.
const PlaceholderProse = "(The narrator pauses, gathering thoughts...)"

// Result reports what one parse extracted alongside the clean prose.
type Result struct {
	Prose         string
	NewNPCIDs     []string
	MemoryUpdates int
}

// Parser runs the extraction pipeline against one response. It collects
// per-parse bookkeeping, so use a fresh instance (or one per session)
// rather than sharing across goroutines.
type Parser struct {
	logger        *slog.Logger
	newNPCIDs     []string
	memoryUpdates int
}

func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts all recoverable metadata from raw, mutating the game
// state, and returns the cleaned prose. It never fails: unparseable
// metadata is logged and dropped, and the prose falls back to the first
// prose paragraph of the raw input or a fixed placeholder.
func (p *Parser) Parse(gs *state.GameState, raw string) Result {
	p.newNPCIDs = nil
	p.memoryUpdates = 0

	text := raw
	text = p.layerGameDataTag(gs, text)
	text = p.layerUntaggedGameData(gs, text)
	text = p.layerRenameTags(gs, text)
	text = p.layerNewNPCTags(gs, text)
	text = p.layerMemoryTags(gs, text)
	text = p.layerSceneContextTag(gs, text)
	text = stripRemainingTags(text)
	text = p.layerBracketLabels(gs, text)
	text = p.layerCodeFences(gs, text)
	text = p.layerBareArrays(gs, text)
	text = p.layerBareObjects(gs, text)
	text = p.layerMarkdownLabels(gs, text)
	text = layerTrailingSweep(text)
	text = layerPipeBlocks(text)
	text = p.layerNuclear(gs, text)
	text = cosmeticCleanup(text)

	renormalizeDispositions(gs)

	prose := strings.TrimSpace(text)
	if prose == "" {
		prose = fallbackProse(raw)
	}
	markIntroduced(gs, prose)

	return Result{Prose: prose, NewNPCIDs: p.newNPCIDs, MemoryUpdates: p.memoryUpdates}
}

var (
	gameDataTagRe     = regexp.MustCompile(`(?s)<game_data>\s*(.*?)\s*</game_data>`)
	renameTagRe       = regexp.MustCompile(`(?s)<npc_rename>\s*(.*?)\s*</npc_rename>`)
	newNPCTagRe       = regexp.MustCompile(`(?s)<new_npcs>\s*(.*?)\s*</new_npcs>`)
	memoryTagRe       = regexp.MustCompile(`(?s)<memory_updates>\s*(.*?)\s*</memory_updates>`)
	sceneContextTagRe = regexp.MustCompile(`(?s)<scene_context>\s*(.*?)\s*</scene_context>`)
	pairedTagRe       = regexp.MustCompile(`(?s)<([a-z_]+)>.*?</([a-z_]+)>`)
	selfClosingTagRe  = regexp.MustCompile(`<[a-z_]+\s*/>`)
)

func (p *Parser) layerGameDataTag(gs *state.GameState, text string) string {
	return gameDataTagRe.ReplaceAllStringFunc(text, func(match string) string {
		content := gameDataTagRe.FindStringSubmatch(match)[1]
		var gd GameDataPayload
		if !p.unmarshalWithRepair(content, &gd) {
			p.logger.Warn("unparseable game_data block dropped")
			return ""
		}
		p.applyGameData(gs, &gd)
		return ""
	})
}

// layerUntaggedGameData catches a full NPC payload emitted without its
// tag, recognized by the "npcs" key, decoding incrementally so exactly
// the consumed span is removed from the prose.
func (p *Parser) layerUntaggedGameData(gs *state.GameState, text string) string {
	keyIdx := strings.Index(text, `"npcs"`)
	if keyIdx < 0 {
		return text
	}
	start := strings.LastIndex(text[:keyIdx], "{")
	if start < 0 {
		return text
	}
	raw, end, ok := decodeJSONAt(text, start)
	if !ok {
		return text
	}
	var gd GameDataPayload
	if err := json.Unmarshal(raw, &gd); err != nil || len(gd.NPCs) == 0 {
		return text
	}
	p.applyGameData(gs, &gd)
	return text[:start] + text[end:]
}

func (p *Parser) layerRenameTags(gs *state.GameState, text string) string {
	return renameTagRe.ReplaceAllStringFunc(text, func(match string) string {
		content := renameTagRe.FindStringSubmatch(match)[1]
		for _, rn := range p.decodeRenames(content) {
			p.applyRename(gs, rn)
		}
		return ""
	})
}

func (p *Parser) decodeRenames(content string) []RenamePayload {
	var one RenamePayload
	if p.unmarshalWithRepair(content, &one) && one.NPCID != "" {
		return []RenamePayload{one}
	}
	var many []RenamePayload
	if p.unmarshalWithRepair(content, &many) {
		return many
	}
	p.logger.Warn("unparseable npc_rename block dropped")
	return nil
}

func (p *Parser) layerNewNPCTags(gs *state.GameState, text string) string {
	return newNPCTagRe.ReplaceAllStringFunc(text, func(match string) string {
		content := newNPCTagRe.FindStringSubmatch(match)[1]
		for _, np := range p.decodeNPCList(content) {
			p.applyNPCPayload(gs, np, true)
		}
		gs.NPCs.RetireDistant(gs.SceneCount)
		return ""
	})
}

func (p *Parser) decodeNPCList(content string) []NPCPayload {
	var many []NPCPayload
	if p.unmarshalWithRepair(content, &many) {
		return many
	}
	var wrapped struct {
		NPCs []NPCPayload `json:"npcs"`
	}
	if p.unmarshalWithRepair(content, &wrapped) && len(wrapped.NPCs) > 0 {
		return wrapped.NPCs
	}
	var one NPCPayload
	if p.unmarshalWithRepair(content, &one) && one.Name != "" {
		return []NPCPayload{one}
	}
	p.logger.Warn("unparseable new_npcs block dropped")
	return nil
}

func (p *Parser) layerMemoryTags(gs *state.GameState, text string) string {
	return memoryTagRe.ReplaceAllStringFunc(text, func(match string) string {
		content := memoryTagRe.FindStringSubmatch(match)[1]
		for _, upd := range p.decodeMemories(content) {
			p.applyMemoryUpdate(gs, upd)
		}
		return ""
	})
}

func (p *Parser) decodeMemories(content string) []MemoryPayload {
	var many []MemoryPayload
	if p.unmarshalWithRepair(content, &many) {
		return many
	}
	var one MemoryPayload
	if p.unmarshalWithRepair(content, &one) && one.NPCID != "" {
		return []MemoryPayload{one}
	}
	p.logger.Warn("unparseable memory_updates block dropped")
	return nil
}

func (p *Parser) layerSceneContextTag(gs *state.GameState, text string) string {
	return sceneContextTagRe.ReplaceAllStringFunc(text, func(match string) string {
		content := strings.TrimSpace(sceneContextTagRe.FindStringSubmatch(match)[1])
		p.setSceneContext(gs, content)
		return ""
	})
}

// setSceneContext accepts plain text or a {"scene_context": ...} object.
func (p *Parser) setSceneContext(gs *state.GameState, content string) {
	if content == "" {
		return
	}
	if strings.HasPrefix(content, "{") {
		var obj struct {
			SceneContext string `json:"scene_context"`
			Location     string `json:"location"`
		}
		if p.unmarshalWithRepair(content, &obj) {
			if obj.SceneContext != "" {
				gs.SceneContext = obj.SceneContext
			}
			if obj.Location != "" {
				gs.SetLocation(obj.Location)
			}
			return
		}
	}
	gs.SceneContext = content
}

func stripRemainingTags(text string) string {
	text = pairedTagRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := pairedTagRe.FindStringSubmatch(match)
		if sub[1] == sub[2] {
			return ""
		}
		return match
	})
	return selfClosingTagRe.ReplaceAllString(text, "")
}

var bracketLabelRe = regexp.MustCompile(`^\s*\[(scene_context|npc_rename|new_npcs|memory_updates)\]\s*(.*)$`)

// layerBracketLabels handles the secondary delimiter convention the
// narrator sometimes substitutes for angle tags: a [label] line with
// its value inline or on the following lines, running until the next
// recognized label.
func (p *Parser) layerBracketLabels(gs *state.GameState, text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	i := 0
	for i < len(lines) {
		m := bracketLabelRe.FindStringSubmatch(lines[i])
		if m == nil {
			kept = append(kept, lines[i])
			i++
			continue
		}
		label := m[1]
		var value []string
		if strings.TrimSpace(m[2]) != "" {
			value = append(value, m[2])
		}
		i++
		for i < len(lines) && !bracketLabelRe.MatchString(lines[i]) {
			value = append(value, lines[i])
			i++
		}
		p.dispatchLabeled(gs, label, strings.TrimSpace(strings.Join(value, "\n")))
	}
	return strings.Join(kept, "\n")
}

func (p *Parser) dispatchLabeled(gs *state.GameState, label, content string) {
	if content == "" {
		return
	}
	switch label {
	case "scene_context":
		p.setSceneContext(gs, content)
	case "npc_rename":
		for _, rn := range p.decodeRenames(content) {
			p.applyRename(gs, rn)
		}
	case "new_npcs":
		for _, np := range p.decodeNPCList(content) {
			p.applyNPCPayload(gs, np, true)
		}
		gs.NPCs.RetireDistant(gs.SceneCount)
	case "memory_updates":
		for _, upd := range p.decodeMemories(content) {
			p.applyMemoryUpdate(gs, upd)
		}
	}
}

var codeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n?(.*?)```")

// layerCodeFences classifies fenced blocks by sniffing their keys
// before stripping the fence.
func (p *Parser) layerCodeFences(gs *state.GameState, text string) string {
	return codeFenceRe.ReplaceAllStringFunc(text, func(match string) string {
		content := strings.TrimSpace(codeFenceRe.FindStringSubmatch(match)[1])
		if content == "" {
			return ""
		}
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			p.classifyJSONFragment(gs, content)
			return ""
		}
		// Plain text in a fence is scene context the narrator decided
		// to decorate.
		p.setSceneContext(gs, content)
		return ""
	})
}

// classifyJSONFragment dispatches an anonymous JSON fragment by its
// telltale keys.
func (p *Parser) classifyJSONFragment(gs *state.GameState, content string) {
	switch {
	case strings.Contains(content, `"npcs"`) || strings.Contains(content, `"clocks"`):
		var gd GameDataPayload
		if p.unmarshalWithRepair(content, &gd) {
			p.applyGameData(gs, &gd)
			return
		}
	case strings.Contains(content, `"npc_id"`) && strings.Contains(content, `"new_name"`):
		for _, rn := range p.decodeRenames(content) {
			p.applyRename(gs, rn)
		}
		return
	case strings.Contains(content, `"npc_id"`):
		for _, upd := range p.decodeMemories(content) {
			p.applyMemoryUpdate(gs, upd)
		}
		return
	case strings.Contains(content, `"name"`) && strings.Contains(content, `"disposition"`):
		for _, np := range p.decodeNPCList(content) {
			p.applyNPCPayload(gs, np, true)
		}
		gs.NPCs.RetireDistant(gs.SceneCount)
		return
	case strings.Contains(content, `"scene_context"`) || strings.Contains(content, `"location"`):
		p.setSceneContext(gs, content)
		return
	}
	p.logger.Debug("unclassifiable JSON fragment dropped")
}

// layerBareArrays catches memory-update arrays emitted without any
// delimiter at all, removing exactly the decoded span.
func (p *Parser) layerBareArrays(gs *state.GameState, text string) string {
	for {
		keyIdx := strings.Index(text, `"npc_id"`)
		if keyIdx < 0 {
			return text
		}
		start := strings.LastIndex(text[:keyIdx], "[")
		if start < 0 {
			// Not array-wrapped; the bare-object layer handles it.
			return text
		}
		raw, end, ok := decodeJSONAt(text, start)
		if !ok {
			return text
		}
		var updates []MemoryPayload
		if err := json.Unmarshal(raw, &updates); err != nil {
			return text
		}
		for _, upd := range updates {
			p.applyMemoryUpdate(gs, upd)
		}
		text = text[:start] + text[end:]
	}
}

// layerBareObjects catches single untagged objects carrying scene
// context, a location, or a memory update.
func (p *Parser) layerBareObjects(gs *state.GameState, text string) string {
	for _, key := range []string{`"npc_id"`, `"scene_context"`, `"location"`} {
		for {
			keyIdx := strings.Index(text, key)
			if keyIdx < 0 {
				break
			}
			start := strings.LastIndex(text[:keyIdx], "{")
			if start < 0 {
				break
			}
			raw, end, ok := decodeJSONAt(text, start)
			if !ok {
				break
			}
			p.classifyJSONFragment(gs, string(raw))
			text = text[:start] + text[end:]
		}
	}
	return text
}

var markdownLabelRe = regexp.MustCompile(`(?i)^\s*[*_]{0,3}\s*(scene.?context|szenenkontext|npc.?rename|new.?npcs|memory.?updates)\s*[*_:]{0,4}\s*(.*)$`)

// layerMarkdownLabels handles **Scene Context:** style labels, tolerant
// of emphasis markers and the occasional non-English label.
func (p *Parser) layerMarkdownLabels(gs *state.GameState, text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	i := 0
	for i < len(lines) {
		m := markdownLabelRe.FindStringSubmatch(lines[i])
		if m == nil {
			kept = append(kept, lines[i])
			i++
			continue
		}
		label := normalizeLabel(m[1])
		var value []string
		if strings.TrimSpace(m[2]) != "" {
			value = append(value, m[2])
		}
		i++
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !markdownLabelRe.MatchString(lines[i]) {
			value = append(value, lines[i])
			i++
		}
		p.dispatchLabeled(gs, label, strings.TrimSpace(strings.Join(value, "\n")))
	}
	return strings.Join(kept, "\n")
}

func normalizeLabel(raw string) string {
	l := strings.ToLower(raw)
	l = strings.NewReplacer(" ", "_", "-", "_").Replace(l)
	if l == "szenenkontext" {
		return "scene_context"
	}
	return l
}

var (
	labelPrefixRe  = regexp.MustCompile(`(?i)^\s*(\[[a-z_ ]+\]|[*_]{0,3}(scene.?context|npc.?rename|new.?npcs|memory.?updates))`)
	technicalishRe = regexp.MustCompile(`"(npc_id|event|emotional_weight|scene_context|new_name|npcs)"\s*:`)
)

// layerTrailingSweep walks backward from the end, popping lines that
// are pure JSON, label-prefixed, or json-fragment-bearing, stopping at
// the first line of ordinary prose.
func layerTrailingSweep(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n "), "\n")
	end := len(lines)
	for end > 0 {
		line := strings.TrimSpace(lines[end-1])
		switch {
		case line == "":
			end--
		case (strings.HasPrefix(line, "{") || strings.HasPrefix(line, "[")) &&
			(strings.HasSuffix(line, "}") || strings.HasSuffix(line, "]") || technicalishRe.MatchString(line)):
			end--
		case labelPrefixRe.MatchString(line):
			end--
		case technicalishRe.MatchString(line):
			end--
		default:
			return strings.Join(lines[:end], "\n")
		}
	}
	return strings.Join(lines[:end], "\n")
}

var pipeBlockRe = regexp.MustCompile(`(?m)^\s*\*\*\[[^\n\]]*\|[^\n\]]*\]\*\*\s*$`)

func layerPipeBlocks(text string) string {
	return pipeBlockRe.ReplaceAllString(text, "")
}

var memoryFragmentRe = regexp.MustCompile(`\{[^{}]*"npc_id"[^{}]*\}`)

// layerNuclear is the last resort: if JSON markers still remain, emit
// prose only up to the first clearly technical line, salvaging any
// parseable memory fragments from the discard.
func (p *Parser) layerNuclear(gs *state.GameState, text string) string {
	if !technicalishRe.MatchString(text) && !strings.Contains(text, `{"`) {
		return text
	}

	for _, frag := range memoryFragmentRe.FindAllString(text, -1) {
		var upd MemoryPayload
		if p.unmarshalWithRepair(frag, &upd) && upd.NPCID != "" {
			p.applyMemoryUpdate(gs, upd)
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if technicalishRe.MatchString(trimmed) || strings.HasPrefix(trimmed, `{"`) || strings.HasPrefix(trimmed, `[{`) {
			p.logger.Warn("response cut at first technical line", "line", i)
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}

var (
	horizontalRuleRe = regexp.MustCompile(`(?m)^\s*(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
	orphanEmphasisRe = regexp.MustCompile(`(?m)^\s*[*_]{1,3}\s*$`)
	emptyFenceRe     = regexp.MustCompile("(?m)^\\s*```\\s*$")
	bracketLineRe    = regexp.MustCompile(`(?m)^\s*\[[a-z_ ]+\]\s*$`)
	manyNewlinesRe   = regexp.MustCompile(`\n{3,}`)
)

func cosmeticCleanup(text string) string {
	text = horizontalRuleRe.ReplaceAllString(text, "")
	text = bracketLineRe.ReplaceAllString(text, "")
	text = orphanEmphasisRe.ReplaceAllString(text, "")
	text = emptyFenceRe.ReplaceAllString(text, "")
	text = strings.TrimRight(text, " \n")
	text = strings.TrimSuffix(text, "**")
	text = manyNewlinesRe.ReplaceAllString(text, "\n\n")
	return text
}

func renormalizeDispositions(gs *state.GameState) {
	for _, n := range gs.NPCs {
		n.Disposition = npc.NormalizeDisposition(n.Disposition)
	}
}

// markIntroduced flags NPCs whose names literally appear in the clean
// prose. Introduction gates client-side visibility, not mechanics.
func markIntroduced(gs *state.GameState, prose string) {
	lower := strings.ToLower(prose)
	for _, n := range gs.NPCs {
		if n.Introduced {
			continue
		}
		name := strings.ToLower(n.Name)
		if name != "" && strings.Contains(lower, name) {
			n.Introduced = true
		}
	}
}

// fallbackProse finds the first prose-looking paragraph of the raw
// response before any stripping occurred.
func fallbackProse(raw string) string {
	for _, para := range strings.Split(raw, "\n\n") {
		t := strings.TrimSpace(para)
		if len(t) < 20 {
			continue
		}
		switch t[0] {
		case '{', '[', '<', '`', '*', '#':
			continue
		}
		return t
	}
	return PlaceholderProse
}

// unmarshalWithRepair parses JSON, retrying once through RepairJSON.
func (p *Parser) unmarshalWithRepair(content string, v any) bool {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return true
	}
	if err := json.Unmarshal([]byte(RepairJSON(content)), v); err == nil {
		p.logger.Debug("metadata block recovered by JSON repair")
		return true
	}
	return false
}

// decodeJSONAt incrementally decodes one JSON value starting at start,
// returning the raw value and the exclusive end offset of the consumed
// span.
func decodeJSONAt(text string, start int) (json.RawMessage, int, bool) {
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, false
	}
	return raw, start + int(dec.InputOffset()), true
}
