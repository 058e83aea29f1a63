package chef

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"dinner-aide/internal/llm"
	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"
	"dinner-aide/internal/shared"
)

//go:embed structure_prompt.md
var structurePrompt string

//go:embed menu_prompt.md
var menuPrompt string

var (
	structureTmpl = template.Must(template.New("Structure").Parse(structurePrompt))
	menuTmpl      = template.Must(template.New("Menu").Parse(menuPrompt))
)

const (
	agentStructure = "Structurer"
	agentMenu      = "MenuChef"
)

// MetaRecorder receives usage metadata for every generative call.
type MetaRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Options configures a Chef.
type Options struct {
	DietaryPreferences string
	ShoppingDelimiter  string
	Recorder           MetaRecorder
	Logger             *slog.Logger
}

// Chef adapts a text generator into the two generative operations the
// household flows need: structuring free-text logs and filling empty days.
type Chef struct {
	structureGen llm.TextGenerator
	menuGen      llm.TextGenerator
	opts         Options
	logger       *slog.Logger
}

// New creates a Chef. structureGen and menuGen may be the same generator.
func New(structureGen, menuGen llm.TextGenerator, opts Options) *Chef {
	if opts.ShoppingDelimiter == "" {
		opts.ShoppingDelimiter = ","
	}
	return &Chef{
		structureGen: structureGen,
		menuGen:      menuGen,
		opts:         opts,
		logger:       logging.Component(opts.Logger, "chef"),
	}
}

// Structure splits a free-text meal log into dishes. An answer that cannot be
// decoded yields no dishes rather than an error.
func (c *Chef) Structure(ctx context.Context, freeText string, date time.Time) ([]menu.Dish, error) {
	prompt, err := render(structureTmpl, struct {
		Date string
		Text string
	}{Date: menu.FormatDate(date), Text: freeText})
	if err != nil {
		return nil, err
	}

	content, err := c.generate(ctx, c.structureGen, agentStructure, prompt)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(content)
	if err != nil {
		c.logger.Warn("could not decode structuring answer", "date", menu.FormatDate(date), "error", err)
		return []menu.Dish{}, nil
	}

	dishes := make([]menu.Dish, 0, len(items))
	for _, it := range items {
		name := it.dishName()
		if name == "" {
			continue
		}
		dishes = append(dishes, menu.Dish{Name: name, Category: menu.NormalizeCategory(it.Category)})
	}
	return dishes, nil
}

// GenerateMenu proposes dishes for the requested dates. Candidates without a
// parseable date or a name are dropped; categories are normalized.
func (c *Chef) GenerateMenu(ctx context.Context, req menu.PlanRequest) ([]menu.ProposedEntry, error) {
	if len(req.Dates) == 0 {
		return nil, nil
	}

	prompt, err := buildMenuPrompt(req, c.opts.DietaryPreferences, c.opts.ShoppingDelimiter)
	if err != nil {
		return nil, err
	}

	content, err := c.generate(ctx, c.menuGen, agentMenu, prompt)
	if err != nil {
		return nil, err
	}

	items, err := decodeItems(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	entries := make([]menu.ProposedEntry, 0, len(items))
	for _, it := range items {
		name := it.dishName()
		if name == "" {
			continue
		}
		date, err := menu.ParseDate(it.Date)
		if err != nil {
			c.logger.Warn("dropping candidate with invalid date", "dish", name, "date", it.Date)
			continue
		}
		entries = append(entries, menu.ProposedEntry{
			DishName:     name,
			Date:         date,
			Category:     menu.NormalizeCategory(it.Category),
			Status:       menu.StatusProposed,
			ShoppingList: strings.TrimSpace(string(it.ShoppingList)),
		})
	}
	return entries, nil
}

// Ping sends a minimal prompt to check the generator is reachable.
func (c *Chef) Ping(ctx context.Context) error {
	_, err := c.generate(ctx, c.menuGen, "Ping", `Reply with the JSON object {"ok": true}.`)
	return err
}

func (c *Chef) generate(ctx context.Context, gen llm.TextGenerator, agent, prompt string) (string, error) {
	start := time.Now()
	resp, err := gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	meta := shared.AgentMeta{AgentName: agent, Usage: resp.Usage, Latency: time.Since(start)}
	c.logger.Debug("generation complete",
		"agent", agent,
		"model", meta.Usage.Model,
		"prompt_tokens", meta.Usage.PromptTokens,
		"completion_tokens", meta.Usage.CompletionTokens,
		"latency", meta.Latency,
	)
	if c.opts.Recorder != nil {
		if err := c.opts.Recorder.RecordMeta(meta); err != nil {
			c.logger.Warn("failed to record metrics", "agent", agent, "error", err)
		}
	}
	return resp.Content, nil
}

type menuPromptData struct {
	Dates        []string
	Preferences  string
	Existing     []string
	History      []string
	HistoryWeeks int
	Delimiter    string
}

func buildMenuPrompt(req menu.PlanRequest, preferences, delimiter string) (string, error) {
	data := menuPromptData{
		Preferences:  strings.TrimSpace(preferences),
		HistoryWeeks: req.HistoryWeeks,
		Delimiter:    delimiter,
	}
	if data.Preferences == "" {
		data.Preferences = "None"
	}
	for _, d := range req.Dates {
		data.Dates = append(data.Dates, d.Format("2006-01-02 (Mon)"))
	}
	for _, e := range req.Existing {
		data.Existing = append(data.Existing,
			fmt.Sprintf("%s: %s (%s) [%s]", menu.FormatDate(e.Date), e.DishName, e.Category, e.Status))
	}
	for _, h := range req.History {
		data.History = append(data.History,
			fmt.Sprintf("%s: %s (%s)", menu.FormatDate(h.Date), h.DishName, h.Category))
	}
	return render(menuTmpl, data)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
