// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the lifecycle of chat messages and assistant replies. It validates
// inputs, checks chat ownership, relays the conversation to the external
// reasoning backend, and persists the resulting assistant message with its
// follow-up suggestions, suggested experts, and source references.
//
// The user message is persisted before the assistant call: when the backend
// fails, the prompt survives and the client can resubmit without retyping.
//
// Optional enhancement: it also auto-generates a chat title from the first
// user prompt when the chat still has a default/empty title.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include chat/user identifiers and pagination parameters where applicable.

package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/assistant"
	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
	"github.com/xandme/xandme-backend/internal/search"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	// historyLimit caps how much conversation context is sent upstream.
	historyLimit = 20

	// maxSuggestedExperts caps the expert cards attached to one reply.
	maxSuggestedExperts = 3
)

// AssistantClient is the outbound contract to the reasoning backend.
// Implemented by assistant.Client; faked in tests.
type AssistantClient interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
	Suggestions(ctx context.Context, history []assistant.HistoryItem) ([]string, error)
	ExpertKeywords(ctx context.Context, query string) ([]string, error)
}

// MessageService coordinates message persistence and assistant relays.
type MessageService struct {
	DB        *gorm.DB
	Assistant AssistantClient

	// Optional guards
	MaxPromptRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// Answer validates the prompt, verifies chat ownership, persists the user
// message, relays to the reasoning backend, and persists the assistant reply.
//
// When the chat has no previously suggested experts, the suggestions call and
// the expert-keywords call run in parallel with each other; otherwise only
// the suggestions call is made. Suggested experts come from ranking the local
// directory against the keywords the backend returns.
func (s *MessageService) Answer(ctx context.Context, userID, chatID, prompt string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Answer",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	// Normalize & validate prompt
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	// Ensure the chat exists and belongs to the user
	chat, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		return nil, ErrChatNotFound
	}

	prior, err := repo.ListMessages(s.DB.WithContext(ctx), chatID, historyLimit)
	if err != nil {
		return nil, err
	}

	// Persist the user message before calling out, so a backend failure
	// never loses the prompt.
	if _, err := repo.CreateMessage(s.DB.WithContext(ctx), chatID, roleUser, prompt, nil, nil, nil); err != nil {
		return nil, err
	}

	history := toHistory(prior)
	fullHistory := append(append([]assistant.HistoryItem{}, history...),
		assistant.HistoryItem{Role: roleUser, Content: prompt})

	var (
		reply       *assistant.ChatResponse
		suggestions []string
		experts     []domain.ExpertSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.Assistant.Chat(gctx, assistant.ChatRequest{
			FocusMode: chat.FocusMode,
			Query:     prompt,
			History:   history,
		})
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	g.Go(func() error {
		sg, err := s.Assistant.Suggestions(gctx, fullHistory)
		if err != nil {
			return err
		}
		suggestions = sg
		return nil
	})
	if !hasSuggestedExperts(prior) {
		g.Go(func() error {
			keywords, err := s.Assistant.ExpertKeywords(gctx, prompt)
			if err != nil {
				return err
			}
			found, err := s.matchExperts(gctx, keywords)
			if err != nil {
				return err
			}
			experts = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistantFailed, err)
	}

	// Persist the assistant message (and maybe update the title) in one
	// transaction.
	var assistantMsg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.CreateMessage(tx, chatID, roleAssistant, reply.Message, suggestions, experts, reply.Sources)
		if err != nil {
			return err
		}
		assistantMsg = m

		// Auto-title if placeholder
		if s.shouldAutoTitle(chat.Title) {
			gen := s.generateTitleFromPrompt(prompt)
			if gen != "" {
				gen = s.clipTitle(gen)
				if uerr := tx.Model(&domain.Chat{}).Where("id = ?", chatID).Update("title", gen).Error; uerr == nil {
					chat.Title = gen
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assistantMsg, nil
}

// ListPage returns paginated messages for a chat.
func (s *MessageService) ListPage(ctx context.Context, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	// Ensure chat exists
	var chatCount int64
	if err := s.DB.WithContext(ctx).Model(&domain.Chat{}).Where("id = ?", chatID).Count(&chatCount).Error; err != nil {
		return nil, 0, err
	}
	if chatCount == 0 {
		return nil, 0, ErrChatNotFound
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), chatID, offset, pageSize)
	return items, total, err
}

// matchExperts ranks the directory against the backend's expertise keywords
// and returns up to maxSuggestedExperts summaries.
func (s *MessageService) matchExperts(ctx context.Context, keywords []string) ([]domain.ExpertSummary, error) {
	terms := search.Terms(strings.Join(keywords, " "))
	if len(terms) == 0 {
		return nil, nil
	}
	all, err := repo.ListExperts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Expert, 0, len(all))
	for _, e := range all {
		if search.MatchesTerms(e, terms) {
			matched = append(matched, e)
		}
	}
	ranked := search.Rank(matched, terms)
	if len(ranked) > maxSuggestedExperts {
		ranked = ranked[:maxSuggestedExperts]
	}
	out := make([]domain.ExpertSummary, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, domain.ExpertSummary{
			IDExpert: e.IDExpert,
			Prenom:   e.Prenom,
			Nom:      e.Nom,
			Activite: e.Activite,
			Ville:    e.Ville,
		})
	}
	return out, nil
}

// toHistory converts stored messages into the upstream history shape.
func toHistory(msgs []domain.Message) []assistant.HistoryItem {
	out := make([]assistant.HistoryItem, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, assistant.HistoryItem{Role: m.Role, Content: m.Content})
	}
	return out
}

// hasSuggestedExperts reports whether any prior message already carries
// expert cards; we only suggest once per conversation.
func hasSuggestedExperts(msgs []domain.Message) bool {
	for _, m := range msgs {
		if len(m.SuggestedExperts) > 0 {
			return true
		}
	}
	return false
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *MessageService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(domain.ChatTitleDefault)
}

// generateTitleFromPrompt derives a concise title from the prompt.
func (s *MessageService) generateTitleFromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ""
	}
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.TitleLocaleOrDefault())
	out := make([]string, 0, 8)

	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, " ")
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *MessageService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// TitleLocaleOrDefault returns the configured locale for casing or French if unset.
func (s *MessageService) TitleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.French
	}
	return s.TitleLocale
}

// --- Title generation helpers ---

// Extract Unicode letters with optional trailing numbers (e.g., "b2b").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Stop-words dropped from generated titles; the product speaks French, but
// prompts mix in English, so both sets are covered.
var titleStopWords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {}, "du": {},
	"et": {}, "ou": {}, "pour": {}, "dans": {}, "sur": {}, "avec": {}, "par": {},
	"je": {}, "tu": {}, "il": {}, "elle": {}, "nous": {}, "vous": {}, "mon": {}, "ma": {}, "mes": {},
	"est": {}, "sont": {}, "que": {}, "qui": {}, "quoi": {}, "comment": {}, "quel": {}, "quelle": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
