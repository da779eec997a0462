// Package services – WizardService
//
// This file implements the market-research wizard: an explicit finite state
// machine over the fixed catalogs (sector → subsector → region → city →
// budget), and the credit-gated research run that relays the assembled
// request to the reasoning backend inside a dedicated market-research chat.
//
// The credit gate is a single conditional debit at the storage layer; a
// backend failure after the debit refunds the credit before surfacing the
// error.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xandme/xandme-backend/internal/assistant"
	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
)

// WizardStep identifies one step of the research wizard.
type WizardStep string

// Wizard steps in order. Sectors without subsectors skip StepSub.
const (
	StepMain   WizardStep = "main"
	StepSub    WizardStep = "sub"
	StepRegion WizardStep = "region"
	StepCity   WizardStep = "city"
	StepBudget WizardStep = "budget"
	StepDone   WizardStep = "done"
)

// Selection is the completed set of wizard choices.
type Selection struct {
	Sector       string `json:"sector"`
	Subsector    string `json:"subsector,omitempty"`
	Region       string `json:"region"`
	City         string `json:"city"`
	Budget       string `json:"budget"`
	DocumentPath string `json:"document_path,omitempty"`
}

// Wizard is the step machine clients walk through. The zero value starts at
// the sector step.
type Wizard struct {
	sel  Selection
	step WizardStep
}

// NewWizard returns a wizard positioned at the sector step.
func NewWizard() *Wizard {
	return &Wizard{step: StepMain}
}

// Step returns the current step.
func (w *Wizard) Step() WizardStep {
	if w.step == "" {
		return StepMain
	}
	return w.step
}

// Selection returns a copy of the choices made so far.
func (w *Wizard) Selection() Selection { return w.sel }

// Select applies the choice for the current step and advances. It returns
// ErrInvalidSelection when the value is not part of the catalogs.
func (w *Wizard) Select(value string) error {
	value = strings.TrimSpace(value)
	switch w.Step() {
	case StepMain:
		sec := findSector(value)
		if sec == nil {
			return ErrInvalidSelection
		}
		w.sel.Sector = value
		if len(sec.Subsectors) == 0 {
			w.step = StepRegion
		} else {
			w.step = StepSub
		}
	case StepSub:
		sec := findSector(w.sel.Sector)
		if sec == nil || !validSubsector(sec, value) {
			return ErrInvalidSelection
		}
		w.sel.Subsector = value
		w.step = StepRegion
	case StepRegion:
		if _, ok := Regions[value]; !ok {
			return ErrInvalidSelection
		}
		w.sel.Region = value
		w.step = StepCity
	case StepCity:
		if !validCity(w.sel.Region, value) {
			return ErrInvalidSelection
		}
		w.sel.City = value
		w.step = StepBudget
	case StepBudget:
		if !validBudget(value) {
			return ErrInvalidSelection
		}
		w.sel.Budget = value
		w.step = StepDone
	default:
		return ErrInvalidSelection
	}
	return nil
}

// Back returns exactly one step and clears that step's selection. Backing out
// of the region step of a subsector-less sector returns to the sector step.
func (w *Wizard) Back() {
	switch w.Step() {
	case StepSub:
		w.sel.Sector = ""
		w.step = StepMain
	case StepRegion:
		if sec := findSector(w.sel.Sector); sec != nil && len(sec.Subsectors) > 0 {
			w.sel.Subsector = ""
			w.step = StepSub
		} else {
			w.sel.Sector = ""
			w.step = StepMain
		}
	case StepCity:
		w.sel.Region = ""
		w.step = StepRegion
	case StepBudget:
		w.sel.City = ""
		w.step = StepCity
	case StepDone:
		w.sel.Budget = ""
		w.step = StepBudget
	}
}

// ValidateSelection checks a completed selection against the catalogs.
func ValidateSelection(sel Selection) error {
	sec := findSector(strings.TrimSpace(sel.Sector))
	if sec == nil {
		return ErrInvalidSelection
	}
	if len(sec.Subsectors) == 0 {
		if sel.Subsector != "" {
			return ErrInvalidSelection
		}
	} else if !validSubsector(sec, sel.Subsector) {
		return ErrInvalidSelection
	}
	if _, ok := Regions[sel.Region]; !ok {
		return ErrInvalidSelection
	}
	if !validCity(sel.Region, sel.City) {
		return ErrInvalidSelection
	}
	if !validBudget(sel.Budget) {
		return ErrInvalidSelection
	}
	return nil
}

// ResearchQuery renders the French research sentence sent to the backend.
func ResearchQuery(sel Selection) string {
	segment := sel.Sector
	if sel.Subsector != "" {
		segment = fmt.Sprintf("%s (%s)", sel.Sector, sel.Subsector)
	}
	return fmt.Sprintf(
		"Réalise une étude de marché pour un projet dans le secteur %s, à %s (%s), avec un budget de %s.",
		segment, sel.City, sel.Region, sel.Budget,
	)
}

// WizardService runs credit-gated research requests.
type WizardService struct {
	DB        *gorm.DB
	Assistant AssistantClient
	Chats     ChatRepo
	Log       zerolog.Logger
}

// NewWizardService constructs a WizardService.
func NewWizardService(db *gorm.DB, ac AssistantClient, chats ChatRepo, log zerolog.Logger) *WizardService {
	return &WizardService{DB: db, Assistant: ac, Chats: chats, Log: log}
}

// Run validates the selection, debits one credit, relays the research
// request, and materializes the exchange as a market-research chat.
//
// Order matters: validation happens before the debit so an invalid selection
// never costs a credit, and a failed assistant call refunds the debit before
// the error is surfaced.
func (s *WizardService) Run(ctx context.Context, userID string, sel Selection) (*domain.Chat, *domain.Message, error) {
	tr := otel.Tracer("services/WizardService")
	ctx, span := tr.Start(ctx, "Run",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("research.sector", sel.Sector),
			attribute.String("research.city", sel.City),
		),
	)
	defer span.End()

	if err := ValidateSelection(sel); err != nil {
		return nil, nil, err
	}

	ok, err := repo.DebitCredit(ctx, s.DB, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInsufficientCredits
	}

	query := ResearchQuery(sel)
	if sel.DocumentPath != "" {
		query += fmt.Sprintf(" Document joint : %s.", sel.DocumentPath)
	}

	reply, err := s.Assistant.Chat(ctx, assistant.ChatRequest{
		FocusMode: domain.FocusModeMarketResearch,
		Query:     query,
	})
	if err != nil {
		if rerr := repo.AddCredit(ctx, s.DB, userID); rerr != nil {
			s.Log.Error().Err(rerr).Str("user_id", userID).Msg("credit refund failed after assistant error")
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrAssistantFailed, err)
	}

	title := fmt.Sprintf("Étude de marché : %s à %s", sel.Sector, sel.City)
	var (
		chat *domain.Chat
		msg  *domain.Message
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.Chats.CreateChat(ctx, tx, userID, title, domain.FocusModeMarketResearch)
		if err != nil {
			return err
		}
		chat = c
		if _, err := repo.CreateMessage(tx, c.ID, roleUser, query, nil, nil, nil); err != nil {
			return err
		}
		m, err := repo.CreateMessage(tx, c.ID, roleAssistant, reply.Message, nil, nil, reply.Sources)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return chat, msg, nil
}
