// Package domain defines the persistence models for the expert directory,
// contact requests, expert applications, user profiles, chats, and uploaded
// documents. These types are mapped with GORM and form the core data layer
// of the X&ME backend.
package domain

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Expert is a professional service provider listed in the public directory.
//
// Experts are created by an administrative ingestion process; this API only
// reads them (directory, search, profile) and updates their service catalog
// through administrative endpoints. The numeric ID is the surrogate key used
// by contact requests; IDExpert is the opaque, stable identifier embedded in
// public profile URLs.
type Expert struct {
	ID           int64     `json:"id"            gorm:"primaryKey;autoIncrement"`
	IDExpert     string    `json:"id_expert"     gorm:"type:varchar(64);not null;uniqueIndex"`
	Prenom       string    `json:"prenom"        gorm:"type:varchar(128);not null"`
	Nom          string    `json:"nom"           gorm:"type:varchar(128);not null"`
	Expertises   string    `json:"expertises"    gorm:"type:text"` // free text, ';' or ',' separated tags
	Activite     string    `json:"activite"      gorm:"type:varchar(255);index"`
	Ville        string    `json:"ville"         gorm:"type:varchar(128);index"`
	Pays         string    `json:"pays"          gorm:"type:varchar(128)"`
	Adresse      string    `json:"adresse"       gorm:"type:varchar(255)"`
	Telephone    string    `json:"telephone"     gorm:"type:varchar(32)"`
	Email        string    `json:"email"         gorm:"type:varchar(255)"`
	TarifHoraire float64   `json:"tarif_horaire"`
	Biographie   string    `json:"biographie"    gorm:"type:text"`
	ImageURL     string    `json:"image_url"     gorm:"type:varchar(512)"`
	LogoURL      string    `json:"logo_url"      gorm:"type:varchar(512)"`
	SiteWeb      string    `json:"site_web"      gorm:"type:varchar(512)"`
	LinkedinURL  string    `json:"linkedin_url"  gorm:"type:varchar(512)"`
	Services     string    `json:"-"             gorm:"type:text"` // raw JSON, one of three legacy shapes
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Expert.
func (Expert) TableName() string { return "experts" }

// Slug returns the canonical public URL fragment for the expert: the
// lowercased first and last name joined by dashes, suffixed with IDExpert.
func (e Expert) Slug() string {
	name := strings.ToLower(strings.TrimSpace(e.Prenom + " " + e.Nom))
	name = strings.Join(strings.Fields(name), "-")
	if name == "" {
		return e.IDExpert
	}
	return fmt.Sprintf("%s-%s", name, e.IDExpert)
}

// ExpertiseTags splits the free-text Expertises field into individual tags.
// Both ';' and ',' act as separators; empty fragments are dropped.
func (e Expert) ExpertiseTags() []string {
	return SplitTags(e.Expertises)
}

// SplitTags splits a legacy delimited tag list on ';' and ',', trimming
// whitespace and dropping empties.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ExpertApplication is a candidate's self-submitted onboarding record.
// Rows are immutable after insertion; review happens out of band.
type ExpertApplication struct {
	ID         int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Prenom     string    `json:"prenom"     gorm:"type:varchar(128);not null"`
	Nom        string    `json:"nom"        gorm:"type:varchar(128);not null"`
	Email      string    `json:"email"      gorm:"type:varchar(255);not null"`
	Telephone  string    `json:"telephone"  gorm:"type:varchar(32)"` // country-code prefix + raw digits
	Expertises string    `json:"expertises" gorm:"type:text;not null"`
	Message    string    `json:"message"    gorm:"type:text"`
	Ville      string    `json:"ville"      gorm:"type:varchar(128)"`
	Pays       string    `json:"pays"       gorm:"type:varchar(128)"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for ExpertApplication.
func (ExpertApplication) TableName() string { return "expert_applications" }

// Contact request types accepted by the contact workflow.
const (
	RequestTypeUrgence = "urgence"
	RequestTypeConseil = "conseil"
	RequestTypeContact = "contact"
)

// ContactRequestStatusPending is the initial status of every contact request.
// Later transitions (handled/closed) happen outside this codebase.
const ContactRequestStatusPending = "pending"

// ContactRequest links an authenticated user to a target expert.
//
// Invariants (enforced in the service layer before insert):
//   - Reason is non-empty.
//   - PhoneNumber is present whenever WantCallback is true.
//   - ExpertID resolves to an existing Expert row.
type ContactRequest struct {
	ID           int64          `json:"id"           gorm:"primaryKey;autoIncrement"`
	ExpertID     int64          `json:"expert_id"    gorm:"not null;index"`
	UserID       string         `json:"user_id"      gorm:"type:varchar(64);not null;index"`
	Reason       string         `json:"reason"       gorm:"type:text;not null"`
	RequestType  string         `json:"request_type" gorm:"type:varchar(16);not null;check:request_type IN ('urgence','conseil','contact')"`
	WantCallback bool           `json:"want_callback"`
	PhoneNumber  string         `json:"phone_number" gorm:"type:varchar(32)"`
	Status       string         `json:"status"       gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for ContactRequest.
func (ContactRequest) TableName() string { return "contact_requests" }

// Profile is the per-user account row holding contact details and the credit
// balance consumed by market-research runs. Rows are created lazily (upsert)
// on the first webhook event or the first settings/contact interaction.
//
// Credits is only mutated through conditional single-statement updates
// (repo.DebitCredit / repo.AddCredit), so the balance can never be observed
// below zero even under concurrent debit and credit.
type Profile struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex"`
	Email     string    `json:"email"      gorm:"type:varchar(255)"`
	Phone     string    `json:"phone"      gorm:"type:varchar(32)"`
	Credits   int       `json:"credits"    gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Chat focus modes.
const (
	FocusModeDefault        = "default"
	FocusModeMarketResearch = "marketResearch"
)

// ChatTitleDefault is the title assigned to chats created without one.
const ChatTitleDefault = "Nouvelle conversation"

// Chat represents a conversation owned by a user. Each chat has a title, a
// focus mode driving assistant behavior, and one or more messages.
type Chat struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_chats"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'Nouvelle conversation'"`
	FocusMode string         `json:"focus_mode" gorm:"type:varchar(32);not null;default:'default'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// ExpertSummary is the lightweight expert shape embedded in assistant
// messages ("suggested experts"). It carries just enough to render a card
// and link to the full profile.
type ExpertSummary struct {
	IDExpert string `json:"id_expert"`
	Prenom   string `json:"prenom"`
	Nom      string `json:"nom"`
	Activite string `json:"activite,omitempty"`
	Ville    string `json:"ville,omitempty"`
}

// Message is a single utterance within a chat. Assistant messages may carry
// follow-up suggestions, suggested experts, and source references; these are
// persisted as JSON columns (see json.go).
type Message struct {
	ID               string            `json:"id"                          gorm:"type:char(36);primaryKey"`
	ChatID           string            `json:"chat_id"                     gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role             string            `json:"role"                        gorm:"type:varchar(16);not null;check:role IN ('user','assistant','system')"`
	Content          string            `json:"content"                     gorm:"type:text;not null"`
	Suggestions      StringList        `json:"suggestions,omitempty"       gorm:"type:text"`
	SuggestedExperts ExpertSummaryList `json:"suggested_experts,omitempty" gorm:"type:text"`
	Sources          StringList        `json:"sources,omitempty"           gorm:"type:text"`
	CreatedAt        time.Time         `json:"created_at"                  gorm:"index:idx_chat_msgs,priority:2"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `json:"-"                           gorm:"index"`

	// Chat is the parent conversation. Messages are cascade-deleted if their
	// chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Document is the metadata row written for every accepted file upload.
// The binary itself lives in object storage at StorageURL.
type Document struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);not null;index"`
	FileName    string    `json:"file_name"    gorm:"type:varchar(255);not null"`
	ContentType string    `json:"content_type" gorm:"type:varchar(128);not null"`
	SizeBytes   int64     `json:"size_bytes"   gorm:"not null"`
	StorageURL  string    `json:"storage_url"  gorm:"type:varchar(512);not null"`
	Country     string    `json:"country,omitempty" gorm:"type:varchar(8)"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// WebhookEvent records a processed payment-provider event id so duplicate
// webhook deliveries can be acknowledged without re-crediting.
type WebhookEvent struct {
	EventID    string    `json:"event_id"    gorm:"type:varchar(128);primaryKey"`
	Type       string    `json:"type"        gorm:"type:varchar(64);not null"`
	ReceivedAt time.Time `json:"received_at" gorm:"not null"`
}

// TableName returns the database table name for WebhookEvent.
func (WebhookEvent) TableName() string { return "webhook_events" }
