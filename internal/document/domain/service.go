package domain

import (
	"context"
	"errors"
)

// GenerateRequest names the entity and layout for one render. A nil
// Customization means the template defaults; a preset key loads a
// stored customization.
type GenerateRequest struct {
	EntityID      string         `json:"-"`
	Template      string         `json:"template"`
	PresetKey     string         `json:"preset_key"`
	Customization *Customization `json:"customization"`
}

type SavePresetRequest struct {
	Name          string        `json:"name"`
	BaseTemplate  string        `json:"base_template"`
	Customization Customization `json:"customization"`
}

type ListPresetsResponse struct {
	Presets []SavedTemplate `json:"presets"`
}

type Service interface {
	GenerateInvoice(ctx context.Context, req GenerateRequest) (Artifact, error)
	GenerateProposal(ctx context.Context, req GenerateRequest) (Artifact, error)
	SavePreset(ctx context.Context, req SavePresetRequest) (SavedTemplate, error)
	ListPresets(ctx context.Context) (ListPresetsResponse, error)
	DeletePreset(ctx context.Context, key string) error
}

var (
	ErrInvalidOwner      = errors.New("invalid_owner")
	ErrInvalidTemplate   = errors.New("invalid_document_template")
	ErrInvalidColor      = errors.New("invalid_color")
	ErrInvalidFont       = errors.New("invalid_font")
	ErrInvalidPresetName = errors.New("invalid_preset_name")
	ErrPresetNotFound    = errors.New("preset_not_found")
)
