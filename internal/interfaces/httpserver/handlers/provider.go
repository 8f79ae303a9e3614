package handlers

import (
	"github.com/rs/zerolog"

	"github.com/coder4-c/survivor-support/internal/config"
	"github.com/coder4-c/survivor-support/internal/domain/chat"
	"github.com/coder4-c/survivor-support/internal/domain/evidence"
	"github.com/coder4-c/survivor-support/internal/domain/support"
)

// Provider wires HTTP handlers.
type Provider struct {
	Evidence *EvidenceHandler
	Support  *SupportHandler
	Chat     *ChatHandler
}

func NewProvider(cfg *config.Config, evidenceService *evidence.Service, supportService *support.Service, chatService *chat.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Evidence: NewEvidenceHandler(cfg, evidenceService, log),
		Support:  NewSupportHandler(supportService, log),
		Chat:     NewChatHandler(chatService, log),
	}
}
