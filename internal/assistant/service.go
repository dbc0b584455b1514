package assistant

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lumenai/lumen-agent/internal/domain"
)

// Service runs the query/report path: context assembly, prompt construction,
// then the gateway. Assembly failure is fatal; generative failure degrades to
// a fixed string inside the gateway.
type Service struct {
	assembler *Assembler
	gateway   *Gateway
	log       zerolog.Logger
}

// NewService creates the assistant service.
func NewService(assembler *Assembler, gateway *Gateway, log zerolog.Logger) *Service {
	return &Service{
		assembler: assembler,
		gateway:   gateway,
		log:       log,
	}
}

// Ask answers a natural-language question from the user's spending history.
func (s *Service) Ask(ctx context.Context, userID, question string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.NewError(domain.ErrorInvalidInput, "empty_user_id", nil)
	}
	if strings.TrimSpace(question) == "" {
		return "", domain.NewError(domain.ErrorInvalidInput, "empty_question", nil)
	}

	window, err := s.assembler.Assemble(ctx, userID)
	if err != nil {
		return "", err
	}

	prompt := BuildAnswerPrompt(window, question)
	return s.gateway.Invoke(ctx, prompt, ModeAnswer), nil
}

// Report produces the periodic financial health report. With no data to
// analyze it short-circuits to the fixed message and never calls the model.
func (s *Service) Report(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.NewError(domain.ErrorInvalidInput, "empty_user_id", nil)
	}

	window, err := s.assembler.Assemble(ctx, userID)
	if err != nil {
		return "", err
	}

	prompt, ok := BuildReportPrompt(window)
	if !ok {
		s.log.Info().Str("user_id", userID).Msg("No spending data, skipping report generation")
		return NoReportDataMessage, nil
	}

	return s.gateway.Invoke(ctx, prompt, ModeReport), nil
}
