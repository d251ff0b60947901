// Package telegram delivers accepted signals through the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"

	"FinScan/internal/domain/models"
	"FinScan/internal/domain/repository"
	"FinScan/pkg/config"
	xhttp "FinScan/pkg/http"
	"FinScan/pkg/logger"
)

// Sender posts formatted signal messages to a single chat.
type Sender struct {
	cfg  config.TelegramConfig
	http *xhttp.Client
	log  *logger.Logger
}

var _ repository.SignalSink = (*Sender)(nil)

func NewSender(cfg config.TelegramConfig, log *logger.Logger) *Sender {
	return &Sender{
		cfg:  cfg,
		http: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		log:  log,
	}
}

func (s *Sender) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Deliver sends one signal message. The bot API reports soft failures inside
// a 200 response, so the ok flag is checked as well as transport errors.
func (s *Sender) Deliver(ctx context.Context, sig *models.ScoredSignal) error {
	var resp sendMessageResponse
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/bot%s/sendMessage", s.cfg.APIBase, s.cfg.Token),
		Body: sendMessageRequest{
			ChatID:    s.cfg.ChatID,
			Text:      FormatSignal(sig),
			ParseMode: "Markdown",
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send: %s", resp.Description)
	}
	s.log.Debug("signal delivered to telegram",
		logger.String("symbol", sig.Symbol),
		logger.String("signal_id", sig.ID))
	return nil
}
