// Package whatsapp delivers owner notifications through a linked WhatsApp
// account.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
)

type Config struct {
	// DataDir holds the device session database
	DataDir string
	// CountryCode replaces the leading 0 of national numbers, e.g. "44"
	CountryCode string
}

type Service struct {
	client *whatsmeow.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewService creates a new WhatsApp service backed by a sqlite device store
func NewService(ctx context.Context, cfg *Config, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Use nil logger - sqlstore will use a no-op logger by default
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", cfg.DataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	service := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		cfg:    cfg,
		log:    log.With().Str("component", "whatsapp").Logger(),
	}

	service.client.AddEventHandler(func(evt interface{}) {
		service.eventHandler(evt)
	})

	return service, nil
}

// NormalizePhoneNumber strips formatting characters and turns a national
// number starting with 0 into international form using countryCode
func NormalizePhoneNumber(phoneNumber, countryCode string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phoneNumber = b.String()

	if countryCode == "" {
		return phoneNumber
	}

	// National format: 0XXXXXXXXXX -> <cc>XXXXXXXXXX
	if strings.HasPrefix(phoneNumber, "0") && !strings.HasPrefix(phoneNumber, "00") {
		return countryCode + phoneNumber[1:]
	}

	// International prefix written as 00<cc>
	if strings.HasPrefix(phoneNumber, "00") {
		phoneNumber = phoneNumber[2:]
	}

	// Country code followed by the national 0
	if strings.HasPrefix(phoneNumber, countryCode+"0") {
		phoneNumber = countryCode + phoneNumber[len(countryCode)+1:]
	}

	return phoneNumber
}

// Connect connects to WhatsApp. An unpaired device prints a QR code to out
// and waits until it has been scanned.
func (s *Service) Connect(ctx context.Context, out io.Writer) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}

		q, err := qrcode.New(evt.Code, qrcode.Medium)
		if err != nil {
			fmt.Fprintf(out, "QR Code: %s\n", evt.Code)
			continue
		}
		fmt.Fprintln(out, "\n"+q.ToSmallString(false))
		fmt.Fprintln(out, "Scan the QR code above with WhatsApp (Settings > Linked Devices > Link a Device)")
	}
	return nil
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// Notify sends a text message after checking the number is on WhatsApp
func (s *Service) Notify(ctx context.Context, phone, message string) error {
	phone = NormalizePhoneNumber(phone, s.cfg.CountryCode)

	resp, err := s.client.IsOnWhatsApp(ctx, []string{phone})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("number %s is not registered on WhatsApp", phone)
	}

	jid := resp[0].JID
	s.log.Debug().Str("jid", jid.String()).Str("phone", phone).Msg("Sending message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", phone, err)
	}

	s.log.Info().Str("id", sent.ID).Str("phone", phone).Msg("Message sent")
	return nil
}

// eventHandler logs connection state changes
func (s *Service) eventHandler(evt interface{}) {
	if evt == nil {
		return
	}
	switch evt := evt.(type) {
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	case *events.Message:
		if !evt.Info.IsFromMe {
			s.log.Debug().Str("sender", evt.Info.Sender.String()).Msg("Ignoring incoming message")
		}
	}
}
