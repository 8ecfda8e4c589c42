package sms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vetconsult/auth-api/pkg/logger"
)

// Config holds Twilio credentials. When FromNumber is empty the notifier
// logs messages instead of sending them.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// messageCreator is the subset of the Twilio REST API the notifier uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioNotifier delivers verification codes over SMS.
type TwilioNotifier struct {
	api  messageCreator
	from string
	log  zerolog.Logger
}

func NewTwilioNotifier(cfg Config, log zerolog.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{api: client.Api, from: cfg.FromNumber, log: log}
}

// Send delivers message to mobile. The body is not logged since it carries
// the code.
func (n *TwilioNotifier) Send(ctx context.Context, mobile, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if n.from == "" {
		n.log.Info().Str("to", logger.MaskMobile(mobile)).Msg("sms delivery disabled, message dropped")
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toE164(mobile))
	params.SetFrom(n.from)
	params.SetBody(message)

	if _, err := n.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}

// toE164 converts a local 09XXXXXXXXX number to +989XXXXXXXXX. Anything else
// is passed through.
func toE164(mobile string) string {
	if len(mobile) == 11 && mobile[0] == '0' {
		return "+98" + mobile[1:]
	}
	return mobile
}
