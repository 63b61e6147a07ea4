package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsAppService delivers verification codes over WhatsApp via Twilio. When
// Twilio credentials are absent it logs the code instead, so the twin works
// out of the box for local development.
type WhatsAppService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewWhatsAppService creates a WhatsApp sender from TWILIO_* environment
// variables. Missing credentials are not an error: delivery falls back to
// logging.
func NewWhatsAppService() *WhatsAppService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		log.Println("⚠️  Twilio credentials not found - codes will be logged, not sent")
		return &WhatsAppService{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &WhatsAppService{client: client, from: from}
}

// SendCode delivers a verification code to the given phone.
func (w *WhatsAppService) SendCode(phoneE164, code string) error {
	message := fmt.Sprintf("Tu código de verificación de VecinoMarket es %s. Expira en 5 minutos.", code)

	if w.client == nil {
		log.Printf("📱 [dev] WhatsApp code for %s: %s", phoneE164, code)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(w.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", phoneE164))
	params.SetBody(message)

	resp, err := w.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp code sent! SID: %s", *resp.Sid)
	return nil
}
