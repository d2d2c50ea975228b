package notify

import (
	"context"
	"log"
)

// LogSender пишет код в лог вместо письма — режим разработки без SMTP.
type LogSender struct{}

func (LogSender) SendRegisterCode(_ context.Context, to, code string) error {
	log.Printf("register code for %s: %s", to, code)
	return nil
}

func (LogSender) SendResetCode(_ context.Context, to, code string) error {
	log.Printf("reset code for %s: %s", to, code)
	return nil
}
