package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gemchat/internal/modules/auth/domain"
	"gemchat/internal/platform/notify"
	"gemchat/internal/platform/ratelimit"
	"gemchat/internal/platform/security"
)

// Mode определяет предусловие существования получателя.
type Mode int

const (
	// ModeRegister — получатель НЕ должен быть зарегистрирован.
	ModeRegister Mode = iota
	// ModeReset — получатель должен существовать.
	ModeReset
)

var (
	ErrEmailTaken      = errors.New("email_taken")
	ErrEmailUnknown    = errors.New("email_unknown")
	ErrCodeMissing     = errors.New("code_missing")
	ErrCodeExpired     = errors.New("code_expired")
	ErrCodeMismatch    = errors.New("code_mismatch")
	ErrTooManyAttempts = errors.New("too_many_attempts")
	ErrDelivery        = errors.New("delivery_failed")
)

// ThrottledError — отказ по окну запроса кода; RetryAfter в целых секундах.
type ThrottledError struct {
	RetryAfter int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled, retry after %ds", e.RetryAfter)
}

// Service ведёт жизненный цикл одноразовых кодов:
// None -> Issued -> (Verified | Expired | AttemptsExhausted) -> None.
type Service struct {
	users  domain.UserRepo
	store  domain.CodeStore
	sender notify.Sender
	resend *ratelimit.Limiter

	ttl         time.Duration
	maxAttempts int
	now         func() time.Time

	// confirm делает get -> put/delete в два шага; сериализуем целиком
	mu sync.Mutex
}

func NewService(users domain.UserRepo, store domain.CodeStore, sender notify.Sender,
	resendWindow, ttl time.Duration, maxAttempts int) *Service {
	return &Service{
		users:       users,
		store:       store,
		sender:      sender,
		resend:      ratelimit.NewLimiter(resendWindow),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// ResendLimiter отдаёт лимитер запросов кода — main подключает его Sweep.
func (s *Service) ResendLimiter() *ratelimit.Limiter { return s.resend }

// SetSender подменяет коллаборатора доставки (реальный SMTP вместо лога).
func (s *Service) SetSender(snd notify.Sender) { s.sender = snd }

// Request выпускает код для получателя и отдаёт его на доставку.
// Нарушение предусловия существования — доменная ошибка, не троттлинг.
// При сбое доставки запись НЕ удаляется: повторные запросы внутри окна
// по-прежнему отклоняются, быстрый resend не даёт перебирать адреса.
func (s *Service) Request(ctx context.Context, recipient string, mode Mode) error {
	exists, err := s.users.ExistsByEmail(recipient)
	if err != nil {
		return err
	}
	switch mode {
	case ModeRegister:
		if exists {
			return ErrEmailTaken
		}
	case ModeReset:
		if !exists {
			return ErrEmailUnknown
		}
	}

	if res := s.resend.Check(recipient); !res.Allowed {
		return &ThrottledError{RetryAfter: res.RetryAfter}
	}

	code, err := security.RandomDigits(6)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.store.Put(recipient, domain.VerificationCode{Code: code, CreatedAt: s.now()})
	s.mu.Unlock()

	var sendErr error
	if mode == ModeRegister {
		sendErr = s.sender.SendRegisterCode(ctx, recipient, code)
	} else {
		sendErr = s.sender.SendResetCode(ctx, recipient, code)
	}
	if sendErr != nil {
		log.Printf("code delivery to %s failed: %v", recipient, sendErr)
		return ErrDelivery
	}
	return nil
}

// Confirm проверяет код. Совпадение удаляет запись и ровно один раз
// вызывает onSuccess (создание аккаунта, смена пароля). Промах увеличивает
// счётчик; на maxAttempts запись удаляется. Истёкший код удаляется при
// первом же обнаружении, даже если попыток не было.
func (s *Service) Confirm(recipient, code string, onSuccess func() error) error {
	s.mu.Lock()

	rec, ok := s.store.Get(recipient)
	if !ok {
		s.mu.Unlock()
		return ErrCodeMissing
	}

	if s.now().Sub(rec.CreatedAt) > s.ttl {
		s.store.Delete(recipient)
		s.mu.Unlock()
		return ErrCodeExpired
	}

	if rec.Code != code {
		rec.Attempts++
		if rec.Attempts >= s.maxAttempts {
			s.store.Delete(recipient)
			s.mu.Unlock()
			return ErrTooManyAttempts
		}
		s.store.Put(recipient, rec)
		s.mu.Unlock()
		return ErrCodeMismatch
	}

	// одноразовость: запись исчезает до побочного эффекта
	s.store.Delete(recipient)
	s.mu.Unlock()

	return onSuccess()
}
