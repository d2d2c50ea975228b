package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemchat/internal/modules/auth/domain"
	"gemchat/internal/modules/auth/infra"
)

// fakeSender запоминает последний код; err имитирует сбой доставки.
type fakeSender struct {
	lastTo   string
	lastCode string
	sent     int
	err      error
}

func (f *fakeSender) SendRegisterCode(_ context.Context, to, code string) error {
	return f.record(to, code)
}

func (f *fakeSender) SendResetCode(_ context.Context, to, code string) error {
	return f.record(to, code)
}

func (f *fakeSender) record(to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.lastTo, f.lastCode = to, code
	f.sent++
	return nil
}

func newTestService(t *testing.T, resendWindow time.Duration) (*Service, *fakeSender, domain.UserRepo) {
	t.Helper()
	users := infra.NewMemUserRepo()
	store := infra.NewMemCodeStore(10 * time.Minute)
	snd := &fakeSender{}
	s := NewService(users, store, snd, resendWindow, 10*time.Minute, 5)
	return s, snd, users
}

func TestRequest_RegisterIssuesSixDigitCode(t *testing.T) {
	s, snd, _ := newTestService(t, 0)

	err := s.Request(context.Background(), "a@x.com", ModeRegister)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", snd.lastTo)
	assert.Len(t, snd.lastCode, 6)
}

func TestRequest_ExistencePreconditions(t *testing.T) {
	s, _, users := newTestService(t, 0)
	_, err := users.Create(domain.CreateUserParams{Email: "a@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	// регистрация занятой почты — доменная ошибка, не троттлинг
	err = s.Request(context.Background(), "a@x.com", ModeRegister)
	assert.ErrorIs(t, err, ErrEmailTaken)

	// сброс для незнакомой почты
	err = s.Request(context.Background(), "b@x.com", ModeReset)
	assert.ErrorIs(t, err, ErrEmailUnknown)
}

func TestRequest_ThrottledInsideWindow(t *testing.T) {
	s, snd, _ := newTestService(t, time.Minute)

	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))

	err := s.Request(context.Background(), "a@x.com", ModeRegister)
	var throttled *ThrottledError
	require.ErrorAs(t, err, &throttled)
	assert.InDelta(t, 60, throttled.RetryAfter, 1)
	assert.Equal(t, 1, snd.sent, "второй код не выпускается")
}

func TestRequest_DeliveryFailureKeepsRecord(t *testing.T) {
	s, snd, _ := newTestService(t, time.Minute)
	snd.err = errors.New("smtp down")

	err := s.Request(context.Background(), "a@x.com", ModeRegister)
	require.ErrorIs(t, err, ErrDelivery)

	// запись осталась: повторный запрос внутри окна отклоняется,
	// дешёвый resend-цикл не работает
	err = s.Request(context.Background(), "a@x.com", ModeRegister)
	var throttled *ThrottledError
	assert.ErrorAs(t, err, &throttled)
}

func TestConfirm_HappyPathSingleUse(t *testing.T) {
	s, snd, _ := newTestService(t, 0)
	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))

	calls := 0
	err := s.Confirm("a@x.com", snd.lastCode, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "onSuccess вызывается ровно один раз")

	// код одноразовый
	err = s.Confirm("a@x.com", snd.lastCode, func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCodeMissing)
	assert.Equal(t, 1, calls)
}

func TestConfirm_ExpiredEvenWithoutAttempts(t *testing.T) {
	s, snd, _ := newTestService(t, 0)
	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))

	base := time.Now()
	s.now = func() time.Time { return base.Add(10*time.Minute + time.Second) }

	err := s.Confirm("a@x.com", snd.lastCode, func() error { return nil })
	assert.ErrorIs(t, err, ErrCodeExpired)

	// запись удалена при обнаружении
	err = s.Confirm("a@x.com", snd.lastCode, func() error { return nil })
	assert.ErrorIs(t, err, ErrCodeMissing)
}

func TestConfirm_MaxAttemptsDeletesRecord(t *testing.T) {
	s, snd, _ := newTestService(t, 0)
	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))

	wrong := "000000"
	if snd.lastCode == wrong {
		wrong = "000001"
	}

	for i := 0; i < 4; i++ {
		err := s.Confirm("a@x.com", wrong, func() error { return nil })
		assert.ErrorIs(t, err, ErrCodeMismatch)
	}
	// пятый промах исчерпывает лимит
	err := s.Confirm("a@x.com", wrong, func() error { return nil })
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// верный код после исчерпания тоже не проходит: записи больше нет
	err = s.Confirm("a@x.com", snd.lastCode, func() error { return nil })
	assert.ErrorIs(t, err, ErrCodeMissing)
}

func TestConfirm_OnSuccessErrorPropagates(t *testing.T) {
	s, snd, _ := newTestService(t, 0)
	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))

	boom := errors.New("store failed")
	err := s.Confirm("a@x.com", snd.lastCode, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRequest_NewCodeOverwritesOld(t *testing.T) {
	s, snd, _ := newTestService(t, 0)

	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))
	first := snd.lastCode
	require.NoError(t, s.Request(context.Background(), "a@x.com", ModeRegister))

	if first != snd.lastCode {
		err := s.Confirm("a@x.com", first, func() error { return nil })
		assert.ErrorIs(t, err, ErrCodeMismatch, "старый код больше не действует")
	}
}
