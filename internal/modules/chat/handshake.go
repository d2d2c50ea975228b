package chat

import (
	"errors"

	"gemchat/internal/modules/auth/domain"
	"gemchat/internal/platform/security"
)

var (
	// ErrNoCookie — кука не пришла вовсе: cookies отключены или входа не было.
	ErrNoCookie = errors.New("no_cookie")
	// ErrBadSession — кука есть, но токен не прошёл проверку.
	ErrBadSession = errors.New("bad_session")
	// ErrUnknownUser — токен валиден, а пользователя уже нет.
	ErrUnknownUser = errors.New("unknown_user")
)

// Binding — личность, привязанная к соединению на всё время его жизни.
// Повторных проверок в середине соединения нет.
type Binding struct {
	UserID string // пуст в режиме булева шлюза
	APIKey string
}

// Authorize выполняет рукопожатие: ровно одна проверка той же куки, что и у
// HTTP-шлюза, плюс подтяжка API-ключа провайдера по личности.
func Authorize(sessions *security.SessionManager, users domain.UserRepo, rawCookie string) (Binding, error) {
	if rawCookie == "" {
		return Binding{}, ErrNoCookie
	}
	id, ok := sessions.Verify(rawCookie)
	if !ok {
		return Binding{}, ErrBadSession
	}
	b := Binding{UserID: id.UserID}
	if id.UserID != "" && users != nil {
		u, err := users.GetByID(id.UserID)
		if err != nil || u == nil {
			return Binding{}, ErrUnknownUser
		}
		b.APIKey = u.APIKey
	}
	return b, nil
}

// rejectNotice — текст уведомления клиенту перед разрывом; отсутствие куки
// и невалидная сессия лечатся по-разному, поэтому тексты разные.
func rejectNotice(err error) string {
	switch {
	case errors.Is(err, ErrNoCookie):
		return "Cookies отключены или вход не выполнен. Включите cookies и войдите"
	case errors.Is(err, ErrUnknownUser):
		return "Аккаунт не найден, войдите заново"
	default:
		return "Сессия недействительна, войдите заново"
	}
}
