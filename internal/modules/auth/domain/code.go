package domain

import "time"

// VerificationCode — одноразовый код, привязанный к получателю (email).
// На получателя живёт максимум одна запись: новый запрос перезаписывает старую.
type VerificationCode struct {
	Code      string
	CreatedAt time.Time
	Attempts  int
}

// CodeStore — процессное хранилище кодов. Явные get/put/delete/sweep за
// интерфейсом, чтобы хранилище можно было заменить на распределённое,
// не трогая места вызова. Очистка — отдельная фоновая задача, пути чтения
// побочных эффектов не имеют.
type CodeStore interface {
	Get(recipient string) (VerificationCode, bool)
	Put(recipient string, c VerificationCode)
	Delete(recipient string)
	Sweep() int
}
