package pinning

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo — сведения из API-токена сервиса закрепления.
// Подпись не проверяется: это делает удалённый сервис.
type TokenInfo struct {
	IsJWT     bool
	Issuer    string
	Subject   string
	ExpiresAt *time.Time
}

// Expired сообщает, истёк ли токен к моменту now.
// Для не-JWT токенов и токенов без exp всегда false.
func (i TokenInfo) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// InspectToken разбирает токен без проверки подписи.
// Многие сервисы закрепления (nft.storage и подобные) выдают JWT,
// истёкший токен стоит заметить при старте, а не на первой загрузке.
func InspectToken(token string) TokenInfo {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{IsJWT: true}
	info.Issuer, _ = claims.GetIssuer()
	info.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info
}
