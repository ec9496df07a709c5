package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

var errNoToken = errors.New("请求中没有令牌")

// AuthClaims 中的 Subject 是申请人 ID
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// tokenFromRequest 优先从 cookie 中读取令牌，其次是 Authorization 头
func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(h.config.JWT.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authorization := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authorization, "Bearer "); ok && token != "" {
		return token, nil
	}

	return "", errNoToken
}

func (h *Handler) parseToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.config.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, errors.New("令牌中缺少 sub")
	}
	switch domain.Role(claims.Role) {
	case domain.RoleManager, domain.RoleEmployee:
	default:
		return nil, errors.New("令牌中的角色无效")
	}

	return claims, nil
}

func applicantFromRequest(r *http.Request) string {
	return r.Context().Value(SubCtxKey).(string)
}

func isManager(r *http.Request) bool {
	role, _ := r.Context().Value(RoleCtxKey).(string)
	return domain.Role(role) == domain.RoleManager
}
