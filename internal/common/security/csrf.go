package security

import (
	"errors"
	"time"

	"msgboard/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitCSRF() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.CSRFKey, nil)
}

// GenerateCSRFToken mints a short-lived HS256 token bound to the given
// session. The home page embeds it in the post and delete forms.
func GenerateCSRFToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"exp":        time.Now().Add(config.AppConfig.CSRFExp).Unix(),
		"iat":        time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// VerifyCSRFToken checks signature and expiry and that the token was minted
// for the given session.
func VerifyCSRFToken(tokenString, sessionID string) error {
	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	if err != nil {
		return err
	}
	claim, ok := token.Get("session_id")
	if !ok {
		return errors.New("session_id claim is missing")
	}
	claimed, ok := claim.(string)
	if !ok || claimed != sessionID {
		return errors.New("token is not bound to this session")
	}
	return nil
}
