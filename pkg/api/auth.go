package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	pz "github.com/weberc2/httpeasy"
)

const Issuer = "sfs"

// Authenticator validates HS512 bearer tokens. The same secret signs and
// verifies, so it also issues tokens for the CLI.
type Authenticator struct {
	Secret []byte
}

func (a *Authenticator) Issue(
	user string,
	now time.Time,
	validity time.Duration,
) (string, error) {
	token, err := jwt.NewWithClaims(
		jwt.SigningMethodHS512,
		&jwt.StandardClaims{
			Issuer:    Issuer,
			Subject:   user,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(validity).Unix(),
		},
	).SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("issuing token for user `%s`: %w", user, err)
	}
	return token, nil
}

func (a *Authenticator) validate(token string) (string, error) {
	var claims jwt.StandardClaims
	if _, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS512 {
				return nil, fmt.Errorf(
					"unexpected signing method `%v`",
					t.Header["alg"],
				)
			}
			return a.Secret, nil
		},
	); err != nil {
		return "", err
	}
	if claims.Issuer != Issuer {
		return "", fmt.Errorf("unexpected issuer `%s`", claims.Issuer)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("missing `sub` claim")
	}
	return claims.Subject, nil
}

type Result struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	User    string `json:"user,omitempty"`
}

func ResultErr(message string, err error) *Result {
	return &Result{Message: message, Error: err.Error()}
}

func ResultOK(message string, user string) *Result {
	return &Result{Message: message, User: user}
}

func (a *Authenticator) authenticate(r pz.Request) *Result {
	authorization := r.Headers.Get("Authorization")
	if !strings.HasPrefix(authorization, "Bearer ") {
		return ResultErr(
			"invalid access token",
			fmt.Errorf("missing `Bearer` prefix"),
		)
	}
	user, err := a.validate(authorization[len("Bearer "):])
	if err != nil {
		return ResultErr("invalid access token", err)
	}
	return ResultOK("successfully validated access token", user)
}

// Auth rejects requests without a valid token and passes the token's subject
// to `h` in the `User` header.
func (a *Authenticator) Auth(h pz.Handler) pz.Handler {
	return func(r pz.Request) pz.Response {
		result := a.authenticate(r)
		if result.User == "" {
			return pz.Unauthorized(
				pz.JSON(&errorBody{Error: result.Message}),
				result,
			)
		}
		if r.Headers == nil {
			r.Headers = http.Header{}
		}
		r.Headers.Set("User", result.User)
		return h(r).WithLogging(result)
	}
}

// Protect wraps every route's handler with `Auth`.
func (a *Authenticator) Protect(routes []pz.Route) []pz.Route {
	out := make([]pz.Route, len(routes))
	for i, route := range routes {
		route.Handler = a.Auth(route.Handler)
		out[i] = route
	}
	return out
}
