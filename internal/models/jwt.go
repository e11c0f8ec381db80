package models

// JWTClaims are the claims read from an access token issued by the auth provider.
type JWTClaims struct {
	Sub   string `json:"sub"` // profile id
	Email string `json:"email"`
	Role  string `json:"role"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
}
