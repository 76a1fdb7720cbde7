// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package credential

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of decoded claims folio reports to users.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasExpiry reports whether an expiry claim was decoded.
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// parser decodes the claims segment only. Signatures are not checked.
var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// decode returns the unverified claims of token. Only the middle segment
// is read; the header and signature may be anything.
func decode(token string) (jwt.MapClaims, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, false
	}
	data, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ExpiryOf returns the expiry encoded in token's "exp" claim.
// The second result is false when the claim is missing or cannot be decoded.
func ExpiryOf(token string) (time.Time, bool) {
	claims, ok := decode(token)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether token's decoded expiry lies before now.
// Tokens without a decodable expiry are never expired.
func IsExpired(token string, now time.Time) bool {
	exp, ok := ExpiryOf(token)
	if !ok {
		return false
	}
	return exp.Before(now)
}

// Inspect decodes the claims folio displays. Fields that cannot be decoded are left zero.
func Inspect(token string) Claims {
	var c Claims
	claims, ok := decode(token)
	if !ok {
		return c
	}
	c.Subject, _ = claims.GetSubject()
	c.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c
}
