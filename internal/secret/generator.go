/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package secret

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/sethvargo/go-password/password"

	"github.com/sql-instance-planner/internal/normalizer"
)

// Symbols used in generated passwords. Quotes, backslashes and slashes are left
// out so values survive DSNs and shell quoting.
const Symbols = "!#$%&*+-=?@^_~"

// Generator produces a secret value for a SecretRequest.
type Generator interface {
	Generate(req normalizer.SecretRequest) (string, error)
}

// PasswordGenerator is a Generator backed by go-password.
type PasswordGenerator struct {
	gen *password.Generator
}

// NewPasswordGenerator creates a PasswordGenerator. A nil reader uses crypto/rand.
func NewPasswordGenerator(reader io.Reader) (*PasswordGenerator, error) {
	gen, err := password.NewGenerator(&password.GeneratorInput{
		Symbols: Symbols,
		Reader:  reader,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create password generator: %w", err)
	}
	return &PasswordGenerator{gen: gen}, nil
}

// Generate returns a password that honours the request's length and character classes.
func (g *PasswordGenerator) Generate(req normalizer.SecretRequest) (string, error) {
	if req.Length <= 0 {
		return "", fmt.Errorf("secret %s: length must be positive", req.Name)
	}
	if req.Digits+req.Symbols > req.Length {
		return "", fmt.Errorf("secret %s: %d digits and %d symbols do not fit in %d characters",
			req.Name, req.Digits, req.Symbols, req.Length)
	}

	value, err := g.gen.Generate(req.Length, req.Digits, req.Symbols, req.NoUpper, req.AllowRepeat)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", req.Name, err)
	}
	return value, nil
}

// Resolve generates every secret the plan requests and returns them keyed by
// request name. Values are held in memory only.
func Resolve(plan *normalizer.Plan, gen Generator) (map[string]string, error) {
	out := make(map[string]string, len(plan.SecretRequests))
	for _, req := range plan.SecretRequests {
		value, err := gen.Generate(req)
		if err != nil {
			return nil, err
		}
		out[req.Name] = value
	}
	return out, nil
}

// HexSuffix returns 4 random bytes as 8 hex characters, used for random instance names.
func HexSuffix() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
