package voucher

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// DefaultCodePrefix starts every generated voucher code
const DefaultCodePrefix = "HYDRA"

const (
	codeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeGroups      = 3
	codeGroupLength = 4
)

// CodeGenerator produces candidate voucher codes
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator
type CodeGeneratorFunc func() (string, error)

// Generate calls f
func (f CodeGeneratorFunc) Generate() (string, error) {
	return f()
}

// RandomCodeGenerator draws PREFIX-XXXX-XXXX-XXXX codes from crypto/rand
type RandomCodeGenerator struct {
	prefix string
}

// NewRandomCodeGenerator creates a generator; an empty prefix falls back to DefaultCodePrefix
func NewRandomCodeGenerator(prefix string) *RandomCodeGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultCodePrefix
	}
	return &RandomCodeGenerator{prefix: prefix}
}

// Generate returns a new upper-case base-36 code
func (g *RandomCodeGenerator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(len(g.prefix) + codeGroups*(codeGroupLength+1))
	b.WriteString(g.prefix)

	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeGroups; i++ {
		b.WriteByte('-')
		for j := 0; j < codeGroupLength; j++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("generate voucher code: %w", err)
			}
			b.WriteByte(codeAlphabet[n.Int64()])
		}
	}
	return b.String(), nil
}
