package resetcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCode returns a uniform random 6-digit numeric code. The leading
// digit is never zero so the code is always 6 characters wide.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
