// Package util provides utility functions for the storefront client.
package util

import (
	"crypto/rand"
	"math/big"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomToken returns a random alphanumeric token of length n.
func RandomToken(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = tokenAlphabet[0]
			continue
		}
		out[i] = tokenAlphabet[idx.Int64()]
	}
	return string(out)
}

// RandomOTP returns a random numeric one-time code of length n.
func RandomOTP(n int) string {
	out := make([]byte, n)
	ten := big.NewInt(10)
	for i := range out {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			out[i] = '0'
			continue
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out)
}
