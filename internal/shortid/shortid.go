// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package shortid generates the 8-character public identifiers used in
// share links. Ids are unguessable enough to avoid accidental collisions,
// but they are not access-control secrets.
package shortid

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// Alphabet is the set of characters an id is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Length is the number of characters in an id.
	Length = 8

	// maxUnbiased is the largest multiple of len(Alphabet) that fits in a
	// byte. Bytes at or above it are discarded so every character is
	// equally likely.
	maxUnbiased = 256 - 256%len(Alphabet)
)

// New returns a fresh id read from crypto/rand.
func New() (string, error) {
	return FromReader(rand.Reader)
}

// FromReader builds an id from the bytes of r, sampling each character
// uniformly and independently from Alphabet.
func FromReader(r io.Reader) (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)

	for len(out) < Length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("shortid read: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether id has the shape of a generated id.
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isAlphanumeric(id[i]) {
			return false
		}
	}
	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
