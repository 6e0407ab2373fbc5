package utils

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("rahasia-kuat", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "rahasia-kuat" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPassword("rahasia-kuat", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("salah", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordCostClamped(t *testing.T) {
	// A below-minimum cost falls back to the bcrypt default instead of
	// erroring.
	hash, err := HashPassword("x", -1)
	if err != nil {
		t.Fatalf("negative cost: %v", err)
	}
	if !CheckPassword("x", hash) {
		t.Fatal("hash with clamped cost does not verify")
	}
}
