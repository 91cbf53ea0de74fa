package adminauth

import "testing"

func TestHashTokenAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("super-secret-token")
	if err != nil {
		t.Fatalf("HashToken() error = %v", err)
	}

	match, err := Verify("super-secret-token", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !match {
		t.Error("Verify() = false, want true for matching token")
	}
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("super-secret-token")
	if err != nil {
		t.Fatalf("HashToken() error = %v", err)
	}

	match, err := Verify("wrong-token", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if match {
		t.Error("Verify() = true, want false for non-matching token")
	}
}

func TestVerifyRecoversFromMalformedHash(t *testing.T) {
	t.Parallel()

	_, err := Verify("anything", "$argon2id$v=19$m=0,t=0,p=0$salt$hash")
	if err == nil {
		t.Fatal("Verify() expected error for malformed hash, got nil")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	t.Parallel()

	if !ConstantTimeEqual("abc", "abc") {
		t.Error("ConstantTimeEqual(\"abc\", \"abc\") = false, want true")
	}
	if ConstantTimeEqual("abc", "abd") {
		t.Error("ConstantTimeEqual(\"abc\", \"abd\") = true, want false")
	}
}
