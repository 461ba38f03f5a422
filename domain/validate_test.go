package domain

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name@example.com", "x+tag@mail.example.org"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Errorf("expected %q valid, got %v", e, err)
		}
	}
	invalid := []string{"", "   ", "plain", "a@b", "a b@c.d", "@x.y"}
	for _, e := range invalid {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("expected %q invalid", e)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"1234567", "+14155552671", "999999999999999"}
	for _, p := range valid {
		if err := ValidatePhone(p); err != nil {
			t.Errorf("expected %q valid, got %v", p, err)
		}
	}
	invalid := []string{"", "123", "12345678901234567", "phone", "+12 34"}
	for _, p := range invalid {
		if err := ValidatePhone(p); err == nil {
			t.Errorf("expected %q invalid", p)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"abcdefg1", "p4ssword", "longerPassw0rd"}
	for _, p := range valid {
		if err := ValidatePassword(p); err != nil {
			t.Errorf("expected %q valid, got %v", p, err)
		}
	}
	invalid := []string{"", "short1", "allletters", "12345678"}
	for _, p := range invalid {
		if err := ValidatePassword(p); err == nil {
			t.Errorf("expected %q invalid", p)
		}
	}
}

func TestValidateRegistration(t *testing.T) {
	if err := ValidateRegistration("alice", "alice@example.com", "+14155552671", "p4ssword"); err != nil {
		t.Errorf("expected valid registration, got %v", err)
	}
	if err := ValidateRegistration("", "alice@example.com", "+14155552671", "p4ssword"); !IsValidationError(err) {
		t.Errorf("expected ValidationError for empty username, got %v", err)
	}
	if err := ValidateRegistration("alice", "bad", "+14155552671", "p4ssword"); !IsValidationError(err) {
		t.Errorf("expected ValidationError for bad email, got %v", err)
	}
}
