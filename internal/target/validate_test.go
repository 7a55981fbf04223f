package target

import (
	"errors"
	"testing"
)

func TestValidate_AcceptsHosts(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"  example.com  ", "example.com"},
		{"sub.example.com", "sub.example.com"},
		{"https://example.com", "example.com"},
		{"http://example.com/some/path", "example.com"},
		{"example.com:8080", "example.com"},
		{"https://example.com:8443/login", "example.com"},
		{"192.168.1.1", "192.168.1.1"},
		{"10.0.0.1:22", "10.0.0.1"},
		{"xn--bcher-kva.example", "xn--bcher-kva.example"},
		{"user:pass@example.com", "example.com"},
		{"https://user@example.com:8443/login", "example.com"},
	}

	for _, tc := range cases {
		got, err := Validate(tc.in)
		if err != nil {
			t.Errorf("Validate(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Validate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidate_RejectsInjection(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"example.com; rm -rf /",
		"example.com && whoami",
		"example.com | cat",
		"example.com`id`",
		"example.com$(id)",
		"example.com\nsecond",
		"../../etc/passwd",
		"/etc/passwd",
		"/var/log/auth.log",
		"/tmp/x",
		"/proc/self/environ",
		"C:\\Windows\\System32",
		"file:///etc/passwd",
		"FILE://etc/passwd",
		"exa mple.com",
		"-example.com",
		"example.com-",
		"999.1.1.1",
		"bad\x00host",
		"user:pass@",
	}

	for _, in := range cases {
		got, err := Validate(in)
		if err == nil {
			t.Errorf("Validate(%q) = %q, want error", in, got)
			continue
		}
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("Validate(%q) error %v, want ErrInvalid", in, err)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	first, err := Validate("https://example.com:443/path")
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Validate(first)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if first != second {
		t.Errorf("not idempotent: %q then %q", first, second)
	}
}
