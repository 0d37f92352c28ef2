package service

import (
	"testing"

	"memoex/errors"
)

func TestHashServiceDeterminism(t *testing.T) {
	r := DefaultRegistry()

	const want = "c057834203650ed74fb66af557a2413748d07ef214ceae26cc4a92e15cb50b11"
	for i := 0; i < 3; i++ {
		got, err := r.Execute("hash", "hello_solana_hackathon")
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if got != want {
			t.Fatalf("Execute(hash) = %s, want %s", got, want)
		}
	}
}

func TestExecuteUnknownService(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Execute("translate", "bonjour")
	if err == nil {
		t.Fatal("Execute succeeded for unregistered service")
	}
	if !errors.IsCode(err, errors.ErrCodeUnknownService) {
		t.Fatalf("error code = %v, want %v", errors.CodeOf(err), errors.ErrCodeUnknownService)
	}
}

func TestRegisterAdditionalService(t *testing.T) {
	r := DefaultRegistry()
	r.Register("echo", func(input string) (string, error) { return input, nil })

	got, err := r.Execute("echo", "ping")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "ping" {
		t.Fatalf("Execute(echo) = %q, want ping", got)
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "echo" || names[1] != "hash" {
		t.Fatalf("Names = %v", names)
	}
}
