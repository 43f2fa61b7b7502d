package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("i2c nak")
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", NoResponse, NoResponse},
		{"wrapped E", &E{C: TransportTimeout, Op: "send"}, TransportTimeout},
		{"fmt wrapped E", fmt.Errorf("read: %w", New(ChecksumInvalid, "verify", "")), ChecksumInvalid},
		{"foreign", cause, Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Of(tt.err); got != tt.want {
				t.Fatalf("Of() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("unlock: %w", New(StillLocked, "unlock", "phase 3 exhausted"))
	if !errors.Is(err, StillLocked) {
		t.Fatal("errors.Is should match the wrapped code")
	}
	if errors.Is(err, NoResponse) {
		t.Fatal("errors.Is matched an unrelated code")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(BusError, "write", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	cause := errors.New("short write")
	err := Wrap(BusError, "write", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if got, want := err.Error(), "write: bus_error: short write"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
