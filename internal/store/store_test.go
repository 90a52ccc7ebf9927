package store

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"network error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("expected unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain error is not a unique violation")
	}
	if !isUndefinedTable(&pgconn.PgError{Code: "42P01"}) {
		t.Error("expected undefined table")
	}
}

func TestDurationSecondsRoundtrip(t *testing.T) {
	if durationToSeconds(nil) != nil {
		t.Error("expected nil for nil duration")
	}
	if secondsToDuration(nil) != nil {
		t.Error("expected nil for nil seconds")
	}

	d := 90 * time.Second
	sec := durationToSeconds(&d)
	if sec == nil || *sec != 90 {
		t.Fatalf("expected 90 seconds, got %v", sec)
	}
	back := secondsToDuration(sec)
	if back == nil || *back != d {
		t.Errorf("roundtrip mismatch: %v", back)
	}
}

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("expected nil for empty string")
	}
	if s := nullString("x"); s == nil || *s != "x" {
		t.Errorf("expected pointer to x, got %v", s)
	}
}
