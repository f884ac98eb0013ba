package domain

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		region  string
		want    string
		wantErr bool
	}{
		{name: "national format", raw: "(201) 555-0123", region: "US", want: "+12015550123"},
		{name: "already e164", raw: "+12015550123", region: "US", want: "+12015550123"},
		{name: "default region", raw: "201-555-0123", region: "", want: "+12015550123"},
		{name: "extension stripped", raw: "201-555-0123 ext. 44", region: "US", want: "+12015550123"},
		{name: "short x extension stripped", raw: "201-555-0123 x12", region: "US", want: "+12015550123"},
		{name: "note stripped", raw: "201-555-0123 (to unblock dial 9)", region: "US", want: "+12015550123"},
		{name: "empty", raw: "  ", region: "US", wantErr: true},
		{name: "garbage", raw: "not-a-number", region: "US", wantErr: true},
		{name: "too short", raw: "12345", region: "US", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizePhone(tt.raw, tt.region)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("NormalizePhone() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("NormalizePhone() = %q, want %q", got, tt.want)
			}
		})
	}
}
