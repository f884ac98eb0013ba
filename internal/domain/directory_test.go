package domain

import "testing"

func TestPrimaryContact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		points []ContactPoint
		wantID string
		wantOK bool
	}{
		{name: "no contact points", points: nil, wantOK: false},
		{
			name:   "primary wins over order",
			points: []ContactPoint{{ID: "p1"}, {ID: "p2", IsPrimary: true}, {ID: "p3"}},
			wantID: "p2",
			wantOK: true,
		},
		{
			name:   "first primary when several flagged",
			points: []ContactPoint{{ID: "p1"}, {ID: "p2", IsPrimary: true}, {ID: "p3", IsPrimary: true}},
			wantID: "p2",
			wantOK: true,
		},
		{
			name:   "falls back to stored order",
			points: []ContactPoint{{ID: "p1"}, {ID: "p2"}},
			wantID: "p1",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := PrimaryContact(tt.points)
			if ok != tt.wantOK {
				t.Fatalf("PrimaryContact() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.ID != tt.wantID {
				t.Fatalf("PrimaryContact() id = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}
