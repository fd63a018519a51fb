package storage

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Wedding", "summer-wedding"},
		{"Jan Novák 2026", "jan-novak-2026"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER/lower\\mixed", "upper-lower-mixed"},
		{"---", "event"},
		{"", "event"},
		{"už-máme-slug", "uz-mame-slug"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := Slug(tc.in); got != tc.want {
				t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
