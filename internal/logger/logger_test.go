package logger

import "testing"

func TestInit(t *testing.T) {
	cases := []struct {
		level   string
		wantErr bool
	}{
		{"Info", false},
		{"debug", false},
		{"WARN", false},
		{"verbose", true},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l := New()
			err := l.Init(tc.level)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Init(%q) error = %v; wantErr %v", tc.level, err, tc.wantErr)
			}
			if l.Log == nil {
				t.Fatal("Log must never be nil")
			}
		})
	}
}
