package classifier

import (
	"errors"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Verdict
		wantErr error
	}{
		{
			name: "plain json",
			text: `{"safe": true, "reason": "nothing of note"}`,
			want: Verdict{Safe: true, Reason: "nothing of note"},
		},
		{
			name: "fenced json",
			text: "```json\n{\"safe\": true, \"reason\": \"nothing of note\"}\n```",
			want: Verdict{Safe: true, Reason: "nothing of note"},
		},
		{
			name: "fenced without language tag",
			text: "```\n{\"safe\": false, \"reason\": \"graphic content\"}\n```",
			want: Verdict{Safe: false, Reason: "graphic content"},
		},
		{
			name: "surrounding whitespace",
			text: "\n\n  {\"safe\": false, \"reason\": \"violence\"}  \n",
			want: Verdict{Safe: false, Reason: "violence"},
		},
		{
			name:    "not json",
			text:    "the video looks fine to me",
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "missing safe field",
			text:    `{"reason": "no safe field"}`,
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "missing reason field",
			text:    `{"safe": true}`,
			wantErr: ErrMalformedVerdict,
		},
		{
			name:    "wrong type for safe",
			text:    `{"safe": "yes", "reason": "stringly typed"}`,
			wantErr: ErrMalformedVerdict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerdict(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseVerdict() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVerdict() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseVerdict() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseVerdictFencedMatchesUnfenced(t *testing.T) {
	plain := `{"safe": false, "reason": "weapons visible"}`
	fenced := "```json\n" + plain + "\n```"
	a, err1 := ParseVerdict(plain)
	b, err2 := ParseVerdict(fenced)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if a != b {
		t.Errorf("fenced verdict %+v differs from plain %+v", b, a)
	}
}
