package repository

import "testing"

func TestPathHelpers(t *testing.T) {
	if got := boardPath("b1"); got != "board/b1" {
		t.Fatalf("boardPath = %q", got)
	}
	if got := cardPath("b1", "c1"); got != "board/b1/card/c1" {
		t.Fatalf("cardPath = %q", got)
	}
	if got := taskPath("b1", "c1", "t1"); got != "board/b1/card/c1/task/t1" {
		t.Fatalf("taskPath = %q", got)
	}
	if got := invitationPath("i1"); got != "invitation/i1" {
		t.Fatalf("invitationPath = %q", got)
	}
	if got := userPath("user:a@x.io"); got != "user/user:a@x.io" {
		t.Fatalf("userPath = %q", got)
	}
}

func TestLikePrefixEscaping(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"board/b1/card/", "board/b1/card/%"},
		{"a_b", `a\_b%`},
		{"a%b", `a\%b%`},
		{`a\b`, `a\\b%`},
	}
	for _, tc := range cases {
		if got := likePrefix(tc.in); got != tc.want {
			t.Fatalf("likePrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeInto(t *testing.T) {
	type doc struct {
		ID string `json:"id"`
	}

	out, err := decodeInto[doc]([][]byte{[]byte(`{"id":"a"}`), []byte(`{"id":"b"}`)})
	if err != nil {
		t.Fatalf("decodeInto: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("out = %v", out)
	}

	if _, err := decodeInto[doc]([][]byte{[]byte(`{broken`)}); err == nil {
		t.Fatalf("malformed document should fail decoding")
	}
}
