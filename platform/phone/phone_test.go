package phone

import "testing"

func TestDigitsStripsEverythingButNumbers(t *testing.T) {
	cases := map[string]string{
		"010-1234-5678":   "01012345678",
		" 010 1234 5678 ": "01012345678",
		"+82 10-1234":     "82101234",
		"abc":             "",
	}
	for in, want := range cases {
		if got := Digits(in); got != want {
			t.Fatalf("Digits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsKoreanMobileMatchesElevenDigitMobileNumbers(t *testing.T) {
	valid := []string{"01012345678", "010-1234-5678", "01699998888"}
	for _, v := range valid {
		if !IsKoreanMobile(v) {
			t.Fatalf("expected %q to be a Korean mobile number", v)
		}
	}

	invalid := []string{"", "0101234567", "010123456789", "02123456789", "21012345678"}
	for _, v := range invalid {
		if IsKoreanMobile(v) {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
}

func TestNormalizeE164FormatsKoreanNumbers(t *testing.T) {
	if got := NormalizeE164("010-1234-5678"); got != "+821012345678" {
		t.Fatalf("expected E.164 form, got %q", got)
	}
	// unparseable input falls back to the trimmed original
	if got := NormalizeE164(" not-a-number "); got != "not-a-number" {
		t.Fatalf("expected trimmed passthrough, got %q", got)
	}
}
