package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestETagRoundTrip(t *testing.T) {
	for _, tag := range []string{ETag("abc"), `W/"abc"`, "abc", ` "abc" `} {
		if got := FromETag(tag); got != "abc" {
			t.Errorf("FromETag(%q) = %q, want %q", tag, got, "abc")
		}
	}
}
