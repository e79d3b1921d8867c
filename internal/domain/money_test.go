package domain

import "testing"

func TestParsePence(t *testing.T) {
	cases := []struct {
		in   string
		want Pence
	}{
		{"2.00", 200},
		{"0.50", 50},
		{"0.05", 5},
		{"0.01", 1},
		{"1.5", 150},
		{"3", 300},
		{"1.25", 125},
	}
	for _, c := range cases {
		got, err := ParsePence(c.in)
		if err != nil {
			t.Fatalf("ParsePence(%q): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParsePence(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParsePence_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.234", "1.", "-1.00", "-0.5", "1.0x"} {
		if _, err := ParsePence(in); err == nil {
			t.Errorf("ParsePence(%q): expected error", in)
		}
	}
}

func TestPenceString(t *testing.T) {
	cases := []struct {
		in   Pence
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{50, "0.50"},
		{125, "1.25"},
		{200, "2.00"},
		{-75, "-0.75"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Pence(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDenomination(t *testing.T) {
	d, err := ParseDenomination("0.20")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d != 20 {
		t.Errorf("expected 20, got %d", d)
	}

	for _, in := range []string{"0.25", "5.00", "0.03", "nope", ""} {
		if _, err := ParseDenomination(in); err != ErrUnknownDenomination {
			t.Errorf("ParseDenomination(%q): expected ErrUnknownDenomination, got %v", in, err)
		}
	}
}

func TestDenominationsOrderedDescending(t *testing.T) {
	for i := 1; i < len(Denominations); i++ {
		if Denominations[i] >= Denominations[i-1] {
			t.Fatalf("denominations not descending at %d: %v", i, Denominations)
		}
	}
}

func TestCoinStockTotal(t *testing.T) {
	cs := NewCoinStock()
	cs[200] = 2
	cs[50] = 1
	cs[1] = 3
	if got := cs.Total(); got != 453 {
		t.Errorf("expected total 453, got %d", got)
	}
}

func TestCoinStockClone(t *testing.T) {
	cs := NewCoinStock()
	cs[100] = 4
	clone := cs.Clone()
	clone[100] = 0
	if cs[100] != 4 {
		t.Errorf("clone aliases original stock")
	}
}
