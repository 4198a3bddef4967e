package parser

import (
	"testing"
	"time"
)

func TestNormalizeColumnName_Variants(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"order_approved_at":    "order_approved_at",
		" Order Approved At ":  "order_approved_at",
		"ORDER-APPROVED-AT":    "order_approved_at",
		"\ufeffcustomer_state": "customer_state",
		"review  score":        "review_score",
		"freight.value":        "freight_value",
		"_product__category_":  "product_category",
	}
	for in, want := range cases {
		if got := NormalizeColumnName(in); got != want {
			t.Fatalf("NormalizeColumnName(%q) want=%q got=%q", in, want, got)
		}
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	t.Parallel()

	want := time.Date(2017, 10, 2, 11, 7, 15, 0, time.UTC)
	for _, in := range []string{
		"2017-10-02 11:07:15",
		"2017-10-02T11:07:15",
		"2017-10-02T11:07:15Z",
	} {
		got, err := ParseTimestamp(in, false)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q want=%v got=%v", in, want, got)
		}
	}

	day, err := ParseTimestamp("2017-10-02", false)
	if err != nil || !day.Equal(time.Date(2017, 10, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only: %v %v", day, err)
	}
}

func TestParseTimestamp_ExcelSerial(t *testing.T) {
	t.Parallel()

	// 42737.4375 = 2017-01-02 10:30:00
	got, err := ParseTimestamp("42737.4375", true)
	if err != nil {
		t.Fatalf("parse serial: %v", err)
	}
	if want := time.Date(2017, 1, 2, 10, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("serial want=%v got=%v", want, got)
	}

	if _, err := ParseTimestamp("42737.4375", false); err == nil {
		t.Fatalf("serial must be rejected for csv input")
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "yesterday", "2017-13-45 00:00:00"} {
		if _, err := ParseTimestamp(in, true); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestParseMoney(t *testing.T) {
	t.Parallel()

	got, err := parseMoney("R$ 1,234.50")
	if err != nil {
		t.Fatalf("parse money: %v", err)
	}
	if got.String() != "1234.5" {
		t.Fatalf("unexpected amount: %s", got)
	}
	if _, err := parseMoney("-1"); err == nil {
		t.Fatalf("negative amount must fail")
	}
	if _, err := parseMoney(""); err == nil {
		t.Fatalf("empty amount must fail")
	}
}
