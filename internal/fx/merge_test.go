package fx

import (
	"testing"
	"time"
)

func TestBestByCurrency_NewestWinsAcrossSources(t *testing.T) {
	t1 := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	in := []Rate{
		{Currency: USD, TWDPerUnit: 32.1, Source: "Composite", FetchedAt: t2},
		{Currency: USD, TWDPerUnit: 31.9, Source: "BankOfTaiwan", FetchedAt: t1},
	}
	out := BestByCurrency(in)
	if len(out) != 1 {
		t.Fatalf("want 1, got %d: %+v", len(out), out)
	}
	if out[0].Source != "Composite" || out[0].TWDPerUnit != 32.1 {
		t.Fatalf("unexpected winner: %+v", out[0])
	}
}

func TestBestByCurrency_LaterInputWinsTies(t *testing.T) {
	ts := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	in := []Rate{
		{Currency: USD, TWDPerUnit: 32.0, Source: "Composite", FetchedAt: ts},
		{Currency: USD, TWDPerUnit: 31.9, Source: "BankOfTaiwan", FetchedAt: ts},
	}
	out := BestByCurrency(in)
	if len(out) != 1 || out[0].Source != "BankOfTaiwan" {
		t.Fatalf("bank board should win equal timestamps: %+v", out)
	}
}

func TestBestByCurrency_SortedByCurrency(t *testing.T) {
	ts := time.Now().UTC()
	in := []Rate{
		{Currency: USD, TWDPerUnit: 32, FetchedAt: ts},
		{Currency: EUR, TWDPerUnit: 35, FetchedAt: ts},
		{Currency: JPY, TWDPerUnit: 0.21, FetchedAt: ts},
	}
	out := BestByCurrency(in)
	if len(out) != 3 {
		t.Fatalf("want 3, got %d", len(out))
	}
	if out[0].Currency != EUR || out[1].Currency != JPY || out[2].Currency != USD {
		t.Fatalf("not sorted: %+v", out)
	}
}
