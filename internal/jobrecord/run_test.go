package jobrecord

import (
	"context"
	"testing"
)

func acceptAllFilters() Filters {
	return Filters{
		IsSenior:        func(string) bool { return false },
		AcceptRole:      func(string) (bool, string) { return true, "" },
		AcceptLocation:  func(string) bool { return true },
		AcceptFreshness: func(Source, string) bool { return true },
	}
}

func TestRunAddRejectsSeniorityBeforeDedup(t *testing.T) {
	run := NewRun(Filters{
		IsSenior: func(title string) bool { return title == "Senior Engineer" },
	}, nil, nil)

	accepted, reason := run.Add(context.Background(), Record{Title: "Senior Engineer", Company: "Acme", URL: "https://x/1"})
	if accepted || reason != RejectSeniority {
		t.Fatalf("accepted=%v reason=%v, want rejected with RejectSeniority", accepted, reason)
	}
	if len(run.seenURLs) != 0 || len(run.seenSigs) != 0 {
		t.Fatal("a seniority rejection must not pollute the dedup sets")
	}
}

func TestRunAddDedupesByURL(t *testing.T) {
	run := NewRun(acceptAllFilters(), nil, nil)
	ctx := context.Background()

	ok1, _ := run.Add(ctx, Record{Title: "Engineer", Company: "Acme", URL: "https://x/1?utm=a"})
	ok2, reason := run.Add(ctx, Record{Title: "Engineer II", Company: "Acme Inc", URL: "https://x/1?utm=b"})

	if !ok1 {
		t.Fatal("first record should be accepted")
	}
	if ok2 || reason != RejectDuplicate {
		t.Fatalf("second record sharing a normalized URL should be rejected as duplicate, got accepted=%v reason=%v", ok2, reason)
	}
}

func TestRunAddDedupesBySignature(t *testing.T) {
	run := NewRun(acceptAllFilters(), nil, nil)
	ctx := context.Background()

	ok1, _ := run.Add(ctx, Record{Title: "Engineer", Company: "Acme", URL: "https://x/1"})
	ok2, reason := run.Add(ctx, Record{Title: "Engineer", Company: "Acme", URL: "https://x/2"})

	if !ok1 {
		t.Fatal("first record should be accepted")
	}
	if ok2 || reason != RejectDuplicateSg {
		t.Fatalf("second record sharing a company+title signature should be rejected, got accepted=%v reason=%v", ok2, reason)
	}
}

func TestRunCountsPerSource(t *testing.T) {
	run := NewRun(acceptAllFilters(), nil, nil)
	ctx := context.Background()

	run.Add(ctx, Record{Title: "A", Company: "C1", URL: "https://x/1", Source: SourceGreenhouse})
	run.Add(ctx, Record{Title: "B", Company: "C2", URL: "https://x/2", Source: SourceGreenhouse})
	run.Add(ctx, Record{Title: "C", Company: "C3", URL: "https://x/3", Source: SourceLever})

	counts := run.Counts()
	if counts[SourceGreenhouse] != 2 {
		t.Errorf("SourceGreenhouse count = %d, want 2", counts[SourceGreenhouse])
	}
	if counts[SourceLever] != 1 {
		t.Errorf("SourceLever count = %d, want 1", counts[SourceLever])
	}
}
