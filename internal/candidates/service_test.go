package candidates

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingRepo struct {
	MemoryRepo
	err error
}

func (r *failingRepo) Insert(ctx context.Context, rec StoredRecord) error { return r.err }

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local)
}

func TestServiceInsertSkipsDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	svc.Now = fixedNow

	inserted, total, err := svc.Insert(context.Background(), []Record{
		sampleRecord("x@y.com", "1"),
		sampleRecord("x@y.com", "2"),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted != 1 || total != 2 {
		t.Fatalf("expected (1,2), got (%d,%d)", inserted, total)
	}

	rows, err := svc.Search(context.Background(), Filters{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0].Mobile != "1" {
		t.Fatalf("expected first record kept, got %+v", rows)
	}
	if rows[0].CreatedAt != "2024-05-01 09:30:15" {
		t.Fatalf("unexpected created_at %q", rows[0].CreatedAt)
	}
	if rows[0].ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestServiceInsertEmptyBatch(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	inserted, total, err := svc.Insert(context.Background(), nil)
	if err != nil || inserted != 0 || total != 0 {
		t.Fatalf("expected (0,0,nil), got (%d,%d,%v)", inserted, total, err)
	}
}

func TestServiceInsertAbortsOnRepoError(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&failingRepo{err: boom})

	inserted, total, err := svc.Insert(context.Background(), []Record{sampleRecord("a@x.com", "1"), sampleRecord("b@x.com", "2")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected repo error, got %v", err)
	}
	if inserted != 0 || total != 1 {
		t.Fatalf("expected (0,1), got (%d,%d)", inserted, total)
	}
}

func TestServiceSearchFilters(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	day1 := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local) }
	day2 := func() time.Time { return time.Date(2024, 5, 2, 12, 0, 0, 0, time.Local) }

	svc.Now = day1
	first := sampleRecord("a@x.com", "+91 98765 00001")
	first.Graduation = "MBA"
	first.TotalYearsOfExperience = "3"
	if _, _, err := svc.Insert(ctx, []Record{first}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	svc.Now = day2
	second := sampleRecord("b@x.com", "+1 415 555 0002")
	second.TotalYearsOfExperience = "12"
	if _, _, err := svc.Insert(ctx, []Record{second}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	cases := []struct {
		name   string
		filter Filters
		want   []string
	}{
		{"no filters", Filters{}, []string{"a@x.com", "b@x.com"}},
		{"date", Filters{CreatedAt: "2024-05-02"}, []string{"b@x.com"}},
		{"graduation contains", Filters{Graduation: "tech"}, []string{"b@x.com"}},
		{"experience contains", Filters{Experience: "2"}, []string{"b@x.com"}},
		{"mobile contains", Filters{Mobile: "98765"}, []string{"a@x.com"}},
		{"anded", Filters{CreatedAt: "2024-05-01", Graduation: "tech"}, nil},
	}
	for _, tc := range cases {
		got, err := svc.Search(ctx, tc.filter)
		if err != nil {
			t.Fatalf("%s: Search: %v", tc.name, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %d rows, got %d", tc.name, len(tc.want), len(got))
		}
		for i := range got {
			if got[i].Emails != tc.want[i] {
				t.Fatalf("%s: row %d = %s, want %s", tc.name, i, got[i].Emails, tc.want[i])
			}
		}
	}
}

func TestServiceSearchRejectsBadDate(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.Search(context.Background(), Filters{CreatedAt: "01/05/2024"})
	if !errors.Is(err, ErrInvalidFilters) {
		t.Fatalf("expected ErrInvalidFilters, got %v", err)
	}
}

func TestFiltersIsEmpty(t *testing.T) {
	if !(Filters{Mobile: "   "}).IsEmpty() {
		t.Fatal("expected whitespace-only filters to be empty")
	}
	if (Filters{Experience: "5"}).IsEmpty() {
		t.Fatal("expected experience filter to count")
	}
}
