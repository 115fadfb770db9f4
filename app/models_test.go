package app

import "testing"

func intp(v int) *int { return &v }

func (r *Ratings) assertConsistent(t *testing.T) {
	t.Helper()

	ideaTotal, ideaCount := 0, 0
	productTotal, productCount := 0, 0
	seen := map[string]bool{}
	for _, e := range r.Entries {
		if seen[e.UserID] {
			t.Fatalf("duplicate entry for user %q", e.UserID)
		}
		seen[e.UserID] = true
		if e.Idea != nil {
			ideaTotal += *e.Idea
			ideaCount++
		}
		if e.Product != nil {
			productTotal += *e.Product
			productCount++
		}
	}

	if r.Idea.Total != ideaTotal || r.Idea.Count != ideaCount {
		t.Fatalf("idea aggregate drifted: have {%d %d}, entries say {%d %d}",
			r.Idea.Total, r.Idea.Count, ideaTotal, ideaCount)
	}
	if r.Product.Total != productTotal || r.Product.Count != productCount {
		t.Fatalf("product aggregate drifted: have {%d %d}, entries say {%d %d}",
			r.Product.Total, r.Product.Count, productTotal, productCount)
	}
}

func TestRatingsApplyFirstVote(t *testing.T) {
	var r Ratings
	r.Apply("u1", RatingInput{Idea: intp(4)})

	if r.Idea.Total != 4 || r.Idea.Count != 1 {
		t.Errorf("idea: got {%d %d}, want {4 1}", r.Idea.Total, r.Idea.Count)
	}
	if r.Product.Count != 0 {
		t.Errorf("product count should stay 0, got %d", r.Product.Count)
	}
	r.assertConsistent(t)
}

func TestRatingsApplyReplacesPriorValue(t *testing.T) {
	var r Ratings
	r.Apply("u1", RatingInput{Idea: intp(2)})
	r.Apply("u1", RatingInput{Idea: intp(5)})

	if r.Idea.Total != 5 || r.Idea.Count != 1 {
		t.Errorf("idea: got {%d %d}, want {5 1}", r.Idea.Total, r.Idea.Count)
	}
	if len(r.Entries) != 1 {
		t.Errorf("entries: got %d, want 1", len(r.Entries))
	}
	r.assertConsistent(t)
}

func TestRatingsApplyIdenticalValueIsNoop(t *testing.T) {
	var r Ratings
	r.Apply("u1", RatingInput{Idea: intp(3), Product: intp(4)})
	before := r

	r.Apply("u1", RatingInput{Idea: intp(3), Product: intp(4)})

	if r.Idea != before.Idea || r.Product != before.Product {
		t.Errorf("re-applying identical values changed totals: %+v -> %+v", before, r)
	}
	r.assertConsistent(t)
}

func TestRatingsApplyBothAxesOneCall(t *testing.T) {
	var r Ratings
	r.Apply("u1", RatingInput{Idea: intp(5), Product: intp(2)})

	if r.Idea.Total != 5 || r.Product.Total != 2 {
		t.Errorf("got idea %d product %d, want 5 and 2", r.Idea.Total, r.Product.Total)
	}
	if len(r.Entries) != 1 {
		t.Errorf("both axes must land in one entry, got %d entries", len(r.Entries))
	}
	r.assertConsistent(t)
}

func TestRatingsManyUsers(t *testing.T) {
	var r Ratings
	r.Apply("u1", RatingInput{Idea: intp(5)})
	r.Apply("u2", RatingInput{Idea: intp(3), Product: intp(4)})
	r.Apply("u3", RatingInput{Product: intp(1)})
	r.Apply("u2", RatingInput{Idea: intp(1)}) // revote

	if r.Idea.Total != 6 || r.Idea.Count != 2 {
		t.Errorf("idea: got {%d %d}, want {6 2}", r.Idea.Total, r.Idea.Count)
	}
	if r.Product.Total != 5 || r.Product.Count != 2 {
		t.Errorf("product: got {%d %d}, want {5 2}", r.Product.Total, r.Product.Count)
	}
	r.assertConsistent(t)
}

func TestAxisTotalsAverage(t *testing.T) {
	tests := []struct {
		name   string
		totals AxisTotals
		want   float64
	}{
		{"empty", AxisTotals{}, 0},
		{"single", AxisTotals{Total: 4, Count: 1}, 4},
		{"fractional", AxisTotals{Total: 7, Count: 2}, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.totals.Average(); got != tt.want {
				t.Errorf("Average: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRatingInputValidation(t *testing.T) {
	if !(RatingInput{}).Empty() {
		t.Error("empty input should report Empty")
	}
	if !(RatingInput{Idea: intp(1)}).InRange() {
		t.Error("1 is in range")
	}
	if (RatingInput{Idea: intp(0)}).InRange() {
		t.Error("0 is out of range")
	}
	if (RatingInput{Product: intp(6)}).InRange() {
		t.Error("6 is out of range")
	}
}

func TestLikesToggle(t *testing.T) {
	var l Likes

	if liked := l.Toggle("u1"); !liked {
		t.Error("first toggle should like")
	}
	if l.Count != 1 || !l.Has("u1") {
		t.Errorf("after like: count=%d has=%v", l.Count, l.Has("u1"))
	}

	if liked := l.Toggle("u1"); liked {
		t.Error("second toggle should unlike")
	}
	if l.Count != 0 || l.Has("u1") {
		t.Errorf("double toggle must restore original state: count=%d", l.Count)
	}
}

func TestLikesCountMatchesSet(t *testing.T) {
	var l Likes
	for _, u := range []string{"a", "b", "c", "b", "a", "d"} {
		l.Toggle(u)
		if l.Count != len(l.Users) {
			t.Fatalf("count %d != set size %d after toggling %q", l.Count, len(l.Users), u)
		}
	}
}

func TestApplicationClone(t *testing.T) {
	a := &Application{Name: "DevTracker"}
	a.SyncNameIndex()
	a.Likes.Toggle("u1")
	a.Ratings.Apply("u1", RatingInput{Idea: intp(4)})

	c := a.Clone()
	c.Likes.Toggle("u2")
	c.Ratings.Apply("u1", RatingInput{Idea: intp(1)})
	*c.Ratings.Entries[0].Idea = 2

	if a.Likes.Count != 1 {
		t.Errorf("clone mutation leaked into original like set")
	}
	if *a.Ratings.Entries[0].Idea != 4 {
		t.Errorf("clone mutation leaked into original rating entry")
	}
	if a.NameLower != "devtracker" {
		t.Errorf("SyncNameIndex: got %q", a.NameLower)
	}
}
