package aggregate

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
)

func post(slug, date string, pinned bool, category string, tags ...string) *models.Post {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return &models.Post{Slug: slug, Title: slug, Date: d, Pinned: pinned, Category: category, Tags: tags}
}

func slugs(posts []*models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func equal(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIndex_PinnedScenario(t *testing.T) {
	posts := []*models.Post{
		post("first", "2026-01-01", false, "x"),
		post("second", "2026-01-05", true, "x"),
		post("third", "2026-01-03", false, "x"),
	}
	equal(t, slugs(Index(posts)), []string{"second", "third", "first"})
}

func TestIndex_PinnedBeatsNewer(t *testing.T) {
	posts := []*models.Post{
		post("new", "2026-06-01", false, "x"),
		post("old-pinned", "2020-01-01", true, "x"),
		post("mid-pinned", "2023-01-01", true, "x"),
	}
	equal(t, slugs(Index(posts)), []string{"mid-pinned", "old-pinned", "new"})
}

func TestIndex_SlugTieBreak(t *testing.T) {
	posts := []*models.Post{
		post("b", "2026-01-01", false, "x"),
		post("a", "2026-01-01", false, "x"),
		post("c", "2026-01-01", false, "x"),
	}
	equal(t, slugs(Index(posts)), []string{"a", "b", "c"})
}

func TestIndex_PinnedFirstProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		var posts []*models.Post
		for i := 0; i < 20; i++ {
			d := time.Date(2020+rng.Intn(6), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
			posts = append(posts, &models.Post{
				Slug:   string(rune('a'+i)) + "-post",
				Date:   d,
				Pinned: rng.Intn(4) == 0,
			})
		}
		idx := Index(posts)
		seenUnpinned := false
		for _, p := range idx {
			if !p.Pinned {
				seenUnpinned = true
			} else if seenUnpinned {
				t.Fatalf("round %d: pinned %s after an unpinned post", round, p.Slug)
			}
		}
	}
}

func TestIndex_DoesNotMutateInput(t *testing.T) {
	posts := []*models.Post{
		post("a", "2026-01-01", false, "x"),
		post("b", "2026-01-02", false, "x"),
	}
	_ = Index(posts)
	equal(t, slugs(posts), []string{"a", "b"})
}

func TestCategories(t *testing.T) {
	posts := []*models.Post{
		post("go-1", "2026-01-01", false, "go"),
		post("web-1", "2026-01-02", false, "Web"),
		post("go-2", "2026-01-03", true, "go"),
		post("misc", "2026-01-04", false, "uncategorized"),
	}
	groups := Categories(posts)
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	equal(t, names, []string{"Web", "go", "uncategorized"})
	equal(t, slugs(groups[1].Posts), []string{"go-2", "go-1"})
	if groups[1].Latest().Slug != "go-2" || groups[1].Count() != 2 {
		t.Errorf("go group stats wrong: latest %s count %d", groups[1].Latest().Slug, groups[1].Count())
	}
}

func TestTags(t *testing.T) {
	posts := []*models.Post{
		post("a", "2026-01-01", false, "x", "go", "web"),
		post("b", "2026-01-02", false, "x", "go"),
		post("c", "2026-01-03", false, "x"),
		post("d", "2026-01-04", false, "x", "go", "go"),
	}
	groups := Tags(posts)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Name != "go" || groups[1].Name != "web" {
		t.Fatalf("names = %s, %s", groups[0].Name, groups[1].Name)
	}
	equal(t, slugs(groups[0].Posts), []string{"d", "b", "a"})
	equal(t, slugs(groups[1].Posts), []string{"a"})

	if math.Abs(groups[0].Weight-1.7) > 1e-9 {
		t.Errorf("go weight = %v, want 1.7", groups[0].Weight)
	}
	if w := groups[1].Weight; w < 1.16 || w > 1.17 {
		t.Errorf("web weight = %v, want ~1.1667", w)
	}
}

func TestTags_UniformWeight(t *testing.T) {
	groups := Tags([]*models.Post{post("a", "2026-01-01", false, "x", "solo")})
	if len(groups) != 1 || groups[0].Weight != 1.2 {
		t.Errorf("groups = %+v", groups)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	posts := []*models.Post{
		post("a", "2026-01-01", false, "one", "t1", "t2"),
		post("b", "2026-01-01", true, "two", "t2"),
		post("c", "2026-02-01", false, "one", "t1"),
		post("d", "2025-12-31", false, "two"),
	}
	reversed := []*models.Post{posts[3], posts[2], posts[1], posts[0]}

	x := Aggregate(posts)
	y := Aggregate(reversed)
	equal(t, slugs(x.Index), slugs(y.Index))
	if len(x.Categories) != len(y.Categories) || len(x.Tags) != len(y.Tags) {
		t.Fatal("group counts differ")
	}
	for i := range x.Categories {
		equal(t, slugs(x.Categories[i].Posts), slugs(y.Categories[i].Posts))
	}
	for i := range x.Tags {
		equal(t, slugs(x.Tags[i].Posts), slugs(y.Tags[i].Posts))
	}
}

func TestAggregate_Empty(t *testing.T) {
	a := Aggregate(nil)
	if len(a.Index) != 0 || len(a.Categories) != 0 || len(a.Tags) != 0 {
		t.Errorf("aggregation of nothing = %+v", a)
	}
}
