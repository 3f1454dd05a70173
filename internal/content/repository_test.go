package content

import (
	"context"
	"errors"
	"testing"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/cache"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/testutil"
)

func newHomeRepo(t *testing.T) (*Repository[model.HomePage], backend.Principal) {
	t.Helper()
	local, _ := testutil.TestLocal(t)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	repo := NewRepository[model.HomePage](local, model.PageHome, mem, time.Minute, testutil.TestLogger())
	editor := testutil.SignIn(t, local, testutil.EditorEmail).Principal()
	return repo, editor
}

func TestLoadEmpty(t *testing.T) {
	repo, _ := newHomeRepo(t)

	e, err := repo.Load(context.Background(), backend.Anonymous)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e != nil {
		t.Errorf("Load = %+v; want nil", e)
	}
}

func TestSaveThenLoad(t *testing.T) {
	repo, editor := newHomeRepo(t)
	ctx := context.Background()

	page := model.DefaultHomePage()
	page.HeroTitle = "向上，安居"

	saved, err := repo.Save(ctx, editor, Entry[model.HomePage]{Page: page})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" || saved.Version.IsZero() {
		t.Errorf("saved entry missing metadata: %+v", saved)
	}
	if saved.UpdatedBy != editor.UserID {
		t.Errorf("UpdatedBy = %q; want %q", saved.UpdatedBy, editor.UserID)
	}

	got, err := repo.Load(ctx, backend.Anonymous)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Page.HeroTitle != "向上，安居" {
		t.Errorf("HeroTitle = %q", got.Page.HeroTitle)
	}
	if len(got.Page.Stats.Items()) != len(page.Stats.Items()) {
		t.Errorf("Stats = %v; want %v", got.Page.Stats, page.Stats)
	}
}

func TestSaveInvalidatesCache(t *testing.T) {
	repo, editor := newHomeRepo(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, editor, Entry[model.HomePage]{Page: model.HomePage{HeroTitle: "一"}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Prime the cache.
	if _, err := repo.Load(ctx, backend.Anonymous); err != nil {
		t.Fatalf("Load: %v", err)
	}

	first.Page.HeroTitle = "二"
	if _, err := repo.Save(ctx, editor, *first); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Load(ctx, backend.Anonymous)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Page.HeroTitle != "二" {
		t.Errorf("Load after Save = %q; want 二", got.Page.HeroTitle)
	}
}

func TestSaveStaleVersionConflicts(t *testing.T) {
	repo, editor := newHomeRepo(t)
	ctx := context.Background()

	base, err := repo.Save(ctx, editor, Entry[model.HomePage]{Page: model.HomePage{HeroTitle: "base"}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Two editors load the same version; the second save loses.
	a, b := *base, *base
	a.Page.HeroTitle = "a"
	b.Page.HeroTitle = "b"
	if _, err := repo.Save(ctx, editor, a); err != nil {
		t.Fatalf("first concurrent Save: %v", err)
	}
	if _, err := repo.Save(ctx, editor, b); !errors.Is(err, backend.ErrConflict) {
		t.Errorf("stale Save err = %v; want ErrConflict", err)
	}

	// A zero version is last-write-wins.
	b.Version = time.Time{}
	if _, err := repo.Save(ctx, editor, b); err != nil {
		t.Errorf("unversioned Save: %v", err)
	}
}

func TestSaveAnonymousIsUnauthorized(t *testing.T) {
	repo, _ := newHomeRepo(t)

	_, err := repo.Save(context.Background(), backend.Anonymous, Entry[model.HomePage]{})
	if !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("err = %v; want ErrUnauthorized", err)
	}
}

func TestParseJSONField(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"valid", `[{"label":"交屋","value":"2,800+"}]`, 1, false},
		{"blank", "  \n", 0, false},
		{"broken", `[{"label":`, 0, true},
		{"object is kept", `{"label":"x"}`, 0, false},
		{"numbers and extra keys", `[{"label":"年","value":2001,"icon":"star"}]`, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONField[model.Stat]("stats", tt.raw)
			if tt.wantErr {
				var ve *backend.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err = %v; want ValidationError", err)
				}
				if ve.Field != "stats" {
					t.Errorf("Field = %q", ve.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if len(got.Items()) != tt.want {
				t.Errorf("len = %d; want %d", len(got.Items()), tt.want)
			}
			if !isBlank(tt.raw) {
				assert.JSONEq(t, tt.raw, string(got.Raw()))
			}
		})
	}
}

func TestParseJSONFieldNamesFieldOnce(t *testing.T) {
	_, err := ParseJSONField[model.Milestone]("milestones", `[{"year":`)
	require.Error(t, err)

	var ve *backend.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "milestones", ve.Field)
	assert.NotContains(t, backend.Message(err), "milestones")
	assert.Equal(t, 1, strings.Count(err.Error(), "milestones"))
}

func TestStructuredFieldsRoundTripVerbatim(t *testing.T) {
	local, _ := testutil.TestLocal(t)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	repo := NewRepository[model.AboutPage](local, model.PageAbout, mem, time.Minute, testutil.TestLogger())
	editor := testutil.SignIn(t, local, testutil.EditorEmail).Principal()
	ctx := context.Background()

	raw := `[{"year": 2020, "title": "新總部落成", "description": "竹南", "icon": "building"}, "loose"]`
	milestones, err := ParseJSONField[model.Milestone]("milestones", raw)
	require.NoError(t, err)

	page := model.DefaultAboutPage()
	page.Milestones = milestones
	_, err = repo.Save(ctx, editor, Entry[model.AboutPage]{Page: page})
	require.NoError(t, err)

	require.NoError(t, mem.Clear(ctx))
	got, err := repo.Load(ctx, backend.Anonymous)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.JSONEq(t, raw, string(got.Page.Milestones.Raw()))
	assert.JSONEq(t, raw, FormatJSONField(got.Page.Milestones))

	items := got.Page.Milestones.Items()
	require.Len(t, items, 1)
	assert.Equal(t, model.Text("2020"), items[0].Year)
	assert.Equal(t, model.Text("新總部落成"), items[0].Title)
}

func TestVersionRoundTrip(t *testing.T) {
	v := time.Date(2024, 5, 1, 8, 0, 0, 123456789, time.UTC)
	got, err := ParseVersion(FormatVersion(v))
	if err != nil || !got.Equal(v) {
		t.Errorf("round trip = %v, %v; want %v", got, err, v)
	}

	if zero, err := ParseVersion(""); err != nil || !zero.IsZero() {
		t.Errorf("ParseVersion(\"\") = %v, %v", zero, err)
	}
	if _, err := ParseVersion("yesterday"); !backend.IsValidation(err) {
		t.Errorf("ParseVersion(garbage) err = %v; want ValidationError", err)
	}
}
