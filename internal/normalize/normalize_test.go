package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

const testBase = "http://h:8000"

func str(v string) *string {
	return &v
}

func num(v float64) *float64 {
	return &v
}

func seed(v int64) *int64 {
	return &v
}

func size(v int64) *int64 {
	return &v
}

func TestExtractFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"BareFilename", "c.png", "c.png", true},
		{"ForwardSlashes", "a/b/c.png", "c.png", true},
		{"Backslashes", `a\b\c.png`, "c.png", true},
		{"MixedSeparators", `out\2024/img.png`, "img.png", true},
		{"AbsolutePath", "/srv/images/x.png", "x.png", true},
		{"TrailingSeparator", "images/cat1.png/", "cat1.png", true},
		{"RepeatedSeparators", "images//cat1.png", "cat1.png", true},
		{"Empty", "", "", false},
		{"OnlySeparators", `//\\/`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFilename(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFilename_IdempotentOnBareNames(t *testing.T) {
	for _, name := range []string{"x.png", "img123.png", "a b.jpg", "..", "no-extension"} {
		got, ok := ExtractFilename(name)
		require.True(t, ok)
		assert.Equal(t, name, got)

		again, ok := ExtractFilename(got)
		require.True(t, ok)
		assert.Equal(t, got, again)
	}
}

func TestBuildImageURL(t *testing.T) {
	assert.Equal(t, "http://h:8000/api/v1/image/x.png", BuildImageURL(testBase, "x.png"))
	assert.Equal(t, "http://h:8000/api/v1/image/x.png", BuildImageURL(testBase+"/", "x.png"))
	assert.NotEqual(t, BuildImageURL(testBase, "a.png"), BuildImageURL(testBase, "b.png"))
}

func TestValidateFilename(t *testing.T) {
	for _, good := range []string{"x.png", "img_123.png", "a..b.png", ".hidden"} {
		assert.NoError(t, ValidateFilename(good), good)
	}
	for _, bad := range []string{"", ".", "..", "a/b.png", `a\b.png`, "a\x00.png", "line\nbreak.png"} {
		assert.ErrorIs(t, ValidateFilename(bad), ErrInvalidFilename, "%q", bad)
	}
}

func TestNormalizeGenerationResult(t *testing.T) {
	t.Run("DerivesFilenameAndURL", func(t *testing.T) {
		raw := models.RawGenerationResult{
			Success:        true,
			Message:        "Image generated successfully",
			ImagePath:      str("out/img123.png"),
			GenerationTime: num(1.5),
			SeedUsed:       seed(7),
		}

		got := NormalizeGenerationResult(raw, testBase)

		assert.True(t, got.Success)
		assert.Equal(t, "Image generated successfully", got.Message)
		assert.Equal(t, "out/img123.png", got.ImagePath)
		assert.Equal(t, 1.5, got.GenerationTime)
		assert.Equal(t, int64(7), got.SeedUsed)
		assert.Equal(t, "img123.png", got.Filename)
		assert.True(t, strings.HasSuffix(got.ImageURL, "/api/v1/image/img123.png"))
		assert.True(t, got.HasImage())
	})

	t.Run("DerivedFieldsWinOverRawOnes", func(t *testing.T) {
		raw := models.RawGenerationResult{
			Success:   true,
			ImagePath: str(`C:\images\fresh.png`),
			ImageURL:  str("/static/stale.png"),
			Filename:  str("stale.png"),
		}

		got := NormalizeGenerationResult(raw, testBase)

		assert.Equal(t, "fresh.png", got.Filename)
		assert.Equal(t, "http://h:8000/api/v1/image/fresh.png", got.ImageURL)
	})

	t.Run("MissingImagePathLeavesDerivedFieldsAbsent", func(t *testing.T) {
		raw := models.RawGenerationResult{
			Success:  false,
			Message:  "generation failed",
			ImageURL: str("http://elsewhere/x.png"),
			Filename: str("x.png"),
		}

		got := NormalizeGenerationResult(raw, testBase)

		assert.Empty(t, got.Filename)
		assert.Empty(t, got.ImageURL)
		assert.False(t, got.HasImage())
		assert.Equal(t, "generation failed", got.Message)
	})

	t.Run("UnusablePathLeavesDerivedFieldsAbsent", func(t *testing.T) {
		for _, p := range []string{"", "///", "images/.."} {
			got := NormalizeGenerationResult(models.RawGenerationResult{ImagePath: str(p)}, testBase)
			assert.Empty(t, got.Filename, p)
			assert.Empty(t, got.ImageURL, p)
			assert.Equal(t, p, got.ImagePath)
		}
	})

	t.Run("NegativeGenerationTimeClampsToZero", func(t *testing.T) {
		got := NormalizeGenerationResult(models.RawGenerationResult{GenerationTime: num(-3)}, testBase)
		assert.Zero(t, got.GenerationTime)
	})
}

func TestNormalizeImageList(t *testing.T) {
	t.Run("EmptyInput", func(t *testing.T) {
		got := NormalizeImageList(nil, testBase)
		require.NotNil(t, got)
		assert.Empty(t, got)

		got = NormalizeImageList([]models.RawImageEntry{}, testBase)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("OrdersNewestFirstAndComputesURLs", func(t *testing.T) {
		raw := []models.RawImageEntry{
			{Path: str("dir/a.png"), Created: num(5)},
			{Filename: str("b.png"), Created: num(10)},
		}

		got := NormalizeImageList(raw, testBase)

		require.Len(t, got, 2)
		assert.Equal(t, "b.png", got[0].Filename)
		assert.Equal(t, int64(10), got[0].Created)
		assert.Equal(t, "a.png", got[1].Filename)
		assert.Equal(t, int64(5), got[1].Created)
		for _, e := range got {
			assert.True(t, strings.HasSuffix(e.URL, "/api/v1/image/"+e.Filename), e.URL)
		}
	})

	t.Run("DropsEntriesWithoutFilename", func(t *testing.T) {
		got := NormalizeImageList([]models.RawImageEntry{{Created: num(1)}}, testBase)
		assert.Empty(t, got)
	})

	t.Run("DropsUnsafeEntriesWithoutAbortingTheList", func(t *testing.T) {
		raw := []models.RawImageEntry{
			{Filename: str("..")},
			{Path: str("a/..")},
			{Path: str("/")},
			{Path: str("images/ok.png")},
			{Filename: str("")},
		}

		got := NormalizeImageList(raw, testBase)

		require.Len(t, got, 1)
		assert.Equal(t, "ok.png", got[0].Filename)
	})

	t.Run("FallsBackToPathWhenFilenameIsUnsafe", func(t *testing.T) {
		raw := []models.RawImageEntry{{Filename: str(".."), Path: str("images/real.png")}}

		got := NormalizeImageList(raw, testBase)

		require.Len(t, got, 1)
		assert.Equal(t, "real.png", got[0].Filename)
		assert.Equal(t, testBase+"/api/v1/image/real.png", got[0].URL)
	})

	t.Run("PrefersExplicitFilenameOverPath", func(t *testing.T) {
		raw := []models.RawImageEntry{{Filename: str("named.png"), Path: str("dir/other.png")}}

		got := NormalizeImageList(raw, testBase)

		require.Len(t, got, 1)
		assert.Equal(t, "named.png", got[0].Filename)
	})

	t.Run("KeepsExplicitURL", func(t *testing.T) {
		raw := []models.RawImageEntry{
			{Filename: str("a.png"), URL: str("https://cdn.example.com/a.png")},
			{Filename: str("b.png"), URL: str("/api/v1/image/b.png")},
			{Filename: str("c.png"), URL: str("")},
		}

		got := NormalizeImageList(raw, testBase)

		require.Len(t, got, 3)
		assert.Equal(t, "https://cdn.example.com/a.png", got[0].URL)
		assert.Equal(t, "http://h:8000/api/v1/image/b.png", got[1].URL)
		assert.Equal(t, "http://h:8000/api/v1/image/c.png", got[2].URL)
	})

	t.Run("DefaultsCreatedAndTruncatesFloats", func(t *testing.T) {
		raw := []models.RawImageEntry{
			{Filename: str("old.png")},
			{Filename: str("new.png"), Created: num(1718000000.987), Size: size(2048)},
		}

		got := NormalizeImageList(raw, testBase)

		require.Len(t, got, 2)
		assert.Equal(t, "new.png", got[0].Filename)
		assert.Equal(t, int64(1718000000), got[0].Created)
		assert.Equal(t, int64(2048), got[0].Size)
		assert.Equal(t, "old.png", got[1].Filename)
		assert.Zero(t, got[1].Created)
		assert.Zero(t, got[1].Size)
	})

	t.Run("BreaksTiesByFilename", func(t *testing.T) {
		raw := []models.RawImageEntry{
			{Filename: str("c.png"), Created: num(3)},
			{Filename: str("a.png"), Created: num(3)},
			{Filename: str("b.png"), Created: num(3)},
			{Filename: str("z.png"), Created: num(4)},
		}

		got := NormalizeImageList(raw, testBase)

		names := make([]string, 0, len(got))
		for _, e := range got {
			names = append(names, e.Filename)
		}
		assert.Equal(t, []string{"z.png", "a.png", "b.png", "c.png"}, names)
	})
}

func TestNormalizeImageListResponse_MissingImagesField(t *testing.T) {
	got := NormalizeImageListResponse(models.ImageListResponse{}, testBase)
	require.NotNil(t, got.Images)
	assert.Empty(t, got.Images)
}
