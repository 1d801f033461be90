package model_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		text    string
		wantErr bool
	}{
		{text: "1.2.3"},
		{text: "0.0.1"},
		{text: "1.0.0-alpha.1"},
		{text: "1.0.0+build.5"},
		{text: "1.0.0-rc.1+build.5"},
		{text: " 2.0.0 "},
		{text: "v1.2.3", wantErr: true},
		{text: "1.2", wantErr: true},
		{text: "new major", wantErr: true},
		{text: "01.2.3", wantErr: true},
		{text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := model.ParseVersion(tt.text)
			if tt.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, model.ErrTagValidation))
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestCoerceVersion(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "", want: "0.0.0"},
		{text: "v1.2.3", want: "1.2.3"},
		{text: "1.2", want: "1.2.0"},
		{text: "2.0.0-rc.1", want: "2.0.0-rc.1"},
		{text: "2.0.0rc1", want: "2.0.0-rc.1"},
		{text: "2.0.0b2", want: "2.0.0-beta.2"},
		{text: "2.0.0a1", want: "2.0.0-alpha.1"},
		{text: "2.0.0.dev3", want: "2.0.0-dev.3"},
		{text: "2.0.0rc1.dev2", want: "2.0.0-rc.1.dev.2"},
		{text: "1.0.0.post1", want: "1.0.0+post.1"},
		{text: "1.0.post2", want: "1.0.0+post.2"},
		{text: "1.0.0+local.7", want: "1.0.0+local.7"},
		{text: "1.2.3.4", want: "1.2.3+segments.4"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, err := model.CoerceVersion(tt.text)
			gt.NoError(t, err)
			gt.Value(t, v.String()).Equal(tt.want)
		})
	}

	t.Run("package index versions order like releases", func(t *testing.T) {
		release := model.MustParseVersion("1.0.0")

		post, err := model.CoerceVersion("1.0.0.post1")
		gt.NoError(t, err)
		gt.True(t, model.IsReleased(post, release))
		gt.False(t, model.IsReleased(post, model.MustParseVersion("1.0.1")))

		rc, err := model.CoerceVersion("1.0.0rc1")
		gt.NoError(t, err)
		gt.False(t, model.IsReleased(rc, release))
		gt.True(t, model.IsReleased(rc, model.MustParseVersion("1.0.0-alpha.1")))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := model.CoerceVersion("latest")
		gt.Error(t, err)
	})
}

func TestVersion_Next(t *testing.T) {
	v := model.MustParseVersion("1.2.3")
	gt.Value(t, v.NextPatch().String()).Equal("1.2.4")
	gt.Value(t, v.NextMinor().String()).Equal("1.3.0")
	gt.Value(t, v.NextMajor().String()).Equal("2.0.0")

	t.Run("pre-release and build are cleared", func(t *testing.T) {
		v := model.MustParseVersion("1.2.3-rc.1+build.7")
		gt.Value(t, v.NextMajor().String()).Equal("2.0.0")
		gt.Value(t, v.NextMinor().String()).Equal("1.3.0")
		gt.Value(t, v.NextPatch().String()).Equal("1.2.3")
	})

	t.Run("zero version", func(t *testing.T) {
		var zero model.Version
		gt.True(t, zero.IsZero())
		gt.Value(t, zero.NextMinor().String()).Equal("0.1.0")
	})
}

func TestVersion_Compare(t *testing.T) {
	// Sorted ascending by semantic version precedence
	ordered := []string{
		"0.9.0",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"1.10.0",
		"2.0.0",
	}

	for i, a := range ordered {
		for j, b := range ordered {
			va := model.MustParseVersion(a)
			vb := model.MustParseVersion(b)

			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got := va.Compare(vb); got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", a, b, got, want)
			}
			if va.LessThan(vb) != (i < j) {
				t.Errorf("LessThan(%s, %s) = %v", a, b, va.LessThan(vb))
			}
		}
	}

	t.Run("build metadata does not affect precedence", func(t *testing.T) {
		gt.True(t, model.MustParseVersion("1.0.0+a").Equal(model.MustParseVersion("1.0.0+b")))
	})
}

func TestIsReleased(t *testing.T) {
	latest := model.MustParseVersion("1.0.0")
	gt.True(t, model.IsReleased(latest, model.MustParseVersion("0.9.0")))
	gt.True(t, model.IsReleased(latest, model.MustParseVersion("1.0.0")))
	gt.True(t, model.IsReleased(latest, model.MustParseVersion("1.0.0-rc.1")))
	gt.False(t, model.IsReleased(latest, model.MustParseVersion("1.0.1")))
	gt.False(t, model.IsReleased(model.Version{}, model.MustParseVersion("0.0.1")))
}
