package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobmate/digest-service/internal/model"
	"jobmate/digest-service/internal/pipeline"
)

// ── ExtractStableID ───────────────────────────────────────────────────────

func TestExtractStableID(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{"https://www.linkedin.com/jobs/view/3812345678", "3812345678"},
		{"https://www.linkedin.com/jobs/view/3812345678/?refId=abc", "3812345678"},
		{"https://in.linkedin.com/jobs/view/senior-product-manager-at-acme-3812345678?position=1&pageNum=0", "3812345678"},
		{"https://www.linkedin.com/jobs/search/?currentJobId=555&jobId=99", "99"},
		{"https://careers.example.com/job/42/apply", "42"},
		{"https://careers.example.com/openings", ""},
		{"", ""},
		{"::not a url::", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, pipeline.ExtractStableID(c.link), "link %q", c.link)
	}
}

// ── CanonicalURL ──────────────────────────────────────────────────────────

func TestCanonicalURL_DropsTrackingParams(t *testing.T) {
	a := pipeline.CanonicalURL("https://site/jobs/view/123?trk=abc&refId=x")
	b := pipeline.CanonicalURL("https://site/jobs/view/123?pageNum=2")

	assert.Equal(t, "https://site/jobs/view/123", a)
	assert.Equal(t, a, b)
}

func TestCanonicalURL_KeepsOtherParamsInAnyOrder(t *testing.T) {
	a := pipeline.CanonicalURL("https://site/search?keywords=pm&trk=x&location=india")
	b := pipeline.CanonicalURL("https://site/search?location=india&keywords=pm&lipi=abc")

	assert.Equal(t, "https://site/search?keywords=pm&location=india", a)
	assert.Equal(t, a, b)
}

func TestCanonicalURL_DropsFragment(t *testing.T) {
	assert.Equal(t,
		"https://site/jobs/view/123",
		pipeline.CanonicalURL("https://site/jobs/view/123?trackingId=z#apply"),
	)
}

func TestCanonicalURL_LowercasesSchemeAndHost(t *testing.T) {
	assert.Equal(t,
		"https://www.linkedin.com/jobs/view/1",
		pipeline.CanonicalURL("HTTPS://WWW.LinkedIn.com/jobs/view/1?origin=JOBS_HOME"),
	)
}

func TestCanonicalURL_DenylistIsCaseSensitive(t *testing.T) {
	assert.Equal(t, "https://site/p?TRK=1", pipeline.CanonicalURL("https://site/p?TRK=1&trk=2"))
}

func TestCanonicalURL_EscapedParamName(t *testing.T) {
	assert.Equal(t, "https://site/p", pipeline.CanonicalURL("https://site/p?%74rk=1"))
}

func TestCanonicalURL_Idempotent(t *testing.T) {
	links := []string{
		"https://site/jobs/view/123?trk=abc&refId=x",
		"HTTP://Example.COM/a?b=2&a=1#frag",
		"https://x/y?trk=1&keep=2&&",
		"https://in.linkedin.com/jobs/view/senior-pm-at-acme-3812345678?refId=abc&trackingId=xyz&position=3",
		"https://site/p?q=hello%20world&z=%E2%9C%93",
		"/jobs/view/99?currentJobId=99",
		"not a url at all",
		"http://[::1",
		"%zz",
		"https://site/path%zz?trk=1&a=2",
		"",
		"   https://site/x?b=1   ",
		"% #x",
		"https:// #./....refId",
		"https://site/x #frag",
		"%zz ?trk=1",
		"https://site/x?a= &trk=1",
		"https://site/x?a=\u00a0&trk=1",
		"  #only-fragment",
	}
	for _, l := range links {
		once := pipeline.CanonicalURL(l)
		assert.Equal(t, once, pipeline.CanonicalURL(once), "link %q", l)
	}
}

func TestCanonicalURL_WhitespaceBeforeFragment(t *testing.T) {
	assert.Equal(t, "%", pipeline.CanonicalURL("% #x"))
	assert.Equal(t, "https://site/x", pipeline.CanonicalURL("https://site/x #frag"))
	assert.Equal(t, "", pipeline.CanonicalURL("  #only-fragment"))
}

func TestCanonicalURL_MalformedDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		got := pipeline.CanonicalURL("http://[::1?trk=1&a=2#x")
		assert.Equal(t, "http://[::1?a=2", got)
	})
}

// ── IdentityKey / Normalize ───────────────────────────────────────────────

func TestIdentityKey(t *testing.T) {
	assert.Equal(t, "senior pm|acme", pipeline.IdentityKey("  Senior PM ", "ACME\t"))
	assert.Equal(t, "|", pipeline.IdentityKey("", ""))
}

func TestNormalize(t *testing.T) {
	raw := model.RawRecord{
		Title:    "Senior  Product   Manager",
		Employer: " Ａｃｍｅ ",
		Location: "Bangalore,  Karnataka, India",
		Link:     " https://in.linkedin.com/jobs/view/senior-product-manager-at-acme-3812345678?refId=1&trk=public ",
		PostedAt: "2024-03-10",
	}

	got := pipeline.Normalize(raw)

	assert.Equal(t, "Senior Product Manager", got.Title)
	assert.Equal(t, "Acme", got.Employer)
	assert.Equal(t, "Bangalore, Karnataka, India", got.Location)
	assert.Equal(t, "3812345678", got.StableID)
	assert.True(t, got.HasStableID())
	assert.Equal(t, "https://in.linkedin.com/jobs/view/senior-product-manager-at-acme-3812345678", got.CanonicalURL)
	assert.Equal(t, "senior product manager|acme", got.IdentityKey)
	assert.Equal(t, "2024-03-10", got.PostedAt)

	// the input is left untouched
	assert.Equal(t, "Senior  Product   Manager", raw.Title)
}

func TestNormalize_NoStableID(t *testing.T) {
	got := pipeline.Normalize(model.RawRecord{Title: "Head of Data", Employer: "Globex", Link: "https://globex.example/careers/head-of-data"})
	assert.False(t, got.HasStableID())
	assert.Equal(t, "", got.StableID)
}

func TestNormalizeAll_Empty(t *testing.T) {
	assert.Empty(t, pipeline.NormalizeAll(nil))
}
