package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func seconds(v float64) Revalidate {
	return Revalidate{Kind: RevalidateSeconds, Seconds: v}
}

func TestRevalidate_MergeIsOrderIndependent(t *testing.T) {
	values := []Revalidate{
		{},
		{Kind: RevalidateUnknown},
		{Kind: RevalidateFalse},
		seconds(0),
		seconds(60),
		seconds(3600),
	}

	for _, a := range values {
		for _, b := range values {
			assert.Equal(t, a.merge(b), b.merge(a), "%v / %v", a, b)
			assert.Equal(t, a.merge(a), a)
		}
	}
}

func TestRevalidate_MergeRules(t *testing.T) {
	assert.Equal(t, seconds(60), seconds(60).merge(seconds(3600)), "shortest interval wins")
	assert.Equal(t, seconds(60), Revalidate{Kind: RevalidateFalse}.merge(seconds(60)))
	assert.Equal(t, seconds(0), seconds(0).merge(seconds(10)))
	assert.Equal(t, seconds(10), Revalidate{Kind: RevalidateUnknown}.merge(seconds(10)), "known beats unknown")
	assert.Equal(t, RevalidateUnknown, Revalidate{}.merge(Revalidate{Kind: RevalidateUnknown}).Kind)
}

func TestRevalidate_Predicates(t *testing.T) {
	testCases := []struct {
		value    Revalidate
		present  bool
		usable   bool
		optedOut bool
		text     string
	}{
		{Revalidate{}, false, false, false, ""},
		{Revalidate{Kind: RevalidateUnknown}, true, false, false, "unknown"},
		{Revalidate{Kind: RevalidateFalse}, true, false, true, "false"},
		{seconds(0), true, false, true, "0"},
		{seconds(-1), true, false, false, "-1"},
		{seconds(60), true, true, false, "60"},
		{seconds(1.5), true, true, false, "1.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.present, tc.value.Present())
			assert.Equal(t, tc.usable, tc.value.Usable())
			assert.Equal(t, tc.optedOut, tc.value.OptedOut())
			assert.Equal(t, tc.text, tc.value.String())
		})
	}
}

func TestRevalidate_Encoding(t *testing.T) {
	testCases := []struct {
		value Revalidate
		json  string
	}{
		{Revalidate{}, "null"},
		{Revalidate{Kind: RevalidateFalse}, "false"},
		{seconds(60), "60"},
		{Revalidate{Kind: RevalidateUnknown}, `"unknown"`},
	}
	for _, tc := range testCases {
		data, err := json.Marshal(tc.value)
		require.NoError(t, err)
		assert.Equal(t, tc.json, string(data))
	}

	out, err := yaml.Marshal(map[string]Revalidate{"revalidate": seconds(30)})
	require.NoError(t, err)
	assert.Equal(t, "revalidate: 30\n", string(out))
}

func TestMergeMode(t *testing.T) {
	assert.Equal(t, "force-dynamic", mergeMode("force-static", "force-dynamic", dynamicPriority))
	assert.Equal(t, "force-dynamic", mergeMode("force-dynamic", "force-static", dynamicPriority))
	assert.Equal(t, "auto", mergeMode("", "auto", dynamicPriority))
	assert.Equal(t, "auto", mergeMode("auto", "", dynamicPriority))
	assert.Equal(t, "edge", mergeMode("experimental-edge", "edge", runtimePriority))
	assert.Equal(t, "a-custom", mergeMode("b-custom", "a-custom", runtimePriority))
	assert.Equal(t, "a-custom", mergeMode("a-custom", "b-custom", runtimePriority))
}

func TestDetectedFeatures_Merge(t *testing.T) {
	a := &DetectedFeatures{HasGetStaticProps: true, Revalidate: seconds(120), Dynamic: "auto"}
	b := &DetectedFeatures{UsesCookies: true, Revalidate: seconds(30), Dynamic: "force-dynamic"}

	ab := *a
	ab.Merge(b)
	ba := *b
	ba.Merge(a)

	assert.Equal(t, ab, ba)
	assert.True(t, ab.HasGetStaticProps)
	assert.True(t, ab.UsesCookies)
	assert.Equal(t, seconds(30), ab.Revalidate)
	assert.Equal(t, "force-dynamic", ab.Dynamic)

	ab.Merge(nil)
	assert.Equal(t, ba, ab)
}
