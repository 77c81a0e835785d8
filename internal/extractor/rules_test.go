package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindTitle(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Jane Smith, Minister of Health, spoke today.", "Minister"},
		{"the chief justice presided", "Chief Justice"},
		{"Union Minister for Railways arrived", "Union Minister"},
		{"Prof. nothing here", ""},
		{"The VICE CHANCELLOR addressed students", "Vice Chancellor"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FindTitle(tc.text), "text %q", tc.text)
	}
}

func TestPersonish(t *testing.T) {
	cases := []struct {
		span string
		want bool
	}{
		{"Jane Smith", true},
		{"Rajesh Kumar Gupta", true},
		{"Minister", false},
		{"Chief Justice", false},
		{"NASA", false},
		{"", false},
		{"One Two Three Four Five", false},
		{"lowercase name", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Personish(tc.span), "span %q", tc.span)
	}
}

func TestRulePassPairsRoleWithNearestName(t *testing.T) {
	text := "Jane Smith, Minister of Health, announced the new policy today."
	cands := RulePass("https://gov.test/cabinet", text)
	require.NotEmpty(t, cands)

	c := cands[0]
	require.Equal(t, "Jane Smith", c.Name)
	require.Equal(t, "Minister", c.Title)
	require.Equal(t, "https://gov.test/cabinet", c.ContextURL)
	require.Contains(t, c.Snippet, "Jane Smith")
}

func TestRulePassRoleOnlyCandidate(t *testing.T) {
	text := "the office of the registrar remains closed until further notice"
	cands := RulePass("https://uni.test/admin", text)
	require.Len(t, cands, 1)
	require.Empty(t, cands[0].Name)
	require.Equal(t, "Registrar", cands[0].Title)
	require.True(t, cands[0].RoleOnly())
}

func TestRulePassMultipleRoles(t *testing.T) {
	text := "Justice Anil Verma heard the case. Later, Professor Meera Nair presented findings."
	cands := RulePass("https://example.test", text)
	require.Len(t, cands, 2)
	require.Equal(t, "Justice", cands[0].Title)
	require.Equal(t, "Anil Verma", cands[0].Name)
	require.Equal(t, "Professor", cands[1].Title)
	require.Equal(t, "Meera Nair", cands[1].Name)
}

func TestRulePassNoRoles(t *testing.T) {
	require.Empty(t, RulePass("https://example.test", "nothing interesting on this page"))
}
