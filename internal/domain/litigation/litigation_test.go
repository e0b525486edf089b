package litigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"GH¢ 1,250,000.00", 1_250_000, true},
		{"GHS 50,000", 50_000, true},
		{"$2.5m", 2_500_000, true},
		{"2.5 million cedis", 2_500_000, true},
		{"USD 3bn", 3e9, true},
		{"12,000", 12_000, true},
		{"750k", 750_000, true},
		{"", 0, false},
		{"  n/a ", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok, err := ParseAmount(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.InDelta(t, tc.want, got, 0.001)
		})
	}
}

func TestParseAmount_Unparseable(t *testing.T) {
	for _, raw := range []string{"several thousand", "GH¢ abc", "1.2.3"} {
		_, ok, err := ParseAmount(raw)
		assert.False(t, ok)
		assert.True(t, errors.IsDataError(err), raw)
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnparseableAmount), raw)
	}
}

func TestParseAmount_OutOfRange(t *testing.T) {
	_, ok, err := ParseAmount("999,999,999,999 bn")
	assert.False(t, ok)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnparseableAmount))

	got, ok, err := ParseAmount("100,000,000 bn")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, MaxAmount, got)
}

func TestCaseRecord_Amount_PrefersAward(t *testing.T) {
	c := &CaseRecord{ClaimAmount: "GHS 100,000", AwardAmount: "GHS 40,000"}
	v, ok, err := c.Amount()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 40_000.0, v)

	c.AwardAmount = " "
	v, _, _ = c.Amount()
	assert.Equal(t, 100_000.0, v)
}

func TestCaseRecord_OutcomeText(t *testing.T) {
	c := &CaseRecord{Summary: "Appeal allowed."}
	assert.Equal(t, "Appeal allowed.", c.OutcomeText())

	c.Judgement = "The claim is dismissed."
	assert.Equal(t, "The claim is dismissed.", c.OutcomeText())
}

func TestMentions(t *testing.T) {
	c := &CaseRecord{
		Title:     "Mensah v Access Bank (Ghana) Limited",
		Judgement: "Judgment for the plaintiff.",
	}
	assert.True(t, Mentions(c, []string{"Access Bank Ghana Limited", "ACCESS BANK (GHANA) LIMITED"}))
	assert.False(t, Mentions(c, []string{"GCB Bank"}))
	assert.False(t, Mentions(c, []string{"", "  "}))
}

func TestSideOf(t *testing.T) {
	names := []string{"GCB Bank"}

	assert.Equal(t, SidePlaintiff, SideOf(&CaseRecord{Plaintiffs: "GCB Bank Ltd"}, names))
	assert.Equal(t, SideDefendant, SideOf(&CaseRecord{Defendants: "gcb bank limited"}, names))
	assert.Equal(t, SideDefendant, SideOf(&CaseRecord{Plaintiffs: "GCB Bank", Defendants: "GCB Bank"}, names))
	assert.Equal(t, SideDefendant, SideOf(&CaseRecord{Title: "Owusu v GCB Bank"}, names))
	assert.Equal(t, SidePlaintiff, SideOf(&CaseRecord{Title: "GCB Bank vs. Owusu"}, names))
	assert.Equal(t, SideUnknown, SideOf(&CaseRecord{Summary: "GCB Bank was mentioned."}, names))
	assert.Equal(t, "defendant", SideDefendant.String())
}

//Personal.AI order the ending
