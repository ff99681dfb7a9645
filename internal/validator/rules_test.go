package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRgxPhoneNumber(t *testing.T) {
	valid := []string{"+27601234567", "0601234567", "0821234567", "+27765554321"}
	for _, number := range valid {
		require.True(t, Matches(number, RgxPhoneNumber), number)
	}

	invalid := []string{"", "27601234567", "+2760123456", "+276012345678", "+27501234567", "060123456a"}
	for _, number := range invalid {
		require.False(t, Matches(number, RgxPhoneNumber), number)
	}
}

func TestRgxOTP(t *testing.T) {
	require.True(t, Matches("123456", RgxOTP))
	require.False(t, Matches("12345", RgxOTP))
	require.False(t, Matches("1234567", RgxOTP))
	require.False(t, Matches("12345a", RgxOTP))
}

func TestRgxSAIDNumber(t *testing.T) {
	require.True(t, Matches("9001015800086", RgxSAIDNumber))
	require.False(t, Matches("900101580008", RgxSAIDNumber))
	require.False(t, Matches("90010158000867", RgxSAIDNumber))
}

func TestRgxBankBranchCode(t *testing.T) {
	require.True(t, Matches("632005", RgxBankBranchCode))
	require.False(t, Matches("63200", RgxBankBranchCode))
	require.False(t, Matches("63200a", RgxBankBranchCode))
}

func TestIsDate(t *testing.T) {
	require.True(t, IsDate("1990-01-01"))
	require.False(t, IsDate("01-01-1990"))
	require.False(t, IsDate("1990-13-01"))
	require.False(t, IsDate(""))
}

func TestValidatorCollectsErrors(t *testing.T) {
	var v Validator

	v.Check(true, "should not appear")
	require.False(t, v.HasErrors())

	v.Check(false, "first error")
	v.AddError("second error")

	require.True(t, v.HasErrors())
	require.Equal(t, []string{"first error", "second error"}, v.Errors)
}
