package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// RgxPhoneNumber matches South African mobile numbers in local or international format.
	RgxPhoneNumber = regexp.MustCompile(`^(\+27|0)[6-8][0-9]{8}$`)

	// RgxOTP matches the 6 digit one-time code sent by the verification provider.
	RgxOTP = regexp.MustCompile(`^[0-9]{6}$`)

	// RgxSAIDNumber matches the 13 digit South African identity number.
	RgxSAIDNumber = regexp.MustCompile(`^[0-9]{13}$`)

	RgxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

	RgxPostalCode = regexp.MustCompile(`^[0-9]{4}$`)

	RgxBankBranchCode = regexp.MustCompile(`^[0-9]{6}$`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Between[T int | float64](value, min, max T) bool {
	return value >= min && value <= max
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}

func IsDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func IsDigits(value string) bool {
	if value == "" {
		return false
	}
	_, err := strconv.ParseUint(value, 10, 64)
	return err == nil
}

func In[T comparable](value T, safelist ...T) bool {
	for i := range safelist {
		if value == safelist[i] {
			return true
		}
	}
	return false
}
