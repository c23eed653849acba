package signup

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrPhoneTooShort rejects inputs that cannot possibly be a phone number.
// This is a sanity floor, not full validation; the backend owns the rest.
var ErrPhoneTooShort = errors.New("phone number must have at least 5 digits")

const minPhoneDigits = 5

var (
	callingCodePattern = regexp.MustCompile(`^\+(\d{1,3})(.*)$`)
	nonDigitPattern    = regexp.MustCompile(`\D`)
)

// Phone is a split phone number: calling code (no plus) and national digits.
type Phone struct {
	CountryCode string
	National    string
}

// NormalizePhone runs the three-tier ladder: structured parse, then a regex
// split of a leading +-prefixed calling code, then plain digit stripping.
func NormalizePhone(raw string) (Phone, error) {
	trimmed := strings.TrimSpace(raw)

	if num, err := phonenumbers.Parse(trimmed, ""); err == nil && num.GetCountryCode() != 0 {
		p := Phone{
			CountryCode: strconv.Itoa(int(num.GetCountryCode())),
			National:    strconv.FormatUint(num.GetNationalNumber(), 10),
		}
		return p, p.check()
	}

	if m := callingCodePattern.FindStringSubmatch(trimmed); m != nil {
		p := Phone{
			CountryCode: m[1],
			National:    nonDigitPattern.ReplaceAllString(m[2], ""),
		}
		return p, p.check()
	}

	p := Phone{National: nonDigitPattern.ReplaceAllString(trimmed, "")}
	return p, p.check()
}

func (p Phone) check() error {
	if len(p.National) < minPhoneDigits {
		return ErrPhoneTooShort
	}
	return nil
}
