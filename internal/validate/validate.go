// Package validate holds the field rules applied to user input before it
// reaches the store. Every rule is a pure predicate with an error returning
// twin for prompt libraries that display the reason.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// ErrInvalid is wrapped by every Check function
var ErrInvalid = errors.New("invalid input")

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z\s\-']{2,50}$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe  = regexp.MustCompile(`^\d{2}:\d{2}$`)
	phoneRe = regexp.MustCompile(`^[0-9]{11}$`)
)

const (
	minAddressLen  = 5
	maxAddressLen  = 100
	minPasswordLen = 6

	MinOwnerAge = 18
	MaxOwnerAge = 120
	MinPetAge   = 1
	MaxPetAge   = 29
)

// Name accepts 2 to 50 letters, spaces, hyphens and apostrophes
func Name(s string) bool {
	return nameRe.MatchString(s)
}

// Address accepts 5 to 100 characters of any content
func Address(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= minAddressLen && n <= maxAddressLen
}

// Email accepts local@domain.tld with a top level domain of two or more letters
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Phone accepts exactly 11 digits
func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// Date accepts a real calendar day written as YYYY-MM-DD
func Date(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}

	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])

	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= DaysInMonth(year, month)
}

// Time accepts the HH:MM shape. Hours and minutes are not range checked.
func Time(s string) bool {
	return timeRe.MatchString(s)
}

// Password accepts six or more bytes
func Password(s string) bool {
	return len(s) >= minPasswordLen
}

// OwnerAge accepts adult ages
func OwnerAge(age int) bool {
	return age >= MinOwnerAge && age <= MaxOwnerAge
}

// PetAge accepts ages between 1 and 29 years
func PetAge(age int) bool {
	return age >= MinPetAge && age <= MaxPetAge
}

// IsLeapYear applies the Gregorian rule
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month (1-12) of year
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func check(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// CheckName is the error returning form of Name
func CheckName(s string) error {
	return check(Name(s), "name must be 2-50 letters, spaces, hyphens or apostrophes")
}

// CheckAddress is the error returning form of Address
func CheckAddress(s string) error {
	return check(Address(s), "address must be %d-%d characters", minAddressLen, maxAddressLen)
}

// CheckEmail is the error returning form of Email
func CheckEmail(s string) error {
	return check(Email(s), "email must look like name@domain.tld")
}

// CheckPhone is the error returning form of Phone
func CheckPhone(s string) error {
	return check(Phone(s), "phone must be exactly 11 digits")
}

// CheckDate is the error returning form of Date
func CheckDate(s string) error {
	return check(Date(s), "date must be a valid YYYY-MM-DD day")
}

// CheckTime is the error returning form of Time
func CheckTime(s string) error {
	return check(Time(s), "time must be HH:MM")
}

// CheckPassword is the error returning form of Password
func CheckPassword(s string) error {
	return check(Password(s), "password must be at least %d characters", minPasswordLen)
}

// CheckOwnerAge is the error returning form of OwnerAge
func CheckOwnerAge(age int) error {
	return check(OwnerAge(age), "age must be between %d and %d", MinOwnerAge, MaxOwnerAge)
}

// CheckPetAge is the error returning form of PetAge
func CheckPetAge(age int) error {
	return check(PetAge(age), "pet age must be between %d and %d", MinPetAge, MaxPetAge)
}
