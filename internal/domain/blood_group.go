package domain

import (
	"fmt"
	"strings"
)

// BloodGroup is the canonical token form of an ABO/Rh blood group, e.g. A_POSITIVE.
type BloodGroup string

const (
	BloodGroupAPositive  BloodGroup = "A_POSITIVE"
	BloodGroupANegative  BloodGroup = "A_NEGATIVE"
	BloodGroupBPositive  BloodGroup = "B_POSITIVE"
	BloodGroupBNegative  BloodGroup = "B_NEGATIVE"
	BloodGroupABPositive BloodGroup = "AB_POSITIVE"
	BloodGroupABNegative BloodGroup = "AB_NEGATIVE"
	BloodGroupOPositive  BloodGroup = "O_POSITIVE"
	BloodGroupONegative  BloodGroup = "O_NEGATIVE"
)

// AllBloodGroups lists every group in declaration order.
var AllBloodGroups = []BloodGroup{
	BloodGroupAPositive,
	BloodGroupANegative,
	BloodGroupBPositive,
	BloodGroupBNegative,
	BloodGroupABPositive,
	BloodGroupABNegative,
	BloodGroupOPositive,
	BloodGroupONegative,
}

var bloodGroupDisplay = map[BloodGroup]string{
	BloodGroupAPositive:  "A+",
	BloodGroupANegative:  "A-",
	BloodGroupBPositive:  "B+",
	BloodGroupBNegative:  "B-",
	BloodGroupABPositive: "AB+",
	BloodGroupABNegative: "AB-",
	BloodGroupOPositive:  "O+",
	BloodGroupONegative:  "O-",
}

// Recipient group -> acceptable donor groups, exact match first.
var compatibleDonors = map[BloodGroup][]BloodGroup{
	BloodGroupABPositive: {
		BloodGroupABPositive, BloodGroupABNegative,
		BloodGroupAPositive, BloodGroupANegative,
		BloodGroupBPositive, BloodGroupBNegative,
		BloodGroupOPositive, BloodGroupONegative,
	},
	BloodGroupABNegative: {BloodGroupABNegative, BloodGroupANegative, BloodGroupBNegative, BloodGroupONegative},
	BloodGroupAPositive:  {BloodGroupAPositive, BloodGroupANegative, BloodGroupOPositive, BloodGroupONegative},
	BloodGroupANegative:  {BloodGroupANegative, BloodGroupONegative},
	BloodGroupBPositive:  {BloodGroupBPositive, BloodGroupBNegative, BloodGroupOPositive, BloodGroupONegative},
	BloodGroupBNegative:  {BloodGroupBNegative, BloodGroupONegative},
	BloodGroupOPositive:  {BloodGroupOPositive, BloodGroupONegative},
	BloodGroupONegative:  {BloodGroupONegative},
}

func (g BloodGroup) String() string { return string(g) }

func (g BloodGroup) IsValid() bool {
	_, ok := bloodGroupDisplay[g]
	return ok
}

// Display returns the short human form, e.g. "AB-".
func (g BloodGroup) Display() string {
	if display, ok := bloodGroupDisplay[g]; ok {
		return display
	}
	return string(g)
}

// ParseBloodGroup accepts the token form ("A_POSITIVE", "a positive") or the
// display form ("A+").
func ParseBloodGroup(s string) (BloodGroup, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == "" {
		return "", fmt.Errorf("%w: blood group is required", ErrInvalidBloodGroup)
	}

	token := BloodGroup(strings.ReplaceAll(normalized, " ", "_"))
	if token.IsValid() {
		return token, nil
	}

	for group, display := range bloodGroupDisplay {
		if display == normalized {
			return group, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidBloodGroup, s)
}

// CompatibleDonorGroups returns the donor groups that can supply a recipient of
// the given group, ordered by preference with the exact match first.
func CompatibleDonorGroups(recipient BloodGroup) ([]BloodGroup, error) {
	groups, ok := compatibleDonors[recipient]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBloodGroup, recipient)
	}

	out := make([]BloodGroup, len(groups))
	copy(out, groups)
	return out, nil
}
