package region

import (
	"strings"
)

// Vietnamese administrative names arrive as free text with honorific prefixes
// ("Thành phố Hồ Chí Minh", "Quận 1", "Phường Bến Nghé") while the carrier
// reference data stores the bare names. Normalization strips one leading
// prefix and collapses the common Saigon aliases; bare numbers pass through
// untouched so "Quận 1" and a pre-normalized "1" land on the same row.

var provinceAliases = map[string]string{
	"TP.HCM":           "Hồ Chí Minh",
	"TP HCM":           "Hồ Chí Minh",
	"HCM":              "Hồ Chí Minh",
	"Ho Chi Minh City": "Hồ Chí Minh",
}

var (
	provincePrefixes = []string{"Thành phố ", "TP.", "TP ", "Tỉnh "}
	cityPrefixes     = []string{"Thành phố ", "TP.", "TP ", "Quận "}
	districtPrefixes = []string{"Quận ", "Huyện ", "Thành phố ", "TP.", "Thị xã "}
	wardPrefixes     = []string{"Phường ", "Xã ", "Thị trấn ", "Khu phố ", "Khu vực "}
)

// NormalizeProvince strips the "Thành phố"/"TP"/"Tỉnh" honorific and resolves
// known aliases. Returns "" for blank input.
func NormalizeProvince(province string) string {
	s := strings.TrimSpace(province)
	if s == "" {
		return ""
	}
	if canonical, ok := provinceAliases[s]; ok {
		return canonical
	}
	s = stripPrefix(s, provincePrefixes)
	if canonical, ok := provinceAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeCity strips city honorifics. Addresses sometimes carry a district
// name in the city field, so "Quận" is stripped here too.
func NormalizeCity(city string) string {
	s := strings.TrimSpace(city)
	if s == "" {
		return ""
	}
	if canonical, ok := provinceAliases[s]; ok {
		return canonical
	}
	return stripPrefix(s, cityPrefixes)
}

// NormalizeDistrict strips "Quận"/"Huyện"/"Thị xã" so "Quận 1" becomes "1".
// A value that is already a bare number is left alone.
func NormalizeDistrict(district string) string {
	s := strings.TrimSpace(district)
	if s == "" || allDigits(s) {
		return s
	}
	return stripPrefix(s, districtPrefixes)
}

// NormalizeWard strips "Phường"/"Xã"/"Thị trấn" so "Phường Bến Nghé" becomes
// "Bến Nghé". Bare numbers and unprefixed names are left alone.
func NormalizeWard(ward string) string {
	s := strings.TrimSpace(ward)
	if s == "" || allDigits(s) {
		return s
	}
	return stripPrefix(s, wardPrefixes)
}

func stripPrefix(s string, prefixes []string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) && len(s) > len(p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
