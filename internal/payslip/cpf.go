package payslip

// ValidCPF reports whether s carries a valid 11-digit CPF. Punctuation is
// ignored; repeated-digit sequences are rejected.
func ValidCPF(s string) bool {
	digits := onlyDigits(s)
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}
	d := make([]int, 11)
	for i := range digits {
		d[i] = int(digits[i] - '0')
	}
	return d[9] == checkDigit(d[:9]) && d[10] == checkDigit(d[:10])
}

// checkDigit weights digits from len+1 down to 2 and reduces mod 11.
func checkDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, n := range digits {
		sum += n * weight
		weight--
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
