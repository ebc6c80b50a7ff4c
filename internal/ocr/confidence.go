package ocr

import (
	"regexp"
	"strings"
)

var (
	rePeriod  = regexp.MustCompile(`\b(0[1-9]|1[0-2])/20\d{2}\b`)
	reCurr    = regexp.MustCompile(`r\$`)
	reAmount  = regexp.MustCompile(`\b\d{1,3}(\.\d{3})*,\d{2}\b`)
	reCPF     = regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`)
	reKeyword = regexp.MustCompile(`sal[aá]rio|l[ií]quido|vencimentos|descontos|holerite|contracheque`)
)

// payslipLikeness scores how much text looks like a Brazilian payslip, 0..1.
// A digital PDF whose text layer scores low is OCRed instead.
func payslipLikeness(txt string) float64 {
	txtL := strings.ToLower(txt)
	score := 0.1
	if rePeriod.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.1
	}
	if reAmount.MatchString(txtL) {
		score += 0.2
	}
	if reCPF.MatchString(txtL) {
		score += 0.1
	}
	if reKeyword.MatchString(txtL) {
		score += 0.2
	}
	if len(strings.TrimSpace(txt)) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
