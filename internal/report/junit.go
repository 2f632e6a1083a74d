package report

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/openmeethq/codegate/internal/rules"
	"github.com/openmeethq/codegate/internal/support"
)

type junitTestsuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Testsuites []junitTestsuite `xml:"testsuite"`
}
type junitTestsuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestcase `xml:"testcase"`
}
type junitTestcase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}
type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}
type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteJUnit renders the report as a JUnit suite so CI dashboards can show
// violations as test cases. Gate-failing severities become failures, majors
// become skips with a reason, the rest pass.
func WriteJUnit(path string, rep *ScanReport) error {
	var cases []junitTestcase
	failures := 0

	for _, v := range rep.Violations {
		tc := junitTestcase{
			Name:      v.RuleID,
			Classname: "codegate." + strings.ToLower(v.Severity.String()),
			Time:      "0",
		}
		switch v.Severity {
		case rules.SeverityBlocker, rules.SeverityCritical:
			tc.Failure = &junitFailure{
				Message: v.Message,
				Type:    v.Severity.String(),
				Body:    fmt.Sprintf("%s:%d: %s", v.File, v.Line, v.Message),
			}
			failures++
		case rules.SeverityMajor:
			tc.Skipped = &junitSkipped{Message: "major warns without failing the gate"}
		}
		cases = append(cases, tc)
	}

	gateCase := junitTestcase{
		Name:      "quality-gate",
		Classname: "codegate.verify",
		Time:      "0",
	}
	if rep.Status == StatusFail {
		gateCase.Failure = &junitFailure{
			Message: Headline(rep),
			Type:    "GATE",
			Body:    Headline(rep),
		}
		failures++
	}
	cases = append(cases, gateCase)

	doc := junitTestsuites{
		Testsuites: []junitTestsuite{{
			Name:     "codegate-verify",
			Tests:    len(cases),
			Failures: failures,
			Time:     "0",
			Cases:    cases,
		}},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	header := []byte(xml.Header)
	return support.WriteFileAtomic(path, append(header, data...))
}
