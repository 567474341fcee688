// Package assistant recognises what a planning chat message asks for.
package assistant

import (
	"regexp"
	"strings"
)

// Action 助手动作
type Action string

const (
	ActionShowData    Action = "show_data"
	ActionShowChart   Action = "show_chart"
	ActionRunAnalysis Action = "run_analysis"
)

type intent struct {
	action  Action
	pattern *regexp.Regexp
}

// intents are checked in this order; the result keeps it.
var intents = []intent{
	{ActionShowData, regexp.MustCompile(`\b(show|display|list|view)\b.*\b(data|table|rows?|numbers?|records?)\b`)},
	{ActionShowChart, regexp.MustCompile(`\b(charts?|graphs?|plots?|visuali[sz]e|visuali[sz]ation)\b`)},
	{ActionRunAnalysis, regexp.MustCompile(`\b(analy[sz]e|analysis|trends?|insights?|variance|compare|comparison)\b`)},
}

// Detect returns the actions a message asks for, without duplicates.
func Detect(text string) []Action {
	text = strings.ToLower(text)
	out := []Action{}
	for _, in := range intents {
		if in.pattern.MatchString(text) {
			out = append(out, in.action)
		}
	}
	return out
}

// Has reports whether a is in actions.
func Has(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
