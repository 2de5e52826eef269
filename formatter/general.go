package formatter

type GeneralFailureFormatter struct{}

func (f *GeneralFailureFormatter) FailureTemplate() string {
	return `{{header .Reason .MaxLineNumWidth .File .Line -}}
{{snippet .Snippet .EndOfPass .MaxLineNumWidth .Padding -}}
{{message .Message .Padding -}}
{{if .Statement}}{{statement .Statement .Padding}}{{end -}}
{{testCase .TestName .DumpFile .Padding -}}
{{if .Bindings}}{{bindings .Bindings .Padding}}{{end -}}
{{if .PassLines}}{{passDump .PassName .PassLines .MaxLineNumWidth}}{{end}}
`
}

// PassNotFoundFormatter renders test cases whose pass is missing from the
// dump. There is no snippet to show, only the closest pass name and, when
// the dump is printed, the passes it holds.
type PassNotFoundFormatter struct{}

func (f *PassNotFoundFormatter) FailureTemplate() string {
	return `{{header .Reason .MaxLineNumWidth .File .Line -}}
{{message .Message .Padding -}}
{{testCase .TestName .DumpFile .Padding -}}
{{suggestion .Suggestion -}}
{{if .Passes}}{{passList .DumpFile .Passes .Padding}}{{end}}
`
}
