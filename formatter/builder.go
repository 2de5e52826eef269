package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	tt "github.com/gnolang/tcheck/internal/types"
)

// DefaultContext is the number of dump lines shown around a failure.
const DefaultContext = 2

var (
	errorStyle      = color.New(color.FgRed, color.Bold)
	ruleStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle       = color.New(color.FgCyan, color.Bold)
	lineStyle       = color.New(color.FgHiBlue, color.Bold)
	messageStyle    = color.New(color.FgRed, color.Bold)
	suggestionStyle = color.New(color.FgGreen, color.Bold)
	passStyle       = color.New(color.FgGreen, color.Bold)
	skipStyle       = color.New(color.FgHiYellow, color.Bold)
	noStyle         = color.New(color.FgWhite)
)

// Options control how failures are rendered.
type Options struct {
	// Context is the number of dump lines printed before and after the
	// failing line. Negative values mean DefaultContext.
	Context int
	// PrintDump appends the whole pass to each failure.
	PrintDump bool
}

func (o Options) context() int {
	if o.Context < 0 {
		return DefaultContext
	}
	return o.Context
}

// failureFormatter is the interface that wraps the FailureTemplate method.
// Implementations render one kind of match failure.
type failureFormatter interface {
	FailureTemplate() string
}

// getFailureFormatter returns the formatter for the given reason. Failures
// without a dedicated formatter use GeneralFailureFormatter.
func getFailureFormatter(reason tt.ReasonKind) failureFormatter {
	switch reason {
	case tt.PassNotFound:
		return &PassNotFoundFormatter{}
	default:
		return &GeneralFailureFormatter{}
	}
}

// GenerateFormattedReport renders every failed test case of a report.
func GenerateFormattedReport(report *tt.FileReport, opts Options) string {
	var builder strings.Builder
	for _, res := range report.Failures() {
		if res.Failure == nil {
			continue
		}
		formatter := getFailureFormatter(res.Failure.Reason)
		builder.WriteString(buildFailure(report, res, opts, formatter))
	}
	return builder.String()
}

/***** Failure Formatter Builder *****/

// SnippetLine is one numbered dump line of a snippet.
type SnippetLine struct {
	Number int
	Text   string
	Marked bool
}

type FailureData struct {
	Reason          string
	TestName        string
	File            string
	Line            int
	Statement       string
	Message         string
	Suggestion      string
	Bindings        []string
	DumpFile        string
	PassName        string
	Snippet         []SnippetLine
	EndOfPass       bool
	PassLines       []SnippetLine
	Passes          []string
	MaxLineNumWidth int
	Padding         string
}

func buildFailure(report *tt.FileReport, res *tt.TestResult, opts Options, formatter failureFormatter) string {
	f := res.Failure

	data := FailureData{
		Reason:     f.Reason.String(),
		TestName:   res.Name,
		File:       res.Location.File,
		Line:       res.Location.Line,
		Message:    f.Error(),
		Suggestion: f.Suggestion,
		DumpFile:   report.DumpFile,
	}
	if data.File == "" {
		data.File = report.FileName
	}
	if f.Statement != nil {
		data.Statement = f.Statement.String()
		data.File = f.Statement.Location.File
		data.Line = f.Statement.Location.Line
	}
	for _, name := range f.Bindings.Names() {
		v, _ := f.Bindings.Get(name)
		data.Bindings = append(data.Bindings, name+"="+v)
	}

	if opts.PrintDump {
		data.Passes = f.Passes
	}
	if res.Pass != nil {
		data.PassName = res.Pass.Name
		data.Snippet, data.EndOfPass = snippetWindow(res.Pass, f.LineIndex, opts.context())
		if opts.PrintDump {
			data.PassLines = numberedLines(res.Pass, 0, len(res.Pass.Lines), -1)
		}
	}

	data.MaxLineNumWidth = calculateMaxLineNumWidth(data.Line, data.Snippet, data.PassLines)
	data.Padding = strings.Repeat(" ", data.MaxLineNumWidth+1)

	funcMap := template.FuncMap{
		"header":     header,
		"testCase":   testCase,
		"statement":  statement,
		"snippet":    codeSnippet,
		"message":    message,
		"bindings":   bindings,
		"suggestion": suggestion,
		"passDump":   passDump,
		"passList":   passList,
	}

	failureTemplate := formatter.FailureTemplate()
	tmpl := template.Must(template.New("failure").Funcs(funcMap).Parse(failureTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting failure: %v", err)
	}
	return buf.String()
}

// snippetWindow returns the lines around index. The second result is true
// when index points past the last line of the pass.
func snippetWindow(pass *tt.Pass, index, context int) ([]SnippetLine, bool) {
	n := len(pass.Lines)
	if index >= n {
		return numberedLines(pass, max(n-context, 0), n, -1), true
	}
	if index < 0 {
		index = 0
	}
	return numberedLines(pass, max(index-context, 0), min(index+context+1, n), index), false
}

func numberedLines(pass *tt.Pass, start, end, marked int) []SnippetLine {
	lines := make([]SnippetLine, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, SnippetLine{
			Number: pass.AbsLine(i),
			Text:   pass.Lines[i],
			Marked: i == marked,
		})
	}
	return lines
}

// utils functions used in the text templates

func header(reason string, maxLineNumWidth int, filename string, line int) string {
	endString := errorStyle.Sprint("error: ")
	endString += ruleStyle.Sprintf("%s\n", reason)

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	endString += fileStyle.Sprintf("%s:%d\n", filename, line)
	return endString
}

func testCase(name, dumpFile, padding string) string {
	endString := lineStyle.Sprintf("%s= ", padding)
	endString += noStyle.Sprintf("test case: %s", name)
	if dumpFile != "" {
		endString += noStyle.Sprintf(" (%s)", dumpFile)
	}
	return endString + "\n"
}

func statement(stmt, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + noStyle.Sprintf("statement: %s\n", stmt)
}

func codeSnippet(lines []SnippetLine, endOfPass bool, maxLineNumWidth int, padding string) string {
	endString := lineStyle.Sprintf("%s|\n", padding)

	for _, line := range lines {
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, line.Number)
		endString += lineStyle.Sprintf("%s | ", lineNum) + line.Text + "\n"
		if line.Marked {
			endString += lineStyle.Sprintf("%s| ", padding)
			endString += messageStyle.Sprintf("%s\n", strings.Repeat("~", max(len(line.Text), 1)))
		}
	}
	if endOfPass {
		endString += lineStyle.Sprintf("%s| ", padding)
		endString += messageStyle.Sprint("<end of pass>\n")
	}
	return endString
}

func message(msg, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", msg)
}

func bindings(vars []string, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + noStyle.Sprintf("bindings: %s\n", strings.Join(vars, ", "))
}

func suggestion(name string) string {
	if name == "" {
		return ""
	}
	return suggestionStyle.Sprint("Suggestion: ") + noStyle.Sprintf("did you mean %q?\n", name)
}

func passDump(name string, lines []SnippetLine, maxLineNumWidth int) string {
	endString := suggestionStyle.Sprint("Pass: ") + noStyle.Sprintf("%s\n", name)
	for _, line := range lines {
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, line.Number)
		endString += lineStyle.Sprintf("%s | ", lineNum) + line.Text + "\n"
	}
	return endString
}

func passList(dumpFile string, names []string, padding string) string {
	endString := suggestionStyle.Sprint("Passes")
	if dumpFile != "" {
		endString += noStyle.Sprintf(" in %s", dumpFile)
	}
	endString += noStyle.Sprint(":\n")
	for _, name := range names {
		endString += lineStyle.Sprintf("%s| ", padding) + name + "\n"
	}
	return endString
}

func calculateMaxLineNumWidth(line int, groups ...[]SnippetLine) int {
	maxLine := line
	for _, group := range groups {
		for _, l := range group {
			maxLine = max(maxLine, l.Number)
		}
	}
	return len(fmt.Sprintf("%d", maxLine))
}
