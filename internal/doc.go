// Package internal holds the checking engine of tcheck.
//
// Engine owns a parsed c1visualizer dump and runs checker files against it.
// A checker file is a source file whose comments carry test cases:
//
//	/// CHECK-START: int Main.add(int, int) constant_folding (after)
//	/// CHECK-DAG: <<Const:i\d+>> IntConstant 3
//	/// CHECK:                    Return [<<Const>>]
//
// Each test case names a pass of the dump. Its statements are matched
// against the lines of that pass by the match package; the outcome of every
// test case is collected in a types.FileReport.
//
// Parsed checker files are kept in a Cache keyed by file content, so
// running the same file twice only matches it again. StartWatching uses the
// cache to re-check sources when they or the dump change on disk.
//
// Usage:
//
//	engine, err := internal.NewEngine(logger, "path/to/dump.cfg", internal.EngineConfig{})
//	if err != nil {
//	    // handle error
//	}
//
//	report, err := engine.Run("path/to/Main.java")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, result := range report.Failures() {
//	    fmt.Println(result.Failure)
//	}
package internal
