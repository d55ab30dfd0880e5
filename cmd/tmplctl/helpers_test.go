package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/internal/testutil"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/rsrc"
)

// testFile writes a resource file with a STR# list, a vers resource and
// the TMPL resources that describe both, and returns its path.
func testFile(t *testing.T) string {
	t.Helper()
	f := rsrc.New()
	add := func(r *types.Resource) {
		if err := f.Add(r); err != nil {
			t.Fatalf("add %s: %v", r, err)
		}
	}
	add(&types.Resource{Type: "TMPL", ID: 128, Name: "STR#", Data: testutil.TMPL(t,
		"Number of Strings", "OCNT",
		"*****", "LSTC",
		"The String", "PSTR",
		"*****", "LSTE",
	)})
	add(&types.Resource{Type: "TMPL", ID: 129, Name: "vers", Data: testutil.TMPL(t,
		"Major", "HBYT",
		"Minor", "HBYT",
		"Stage", "HBYT",
		"Development=$20", "CASE",
		"Alpha=$40", "CASE",
		"Beta=$60", "CASE",
		"Release=$80", "CASE",
		"Build", "UBYT",
		"Region", "DWRD",
		"Short version string", "PSTR",
		"Long version string", "PSTR",
	)})
	add(&types.Resource{Type: "STR#", ID: 128, Name: "Messages", Data: new(testutil.Buf).
		U16(2).PStr("Hello").PStr("Goodbye").Bytes()})
	add(&types.Resource{Type: "vers", ID: 1, Data: new(testutil.Buf).
		U8(1).U8(0x20).U8(0x80).U8(0).U16(0).PStr("1.2").PStr("1.2, Example").Bytes()})
	add(&types.Resource{Type: "ICON", ID: 128, Data: make([]byte, 128)})

	b, err := f.Bytes()
	if err != nil {
		t.Fatalf("encode resource file: %v", err)
	}
	return testutil.WriteTemp(t, "test.rsrc", b)
}

// resetFlags restores global flag state between tests.
func resetFlags() {
	verbose, quiet, jsonOut = false, false, false
	configPath, templatePath, supportPaths = "", "", nil
	dumpFormat, dumpOffsets, dumpNoTypes, dumpDepth, dumpFilter = "", false, false, 0, ""
	dumpMaxBytes = 32
	setDryRun = false
	templatesFile = ""
	cfg = defaultConfig()
	logger = zap.NewNop()
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return <-done, fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
