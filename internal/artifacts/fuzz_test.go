// internal/artifacts/fuzz_test.go
package artifacts_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	fuzz "github.com/AdaLogics/go-fuzz-headers"

	"github.com/xkilldash9x/uiharness/internal/artifacts"
)

// FuzzFileName checks that any test name maps to a single .png path element.
func FuzzFileName(f *testing.F) {
	f.Add([]byte("TestHome/links visible"))
	f.Add([]byte("../../etc/passwd"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		name, err := consumer.GetString()
		if err != nil {
			return
		}
		scoped, err := consumer.GetBool()
		if err != nil {
			scoped = false
		}
		ms, err := consumer.GetUint16()
		if err != nil {
			ms = 0
		}
		at := time.Date(2024, 1, 2, 3, 4, 5, int(ms%1000)*int(time.Millisecond), time.UTC)

		got := artifacts.FileName(name, scoped, at)

		if strings.ContainsAny(got, `/\`) {
			t.Fatalf("file name %q contains a path separator", got)
		}
		if !strings.HasSuffix(got, ".png") {
			t.Fatalf("file name %q lacks the .png suffix", got)
		}
		if scoped && !strings.Contains(got, "_element_") {
			t.Fatalf("scoped file name %q lacks the element marker", got)
		}
		if filepath.Dir(filepath.Join("shots", got)) != "shots" {
			t.Fatalf("file name %q escapes the artifact directory", got)
		}
	})
}
